package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

var started = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		first := models.NewSyncRun("PL1", 13, started)
		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		second := models.NewSyncRun("PL1", 13, started.Add(time.Hour))
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if first.ID() == "" || first.ID() == second.ID() {
			t.Errorf("expected distinct generated ids, got %q and %q", first.ID(), second.ID())
		}
		if first.Sequence() != 1 || second.Sequence() != 2 {
			t.Errorf("expected sequences 1 and 2, got %d and %d", first.Sequence(), second.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewSyncRun("PL1", 13, started)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.PlaylistID != "PL1" || got.GenreID != 13 {
			t.Errorf("unexpected run %+v", got)
		}
		if got.Status != models.RunStatusRunning {
			t.Errorf("expected running status, got %s", got.Status)
		}
		if !got.StartedAt().Equal(started) {
			t.Errorf("expected start %v, got %v", started, got.StartedAt())
		}
		if got.FinishedAt() != nil {
			t.Errorf("expected no finish time, got %v", got.FinishedAt())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewSyncRun("PL1", 13, started)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		stats := models.RunStats{ChartSize: 100, Added: 3, Removed: 2, NotFound: 1, Failed: 1, MetadataUpdated: true}
		run.Finish(stats, errors.New("context canceled"), started.Add(90*time.Second))
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Stats != stats {
			t.Errorf("stats = %+v, want %+v", got.Stats, stats)
		}
		if got.Status != models.RunStatusFailed || got.ErrorMessage != "context canceled" {
			t.Errorf("unexpected status %s (%q)", got.Status, got.ErrorMessage)
		}
		if got.Duration() != 90*time.Second {
			t.Errorf("expected 90s duration, got %v", got.Duration())
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		for i, playlist := range []string{"PL1", "PL2", "PL1"} {
			run := models.NewSyncRun(playlist, 13, started.Add(time.Duration(i)*time.Hour))
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
			if i == 0 {
				run.Finish(models.RunStats{}, nil, run.StartedAt())
				if err := repo.Update(run); err != nil {
					t.Fatalf("failed to update run: %v", err)
				}
			}
		}

		tt := []struct {
			name     string
			criteria map[string]any
			want     []int
		}{
			{name: "all newest first", criteria: nil, want: []int{3, 2, 1}},
			{name: "by playlist", criteria: map[string]any{"playlist_id": "PL1"}, want: []int{3, 1}},
			{name: "by status", criteria: map[string]any{"status": models.RunStatusCompleted}, want: []int{1}},
			{name: "by status string", criteria: map[string]any{"status": "running"}, want: []int{3, 2}},
			{name: "limit", criteria: map[string]any{"limit": 2}, want: []int{3, 2}},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				runs, err := repo.List(tc.criteria)
				if err != nil {
					t.Fatalf("failed to list runs: %v", err)
				}
				if len(runs) != len(tc.want) {
					t.Fatalf("expected %d runs, got %d", len(tc.want), len(runs))
				}
				for i, run := range runs {
					if run.Sequence() != tc.want[i] {
						t.Errorf("run %d: expected sequence %d, got %d", i, tc.want[i], run.Sequence())
					}
				}
			})
		}
	})

	t.Run("Latest", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Latest(); !errors.Is(err, ErrRunNotFound) {
			t.Fatalf("expected ErrRunNotFound on empty journal, got %v", err)
		}

		for i := range 2 {
			if err := repo.Create(models.NewSyncRun("PL1", 13, started.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}
		latest, err := repo.Latest()
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if latest.Sequence() != 2 {
			t.Errorf("expected latest sequence 2, got %d", latest.Sequence())
		}
	})

	t.Run("Delete cascades to items", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRunRepository(db)
		items := NewRunItemRepository(db)

		run := models.NewSyncRun("PL1", 13, started)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if err := items.CreateBatch([]*models.SyncRunItem{models.NewSyncRunItem(run.ID(), models.ActionAdd, "1", nil)}); err != nil {
			t.Fatalf("failed to create items: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		got, err := items.ListByRun(run.ID())
		if err != nil {
			t.Fatalf("failed to list items: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected items to be removed with the run, got %d", len(got))
		}
	})
}

func TestRunRepositoryErrors(t *testing.T) {
	t.Run("Create validation", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Create(models.NewSyncRun("", 13, started)); err == nil {
			t.Fatal("expected validation error for empty playlist id")
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Get("missing"); !errors.Is(err, ErrRunNotFound) {
			t.Fatalf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Update not found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewSyncRun("PL1", 13, started)
		run.SetID("missing")
		if err := repo.Update(run); !errors.Is(err, ErrRunNotFound) {
			t.Fatalf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Delete not found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Delete("missing"); !errors.Is(err, ErrRunNotFound) {
			t.Fatalf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRunRepository(db)
		db.Close()

		if err := repo.Create(models.NewSyncRun("PL1", 13, started)); err == nil {
			t.Error("expected error creating run on closed database")
		}
		if _, err := repo.List(nil); err == nil {
			t.Error("expected error listing runs on closed database")
		}
	})
}

func TestRunItemRepository(t *testing.T) {
	t.Run("CreateBatch and ListByRun", func(t *testing.T) {
		db := setupTestDB(t)
		runs := NewRunRepository(db)
		repo := NewRunItemRepository(db)

		run := models.NewSyncRun("PL1", 13, started)
		if err := runs.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		removed := models.NewSyncRunItem(run.ID(), models.ActionRemove, "100", nil)
		removed.ItemID = "item100"
		added := models.NewSyncRunItem(run.ID(), models.ActionAdd, "300", errors.New("quota exceeded"))
		added.VideoID = "v300"
		missing := models.NewSyncRunItem(run.ID(), models.ActionNotFound, "400", nil)

		if err := repo.CreateBatch([]*models.SyncRunItem{removed, added, missing}); err != nil {
			t.Fatalf("failed to create items: %v", err)
		}
		if removed.ID() == "" {
			t.Error("expected generated item id")
		}

		items, err := repo.ListByRun(run.ID())
		if err != nil {
			t.Fatalf("failed to list items: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(items))
		}

		if items[0].Action != models.ActionRemove || items[0].ItemID != "item100" || items[0].Failed() {
			t.Errorf("unexpected removal %+v", items[0])
		}
		if items[1].VideoID != "v300" || !items[1].Failed() || items[1].Error != "quota exceeded" {
			t.Errorf("unexpected addition %+v", items[1])
		}
		if items[2].Action != models.ActionNotFound || items[2].VideoID != "" {
			t.Errorf("unexpected miss %+v", items[2])
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		repo := NewRunItemRepository(setupTestDB(t))
		if err := repo.CreateBatch(nil); err != nil {
			t.Errorf("expected no error for empty batch, got %v", err)
		}
	})

	t.Run("invalid item writes nothing", func(t *testing.T) {
		db := setupTestDB(t)
		runs := NewRunRepository(db)
		repo := NewRunItemRepository(db)

		run := models.NewSyncRun("PL1", 13, started)
		if err := runs.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		batch := []*models.SyncRunItem{
			models.NewSyncRunItem(run.ID(), models.ActionAdd, "1", nil),
			models.NewSyncRunItem(run.ID(), models.ItemAction("bogus"), "2", nil),
		}
		if err := repo.CreateBatch(batch); err == nil {
			t.Fatal("expected validation error")
		}

		items, err := repo.ListByRun(run.ID())
		if err != nil {
			t.Fatalf("failed to list items: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected no items written, got %d", len(items))
		}
	})

	t.Run("unknown run is rejected", func(t *testing.T) {
		repo := NewRunItemRepository(setupTestDB(t))
		err := repo.CreateBatch([]*models.SyncRunItem{models.NewSyncRunItem("missing", models.ActionAdd, "1", nil)})
		if err == nil {
			t.Fatal("expected foreign key violation")
		}
	})
}
