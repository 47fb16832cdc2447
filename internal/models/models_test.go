package models

import (
	"errors"
	"testing"
	"time"
)

func TestChartEntry(t *testing.T) {
	tt := []struct {
		name      string
		entry     ChartEntry
		wantQuery string
		wantTitle string
	}{
		{
			name:      "all fields",
			entry:     ChartEntry{Name: "Shaman", MixName: "Original Mix", ISRC: "GBKQU2212345", Artists: []string{"Vini Vici", "Astrix"}},
			wantQuery: "Shaman Original Mix GBKQU2212345",
			wantTitle: "Vini Vici, Astrix - Shaman (Original Mix)",
		},
		{
			name:      "empty fields keep their slot",
			entry:     ChartEntry{Name: "Shaman"},
			wantQuery: "Shaman  ",
			wantTitle: "Shaman",
		},
		{
			name:      "missing mix name",
			entry:     ChartEntry{Name: "Shaman", ISRC: "X1"},
			wantQuery: "Shaman  X1",
			wantTitle: "Shaman",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.entry.SearchQuery(); got != tc.wantQuery {
				t.Errorf("SearchQuery() = %q, want %q", got, tc.wantQuery)
			}
			if got := tc.entry.DisplayTitle(); got != tc.wantTitle {
				t.Errorf("DisplayTitle() = %q, want %q", got, tc.wantTitle)
			}
		})
	}
}

func TestSyncRun(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Finish success", func(t *testing.T) {
		run := NewSyncRun("PL1", 13, start)
		if err := run.Validate(); err != nil {
			t.Fatalf("Validate() error: %v", err)
		}
		if run.UpdatedAt() != start {
			t.Errorf("UpdatedAt() should equal start before finish")
		}

		run.Finish(RunStats{Added: 2}, nil, start.Add(3*time.Second))
		if run.Status != RunStatusCompleted {
			t.Errorf("expected completed, got %s", run.Status)
		}
		if run.Duration() != 3*time.Second {
			t.Errorf("expected 3s duration, got %v", run.Duration())
		}
		if run.Stats.Added != 2 {
			t.Errorf("expected stats to be stored")
		}
	})

	t.Run("Finish failure", func(t *testing.T) {
		run := NewSyncRun("PL1", 13, start)
		run.Finish(RunStats{}, errors.New("boom"), start)
		if run.Status != RunStatusFailed || run.ErrorMessage != "boom" {
			t.Errorf("expected failed run with message, got %s %q", run.Status, run.ErrorMessage)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := NewSyncRun("", 13, start).Validate(); err == nil {
			t.Error("expected error for empty playlist id")
		}
		if err := NewSyncRun("PL1", 13, time.Time{}).Validate(); err == nil {
			t.Error("expected error for zero start time")
		}
		run := NewSyncRun("PL1", 13, start)
		run.Status = "paused"
		if err := run.Validate(); err == nil {
			t.Error("expected error for unknown status")
		}
	})
}

func TestSyncRunItem(t *testing.T) {
	ok := NewSyncRunItem("run", ActionAdd, "300", nil)
	if ok.Failed() {
		t.Error("item without error should not be failed")
	}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	bad := NewSyncRunItem("run", ActionRemove, "100", errors.New("forbidden"))
	if !bad.Failed() || bad.Error != "forbidden" {
		t.Errorf("expected failed item, got %+v", bad)
	}

	if err := NewSyncRunItem("run", "skip", "1", nil).Validate(); err == nil {
		t.Error("expected error for unknown action")
	}
	if err := NewSyncRunItem("", ActionAdd, "1", nil).Validate(); err == nil {
		t.Error("expected error for empty run id")
	}
}
