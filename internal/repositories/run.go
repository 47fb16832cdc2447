package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
)

// ErrRunNotFound is returned when no run matches the given id.
var ErrRunNotFound = errors.New("sync run not found")

const runColumns = `id, sequence, playlist_id, genre_id, chart_size, added, removed, not_found, failed,
	metadata_updated, status, error_message, started_at, finished_at`

// RunRepository implements models.Repository[*models.SyncRun] for the sync journal.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with a generated ID and sequence
func (r *RunRepository) Create(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `INSERT INTO sync_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.PlaylistID,
		run.GenreID,
		run.Stats.ChartSize,
		run.Stats.Added,
		run.Stats.Removed,
		run.Stats.NotFound,
		run.Stats.Failed,
		run.Stats.MetadataUpdated,
		run.Status,
		nullString(run.ErrorMessage),
		run.StartedAt(),
		run.FinishedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Update writes the counters, status and finish time of an existing run
func (r *RunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sync_runs
		SET chart_size = ?, added = ?, removed = ?, not_found = ?, failed = ?,
			metadata_updated = ?, status = ?, error_message = ?, finished_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Stats.ChartSize,
		run.Stats.Added,
		run.Stats.Removed,
		run.Stats.NotFound,
		run.Stats.Failed,
		run.Stats.MetadataUpdated,
		run.Status,
		nullString(run.ErrorMessage),
		run.FinishedAt(),
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	return expectOneRow(result, run.ID())
}

// Delete removes a run and, through the foreign key, its items
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sync_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}
	return expectOneRow(result, id)
}

// List retrieves runs newest first.
//
// Supported criteria: "playlist_id" (string), "status" ([models.RunStatus] or string), "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE 1 = 1`
	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	switch status := criteria["status"].(type) {
	case models.RunStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Latest returns the most recent run, or [ErrRunNotFound] when the journal is empty
func (r *RunRepository) Latest() (*models.SyncRun, error) {
	runs, err := r.List(map[string]any{"limit": 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return runs[0], nil
}

func scanRun(row rowScanner) (*models.SyncRun, error) {
	var (
		id           string
		sequence     int
		playlistID   string
		genreID      int
		stats        models.RunStats
		status       string
		errorMessage sql.NullString
		startedAt    time.Time
		finishedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &playlistID, &genreID,
		&stats.ChartSize, &stats.Added, &stats.Removed, &stats.NotFound, &stats.Failed, &stats.MetadataUpdated,
		&status, &errorMessage, &startedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run := models.NewSyncRun(playlistID, genreID, startedAt)
	run.SetID(id)
	run.SetSequence(sequence)
	run.Stats = stats
	run.Status = models.RunStatus(status)
	run.ErrorMessage = errorMessage.String
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		run.SetFinishedAt(&t)
	}

	return run, nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
