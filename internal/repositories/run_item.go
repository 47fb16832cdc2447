package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
)

// RunItemRepository stores the per-item outcomes of a run.
type RunItemRepository struct {
	db *sql.DB
}

// NewRunItemRepository creates a new RunItemRepository with the given database connection
func NewRunItemRepository(db *sql.DB) *RunItemRepository {
	return &RunItemRepository{db: db}
}

// CreateBatch inserts items in a single transaction. Every item is validated before anything is written.
func (r *RunItemRepository) CreateBatch(items []*models.SyncRunItem) error {
	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO sync_run_items (id, run_id, action, external_id, item_id, video_id, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = shared.GenerateID()
		_, err := stmt.Exec(
			ids[i],
			item.RunID,
			item.Action,
			item.ExternalID,
			nullString(item.ItemID),
			nullString(item.VideoID),
			nullString(item.Error),
			item.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run item %s: %w", item.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run items: %w", err)
	}

	for i, item := range items {
		item.SetID(ids[i])
	}
	return nil
}

// ListByRun returns the items of a run in insertion order
func (r *RunItemRepository) ListByRun(runID string) ([]*models.SyncRunItem, error) {
	query := `
		SELECT id, run_id, action, external_id, item_id, video_id, error_message, created_at
		FROM sync_run_items
		WHERE run_id = ?
		ORDER BY rowid ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run items: %w", err)
	}
	defer rows.Close()

	var items []*models.SyncRunItem
	for rows.Next() {
		var (
			id, run, action, externalID string
			itemID, videoID, errMsg     sql.NullString
			createdAt                   time.Time
		)
		if err := rows.Scan(&id, &run, &action, &externalID, &itemID, &videoID, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run item: %w", err)
		}

		item := models.NewSyncRunItem(run, models.ItemAction(action), externalID, nil)
		item.SetID(id)
		item.SetCreatedAt(createdAt)
		item.ItemID = itemID.String
		item.VideoID = videoID.String
		item.Error = errMsg.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}
