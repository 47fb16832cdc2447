package tasks

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/repositories"
	"github.com/desertthunder/chartsync/internal/shared"
)

// Journal writes run history to the local database.
//
// Nothing here is read back during a sync.
type Journal struct {
	runs   *repositories.RunRepository
	items  *repositories.RunItemRepository
	logger *log.Logger
}

// NewJournal creates a Journal on db.
func NewJournal(db *sql.DB, logger *log.Logger) *Journal {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Journal{
		runs:   repositories.NewRunRepository(db),
		items:  repositories.NewRunItemRepository(db),
		logger: shared.WithLogger(logger, "component", "journal"),
	}
}

// Begin records a running sync.
func (j *Journal) Begin(playlistID string, genreID int, at time.Time) (*models.SyncRun, error) {
	run := models.NewSyncRun(playlistID, genreID, at)
	if err := j.runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	j.logger.Debug("run started", "run", run.ID(), "sequence", run.Sequence())
	return run, nil
}

// Finish stores the outcome of run. result may be nil when the sync failed before reading the playlist.
func (j *Journal) Finish(run *models.SyncRun, result *SyncResult, runErr error, at time.Time) error {
	var stats models.RunStats
	if result != nil {
		stats = result.Stats()
	}
	run.Finish(stats, runErr, at)

	var errs []error
	if err := j.runs.Update(run); err != nil {
		errs = append(errs, fmt.Errorf("failed to finish run: %w", err))
	}
	if result != nil {
		if err := j.items.CreateBatch(RunItems(run.ID(), result)); err != nil {
			errs = append(errs, fmt.Errorf("failed to record run items: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	j.logger.Debug("run recorded", "run", run.ID(), "status", run.Status)
	return nil
}

// History returns the most recent runs, newest first. A non-positive limit returns all of them.
func (j *Journal) History(limit int) ([]*models.SyncRun, error) {
	return j.runs.List(map[string]any{"limit": limit})
}

// Items returns the recorded outcomes of a run.
func (j *Journal) Items(runID string) ([]*models.SyncRunItem, error) {
	return j.items.ListByRun(runID)
}

// RunItems converts the outcomes of result into journal rows for runID.
func RunItems(runID string, result *SyncResult) []*models.SyncRunItem {
	outcomes := result.Outcomes()
	items := make([]*models.SyncRunItem, 0, len(outcomes))
	for _, o := range outcomes {
		item := models.NewSyncRunItem(runID, o.Action, o.ExternalID, o.Err)
		item.ItemID = o.ItemID
		item.VideoID = o.VideoID
		items = append(items, item)
	}
	return items
}
