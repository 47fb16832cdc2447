package models

import (
	"fmt"
	"time"
)

// RunStatus is the final state of a [SyncRun].
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ItemAction names what a [SyncRunItem] attempted.
type ItemAction string

const (
	ActionRemove   ItemAction = "remove"
	ActionAdd      ItemAction = "add"
	ActionNotFound ItemAction = "not_found"
)

// RunStats are the counters of a reconciliation run.
type RunStats struct {
	ChartSize       int  `json:"chart_size"`
	Added           int  `json:"added"`
	Removed         int  `json:"removed"`
	NotFound        int  `json:"not_found"`
	Failed          int  `json:"failed"`
	MetadataUpdated bool `json:"metadata_updated"`
}

// SyncRun is a journaled reconciliation run.
type SyncRun struct {
	id           string
	sequence     int
	PlaylistID   string
	GenreID      int
	Stats        RunStats
	Status       RunStatus
	ErrorMessage string
	startedAt    time.Time
	finishedAt   *time.Time
}

// NewSyncRun creates a running [SyncRun] started at the given time.
func NewSyncRun(playlistID string, genreID int, startedAt time.Time) *SyncRun {
	return &SyncRun{
		PlaylistID: playlistID,
		GenreID:    genreID,
		Status:     RunStatusRunning,
		startedAt:  startedAt.UTC(),
	}
}

func (r *SyncRun) ID() string               { return r.id }
func (r *SyncRun) SetID(id string)          { r.id = id }
func (r *SyncRun) Sequence() int            { return r.sequence }
func (r *SyncRun) SetSequence(seq int)      { r.sequence = seq }
func (r *SyncRun) CreatedAt() time.Time     { return r.startedAt }
func (r *SyncRun) StartedAt() time.Time     { return r.startedAt }
func (r *SyncRun) FinishedAt() *time.Time   { return r.finishedAt }
func (r *SyncRun) SetStartedAt(t time.Time) { r.startedAt = t.UTC() }

// UpdatedAt returns the finish time, or the start time while the run is in progress.
func (r *SyncRun) UpdatedAt() time.Time {
	if r.finishedAt != nil {
		return *r.finishedAt
	}
	return r.startedAt
}

// Finish records the outcome of the run.
//
// A non-nil err marks the run failed.
func (r *SyncRun) Finish(stats RunStats, err error, at time.Time) {
	at = at.UTC()
	r.Stats = stats
	r.finishedAt = &at
	r.Status = RunStatusCompleted
	if err != nil {
		r.Status = RunStatusFailed
		r.ErrorMessage = err.Error()
	}
}

// SetFinishedAt is used when loading a run from storage.
func (r *SyncRun) SetFinishedAt(t *time.Time) { r.finishedAt = t }

// Duration is zero until the run finishes.
func (r *SyncRun) Duration() time.Duration {
	if r.finishedAt == nil {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}

func (r *SyncRun) Validate() error {
	if r.PlaylistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("start time is required")
	}
	switch r.Status {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
	default:
		return fmt.Errorf("unknown run status %q", r.Status)
	}
	return nil
}

// SyncRunItem is a single per-item outcome of a [SyncRun].
type SyncRunItem struct {
	id         string
	RunID      string
	Action     ItemAction
	ExternalID string
	ItemID     string
	VideoID    string
	Error      string
	createdAt  time.Time
}

// NewSyncRunItem creates an item outcome; a nil err means the action succeeded.
func NewSyncRunItem(runID string, action ItemAction, externalID string, err error) *SyncRunItem {
	item := &SyncRunItem{
		RunID:      runID,
		Action:     action,
		ExternalID: externalID,
		createdAt:  time.Now().UTC(),
	}
	if err != nil {
		item.Error = err.Error()
	}
	return item
}

func (i *SyncRunItem) ID() string               { return i.id }
func (i *SyncRunItem) SetID(id string)          { i.id = id }
func (i *SyncRunItem) CreatedAt() time.Time     { return i.createdAt }
func (i *SyncRunItem) UpdatedAt() time.Time     { return i.createdAt }
func (i *SyncRunItem) SetCreatedAt(t time.Time) { i.createdAt = t.UTC() }

// Failed reports whether the attempted action returned an error.
func (i *SyncRunItem) Failed() bool { return i.Error != "" }

func (i *SyncRunItem) Validate() error {
	if i.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if i.ExternalID == "" {
		return fmt.Errorf("external id is required")
	}
	switch i.Action {
	case ActionRemove, ActionAdd, ActionNotFound:
	default:
		return fmt.Errorf("unknown action %q", i.Action)
	}
	return nil
}
