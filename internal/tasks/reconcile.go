package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/services"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/synctag"
	"golang.org/x/time/rate"
)

// searchResults is the number of candidates requested per chart entry. The first hit is used as is.
const searchResults = 1

// Pacer blocks until the next remote call may proceed.
//
// [rate.Limiter] satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer returns a limiter that lets the first call through and spaces later ones by delay.
//
// A non-positive delay disables pacing.
func NewPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// ItemOutcome is the result of one attempted removal or addition.
type ItemOutcome struct {
	Action     models.ItemAction `json:"action"`
	ExternalID string            `json:"external_id"`
	ItemID     string            `json:"item_id,omitempty"`
	VideoID    string            `json:"video_id,omitempty"`
	VideoTitle string            `json:"video_title,omitempty"`
	Query      string            `json:"query,omitempty"`
	Err        error             `json:"-"`
}

// MarshalJSON adds the error text of a failed outcome as "error".
func (o ItemOutcome) MarshalJSON() ([]byte, error) {
	type outcome ItemOutcome
	out := struct {
		outcome
		Error string `json:"error,omitempty"`
	}{outcome: outcome(o)}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}

// SyncResult is everything a reconciliation run did.
type SyncResult struct {
	PlaylistID  string              `json:"playlist_id"`
	ChartSize   int                 `json:"chart_size"`
	Scan        *IndexScan          `json:"-"`
	Diff        Diff                `json:"diff"`
	Removals    []ItemOutcome       `json:"removals"`
	Additions   []ItemOutcome       `json:"additions"`
	Metadata    models.PlaylistMeta `json:"metadata"`
	MetadataErr error               `json:"-"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
}

// Stats summarizes the outcomes.
func (r *SyncResult) Stats() models.RunStats {
	stats := models.RunStats{ChartSize: r.ChartSize}
	for _, o := range r.Removals {
		if o.Err != nil {
			stats.Failed++
		} else {
			stats.Removed++
		}
	}
	for _, o := range r.Additions {
		switch {
		case o.Action == models.ActionNotFound:
			stats.NotFound++
		case o.Err != nil:
			stats.Failed++
		default:
			stats.Added++
		}
	}
	stats.MetadataUpdated = r.MetadataErr == nil && !r.Metadata.IsZero()
	return stats
}

// Outcomes returns removals followed by additions.
func (r *SyncResult) Outcomes() []ItemOutcome {
	out := make([]ItemOutcome, 0, len(r.Removals)+len(r.Additions))
	out = append(out, r.Removals...)
	return append(out, r.Additions...)
}

// ReconcilerOpts configures a [Reconciler].
type ReconcilerOpts struct {
	Search      services.VideoSearch
	Store       services.PlaylistStore
	RemovePacer Pacer
	SearchPacer Pacer
	Clock       func() time.Time
	Logger      *log.Logger

	// ReliableProgress blocks each update until it is read or ctx is done.
	// The caller must drain the channel for the whole run.
	ReliableProgress bool
}

// Reconciler brings a playlist in line with a chart.
type Reconciler struct {
	search      services.VideoSearch
	store       services.PlaylistStore
	removePacer Pacer
	searchPacer Pacer
	now         func() time.Time
	logger      *log.Logger
	reliable    bool
}

// NewReconciler creates a Reconciler. Missing pacers default to one second, the clock to [time.Now].
func NewReconciler(opts ReconcilerOpts) *Reconciler {
	r := &Reconciler{
		search:      opts.Search,
		store:       opts.Store,
		removePacer: opts.RemovePacer,
		searchPacer: opts.SearchPacer,
		now:         opts.Clock,
		logger:      opts.Logger,
		reliable:    opts.ReliableProgress,
	}
	if r.removePacer == nil {
		r.removePacer = NewPacer(time.Second)
	}
	if r.searchPacer == nil {
		r.searchPacer = NewPacer(time.Second)
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	r.logger = shared.WithLogger(r.logger, "component", "reconciler")
	return r
}

// Run reconciles the playlist with chart.
//
// The returned error is non-nil only when the playlist could not be read (nothing was changed)
// or ctx was cancelled mid-run (the partial result is returned alongside).
func (r *Reconciler) Run(ctx context.Context, playlistID string, chart []models.ChartEntry, playlist shared.PlaylistConfig, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if r.store == nil || r.search == nil {
		return nil, fmt.Errorf("%w: playlist store and video search are required", shared.ErrServiceUnavailable)
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	result := &SyncResult{
		PlaylistID: playlistID,
		ChartSize:  len(chart),
		StartedAt:  r.now().UTC(),
	}

	r.report(ctx, progress, indexStartUpdate(playlistID))
	scan, err := BuildIndex(ctx, r.store, playlistID)
	if err != nil {
		return nil, err
	}
	result.Scan = scan
	for _, item := range scan.Shadowed {
		r.logger.Warn("duplicate tag, item left untouched", "item", item.ID, "note", item.Note)
	}
	r.logger.Info("indexed playlist", "playlist", playlistID, "tracked", len(scan.Index), "items", scan.Total)
	r.report(ctx, progress, indexDoneUpdate(scan))

	result.Diff = ComputeDiff(ChartIDs(chart), scan.Index.Keys())
	r.logger.Info("computed diff", "add", len(result.Diff.ToAdd), "remove", len(result.Diff.ToRemove))
	r.report(ctx, progress, diffUpdate(result.Diff))

	if err := r.applyRemovals(ctx, scan.Index, result, progress); err != nil {
		result.FinishedAt = r.now().UTC()
		return result, err
	}
	if err := r.applyAdditions(ctx, playlistID, chart, result, progress); err != nil {
		result.FinishedAt = r.now().UTC()
		return result, err
	}

	r.updateMetadata(ctx, playlistID, playlist, result, progress)

	result.FinishedAt = r.now().UTC()
	r.report(ctx, progress, doneUpdate(result))
	return result, nil
}

// applyRemovals deletes the item of every id in the diff's removal set.
//
// Only a cancelled context stops the loop.
func (r *Reconciler) applyRemovals(ctx context.Context, index ExistingIndex, result *SyncResult, progress chan<- ProgressUpdate) error {
	total := len(result.Diff.ToRemove)
	for i, id := range result.Diff.ToRemove {
		if err := r.removePacer.Wait(ctx); err != nil {
			return fmt.Errorf("removal interrupted: %w", err)
		}

		outcome := ItemOutcome{Action: models.ActionRemove, ExternalID: id, ItemID: index[id]}
		if err := r.store.DeleteItem(ctx, outcome.ItemID); err != nil {
			outcome.Err = err
			r.logger.Error("failed to remove track", "track", id, "item", outcome.ItemID, "error", err)
		} else {
			r.logger.Info("removed track", "track", id, "item", outcome.ItemID)
		}

		result.Removals = append(result.Removals, outcome)
		r.report(ctx, progress, removeUpdate(i+1, total, outcome))
	}
	return nil
}

// applyAdditions searches for and inserts a video for each chart entry in the diff's addition set, in chart order.
//
// Only a cancelled context stops the loop.
func (r *Reconciler) applyAdditions(ctx context.Context, playlistID string, chart []models.ChartEntry, result *SyncResult, progress chan<- ProgressUpdate) error {
	pending := make(map[string]struct{}, len(result.Diff.ToAdd))
	for _, id := range result.Diff.ToAdd {
		pending[id] = struct{}{}
	}

	total := len(pending)
	step := 0
	for _, entry := range chart {
		if _, ok := pending[entry.ID]; !ok {
			continue
		}
		delete(pending, entry.ID)
		step++

		if err := r.searchPacer.Wait(ctx); err != nil {
			return fmt.Errorf("addition interrupted: %w", err)
		}

		r.report(ctx, progress, searchUpdate(step, total, entry))
		outcome := r.addEntry(ctx, playlistID, entry)
		result.Additions = append(result.Additions, outcome)
		r.report(ctx, progress, addUpdate(step, total, outcome))
	}
	return nil
}

func (r *Reconciler) addEntry(ctx context.Context, playlistID string, entry models.ChartEntry) ItemOutcome {
	outcome := ItemOutcome{Action: models.ActionAdd, ExternalID: entry.ID, Query: entry.SearchQuery()}

	r.logger.Debug("searching", "track", entry.ID, "query", outcome.Query)
	videos := r.search.Search(ctx, outcome.Query, searchResults)
	if len(videos) == 0 {
		outcome.Action = models.ActionNotFound
		r.logger.Warn("no video found", "track", entry.ID, "query", outcome.Query)
		return outcome
	}

	video := videos[0]
	outcome.VideoID = video.VideoID
	outcome.VideoTitle = video.Title

	if err := r.store.InsertItem(ctx, playlistID, video, synctag.Format(entry.ID)); err != nil {
		outcome.Err = err
		r.logger.Error("failed to add track", "track", entry.ID, "video", video.VideoID, "error", err)
		return outcome
	}

	r.logger.Info("added track", "track", entry.ID, "video", video.VideoID, "title", video.Title)
	return outcome
}

// updateMetadata rewrites the playlist title and description. A failure is recorded, never returned.
func (r *Reconciler) updateMetadata(ctx context.Context, playlistID string, playlist shared.PlaylistConfig, result *SyncResult, progress chan<- ProgressUpdate) {
	meta := models.PlaylistMeta{
		Title:       playlist.Title,
		Description: playlist.RenderDescription(r.now()),
	}
	result.Metadata = meta

	if err := r.store.UpdatePlaylistMetadata(ctx, playlistID, meta); err != nil {
		result.MetadataErr = err
		r.logger.Error("failed to update playlist metadata", "playlist", playlistID, "error", err)
	} else {
		r.logger.Info("updated playlist metadata", "playlist", playlistID, "title", meta.Title)
	}
	r.report(ctx, progress, metadataUpdate(meta, result.MetadataErr))
}
