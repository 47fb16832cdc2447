package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/chartsync/internal/formatter"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// syncTarget is the chart and playlist a command operates on.
type syncTarget struct {
	playlistID string
	genreID    int
	topN       int
}

// target resolves flags against config.toml.
func (r *Runner) target(cmd *cli.Command) (syncTarget, error) {
	t := syncTarget{
		playlistID: r.config.YouTube.PlaylistID,
		genreID:    r.config.Beatport.GenreID,
		topN:       r.config.Beatport.TopN,
	}
	if cmd.IsSet("playlist") {
		t.playlistID = cmd.String("playlist")
	}
	if g := cmd.Int("genre"); g > 0 {
		t.genreID = g
	}
	if n := cmd.Int("top"); n > 0 {
		t.topN = n
	}

	if t.genreID <= 0 || t.topN <= 0 {
		return t, fmt.Errorf("%w: genre %d top %d", shared.ErrInvalidArgument, t.genreID, t.topN)
	}
	return t, nil
}

// newReconciler builds a Reconciler with the configured pacing. reliable makes every progress
// update wait for the reader.
func (r *Runner) newReconciler(playlist Playlist, reliable bool) *tasks.Reconciler {
	removePacer, searchPacer := r.removePacer, r.searchPacer
	if removePacer == nil {
		removePacer = tasks.NewPacer(r.config.Pacing.RemoveDelay.Duration)
	}
	if searchPacer == nil {
		searchPacer = tasks.NewPacer(r.config.Pacing.SearchDelay.Duration)
	}
	return tasks.NewReconciler(tasks.ReconcilerOpts{
		Search:      playlist,
		Store:       playlist,
		RemovePacer: removePacer,
		SearchPacer: searchPacer,
		Clock:       r.now,
		Logger:      r.logger,

		ReliableProgress: reliable,
	})
}

// fetchChart reads the chart. Any failure is fatal to the run.
func (r *Runner) fetchChart(ctx context.Context, t syncTarget) ([]models.ChartEntry, error) {
	catalog, err := r.beatport()
	if err != nil {
		return nil, err
	}
	chart, err := catalog.FetchTopN(ctx, t.genreID, t.topN)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart: %w", err)
	}
	r.logger.Info("fetched chart", "genre", t.genreID, "entries", len(chart))
	return chart, nil
}

// Sync fetches the chart and reconciles the playlist with it.
//
// Per-item failures are reported but do not fail the command. Journaling is best effort.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	t, err := r.target(cmd)
	if err != nil {
		return err
	}
	if t.playlistID == "" {
		return fmt.Errorf("%w: playlist id (set youtube.playlist_id or --playlist)", shared.ErrMissingArgument)
	}

	if r.catalog == nil || r.playlist == nil {
		resolved := *r.config
		resolved.YouTube.PlaylistID = t.playlistID
		resolved.Beatport.GenreID, resolved.Beatport.TopN = t.genreID, t.topN
		if err := resolved.ValidateSync(); err != nil {
			return err
		}
	}

	if cmd.Bool("dry-run") {
		return r.dryRun(ctx, t, cmd.Bool("json"))
	}

	if cmd.Bool("tui") {
		return r.runTUI(ctx, t, true)
	}

	journal, closeJournal := r.openJournal()
	defer closeJournal()
	run := r.beginRun(journal, t)

	result, runErr := r.syncOnce(ctx, t, r.printProgress)
	r.finishRun(journal, run, result, runErr)

	if result != nil {
		if cmd.Bool("json") {
			out := struct {
				*tasks.SyncResult
				Stats         models.RunStats `json:"stats"`
				MetadataError string          `json:"metadata_error,omitempty"`
			}{SyncResult: result, Stats: result.Stats()}
			if result.MetadataErr != nil {
				out.MetadataError = result.MetadataErr.Error()
			}
			if err := r.writeJSON(out, true); err != nil {
				return err
			}
		} else {
			r.writePlainln("%s", formatter.RunSummary(result))
		}
	}
	return runErr
}

// syncOnce fetches the chart and runs the reconciler, handing progress to report.
func (r *Runner) syncOnce(ctx context.Context, t syncTarget, report func(<-chan tasks.ProgressUpdate)) (*tasks.SyncResult, error) {
	playlist, err := r.youtube(ctx)
	if err != nil {
		return nil, err
	}
	chart, err := r.fetchChart(ctx, t)
	if err != nil {
		return nil, err
	}
	return r.reconcile(ctx, t, playlist, chart, report)
}

func (r *Runner) reconcile(ctx context.Context, t syncTarget, playlist Playlist, chart []models.ChartEntry, report func(<-chan tasks.ProgressUpdate)) (*tasks.SyncResult, error) {
	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		report(progress)
	}()

	result, err := r.newReconciler(playlist, true).Run(ctx, t.playlistID, chart, r.config.Playlist, progress)
	close(progress)
	wg.Wait()
	return result, err
}

func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		r.writePlain("%s\n", update.Message)
	}
}

// dryRun reads the playlist and prints the diff without mutating anything.
func (r *Runner) dryRun(ctx context.Context, t syncTarget, asJSON bool) error {
	playlist, err := r.youtube(ctx)
	if err != nil {
		return err
	}
	chart, err := r.fetchChart(ctx, t)
	if err != nil {
		return err
	}

	scan, err := tasks.BuildIndex(ctx, playlist, t.playlistID)
	if err != nil {
		return err
	}
	diff := tasks.ComputeDiff(tasks.ChartIDs(chart), scan.Index.Keys())

	if asJSON {
		return r.writeJSON(diff, true)
	}

	byID := make(map[string]models.ChartEntry, len(chart))
	for _, entry := range chart {
		byID[entry.ID] = entry
	}

	r.writePlainHeader(fmt.Sprintf("Dry run: playlist %s", t.playlistID))
	r.writePlain("Items: %d (%d tracked, %d untagged)\n", scan.Total, len(scan.Index), scan.Untracked)
	r.writePlain("To remove: %d\n", len(diff.ToRemove))
	for _, id := range diff.ToRemove {
		r.writePlain("  - %s (item %s)\n", id, scan.Index[id])
	}
	r.writePlain("To add: %d\n", len(diff.ToAdd))
	for _, id := range diff.ToAdd {
		r.writePlain("  + %s %s\n", id, byID[id].DisplayTitle())
	}
	return nil
}

// openJournal opens the run journal. On failure a nil journal is returned and the sync proceeds.
func (r *Runner) openJournal() (*tasks.Journal, func()) {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("run journal unavailable", "error", err)
		return nil, func() {}
	}
	return tasks.NewJournal(db, r.logger), closeDB
}

func (r *Runner) beginRun(journal *tasks.Journal, t syncTarget) *models.SyncRun {
	if journal == nil {
		return nil
	}
	run, err := journal.Begin(t.playlistID, t.genreID, r.now())
	if err != nil {
		r.logger.Warn("failed to journal run start", "error", err)
		return nil
	}
	return run
}

func (r *Runner) finishRun(journal *tasks.Journal, run *models.SyncRun, result *tasks.SyncResult, runErr error) {
	if journal == nil || run == nil {
		return
	}
	if err := journal.Finish(run, result, runErr, r.now()); err != nil {
		r.logger.Warn("failed to journal run", "run", run.ID(), "error", err)
	}
}
