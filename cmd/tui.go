package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/chartsync/internal/formatter"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/tasks"
	"github.com/desertthunder/chartsync/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/chartsync-tui.log"

// TUI launches the interactive chart browser and sync monitor.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	t, err := r.target(cmd)
	if err != nil {
		return err
	}
	if t.playlistID == "" {
		return fmt.Errorf("%w: playlist id (set youtube.playlist_id or --playlist)", shared.ErrMissingArgument)
	}
	return r.runTUI(ctx, t, false)
}

// runTUI hands the terminal to the bubbletea program. autoStart syncs as soon as the chart arrives.
func (r *Runner) runTUI(ctx context.Context, t syncTarget, autoStart bool) error {
	// Logs go to a file so they don't interfere with rendering.
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	playlist, err := r.youtube(ctx)
	if err != nil {
		return err
	}

	journal, closeJournal := r.openJournal()
	defer closeJournal()

	label := &formatter.ChartExport{Genre: r.genre(ctx, t.genreID), TopN: t.topN}
	model := ui.NewModel(ctx, ui.Options{
		Title:      fmt.Sprintf("%s Top %d", label.Title(), label.TopN),
		PlaylistID: t.playlistID,
		AutoStart:  autoStart,
		FetchChart: func(ctx context.Context) ([]models.ChartEntry, error) {
			return r.fetchChart(ctx, t)
		},
		Sync: func(ctx context.Context, chart []models.ChartEntry, progress chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error) {
			run := r.beginRun(journal, t)
			result, err := r.newReconciler(playlist, false).Run(ctx, t.playlistID, chart, r.config.Playlist, progress)
			r.finishRun(journal, run, result, err)
			return result, err
		},
	})

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	result, err := model.Result()
	if result != nil {
		r.writePlain("%s\n", formatter.RunSummary(result))
	}
	return err
}
