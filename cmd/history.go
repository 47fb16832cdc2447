package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/chartsync/internal/formatter"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// History lists journaled runs, or the item outcomes of one run with --run.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()
	journal := tasks.NewJournal(db, r.logger)

	if runID := cmd.String("run"); runID != "" {
		return r.runItems(journal, runID, cmd.Bool("json"))
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", shared.ErrInvalidArgument)
	}

	runs, err := journal.History(limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type runJSON struct {
			ID         string `json:"id"`
			Sequence   int    `json:"sequence"`
			PlaylistID string `json:"playlist_id"`
			GenreID    int    `json:"genre_id"`
			Status     string `json:"status"`
			Error      string `json:"error,omitempty"`
			StartedAt  string `json:"started_at"`
			Stats      any    `json:"stats"`
		}
		out := make([]runJSON, 0, len(runs))
		for _, run := range runs {
			out = append(out, runJSON{
				ID:         run.ID(),
				Sequence:   run.Sequence(),
				PlaylistID: run.PlaylistID,
				GenreID:    run.GenreID,
				Status:     string(run.Status),
				Error:      run.ErrorMessage,
				StartedAt:  run.StartedAt().Format("2006-01-02T15:04:05Z07:00"),
				Stats:      run.Stats,
			})
		}
		return r.writeJSON(out, true)
	}

	return r.writePlain("%s", formatter.HistoryTable(runs))
}

func (r *Runner) runItems(journal *tasks.Journal, runID string, asJSON bool) error {
	items, err := journal.Items(runID)
	if err != nil {
		return err
	}

	if asJSON {
		type itemJSON struct {
			Action     string `json:"action"`
			ExternalID string `json:"external_id"`
			ItemID     string `json:"item_id,omitempty"`
			VideoID    string `json:"video_id,omitempty"`
			Error      string `json:"error,omitempty"`
		}
		out := make([]itemJSON, 0, len(items))
		for _, it := range items {
			out = append(out, itemJSON{string(it.Action), it.ExternalID, it.ItemID, it.VideoID, it.Error})
		}
		return r.writeJSON(out, true)
	}

	r.writePlainHeader(fmt.Sprintf("Run %s", runID))
	if len(items) == 0 {
		return r.writePlain("No item outcomes recorded.\n")
	}
	for _, it := range items {
		mark := "✓"
		if it.Failed() {
			mark = "✗"
		}
		r.writePlain("%s %-9s %s", mark, it.Action, it.ExternalID)
		if it.VideoID != "" {
			r.writePlain(" → %s", it.VideoID)
		}
		if it.Error != "" {
			r.writePlain(" (%s)", it.Error)
		}
		r.writePlain("\n")
	}
	return nil
}
