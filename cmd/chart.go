package main

import (
	"context"

	"github.com/desertthunder/chartsync/internal/formatter"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/synctag"
	"github.com/urfave/cli/v3"
)

// Chart fetches the genre chart and prints or exports it.
func (r *Runner) Chart(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("list-genres") {
		return r.listGenres(ctx)
	}
	if id := cmd.String("track"); id != "" {
		return r.showTrack(ctx, id, cmd.Bool("json"))
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	t, err := r.target(cmd)
	if err != nil {
		return err
	}

	chart, err := r.fetchChart(ctx, t)
	if err != nil {
		return err
	}

	export := &formatter.ChartExport{
		Genre:     r.genre(ctx, t.genreID),
		TopN:      t.topN,
		FetchedAt: r.now().UTC(),
		Entries:   chart,
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(export, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("chart exported", "path", path, "entries", len(chart))
		return r.writePlain("✓ Exported %d tracks to %s\n", len(chart), path)
	}

	data, err := formatter.Export(export, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// genre looks up the genre name. Lookup failures leave only the id set.
func (r *Runner) genre(ctx context.Context, id int) models.Genre {
	genre := models.Genre{ID: id}
	catalog, err := r.beatport()
	if err != nil {
		return genre
	}
	genres, err := catalog.Genres(ctx)
	if err != nil {
		r.logger.Debug("genre lookup failed", "genre", id, "error", err)
		return genre
	}
	for _, g := range genres {
		if g.ID == id {
			return g
		}
	}
	return genre
}

func (r *Runner) listGenres(ctx context.Context) error {
	catalog, err := r.beatport()
	if err != nil {
		return err
	}
	genres, err := catalog.Genres(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Beatport genres")
	for _, g := range genres {
		r.writePlain("%5d  %-30s %s\n", g.ID, g.Name, g.Slug)
	}
	return nil
}

// showTrack prints what a sync would search for and tag for one track.
func (r *Runner) showTrack(ctx context.Context, id string, asJSON bool) error {
	catalog, err := r.beatport()
	if err != nil {
		return err
	}
	track, err := catalog.Track(ctx, id)
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(struct {
			*models.ChartEntry
			Query string `json:"query"`
			Tag   string `json:"tag"`
		}{track, track.SearchQuery(), synctag.Format(track.ID)}, true)
	}

	r.writePlainHeader(track.DisplayTitle())
	r.writePlain("ID:    %s\n", track.ID)
	r.writePlain("ISRC:  %s\n", track.ISRC)
	r.writePlain("Query: %s\n", track.SearchQuery())
	r.writePlain("Tag:   %s\n", synctag.Format(track.ID))
	return nil
}
