package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/tasks"
)

// RunSummary renders a sync result as plain text: counters followed by every failed or missing item.
func RunSummary(result *tasks.SyncResult) string {
	if result == nil {
		return "No sync result.\n"
	}

	stats := result.Stats()
	var b strings.Builder

	fmt.Fprintf(&b, "Playlist: %s\n", result.PlaylistID)
	fmt.Fprintf(&b, "Chart size: %d\n", stats.ChartSize)
	fmt.Fprintf(&b, "Added: %d\n", stats.Added)
	fmt.Fprintf(&b, "Removed: %d\n", stats.Removed)
	fmt.Fprintf(&b, "Not found: %d\n", stats.NotFound)
	fmt.Fprintf(&b, "Failed: %d\n", stats.Failed)

	switch {
	case result.MetadataErr != nil:
		fmt.Fprintf(&b, "Metadata: failed (%v)\n", result.MetadataErr)
	case stats.MetadataUpdated:
		fmt.Fprintf(&b, "Metadata: %s\n", result.Metadata.Title)
	default:
		b.WriteString("Metadata: not updated\n")
	}

	if !result.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	}

	if result.Scan != nil && len(result.Scan.Shadowed) > 0 {
		fmt.Fprintf(&b, "Duplicate tags left untouched: %d\n", len(result.Scan.Shadowed))
	}

	var problems []string
	for _, o := range result.Outcomes() {
		switch {
		case o.Action == models.ActionNotFound:
			problems = append(problems, fmt.Sprintf("  - not found: %s (%s)", o.ExternalID, strings.TrimSpace(o.Query)))
		case o.Err != nil:
			problems = append(problems, fmt.Sprintf("  - %s %s failed: %v", o.Action, o.ExternalID, o.Err))
		}
	}
	if len(problems) > 0 {
		b.WriteString("\nIssues:\n")
		b.WriteString(strings.Join(problems, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}

// HistoryTable renders journaled runs as an aligned table.
func HistoryTable(runs []*models.SyncRun) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTARTED\tSTATUS\tPLAYLIST\tCHART\tADDED\tREMOVED\tNOT FOUND\tFAILED\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			run.Sequence(),
			run.StartedAt().Format(time.RFC3339),
			run.Status,
			run.PlaylistID,
			run.Stats.ChartSize,
			run.Stats.Added,
			run.Stats.Removed,
			run.Stats.NotFound,
			run.Stats.Failed,
			run.Duration().Round(time.Second),
		)
	}
	w.Flush()

	return buf.String()
}
