package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/chartsync/internal/models"
)

// ProgressUpdate represents a progress event during a reconciliation run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data ([*IndexScan], [Diff], [ItemOutcome], [models.PlaylistMeta])
}

// Operation phase enumeration
type Phase int

const (
	PhaseIndex Phase = iota
	PhaseDiff
	PhaseRemove
	PhaseAdd
	PhaseMetadata
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIndex:
		return "index"
	case PhaseDiff:
		return "diff"
	case PhaseRemove:
		return "remove"
	case PhaseAdd:
		return "add"
	case PhaseMetadata:
		return "metadata"
	case PhaseDone:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Updates are dropped while the channel is full.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// report delivers update on progress, dropping it when full unless the reconciler is reliable.
func (r *Reconciler) report(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if !r.reliable {
		sendProgress(progress, update)
		return
	}
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	case <-ctx.Done():
	}
}

func indexStartUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseIndex,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Reading playlist %s...", playlistID),
	}
}

func indexDoneUpdate(scan *IndexScan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseIndex,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d tracked items (%d items total)", len(scan.Index), scan.Total),
		Data:    scan,
	}
}

func diffUpdate(diff Diff) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseDiff,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Tracks to add: %d, tracks to remove: %d", len(diff.ToAdd), len(diff.ToRemove)),
		Data:    diff,
	}
}

func removeUpdate(step, total int, outcome ItemOutcome) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ Removed track %s", step, total, outcome.ExternalID)
	if outcome.Err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ Failed to remove track %s: %v", step, total, outcome.ExternalID, outcome.Err)
	}
	return ProgressUpdate{Phase: PhaseRemove, Step: step, Total: total, Message: msg, Data: outcome}
}

func searchUpdate(step, total int, entry models.ChartEntry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseAdd,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s", step, total, entry.DisplayTitle()),
	}
}

func addUpdate(step, total int, outcome ItemOutcome) ProgressUpdate {
	var msg string
	switch {
	case outcome.Action == models.ActionNotFound:
		msg = fmt.Sprintf("[%d/%d] - No video found for track %s", step, total, outcome.ExternalID)
	case outcome.Err != nil:
		msg = fmt.Sprintf("[%d/%d] ✗ Failed to add track %s: %v", step, total, outcome.ExternalID, outcome.Err)
	default:
		msg = fmt.Sprintf("[%d/%d] ✓ Added %q for track %s", step, total, outcome.VideoTitle, outcome.ExternalID)
	}
	return ProgressUpdate{Phase: PhaseAdd, Step: step, Total: total, Message: msg, Data: outcome}
}

func metadataUpdate(meta models.PlaylistMeta, err error) ProgressUpdate {
	msg := "Updated playlist description"
	if err != nil {
		msg = fmt.Sprintf("✗ Failed to update playlist description: %v", err)
	}
	return ProgressUpdate{Phase: PhaseMetadata, Step: 1, Total: 1, Message: msg, Data: meta}
}

func doneUpdate(result *SyncResult) ProgressUpdate {
	stats := result.Stats()
	return ProgressUpdate{
		Phase:   PhaseDone,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync finished: %d added, %d removed, %d not found, %d failed", stats.Added, stats.Removed, stats.NotFound, stats.Failed),
		Data:    result,
	}
}
