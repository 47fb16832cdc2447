package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/services"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/desertthunder/chartsync/internal/synctag"
)

// ExistingIndex maps a chart track id to the playlist item that carries its tag.
type ExistingIndex map[string]string

// Keys returns the tracked ids in ascending order.
func (idx ExistingIndex) Keys() []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IndexScan is the outcome of reading the whole playlist.
type IndexScan struct {
	Index     ExistingIndex
	Total     int // items in the playlist
	Untracked int // items without a tag

	// Shadowed holds tagged items whose id was claimed again by a later item.
	// The index keeps the last one seen; shadowed items are neither tracked nor removed.
	Shadowed []models.PlaylistItem
}

// BuildIndex reads every item of the playlist and indexes the tagged ones.
//
// Any listing failure is returned wrapped in [shared.ErrRemoteFetch] with no partial index.
func BuildIndex(ctx context.Context, store services.PlaylistStore, playlistID string) (*IndexScan, error) {
	items, err := store.ListItems(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlist %s: %w", shared.ErrRemoteFetch, playlistID, err)
	}

	scan := &IndexScan{
		Index: make(ExistingIndex, len(items)),
		Total: len(items),
	}
	owners := make(map[string]models.PlaylistItem, len(items))

	for _, item := range items {
		id, ok := synctag.Parse(item.Note)
		if !ok {
			scan.Untracked++
			continue
		}
		if prev, seen := owners[id]; seen {
			scan.Shadowed = append(scan.Shadowed, prev)
		}
		owners[id] = item
		scan.Index[id] = item.ID
	}

	return scan, nil
}

// Diff is the set difference between the chart and the indexed playlist.
type Diff struct {
	ToAdd    []string `json:"to_add"`
	ToRemove []string `json:"to_remove"`
}

// Empty reports whether the playlist already matches the chart.
func (d Diff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// ComputeDiff returns chart ids missing from existing and existing ids missing from the chart, both sorted.
//
// Duplicate chart ids collapse.
func ComputeDiff(chartIDs []string, existing []string) Diff {
	inChart := make(map[string]struct{}, len(chartIDs))
	for _, id := range chartIDs {
		inChart[id] = struct{}{}
	}
	inPlaylist := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		inPlaylist[id] = struct{}{}
	}

	diff := Diff{ToAdd: []string{}, ToRemove: []string{}}
	for id := range inChart {
		if _, ok := inPlaylist[id]; !ok {
			diff.ToAdd = append(diff.ToAdd, id)
		}
	}
	for id := range inPlaylist {
		if _, ok := inChart[id]; !ok {
			diff.ToRemove = append(diff.ToRemove, id)
		}
	}

	sort.Strings(diff.ToAdd)
	sort.Strings(diff.ToRemove)
	return diff
}

// ChartIDs returns the ids of entries in chart order.
func ChartIDs(entries []models.ChartEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
