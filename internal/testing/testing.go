// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/models"
)

// FakePlaylist is an in-memory [services.PlaylistStore].
//
// Deletes and inserts mutate Items so consecutive runs observe each other's writes.
type FakePlaylist struct {
	mu sync.Mutex

	Items []models.PlaylistItem

	ListErr    error
	DeleteErrs map[string]error // keyed by item id
	InsertErrs map[string]error // keyed by video id
	UpdateErr  error

	Calls   []string // "list", "delete:<item>", "insert:<video>", "update"
	Deleted []string
	Updates []models.PlaylistMeta

	nextID int
}

// NewFakePlaylist creates a playlist holding items.
func NewFakePlaylist(items ...models.PlaylistItem) *FakePlaylist {
	return &FakePlaylist{Items: items}
}

// Tagged builds a playlist item whose note is the given text.
func Tagged(itemID, videoID, note string) models.PlaylistItem {
	return models.PlaylistItem{ID: itemID, VideoID: videoID, Title: videoID, Note: note}
}

func (f *FakePlaylist) ListItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]models.PlaylistItem(nil), f.Items...), nil
}

func (f *FakePlaylist) DeleteItem(ctx context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "delete:"+itemID)
	if err := f.DeleteErrs[itemID]; err != nil {
		return err
	}
	for i, item := range f.Items {
		if item.ID == itemID {
			f.Items = append(f.Items[:i], f.Items[i+1:]...)
			f.Deleted = append(f.Deleted, itemID)
			return nil
		}
	}
	return fmt.Errorf("playlist item %s not found", itemID)
}

func (f *FakePlaylist) InsertItem(ctx context.Context, playlistID string, video models.VideoRef, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "insert:"+video.VideoID)
	if err := f.InsertErrs[video.VideoID]; err != nil {
		return err
	}
	f.nextID++
	f.Items = append(f.Items, models.PlaylistItem{
		ID:      fmt.Sprintf("new-%d", f.nextID),
		VideoID: video.VideoID,
		Title:   video.Title,
		Note:    note,
	})
	return nil
}

func (f *FakePlaylist) UpdatePlaylistMetadata(ctx context.Context, playlistID string, meta models.PlaylistMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "update")
	f.Updates = append(f.Updates, meta)
	return f.UpdateErr
}

// Note returns the note of the item holding videoID, if any.
func (f *FakePlaylist) Note(videoID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.Items {
		if item.VideoID == videoID {
			return item.Note, true
		}
	}
	return "", false
}

// FakeSearch is a [services.VideoSearch] answering from a fixed table of query results.
type FakeSearch struct {
	mu      sync.Mutex
	Results map[string][]models.VideoRef
	Queries []string
	MaxSeen []int64
}

func (f *FakeSearch) Search(ctx context.Context, query string, max int64) []models.VideoRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queries = append(f.Queries, query)
	f.MaxSeen = append(f.MaxSeen, max)
	return f.Results[query]
}

// CountingPacer records waits and optionally fails after a number of them.
type CountingPacer struct {
	Waits     int
	FailAfter int // with Err set, waits after this many succeed fail
	Err       error
}

func (p *CountingPacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Err != nil && p.Waits >= p.FailAfter {
		return p.Err
	}
	p.Waits++
	return nil
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
