// package services defines the collaborators the reconciler talks to and their HTTP implementations
//
// Beatport (chart source), YouTube Data API v3 (search + playlist store)
package services

import (
	"context"

	"github.com/desertthunder/chartsync/internal/models"
)

// ChartSource fetches the ranked chart of a genre.
type ChartSource interface {
	// FetchTopN returns the first n entries of the genre chart in rank order.
	//
	// Fails with [shared.ErrAuthFailed] when credentials are rejected after a refresh attempt,
	// or [shared.ErrRemoteFetch] on any other transport or HTTP failure.
	FetchTopN(ctx context.Context, genreID, n int) ([]models.ChartEntry, error)
}

// VideoSearch finds candidate videos for a free-text query.
//
// Implementations fail soft: errors are logged and an empty result is returned.
type VideoSearch interface {
	Search(ctx context.Context, query string, max int64) []models.VideoRef
}

// PlaylistStore reads and mutates a single remote playlist.
type PlaylistStore interface {
	// ListItems reads every page of the playlist. A failure on any page fails the whole call.
	ListItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	InsertItem(ctx context.Context, playlistID string, video models.VideoRef, note string) error
	UpdatePlaylistMetadata(ctx context.Context, playlistID string, meta models.PlaylistMeta) error
}
