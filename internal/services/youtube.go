// YouTube Data API v3 implementation of [VideoSearch] and [PlaylistStore]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// playlistPageSize is the largest page playlistItems.list allows.
const playlistPageSize = 50

// YouTubeService implements [VideoSearch] and [PlaylistStore] with the YouTube Data API.
type YouTubeService struct {
	svc    *youtube.Service
	logger *log.Logger
}

// NewYouTubeService creates a YouTube client that sends every request through httpClient.
//
// httpClient must already carry credentials (see [YouTubeAuth.Client]). A non-empty endpoint
// replaces the API base URL.
func NewYouTubeService(ctx context.Context, httpClient *http.Client, endpoint string, logger *log.Logger) (*YouTubeService, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("%w: youtube http client", shared.ErrNotAuthenticated)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}

	return &YouTubeService{svc: svc, logger: shared.WithLogger(logger, "service", "youtube")}, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Search returns up to max videos matching query.
//
// Calls search.list with part=id,snippet and type=video. Errors are logged and yield no results.
func (y *YouTubeService) Search(ctx context.Context, query string, max int64) []models.VideoRef {
	resp, err := y.svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(max).
		Context(ctx).
		Do()
	if err != nil {
		y.logger.Warn("search failed", "query", query, "error", err)
		return []models.VideoRef{}
	}

	videos := make([]models.VideoRef, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ref := models.VideoRef{VideoID: item.Id.VideoId}
		if item.Snippet != nil {
			ref.Title = item.Snippet.Title
			ref.ChannelTitle = item.Snippet.ChannelTitle
		}
		videos = append(videos, ref)
	}

	return videos
}

// ListItems reads every item of the playlist, following nextPageToken until it is exhausted.
//
// Calls playlistItems.list with part=snippet,contentDetails and maxResults=50.
func (y *YouTubeService) ListItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	var items []models.PlaylistItem
	pages := 0

	call := y.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(playlistPageSize)

	err := call.Pages(ctx, func(resp *youtube.PlaylistItemListResponse) error {
		pages++
		for _, it := range resp.Items {
			items = append(items, toPlaylistItem(it))
		}
		return nil
	})
	if err != nil {
		return nil, wrapAPIError(shared.ErrRemoteFetch, "list playlist "+playlistID, err)
	}

	y.logger.Debug("listed playlist", "playlist", playlistID, "items", len(items), "pages", pages)
	return items, nil
}

func toPlaylistItem(it *youtube.PlaylistItem) models.PlaylistItem {
	item := models.PlaylistItem{ID: it.Id}
	if it.Snippet != nil {
		item.Title = it.Snippet.Title
		if it.Snippet.ResourceId != nil {
			item.VideoID = it.Snippet.ResourceId.VideoId
		}
	}
	if it.ContentDetails != nil {
		item.Note = it.ContentDetails.Note
		if item.VideoID == "" {
			item.VideoID = it.ContentDetails.VideoId
		}
	}
	return item
}

// DeleteItem removes a playlist item by its item id.
func (y *YouTubeService) DeleteItem(ctx context.Context, itemID string) error {
	if err := y.svc.PlaylistItems.Delete(itemID).Context(ctx).Do(); err != nil {
		return wrapAPIError(shared.ErrAPIRequest, "delete item "+itemID, err)
	}
	return nil
}

// InsertItem appends video to the playlist with note stored in contentDetails.note.
func (y *YouTubeService) InsertItem(ctx context.Context, playlistID string, video models.VideoRef, note string) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: video.VideoID,
			},
		},
		ContentDetails: &youtube.PlaylistItemContentDetails{
			Note: note,
		},
	}

	if _, err := y.svc.PlaylistItems.Insert([]string{"snippet", "contentDetails"}, item).Context(ctx).Do(); err != nil {
		return wrapAPIError(shared.ErrAPIRequest, "insert video "+video.VideoID, err)
	}
	return nil
}

// UpdatePlaylistMetadata overwrites the playlist title and description.
func (y *YouTubeService) UpdatePlaylistMetadata(ctx context.Context, playlistID string, meta models.PlaylistMeta) error {
	playlist := &youtube.Playlist{
		Id: playlistID,
		Snippet: &youtube.PlaylistSnippet{
			Title:       meta.Title,
			Description: meta.Description,
		},
	}

	if _, err := y.svc.Playlists.Update([]string{"snippet"}, playlist).Context(ctx).Do(); err != nil {
		return wrapAPIError(shared.ErrAPIRequest, "update playlist "+playlistID, err)
	}
	return nil
}

// wrapAPIError tags err with kind and, for recognizable API responses, a more specific sentinel.
func wrapAPIError(kind error, action string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w: %s: %v", kind, shared.ErrAuthFailed, action, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w: %s: %v", kind, shared.ErrPlaylistNotFound, action, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", kind, action, err)
}
