// Beatport v4 catalog API implementation of [ChartSource]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chartsync/internal/models"
	"github.com/desertthunder/chartsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	beatportBaseURL  = "https://api.beatport.com/v4/"
	beatportTokenURL = "https://api.beatport.com/v4/auth/o/token/"
)

const (
	beatportRateRequests = 5
	beatportRateDuration = time.Second
)

type beatportArtist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// BeatportTrack is a track object from the catalog API.
type BeatportTrack struct {
	ID      int              `json:"id"`
	Name    string           `json:"name"`
	MixName string           `json:"mix_name"`
	ISRC    string           `json:"isrc"`
	Artists []beatportArtist `json:"artists"`
}

// BeatportGenre is a genre object from the catalog API.
type BeatportGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type beatportPage[T any] struct {
	Results []T     `json:"results"`
	Next    *string `json:"next"`
}

// ToChartEntry converts the track to a [models.ChartEntry] at the given chart position.
func (t BeatportTrack) ToChartEntry(position int) models.ChartEntry {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return models.ChartEntry{
		ID:       strconv.Itoa(t.ID),
		Name:     t.Name,
		MixName:  t.MixName,
		ISRC:     t.ISRC,
		Artists:  artists,
		Position: position,
	}
}

// BeatportService implements [ChartSource] for the Beatport v4 API.
type BeatportService struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	credentials *clientcredentials.Config
	staticToken string
	token       *oauth2.Token
	logger      *log.Logger
}

// NewBeatportService creates a Beatport client from configuration.
//
// A static access token takes precedence; client credentials are used when it is absent or rejected.
func NewBeatportService(cfg shared.BeatportConfig, httpClient *http.Client, logger *log.Logger) (*BeatportService, error) {
	hasCredentials := cfg.ClientID != "" && cfg.ClientSecret != ""
	if cfg.AccessToken == "" && !hasCredentials {
		return nil, fmt.Errorf("%w: beatport access token or client id/secret", shared.ErrMissingCredentials)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = beatportBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	svc := &BeatportService{
		baseURL:     baseURL,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(rate.Every(beatportRateDuration/beatportRateRequests), beatportRateRequests),
		staticToken: cfg.AccessToken,
		logger:      shared.WithLogger(logger, "service", "beatport"),
	}

	if hasCredentials {
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = beatportTokenURL
		}
		svc.credentials = &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
	}

	return svc, nil
}

// Name returns the service name.
func (b *BeatportService) Name() string {
	return "Beatport"
}

// accessToken returns the cached token, authenticating first when there is none.
func (b *BeatportService) accessToken(ctx context.Context) (string, error) {
	if b.token.Valid() {
		return b.token.AccessToken, nil
	}

	if b.staticToken != "" {
		b.token = &oauth2.Token{AccessToken: b.staticToken, TokenType: "Bearer"}
		return b.staticToken, nil
	}

	if b.credentials == nil {
		return "", fmt.Errorf("%w: beatport rejected the access token and no client credentials are configured", shared.ErrAuthFailed)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	token, err := b.credentials.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: beatport client credentials: %v", shared.ErrAuthFailed, err)
	}

	b.logger.Debug("obtained access token", "expiry", token.Expiry)
	b.token = token
	return token.AccessToken, nil
}

// invalidate drops the cached token. A rejected static token is not tried again.
func (b *BeatportService) invalidate() {
	if b.token != nil && b.token.AccessToken == b.staticToken {
		b.staticToken = ""
	}
	b.token = nil
}

// doRequest performs an authenticated GET against the catalog API and decodes the JSON body into result.
//
// A 401 response triggers one re-authentication and retry.
func (b *BeatportService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	apiURL := b.baseURL + strings.TrimPrefix(endpoint, "/")
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit: %v", shared.ErrRemoteFetch, err)
		}

		token, err := b.accessToken(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", shared.ErrRemoteFetch, endpoint, err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			detail := readDetail(resp)
			if attempt == 0 {
				b.logger.Warn("access token rejected, re-authenticating", "endpoint", endpoint)
				b.invalidate()
				continue
			}
			return fmt.Errorf("%w: beatport status 401 for %s%s", shared.ErrAuthFailed, endpoint, detail)
		}

		err = decodeResponse(resp, endpoint, result)
		resp.Body.Close()
		return err
	}
}

func decodeResponse(resp *http.Response, endpoint string, result any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: beatport status %d for %s%s", shared.ErrRemoteFetch, resp.StatusCode, endpoint, readDetail(resp))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode %s: %v", shared.ErrRemoteFetch, endpoint, err)
		}
	}
	return nil
}

// readDetail drains and closes the body, returning Beatport's "detail" message (or the raw body) for error text.
func readDetail(resp *http.Response) string {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}

	var errResp struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
		return ": " + errResp.Detail
	}
	return ": " + strings.TrimSpace(string(body))
}

// FetchTopN retrieves the top n tracks of a genre.
//
// Calls GET catalog/genres/{id}/top/{n}.
func (b *BeatportService) FetchTopN(ctx context.Context, genreID, n int) ([]models.ChartEntry, error) {
	if genreID <= 0 || n <= 0 {
		return nil, fmt.Errorf("%w: genre %d top %d", shared.ErrInvalidArgument, genreID, n)
	}

	var page beatportPage[BeatportTrack]
	endpoint := fmt.Sprintf("catalog/genres/%d/top/%d", genreID, n)
	if err := b.doRequest(ctx, endpoint, nil, &page); err != nil {
		return nil, err
	}

	entries := make([]models.ChartEntry, len(page.Results))
	for i, track := range page.Results {
		entries[i] = track.ToChartEntry(i + 1)
	}

	b.logger.Debug("fetched chart", "genre", genreID, "entries", len(entries))
	return entries, nil
}

// Genres lists every catalog genre, following pagination.
//
// Calls GET catalog/genres/.
func (b *BeatportService) Genres(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre

	for pageNum := 1; ; pageNum++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(pageNum))
		params.Set("per_page", "100")

		var page beatportPage[BeatportGenre]
		if err := b.doRequest(ctx, "catalog/genres/", params, &page); err != nil {
			return nil, err
		}

		for _, g := range page.Results {
			genres = append(genres, models.Genre{ID: g.ID, Name: g.Name, Slug: g.Slug})
		}

		if page.Next == nil || *page.Next == "" || len(page.Results) == 0 {
			break
		}
	}

	return genres, nil
}

// Track retrieves a single track by id.
//
// Calls GET catalog/tracks/{id}/.
func (b *BeatportService) Track(ctx context.Context, trackID string) (*models.ChartEntry, error) {
	if _, err := strconv.Atoi(trackID); err != nil {
		return nil, fmt.Errorf("%w: track id %q", shared.ErrInvalidArgument, trackID)
	}

	var track BeatportTrack
	if err := b.doRequest(ctx, fmt.Sprintf("catalog/tracks/%s/", trackID), nil, &track); err != nil {
		return nil, err
	}

	entry := track.ToChartEntry(0)
	return &entry, nil
}
