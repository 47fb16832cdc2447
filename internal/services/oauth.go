package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/desertthunder/chartsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// OAuthService is implemented by providers that authorize through the browser authorization code flow.
type OAuthService interface {
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
}

// YouTubeAuth holds the installed-app OAuth client for the YouTube Data API and the path of the stored token.
type YouTubeAuth struct {
	config    *oauth2.Config
	tokenPath string
}

// NewYouTubeAuth builds the OAuth client from configuration.
//
// redirectURL must point at the loopback callback served during `auth youtube`.
func NewYouTubeAuth(cfg shared.YouTubeConfig, redirectURL string) (*YouTubeAuth, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: youtube client_id and client_secret", shared.ErrMissingCredentials)
	}
	if cfg.TokenPath == "" {
		return nil, fmt.Errorf("%w: youtube token_path", shared.ErrInvalidConfig)
	}

	return &YouTubeAuth{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{youtube.YoutubeScope},
			Endpoint:     google.Endpoint,
		},
		tokenPath: cfg.TokenPath,
	}, nil
}

// GetAuthURL returns the consent page URL. Offline access and a forced prompt make Google issue a refresh token.
func (a *YouTubeAuth) GetAuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// GetOAuthConfig returns the underlying [oauth2.Config].
func (a *YouTubeAuth) GetOAuthConfig() *oauth2.Config {
	return a.config
}

// TokenPath returns where the token is stored.
func (a *YouTubeAuth) TokenPath() string {
	return a.tokenPath
}

// LoadToken reads the stored token.
//
// A missing file yields [shared.ErrNotAuthenticated].
func (a *YouTubeAuth) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no youtube token at %s, run `chartsync auth youtube`", shared.ErrNotAuthenticated, a.tokenPath)
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token %s: %w", a.tokenPath, err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token at %s is empty", shared.ErrNotAuthenticated, a.tokenPath)
	}

	return &token, nil
}

// SaveToken writes token as JSON with owner-only permissions.
func (a *YouTubeAuth) SaveToken(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidArgument)
	}

	if dir := filepath.Dir(a.tokenPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(a.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Client returns an [http.Client] that authorizes requests with the stored token, refreshing it as needed.
//
// Refreshed tokens are kept in memory only.
func (a *YouTubeAuth) Client(ctx context.Context) (*http.Client, error) {
	token, err := a.LoadToken()
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, a.config.TokenSource(ctx, token)), nil
}
