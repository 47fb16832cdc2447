package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/chartsync/internal/server"
	"github.com/desertthunder/chartsync/internal/services"
	"github.com/desertthunder/chartsync/internal/shared"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// AuthYouTube runs the installed-app authorization code flow and stores the token.
//
// A loopback server receives the redirect; the consent page is opened in a browser when possible.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	auth, err := services.NewYouTubeAuth(r.config.YouTube, r.redirectURL())
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(auth.GetOAuthConfig(), state)
	router := server.NewBasicRouter(server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	srv, err := server.Listen(addr, router.Apply(router), r.logger)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("callback server shutdown failed", "error", err)
		}
	}()

	authURL := auth.GetAuthURL(state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize chartsync:\n%s\n", authURL)
	} else if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		r.writePlain("Open this URL to authorize chartsync:\n%s\n", authURL)
	} else {
		r.writePlain("Waiting for authorization in your browser...\n")
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = authTimeout
	}
	token, err := handler.Await(ctx, srv.Errors(), timeout)
	if err != nil {
		return err
	}

	if err := auth.SaveToken(token); err != nil {
		return err
	}
	r.logger.Info("youtube token saved", "path", auth.TokenPath())
	return r.writePlain("✓ YouTube authorization saved to %s\n", auth.TokenPath())
}

// AuthStatus reports which credentials are configured without calling either API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Authentication")

	bp := r.config.Beatport
	switch {
	case bp.AccessToken != "":
		r.writePlain("Beatport: ✓ static access token\n")
	case bp.ClientID != "" && bp.ClientSecret != "":
		r.writePlain("Beatport: ✓ client credentials\n")
	default:
		r.writePlain("Beatport: ✗ not configured (set %s and %s)\n", shared.EnvBeatportClientID, shared.EnvBeatportClientSecret)
	}

	auth, err := services.NewYouTubeAuth(r.config.YouTube, r.redirectURL())
	if err != nil {
		return r.writePlain("YouTube:  ✗ %v\n", err)
	}
	token, err := auth.LoadToken()
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return r.writePlain("YouTube:  ✗ not authorized (run `chartsync auth youtube`)\n")
	case err != nil:
		return err
	case token.RefreshToken == "":
		return r.writePlain("YouTube:  ! token without refresh token at %s, re-run `chartsync auth youtube`\n", auth.TokenPath())
	default:
		return r.writePlain("YouTube:  ✓ authorized (%s)\n", auth.TokenPath())
	}
}
