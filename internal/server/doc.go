// Package server provides the loopback HTTP server used to complete browser authorization.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback.
// It validates the state parameter (CSRF protection), exchanges the authorization code for a token,
// and sends the result through a channel. Only the first callback is processed.
//
// # Callback Server
//
// [CallbackServer] owns the listener. `chartsync auth youtube` starts one on the configured host and port,
// opens the consent page, waits for [OAuthHandler.Await] and shuts the server down.
package server
