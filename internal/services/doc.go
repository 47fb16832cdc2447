// Package services defines the collaborator interfaces used by the reconciler and implements them
// for Beatport and the YouTube Data API.
//
// # Interfaces
//
//   - [ChartSource] : fetches a genre's top-N chart
//   - [VideoSearch] : finds a video for a free-text query, failing soft
//   - [PlaylistStore] : lists, deletes and inserts playlist items and rewrites playlist metadata
//
// # Beatport Implementation
//
// [BeatportService] implements [ChartSource] against the Beatport v4 catalog API.
// It authenticates with a static bearer token when one is configured, otherwise with the
// OAuth2 client credentials grant. A 401 drops the cached token, re-authenticates and retries once.
// Requests are throttled with a [rate.Limiter].
//
// # YouTube Implementation
//
// [YouTubeService] implements [VideoSearch] and [PlaylistStore] on top of google.golang.org/api/youtube/v3.
// It is built from an already authorized [http.Client]; see [NewYouTubeOAuthConfig] and [TokenStore]
// for the installed-app grant used to obtain one.
//
// # Error Handling
//
// Services wrap sentinel errors from the shared package:
//   - [shared.ErrAuthFailed] : credentials rejected
//   - [shared.ErrRemoteFetch] : chart or playlist could not be read
//   - [shared.ErrAPIRequest] : a mutation was rejected
//   - [shared.ErrPlaylistNotFound] : the playlist id does not exist
//   - [shared.ErrNotAuthenticated] : no stored YouTube token
package services
