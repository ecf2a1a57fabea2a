// Package services implements the Spotify HTTP clients.
//
// # Accounts service
//
// [SpotifyOAuth] implements auth.Provider on top of [oauth2.Config]: it builds the
// authorization URL, exchanges codes and refreshes tokens. Client credentials are sent in the
// Authorization header. A revoked refresh token surfaces as *[oauth2.RetrieveError] with
// ErrorCode "invalid_grant".
//
// # Web API
//
// [SpotifyService] implements [PlayerService] for the player endpoints (now playing, playback
// state, play/pause, skip, search, devices and transfer). It takes its bearer token from an
// [oauth2.TokenSource] on every request and never refreshes on its own: recovery belongs to
// auth.Execute. Requests go through a [rate.Limiter].
//
// # Error Handling
//
// Non-2xx responses are returned as *[APIError]:
//   - 401 unwraps to [shared.ErrUnauthorized]
//   - 5xx also unwraps to [shared.ErrServiceUnavailable]
//   - anything else unwraps to [shared.ErrAPIRequest]
//
// 204 No Content from the playback endpoints means nothing is playing and yields a nil result.
package services
