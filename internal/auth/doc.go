// Package auth owns the Spotify OAuth2 session: the authorization-code flow, the access/refresh
// token lifecycle, and the call wrapper that recovers from expired credentials.
//
// # Session
//
// [Session] is a small state machine:
//
//	Unauthenticated → Restoring → Ready
//	Ready → Refreshing → Ready
//	Ready | Refreshing → AwaitingAuthorization → Ready
//
// [Session.RestoreOrAuthenticate] loads the persisted token pair from the [SecretStore] and
// trusts it without a network round trip; validity is discovered lazily by the first API call.
// When no pair is stored, the interactive flow runs.
//
// # Interactive flow
//
// A fresh random state token is bound to one [pendingAuthorization]. The authorization URL is
// handed to an [Opener] and a one-shot [CallbackHandler] is registered with a
// [CallbackRegistrar]. The flow then waits for exactly one of: the callback, the timeout
// (5 minutes by default), or context cancellation. The callback query is decoded once and its
// state compared against the expected value before anything else is looked at.
//
// # Recovery
//
// [Execute] runs an API operation and, on [shared.ErrUnauthorized], asks the session to
// refresh. A refresh rejected with invalid_grant deletes the stored pair and falls back to the
// interactive flow. The operation runs at most twice. Concurrent recoveries share one refresh
// (and one interactive flow) through [singleflight.Group].
package auth
