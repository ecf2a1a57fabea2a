// Package player implements the playback controls on top of an authorized Spotify session.
//
// Every [Controller] method runs its Web API call through auth.Execute, so an expired access
// token is refreshed (or the user is sent back through the browser) and the call is retried
// once without the caller noticing.
//
// # Devices
//
// Spotify only accepts player commands when a Connect device is active.
// [Controller.EnsureActiveDevice] lists devices and, when none is active, asks a
// [DeviceSelector] which one to transfer playback to.
package player
