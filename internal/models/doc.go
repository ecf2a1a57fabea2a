// Package models defines the playback types shared by the player, formatter and UI.
//
// These are presentation-facing DTOs, decoupled from the Spotify wire format:
//   - [TrackInfo] : what the mini player shows for the current item
//   - [Track] : a search result
//   - [Device] : a Spotify Connect device
//   - [PlaybackState] : the player's current device, item and progress
package models
