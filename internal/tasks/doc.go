// Package tasks runs background player jobs with non-blocking progress reporting.
//
// # Now Playing
//
// [Poller] asks a [NowPlayingSource] for the current track on a fixed interval and publishes an
// [Update] after every poll, including failed ones. The mini player and `intmo now --follow`
// consume the same stream.
//
// # Progress Reporting
//
// Updates are sent with select and default: a slow consumer drops updates instead of stalling
// the poller. Consumers only ever need the latest track, so a dropped update is superseded by
// the next one.
package tasks
