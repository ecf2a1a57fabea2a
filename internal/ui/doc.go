// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The mini player has two views:
//  1. [PlayerView] : the current track with a progress bar, refreshed by a tasks.Poller
//  2. [DeviceView] : a list of Connect devices; enter transfers playback
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Now-playing updates flow through a channel from the poller, the same non-blocking stream `intmo now --follow` prints.
//
// [DevicePicker] is a standalone list used when a command needs an active device and none is
// running. [TerminalSelector] runs it as a player.DeviceSelector.
//
// Keyboard bindings: space (play/pause), n/p (next/previous), d (devices), enter, esc, q.
package ui
