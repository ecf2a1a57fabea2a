package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/intmo/internal/models"
	"github.com/desertthunder/intmo/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgNowPlaying MsgKind = iota
	MsgRefreshed
	MsgPollerStopped
	MsgActionDone
	MsgDevicesFetched
	MsgTransferred
)

type actionResult struct {
	action  string
	playing bool
	err     error
}

type devicesResult struct {
	devices []models.Device
	err     error
}

type transferResult struct {
	device models.Device
	err    error
}

// nowPlayingMsg is the constructor for [MsgNowPlaying]
func nowPlayingMsg(update tasks.Update) Msg {
	return Msg{kind: MsgNowPlaying, data: update}
}

// refreshedMsg is the constructor for [MsgRefreshed], an out-of-band poll after an action
func refreshedMsg(update tasks.Update) Msg {
	return Msg{kind: MsgRefreshed, data: update}
}

// pollerStoppedMsg is the constructor for [MsgPollerStopped]
func pollerStoppedMsg(err error) Msg {
	return Msg{kind: MsgPollerStopped, data: err}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action string, playing bool, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{action, playing, err}}
}

// devicesFetchedMsg is the constructor for [MsgDevicesFetched]
func devicesFetchedMsg(devices []models.Device, err error) Msg {
	return Msg{kind: MsgDevicesFetched, data: devicesResult{devices, err}}
}

// transferredMsg is the constructor for [MsgTransferred]
func transferredMsg(device models.Device, err error) Msg {
	return Msg{kind: MsgTransferred, data: transferResult{device, err}}
}
