// package models defines the playback data model
package models

import "strings"

// Placeholder text shown when nothing is playing anywhere.
const (
	NoActiveDeviceName    = "No active device"
	NoActiveDeviceMessage = "Please open Spotify on any device"
)

// TrackInfo describes the item the player is showing.
type TrackInfo struct {
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	AlbumArt   string   `json:"albumArt"`
	DurationMs int      `json:"durationMs"`
	ProgressMs int      `json:"progressMs"`
	IsPlaying  bool     `json:"isPlaying"`
}

// NoActiveDevice returns the placeholder shown when Spotify has no playback anywhere.
func NoActiveDevice() TrackInfo {
	return TrackInfo{
		Name:    NoActiveDeviceName,
		Artists: []string{NoActiveDeviceMessage},
	}
}

// ArtistLine joins artist names for display.
func (t TrackInfo) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Placeholder reports whether t is the no-playback placeholder.
func (t TrackInfo) Placeholder() bool {
	return t.Name == NoActiveDeviceName && t.DurationMs == 0
}

// Track is a playable search result.
type Track struct {
	ID         string   `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	DurationMs int      `json:"durationMs"`
}

// ArtistLine joins artist names for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Device is a Spotify Connect target.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"isActive"`
	IsRestricted  bool   `json:"isRestricted"`
	VolumePercent int    `json:"volumePercent"`
}

// Label renders "Name (Type)" for pickers.
func (d Device) Label() string {
	if d.Type == "" {
		return d.Name
	}
	return d.Name + " (" + d.Type + ")"
}

// PlaybackState is the player's state on the active device.
type PlaybackState struct {
	Device       Device     `json:"device"`
	IsPlaying    bool       `json:"isPlaying"`
	ShuffleState bool       `json:"shuffleState"`
	RepeatState  string     `json:"repeatState"`
	ProgressMs   int        `json:"progressMs"`
	Item         *TrackInfo `json:"item,omitempty"`
}

// ActiveDevice returns the first active device, if any.
func ActiveDevice(devices []Device) (Device, bool) {
	for _, d := range devices {
		if d.IsActive {
			return d, true
		}
	}
	return Device{}, false
}
