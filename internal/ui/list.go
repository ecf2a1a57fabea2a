package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/intmo/internal/models"
)

var _ list.Item = deviceItem{}

// deviceItem wraps [models.Device] to implement [list.Item].
type deviceItem struct {
	device models.Device
}

func (i deviceItem) FilterValue() string { return i.device.Name }
func (i deviceItem) Title() string {
	if i.device.IsActive {
		return i.device.Name + " ●"
	}
	return i.device.Name
}
func (i deviceItem) Description() string {
	desc := i.device.Type
	if i.device.VolumePercent > 0 {
		desc = fmt.Sprintf("%s • %d%%", desc, i.device.VolumePercent)
	}
	if i.device.IsRestricted {
		desc += " • restricted"
	}
	return desc
}

func newDeviceList(devices []models.Device, width, height int) list.Model {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d}
	}
	l := list.New(items, list.NewDefaultDelegate(), max(width, 20), max(height, 8))
	l.Title = "Spotify Devices"
	l.SetShowHelp(false)
	return l
}
