package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/intmo/internal/models"
	"github.com/desertthunder/intmo/internal/shared"
)

// DevicePicker is a single-choice device list.
type DevicePicker struct {
	list     list.Model
	help     help.Model
	keys     keyMap
	selected *models.Device
}

// NewDevicePicker lists devices for selection.
func NewDevicePicker(devices []models.Device) *DevicePicker {
	l := newDeviceList(devices, 60, 14)
	l.Title = "Select a device to play on"
	return &DevicePicker{list: l, help: help.New(), keys: newKeyMap()}
}

func (p *DevicePicker) Init() tea.Cmd { return nil }

func (p *DevicePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.list.SetSize(msg.Width-4, msg.Height-4)
		return p, nil

	case tea.KeyMsg:
		if p.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, p.keys.enter):
			if item, ok := p.list.SelectedItem().(deviceItem); ok {
				device := item.device
				p.selected = &device
			}
			return p, tea.Quit
		case key.Matches(msg, p.keys.back), key.Matches(msg, p.keys.quit):
			return p, tea.Quit
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

func (p *DevicePicker) View() string {
	helpKeys := []key.Binding{p.keys.enter, p.keys.back}
	return fmt.Sprintf("%s\n\n%s", p.list.View(), p.help.ShortHelpView(helpKeys))
}

// Selected returns the chosen device. ok is false when the picker was cancelled.
func (p *DevicePicker) Selected() (models.Device, bool) {
	if p.selected == nil {
		return models.Device{}, false
	}
	return *p.selected, true
}

// TerminalSelector runs a [DevicePicker] on the terminal. It implements player.DeviceSelector.
type TerminalSelector struct {
	In  io.Reader
	Out io.Writer
}

func (s TerminalSelector) SelectDevice(ctx context.Context, devices []models.Device) (models.Device, error) {
	picker := NewDevicePicker(devices)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if s.In != nil {
		opts = append(opts, tea.WithInput(s.In))
	}
	if s.Out != nil {
		opts = append(opts, tea.WithOutput(s.Out))
	}

	if _, err := tea.NewProgram(picker, opts...).Run(); err != nil {
		return models.Device{}, fmt.Errorf("device picker: %w", err)
	}

	device, ok := picker.Selected()
	if !ok {
		return models.Device{}, shared.ErrNoDeviceSelected
	}
	return device, nil
}
