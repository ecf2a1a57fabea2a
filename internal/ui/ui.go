package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/intmo/internal/formatter"
	"github.com/desertthunder/intmo/internal/models"
	"github.com/desertthunder/intmo/internal/shared"
	"github.com/desertthunder/intmo/internal/tasks"
)

const (
	minBarWidth = 10
	maxBarWidth = 48

	minTextWidth = 40
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlayerView ViewState = iota
	DeviceView
)

// Controller is the playback surface the mini player drives. player.Controller implements it.
type Controller interface {
	NowPlaying(ctx context.Context) (models.TrackInfo, error)
	TogglePlayback(ctx context.Context) (bool, error)
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Devices(ctx context.Context) ([]models.Device, error)
	Transfer(ctx context.Context, deviceID string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	view       ViewState
	controller Controller
	poller     *tasks.Poller
	updates    chan tasks.Update
	stopped    chan error
	track      models.TrackInfo
	status     string
	err        error
	deviceList list.Model
	width      int
	height     int
	help       help.Model
	keys       keyMap
}

// NewModel creates a mini player polling controller every interval.
func NewModel(ctx context.Context, controller Controller, interval time.Duration) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:        ctx,
		cancel:     cancel,
		view:       PlayerView,
		controller: controller,
		poller:     tasks.NewPoller(controller, interval, nil),
		updates:    make(chan tasks.Update, 8),
		stopped:    make(chan error, 1),
		track:      models.TrackInfo{Name: "Loading..."},
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the poller.
func (m *Model) Init() tea.Cmd {
	go func() {
		err := m.poller.Run(m.ctx, m.updates)
		m.stopped <- err
		close(m.updates)
	}()
	return m.waitForUpdate()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == DeviceView {
			m.deviceList.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlayerView:
			return m.handlePlayerKeys(msg)
		case DeviceView:
			return m.handleDeviceKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgNowPlaying:
		m.applyUpdate(msg.data.(tasks.Update))
		return m, m.waitForUpdate()

	case MsgRefreshed:
		m.applyUpdate(msg.data.(tasks.Update))
		return m, nil

	case MsgPollerStopped:
		err, _ := msg.data.(error)
		if err != nil && !errors.Is(err, context.Canceled) {
			m.err = err
		}
		return m, tea.Quit

	case MsgActionDone:
		result := msg.data.(actionResult)
		if result.err != nil {
			m.err = result.err
			return m, nil
		}
		m.err = nil
		if result.action == "toggle" {
			m.track.IsPlaying = result.playing
		}
		m.status = result.action
		return m, m.pollOnce()

	case MsgDevicesFetched:
		result := msg.data.(devicesResult)
		if result.err != nil {
			m.err = result.err
			return m, nil
		}
		if len(result.devices) == 0 {
			m.err = shared.ErrNoDevices
			return m, nil
		}
		m.deviceList = newDeviceList(result.devices, m.width-4, m.height-6)
		m.view = DeviceView
		return m, nil

	case MsgTransferred:
		result := msg.data.(transferResult)
		m.view = PlayerView
		if result.err != nil {
			m.err = result.err
			return m, nil
		}
		m.err = nil
		m.status = "playing on " + result.device.Name
		return m, m.pollOnce()
	}
	return m, nil
}

func (m *Model) applyUpdate(update tasks.Update) {
	switch update.Phase {
	case tasks.Polled:
		m.track = update.Track
		m.err = nil
	case tasks.PollFailed:
		m.err = update.Err
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DeviceView:
		return m.renderDevices()
	default:
		return m.renderPlayer()
	}
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		return m, m.action("toggle", m.controller.TogglePlayback)
	case key.Matches(msg, m.keys.next):
		return m, m.action("next", discardPlaying(m.controller.Next))
	case key.Matches(msg, m.keys.previous):
		return m, m.action("previous", discardPlaying(m.controller.Previous))
	case key.Matches(msg, m.keys.devices):
		return m, m.fetchDevices()
	}
	return m, nil
}

func (m *Model) handleDeviceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deviceList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.deviceList, cmd = m.deviceList.Update(msg)
		return m, cmd
	}

	switch {
	case msg.String() == "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), msg.String() == "q":
		m.view = PlayerView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.deviceList.SelectedItem().(deviceItem); ok {
			return m, m.transfer(item.device)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

func discardPlaying(fn func(context.Context) error) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) { return false, fn(ctx) }
}

func (m *Model) action(name string, fn func(context.Context) (bool, error)) tea.Cmd {
	return func() tea.Msg {
		playing, err := fn(m.ctx)
		return actionDoneMsg(name, playing, err)
	}
}

func (m *Model) pollOnce() tea.Cmd {
	return func() tea.Msg {
		track, err := m.controller.NowPlaying(m.ctx)
		if err != nil {
			return refreshedMsg(tasks.Update{Phase: tasks.PollFailed, Err: err, At: time.Now()})
		}
		return refreshedMsg(tasks.Update{Phase: tasks.Polled, Track: track, At: time.Now()})
	}
}

// waitForUpdate reads the next poller update. Only MsgNowPlaying re-arms it.
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return pollerStoppedMsg(<-m.stopped)
		}
		return nowPlayingMsg(update)
	}
}

func (m *Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.controller.Devices(m.ctx)
		return devicesFetchedMsg(devices, err)
	}
}

func (m *Model) transfer(device models.Device) tea.Cmd {
	return func() tea.Msg {
		return transferredMsg(device, m.controller.Transfer(m.ctx, device.ID))
	}
}

func (m *Model) barWidth() int {
	return min(maxBarWidth, max(minBarWidth, m.width-20))
}

func (m *Model) renderPlayer() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("intmo"))
	b.WriteString("\n")

	icon := "⏸"
	if m.track.IsPlaying {
		icon = "▶"
	}
	if m.track.Placeholder() {
		icon = "○"
	}
	width := max(minTextWidth, m.width-8)
	fmt.Fprintf(&b, "%s %s\n", icon, styles.track.Render(shared.Truncate(m.track.Name, width)))
	artists := shared.Truncate(m.track.ArtistLine(), width)
	if m.track.Placeholder() {
		artists = styles.idle.Render(artists)
	}
	fmt.Fprintf(&b, "%s\n", artists)
	if m.track.Album != "" {
		fmt.Fprintf(&b, "%s\n", styles.help.Render(shared.Truncate(m.track.Album, width)))
	}
	if !m.track.Placeholder() && m.track.DurationMs > 0 {
		fmt.Fprintf(&b, "\n%s %s %s\n",
			shared.FormatDuration(m.track.ProgressMs),
			formatter.ProgressBar(m.track.ProgressMs, m.track.DurationMs, m.barWidth()),
			shared.FormatDuration(m.track.DurationMs))
	}

	body := styles.frame.Render(strings.TrimRight(b.String(), "\n"))

	var footer string
	switch {
	case m.err != nil:
		footer = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.status != "":
		footer = styles.ok.Render(m.status)
	}

	return fmt.Sprintf("%s\n%s\n\n%s", body, footer, m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *Model) renderDevices() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	return fmt.Sprintf("%s\n\n%s", m.deviceList.View(), m.help.ShortHelpView(helpKeys))
}

// Err returns the last error shown by the player.
func (m *Model) Err() error {
	return m.err
}
