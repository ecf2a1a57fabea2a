package player

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/intmo/internal/auth"
	"github.com/desertthunder/intmo/internal/models"
	"github.com/desertthunder/intmo/internal/services"
	"github.com/desertthunder/intmo/internal/shared"
)

const DefaultSearchLimit = 10

// DeviceSelector chooses a playback target when no device is active.
//
// Returning an error that wraps [shared.ErrNoDeviceSelected] (or any error) aborts the transfer.
type DeviceSelector interface {
	SelectDevice(ctx context.Context, devices []models.Device) (models.Device, error)
}

// SelectorFunc adapts a function to [DeviceSelector].
type SelectorFunc func(ctx context.Context, devices []models.Device) (models.Device, error)

func (f SelectorFunc) SelectDevice(ctx context.Context, devices []models.Device) (models.Device, error) {
	return f(ctx, devices)
}

// Controller exposes playback operations.
type Controller struct {
	session auth.Recoverer
	svc     services.PlayerService
	logger  *log.Logger
}

// NewController wires svc to session. A nil logger discards output.
func NewController(session auth.Recoverer, svc services.PlayerService, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Controller{
		session: session,
		svc:     svc,
		logger:  shared.WithLogger(logger, "component", "player"),
	}
}

// NowPlaying returns the current item, or the "No active device" placeholder when nothing plays.
func (c *Controller) NowPlaying(ctx context.Context) (models.TrackInfo, error) {
	info, err := auth.Execute(ctx, c.session, c.svc.CurrentlyPlaying)
	if err != nil {
		return models.TrackInfo{}, err
	}
	if info == nil {
		return models.NoActiveDevice(), nil
	}
	return *info, nil
}

// State returns the full playback state, or nil when no device has playback.
func (c *Controller) State(ctx context.Context) (*models.PlaybackState, error) {
	return auth.Execute(ctx, c.session, c.svc.PlaybackState)
}

// TogglePlayback pauses when playing and plays otherwise. It returns the new playing flag.
func (c *Controller) TogglePlayback(ctx context.Context) (bool, error) {
	state, err := c.State(ctx)
	if err != nil {
		return false, err
	}

	if state != nil && state.IsPlaying {
		if err := auth.ExecuteErr(ctx, c.session, c.svc.Pause); err != nil {
			return true, err
		}
		c.logger.Debug("paused")
		return false, nil
	}

	if err := auth.ExecuteErr(ctx, c.session, c.svc.Play); err != nil {
		return false, err
	}
	c.logger.Debug("playing")
	return true, nil
}

// Play resumes playback.
func (c *Controller) Play(ctx context.Context) error {
	return auth.ExecuteErr(ctx, c.session, c.svc.Play)
}

// Pause pauses playback.
func (c *Controller) Pause(ctx context.Context) error {
	return auth.ExecuteErr(ctx, c.session, c.svc.Pause)
}

// Next skips forward.
func (c *Controller) Next(ctx context.Context) error {
	return auth.ExecuteErr(ctx, c.session, c.svc.Next)
}

// Previous skips back.
func (c *Controller) Previous(ctx context.Context) error {
	return auth.ExecuteErr(ctx, c.session, c.svc.Previous)
}

// Search returns up to limit tracks matching query. A non-positive limit uses
// [DefaultSearchLimit].
func (c *Controller) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return auth.Execute(ctx, c.session, func(ctx context.Context) ([]models.Track, error) {
		return c.svc.Search(ctx, query, limit)
	})
}

// Devices lists the user's Connect devices.
func (c *Controller) Devices(ctx context.Context) ([]models.Device, error) {
	return auth.Execute(ctx, c.session, c.svc.Devices)
}

// Transfer moves playback to deviceID and starts it.
func (c *Controller) Transfer(ctx context.Context, deviceID string) error {
	return auth.ExecuteErr(ctx, c.session, func(ctx context.Context) error {
		return c.svc.TransferPlayback(ctx, deviceID, true)
	})
}

// EnsureActiveDevice returns the active device, transferring playback to the one selector picks
// when none is active.
func (c *Controller) EnsureActiveDevice(ctx context.Context, selector DeviceSelector) (models.Device, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return models.Device{}, err
	}
	if len(devices) == 0 {
		return models.Device{}, shared.ErrNoDevices
	}
	if active, ok := models.ActiveDevice(devices); ok {
		return active, nil
	}

	if selector == nil {
		return models.Device{}, shared.ErrNoDeviceSelected
	}
	selected, err := selector.SelectDevice(ctx, devices)
	if err != nil {
		return models.Device{}, err
	}
	if selected.ID == "" {
		return models.Device{}, shared.ErrNoDeviceSelected
	}

	if err := c.Transfer(ctx, selected.ID); err != nil {
		return models.Device{}, err
	}
	c.logger.Info("transferred playback", "device", selected.Name)

	selected.IsActive = true
	return selected, nil
}
