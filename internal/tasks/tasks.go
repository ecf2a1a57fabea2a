package tasks

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/intmo/internal/models"
	"github.com/desertthunder/intmo/internal/shared"
)

const DefaultPollInterval = time.Second

// NowPlayingSource returns the current track. player.Controller implements it.
type NowPlayingSource interface {
	NowPlaying(ctx context.Context) (models.TrackInfo, error)
}

// Poller publishes the current track on an interval.
type Poller struct {
	source   NowPlayingSource
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// NewPoller creates a poller. A non-positive interval uses [DefaultPollInterval].
func NewPoller(source NowPlayingSource, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Poller{
		source:   source,
		interval: interval,
		logger:   shared.WithLogger(logger, "component", "poller"),
		now:      time.Now,
	}
}

// Poll fetches the current track once and publishes the result.
func (p *Poller) Poll(ctx context.Context, updates chan<- Update) (models.TrackInfo, error) {
	track, err := p.source.NowPlaying(ctx)
	if err != nil {
		p.logger.Debug("poll failed", "error", err)
		p.sendUpdate(updates, failedUpdate(err, p.now()))
		return models.TrackInfo{}, err
	}
	p.sendUpdate(updates, polledUpdate(track, p.now()))
	return track, nil
}

// Run polls immediately and then on every tick until ctx is done. Poll failures are reported
// and polling continues, except for authorization failures that recovery could not fix
// (cancelled or timed-out logins), which stop the poller.
func (p *Poller) Run(ctx context.Context, updates chan<- Update) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.Poll(ctx, updates); err != nil && fatal(err) {
			return err
		}

		select {
		case <-ctx.Done():
			p.sendUpdate(updates, Update{Phase: Stopped, Err: ctx.Err(), At: p.now()})
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func fatal(err error) bool {
	return errors.Is(err, shared.ErrAuthorizationCancelled) ||
		errors.Is(err, shared.ErrAuthorizationTimeout) ||
		errors.Is(err, shared.ErrAuthorizationDenied) ||
		errors.Is(err, context.Canceled)
}

// sendUpdate sends an update through the channel without blocking.
func (p *Poller) sendUpdate(updates chan<- Update, update Update) {
	if updates == nil {
		return
	}
	select {
	case updates <- update:
	default:
	}
}
