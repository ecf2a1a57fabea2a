package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/intmo/internal/formatter"
	"github.com/desertthunder/intmo/internal/models"
	"github.com/desertthunder/intmo/internal/player"
	"github.com/desertthunder/intmo/internal/shared"
	"github.com/desertthunder/intmo/internal/tasks"
	"github.com/urfave/cli/v3"
)

// NowPlaying prints the current track, or follows it with --follow.
func (r *Runner) NowPlaying(ctx context.Context, cmd *cli.Command) error {
	p, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("follow") {
		return r.followNowPlaying(ctx, p, cmd.Bool("json"))
	}

	info, err := p.NowPlaying(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current track: %w", err)
	}

	if path := cmd.String("art"); path != "" {
		if err := formatter.WriteAlbumArt(r.httpClient, info, path); err != nil {
			return err
		}
		r.logger.Info("saved album art", "path", path)
	}

	return r.writeTrack(info, cmd.Bool("json"))
}

// followNowPlaying prints the track every time it changes until ctx is done.
func (r *Runner) followNowPlaying(ctx context.Context, p *player.Controller, asJSON bool) error {
	updates := make(chan tasks.Update, 4)
	done := make(chan error, 1)

	poller := tasks.NewPoller(p, r.config.Player.PollInterval, r.logger)
	go func() {
		done <- poller.Run(ctx, updates)
		close(updates)
	}()

	var last string
	for update := range updates {
		switch update.Phase {
		case tasks.Polled:
			key := fmt.Sprintf("%s|%s|%t", update.Track.Name, update.Track.Album, update.Track.IsPlaying)
			if key == last {
				continue
			}
			last = key
			if err := r.writeTrack(update.Track, asJSON); err != nil {
				return err
			}
		case tasks.PollFailed:
			r.logger.Warn("poll failed", "error", update.Err)
		}
	}

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Runner) writeTrack(info models.TrackInfo, asJSON bool) error {
	if asJSON {
		return r.writeJSON(info, true)
	}
	return r.writeBytes(formatter.NowPlayingToText(info))
}

// Toggle plays or pauses on the active device.
func (r *Runner) Toggle(ctx context.Context, cmd *cli.Command) error {
	p, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}
	if err := r.ensureDevice(ctx, p); err != nil {
		return err
	}

	playing, err := p.TogglePlayback(ctx)
	if err != nil {
		return fmt.Errorf("failed to toggle playback: %w", err)
	}

	if playing {
		return r.writePlain("▶ Playing\n")
	}
	return r.writePlain("⏸ Paused\n")
}

// Next skips to the next track.
func (r *Runner) Next(ctx context.Context, cmd *cli.Command) error {
	return r.skip(ctx, cmd, "next", (*player.Controller).Next)
}

// Previous returns to the previous track.
func (r *Runner) Previous(ctx context.Context, cmd *cli.Command) error {
	return r.skip(ctx, cmd, "previous", (*player.Controller).Previous)
}

func (r *Runner) skip(ctx context.Context, cmd *cli.Command, name string, fn func(*player.Controller, context.Context) error) error {
	p, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}
	if err := r.ensureDevice(ctx, p); err != nil {
		return err
	}

	if err := fn(p, ctx); err != nil {
		return fmt.Errorf("failed to skip to %s track: %w", name, err)
	}

	info, err := p.NowPlaying(ctx)
	if err != nil {
		r.logger.Debug("could not read track after skip", "error", err)
		return r.writePlain("✓ Skipped to %s track\n", name)
	}
	return r.writeTrack(info, false)
}

// Search finds tracks matching the query argument.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if cmd.Bool("json") && cmd.Bool("csv") {
		return fmt.Errorf("%w: --json and --csv are mutually exclusive", shared.ErrInvalidArgument)
	}

	p, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}

	tracks, err := p.Search(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	r.logger.Debug("search complete", "query", query, "results", len(tracks))

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(tracks, true)
	case cmd.Bool("csv"):
		data, err := formatter.SearchToCSV(tracks)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	default:
		return r.writeBytes(formatter.SearchToText(tracks))
	}
}

// Devices lists Connect devices, transfers playback with --transfer, or prompts with --select.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	p, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}

	if id := strings.TrimSpace(cmd.String("transfer")); id != "" {
		if err := p.Transfer(ctx, id); err != nil {
			return fmt.Errorf("failed to transfer playback: %w", err)
		}
		return r.writePlain("✓ Playback transferred to %s\n", id)
	}

	if cmd.Bool("select") {
		device, err := p.EnsureActiveDevice(ctx, r.selector)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Playing on %s\n", device.Label())
	}

	devices, err := p.Devices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, true)
	}
	return r.writeBytes(formatter.DevicesToText(devices))
}
