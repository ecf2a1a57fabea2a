// package services implements HTTP clients for the Spotify accounts service and Web API
package services

import (
	"context"

	"github.com/desertthunder/intmo/internal/models"
)

// PlayerService is the Web API surface the player needs.
//
// Implementations return errors that unwrap to shared.ErrUnauthorized when the access token is
// rejected, so callers can recover through auth.Execute.
type PlayerService interface {
	// CurrentlyPlaying returns the playing item, or nil when nothing is playing.
	CurrentlyPlaying(ctx context.Context) (*models.TrackInfo, error)

	// PlaybackState returns the player state, or nil when no device has playback.
	PlaybackState(ctx context.Context) (*models.PlaybackState, error)

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error

	// Search finds tracks matching query.
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)

	// Devices lists the user's Connect devices.
	Devices(ctx context.Context) ([]models.Device, error)

	// TransferPlayback moves playback to deviceID.
	TransferPlayback(ctx context.Context, deviceID string, play bool) error

	// Name returns the name of the service
	Name() string
}

var _ PlayerService = (*SpotifyService)(nil)
