// Spotify Web API player endpoints
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/intmo/internal/models"
	"github.com/desertthunder/intmo/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// DefaultRateLimit is the default request rate (per second) for the API client.
	DefaultRateLimit = 5.0

	maxSearchLimit = 50
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyDevice represents a Spotify Connect device.
type SpotifyDevice struct {
	ID            *string `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	IsActive      bool    `json:"is_active"`
	IsRestricted  bool    `json:"is_restricted"`
	VolumePercent *int    `json:"volume_percent"`
}

// SpotifyPlayback is the response of GET /me/player and /me/player/currently-playing.
//
// Item is nil for ads and between tracks.
type SpotifyPlayback struct {
	Device       *SpotifyDevice `json:"device"`
	RepeatState  string         `json:"repeat_state"`
	ShuffleState bool           `json:"shuffle_state"`
	ProgressMS   *int           `json:"progress_ms"`
	IsPlaying    bool           `json:"is_playing"`
	Item         *SpotifyTrack  `json:"item"`
}

type spotifyDevices struct {
	Devices []SpotifyDevice `json:"devices"`
}

type spotifySearch struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// APIError is a non-2xx response from the Web API.
type APIError struct {
	StatusCode int
	Message    string
	Reason     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Reason != "" {
		return fmt.Sprintf("spotify API error: status %d: %s (%s)", e.StatusCode, msg, e.Reason)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, msg)
}

// Unwrap classifies the error: 401 is [shared.ErrUnauthorized], 5xx is both
// [shared.ErrServiceUnavailable] and [shared.ErrAPIRequest], everything else
// [shared.ErrAPIRequest].
func (e *APIError) Unwrap() []error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return []error{shared.ErrUnauthorized}
	case e.StatusCode >= http.StatusInternalServerError:
		return []error{shared.ErrServiceUnavailable, shared.ErrAPIRequest}
	default:
		return []error{shared.ErrAPIRequest}
	}
}

// SpotifyService is a Web API client for the player endpoints.
//
// The bearer token is taken from the token source on every request, so a session that
// refreshes its pair is picked up by the next call without rebuilding the client.
type SpotifyService struct {
	tokens     oauth2.TokenSource
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithBaseURL points the client at another API root (tests).
func WithBaseURL(u string) Option {
	return func(s *SpotifyService) { s.baseURL = u }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SpotifyService) { s.httpClient = c }
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(s *SpotifyService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *SpotifyService) { s.logger = shared.WithLogger(l, "component", "spotify") }
}

// NewSpotifyService creates a client authorizing requests with tokens.
func NewSpotifyService(tokens oauth2.TokenSource, opts ...Option) *SpotifyService {
	s := &SpotifyService{
		tokens:     tokens,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.WithLogger(shared.NewLogger(io.Discard), "component", "spotify")
	}
	return s
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated request and decodes a JSON body into result.
//
// It returns the response status so callers can tell 204 (no content) from 200.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) (int, error) {
	if s.tokens == nil {
		return 0, shared.ErrNotAuthenticated
	}

	token, err := s.tokens.Token()
	if err != nil {
		return 0, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	s.logger.Debug("spotify request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, decodeAPIError(resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			if errors.Is(err, io.EOF) {
				return http.StatusNoContent, nil
			}
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(data) > 0 {
		var body spotifyErrorBody
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Error.Message
			apiErr.Reason = body.Error.Reason
		}
	}
	return apiErr
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if _, err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentlyPlaying returns the playing item, or nil when nothing is playing.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*models.TrackInfo, error) {
	var playback SpotifyPlayback
	status, err := s.doRequest(ctx, http.MethodGet, "/me/player/currently-playing", nil, &playback)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || playback.Item == nil {
		return nil, nil
	}

	info := toTrackInfo(*playback.Item)
	info.IsPlaying = playback.IsPlaying
	if playback.ProgressMS != nil {
		info.ProgressMs = *playback.ProgressMS
	}
	return &info, nil
}

// PlaybackState returns the player state, or nil when no device is playing.
func (s *SpotifyService) PlaybackState(ctx context.Context) (*models.PlaybackState, error) {
	var playback SpotifyPlayback
	status, err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, &playback)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}

	state := &models.PlaybackState{
		IsPlaying:    playback.IsPlaying,
		ShuffleState: playback.ShuffleState,
		RepeatState:  playback.RepeatState,
	}
	if playback.ProgressMS != nil {
		state.ProgressMs = *playback.ProgressMS
	}
	if playback.Device != nil {
		state.Device = toDevice(*playback.Device)
	}
	if playback.Item != nil {
		info := toTrackInfo(*playback.Item)
		info.IsPlaying = state.IsPlaying
		info.ProgressMs = state.ProgressMs
		state.Item = &info
	}
	return state, nil
}

// Play resumes playback on the active device.
func (s *SpotifyService) Play(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodPut, "/me/player/play", nil, nil)
	return err
}

// Pause pauses playback on the active device.
func (s *SpotifyService) Pause(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodPut, "/me/player/pause", nil, nil)
	return err
}

// Next skips to the next item.
func (s *SpotifyService) Next(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodPost, "/me/player/next", nil, nil)
	return err
}

// Previous skips to the previous item.
func (s *SpotifyService) Previous(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodPost, "/me/player/previous", nil, nil)
	return err
}

// Search finds tracks matching query. limit is clamped to 1..50.
func (s *SpotifyService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}

	var response spotifySearch
	if _, err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, models.Track{
			ID:         item.ID,
			URI:        item.URI,
			Name:       item.Name,
			Artists:    artistNames(item.Artists),
			Album:      item.Album.Name,
			DurationMs: item.DurationMS,
		})
	}
	return tracks, nil
}

// Devices lists the user's available Connect devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]models.Device, error) {
	var response spotifyDevices
	if _, err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(response.Devices))
	for _, d := range response.Devices {
		devices = append(devices, toDevice(d))
	}
	return devices, nil
}

// TransferPlayback moves playback to deviceID, starting it when play is set.
func (s *SpotifyService) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id is empty", shared.ErrInvalidInput)
	}

	body := struct {
		DeviceIDs []string `json:"device_ids"`
		Play      bool     `json:"play"`
	}{DeviceIDs: []string{deviceID}, Play: play}

	_, err := s.doRequest(ctx, http.MethodPut, "/me/player", body, nil)
	return err
}

func artistNames(artists []SpotifyArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}

func toTrackInfo(t SpotifyTrack) models.TrackInfo {
	info := models.TrackInfo{
		Name:       t.Name,
		Artists:    artistNames(t.Artists),
		Album:      t.Album.Name,
		DurationMs: t.DurationMS,
	}
	if len(t.Album.Images) > 0 {
		info.AlbumArt = t.Album.Images[0].URL
	}
	return info
}

func toDevice(d SpotifyDevice) models.Device {
	device := models.Device{
		Name:         d.Name,
		Type:         d.Type,
		IsActive:     d.IsActive,
		IsRestricted: d.IsRestricted,
	}
	if d.ID != nil {
		device.ID = *d.ID
	}
	if d.VolumePercent != nil {
		device.VolumePercent = *d.VolumePercent
	}
	return device
}
