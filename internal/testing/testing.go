// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/intmo/internal/models"
)

// MockPlayer is a test double for services.PlayerService.
//
// Each method returns the matching field; Err overrides everything when set. ErrOnce fails only
// the next call, which is how tests drive a 401 followed by a successful retry.
type MockPlayer struct {
	mu sync.Mutex

	Track      *models.TrackInfo
	State      *models.PlaybackState
	Tracks     []models.Track
	DeviceList []models.Device

	Err     error
	ErrOnce error

	Calls []string
}

func (m *MockPlayer) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
	if m.ErrOnce != nil {
		err := m.ErrOnce
		m.ErrOnce = nil
		return err
	}
	return m.Err
}

// CallList returns a copy of the recorded calls.
func (m *MockPlayer) CallList() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

func (m *MockPlayer) CurrentlyPlaying(context.Context) (*models.TrackInfo, error) {
	if err := m.record("currently-playing"); err != nil {
		return nil, err
	}
	return m.Track, nil
}

func (m *MockPlayer) PlaybackState(context.Context) (*models.PlaybackState, error) {
	if err := m.record("playback-state"); err != nil {
		return nil, err
	}
	return m.State, nil
}

func (m *MockPlayer) Play(context.Context) error     { return m.record("play") }
func (m *MockPlayer) Pause(context.Context) error    { return m.record("pause") }
func (m *MockPlayer) Next(context.Context) error     { return m.record("next") }
func (m *MockPlayer) Previous(context.Context) error { return m.record("previous") }

func (m *MockPlayer) Search(_ context.Context, query string, _ int) ([]models.Track, error) {
	if err := m.record("search:" + query); err != nil {
		return nil, err
	}
	return m.Tracks, nil
}

func (m *MockPlayer) Devices(context.Context) ([]models.Device, error) {
	if err := m.record("devices"); err != nil {
		return nil, err
	}
	return m.DeviceList, nil
}

func (m *MockPlayer) TransferPlayback(_ context.Context, deviceID string, _ bool) error {
	return m.record("transfer:" + deviceID)
}

func (m *MockPlayer) Name() string { return "mock" }

// FWriter always fails to write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter succeeds for maxWrites writes, then fails
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
