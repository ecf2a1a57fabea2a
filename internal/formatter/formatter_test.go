package formatter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/intmo/internal/models"
	"github.com/desertthunder/intmo/internal/shared"
	th "github.com/desertthunder/intmo/internal/testing"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name     string
		progress int
		duration int
		width    int
		want     string
	}{
		{"empty", 0, 1000, 4, "────"},
		{"half", 500, 1000, 4, "━━──"},
		{"full", 1000, 1000, 4, "━━━━"},
		{"past the end", 2000, 1000, 4, "━━━━"},
		{"unknown duration", 500, 0, 4, "────"},
		{"no width", 500, 1000, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressBar(tt.progress, tt.duration, tt.width); got != tt.want {
				t.Errorf("ProgressBar() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderers(t *testing.T) {
	t.Run("NowPlayingToText", func(t *testing.T) {
		info := models.TrackInfo{
			Name:       "Song",
			Artists:    []string{"Artist A", "Artist B"},
			Album:      "Album",
			DurationMs: 200000,
			ProgressMs: 61000,
			IsPlaying:  true,
		}

		output := string(NowPlayingToText(info))

		for _, want := range []string{"▶ Song", "Artist A, Artist B · Album", "1:01", "3:20"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("NowPlayingToText paused", func(t *testing.T) {
		output := string(NowPlayingToText(models.TrackInfo{Name: "Song", DurationMs: 1000}))
		if !strings.HasPrefix(output, "⏸ Song") {
			t.Errorf("expected paused icon, got:\n%s", output)
		}
	})

	t.Run("NowPlayingToText placeholder", func(t *testing.T) {
		output := string(NowPlayingToText(models.NoActiveDevice()))
		if !strings.Contains(output, models.NoActiveDeviceName) || !strings.Contains(output, models.NoActiveDeviceMessage) {
			t.Errorf("placeholder not rendered, got:\n%s", output)
		}
		if strings.Contains(output, "0:00") {
			t.Errorf("placeholder should not show a progress line, got:\n%s", output)
		}
	})

	t.Run("DevicesToText", func(t *testing.T) {
		devices := []models.Device{
			{ID: "a", Name: "Laptop", Type: "Computer", IsActive: true, VolumePercent: 70},
			{ID: "b", Name: "Speaker", Type: "Speaker", IsRestricted: true},
		}

		output := string(DevicesToText(devices))

		if !strings.Contains(output, "* 1. Laptop (Computer) 70%") {
			t.Errorf("active device not marked, got:\n%s", output)
		}
		if !strings.Contains(output, "  2. Speaker (Speaker) [restricted]") {
			t.Errorf("restricted device not rendered, got:\n%s", output)
		}
	})

	t.Run("DevicesToText empty", func(t *testing.T) {
		if output := string(DevicesToText(nil)); !strings.Contains(output, "No devices found") {
			t.Errorf("unexpected output: %s", output)
		}
	})

	t.Run("SearchToText", func(t *testing.T) {
		tracks := []models.Track{
			{Name: "One", Artists: []string{"U2"}, Album: "Achtung Baby", DurationMs: 276000},
			{Name: "Untitled", Artists: []string{"Unknown"}},
		}

		output := string(SearchToText(tracks))

		if !strings.Contains(output, "1. U2 - One (Achtung Baby) [4:36]") {
			t.Errorf("first track not rendered, got:\n%s", output)
		}
		if !strings.Contains(output, "2. Unknown - Untitled [0:00]") {
			t.Errorf("album part should be omitted, got:\n%s", output)
		}
		if output := string(SearchToText(nil)); !strings.Contains(output, "No tracks found") {
			t.Errorf("unexpected empty output: %s", output)
		}
	})

	t.Run("SearchToCSV", func(t *testing.T) {
		tracks := []models.Track{
			{URI: "spotify:track:1", Name: "One, Two", Artists: []string{"A", "B"}, Album: "X", DurationMs: 60000},
		}

		data, err := SearchToCSV(tracks)
		if err != nil {
			t.Fatalf("SearchToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "URI,Title,Artist,Album,Duration") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `spotify:track:1,"One, Two","A, B",X,1:00`) {
			t.Errorf("CSV record not quoted correctly, got: %s", output)
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(models.TrackInfo{Name: "Song", IsPlaying: true})
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}
		output := string(data)
		if !strings.Contains(output, `"name": "Song"`) || !strings.Contains(output, `"isPlaying": true`) {
			t.Errorf("unexpected JSON: %s", output)
		}
	})
}

func TestAlbumArt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cover.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(srv.Close)

	t.Run("WriteAlbumArt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cover.jpg")
		info := models.TrackInfo{Name: "Song", AlbumArt: srv.URL + "/cover.jpg"}

		if err := WriteAlbumArt(srv.Client(), info, path); err != nil {
			t.Fatalf("WriteAlbumArt failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if got := th.MustReadFile(t, path); got != "jpeg-bytes" {
			t.Errorf("file content = %q", got)
		}
	})

	t.Run("no album art", func(t *testing.T) {
		err := WriteAlbumArt(srv.Client(), models.TrackInfo{Name: "Song"}, filepath.Join(t.TempDir(), "x"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("bad status", func(t *testing.T) {
		_, err := DownloadImage(srv.Client(), srv.URL+"/missing.jpg")
		if err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, err := DownloadImage(nil, ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("dial failed"))}
		if _, err := DownloadImage(client, "http://example.invalid/x.jpg"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("read failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &th.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: th.NewMockRoundTripper(resp, nil)}
		_, err := DownloadImage(client, "http://example.invalid/x.jpg")
		if err == nil || !strings.Contains(err.Error(), "failed to read image data") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}
