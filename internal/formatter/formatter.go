// package formatter renders playback data as plain text, CSV, and JSON for the CLI
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/intmo/internal/models"
	"github.com/desertthunder/intmo/internal/shared"
)

const (
	progressFilled = "━"
	progressEmpty  = "─"
)

// ProgressBar renders progress through a track as a bar of width cells.
func ProgressBar(progressMs, durationMs, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if durationMs > 0 {
		filled = min(width, max(0, progressMs*width/durationMs))
	}
	return strings.Repeat(progressFilled, filled) + strings.Repeat(progressEmpty, width-filled)
}

// NowPlayingToText renders the current track:
//
//	▶ Song
//	  Artist A, Artist B · Album
//	  1:01 ━━━━────── 3:20
func NowPlayingToText(info models.TrackInfo) []byte {
	var buf bytes.Buffer

	if info.Placeholder() {
		fmt.Fprintf(&buf, "%s\n  %s\n", info.Name, info.ArtistLine())
		return buf.Bytes()
	}

	icon := "⏸"
	if info.IsPlaying {
		icon = "▶"
	}
	fmt.Fprintf(&buf, "%s %s\n", icon, info.Name)

	line := info.ArtistLine()
	if info.Album != "" {
		line += " · " + info.Album
	}
	fmt.Fprintf(&buf, "  %s\n", line)
	fmt.Fprintf(&buf, "  %s %s %s\n",
		shared.FormatDuration(info.ProgressMs),
		ProgressBar(info.ProgressMs, info.DurationMs, 20),
		shared.FormatDuration(info.DurationMs))

	return buf.Bytes()
}

// DevicesToText lists devices one per line, marking the active one with an asterisk.
func DevicesToText(devices []models.Device) []byte {
	var buf bytes.Buffer

	if len(devices) == 0 {
		buf.WriteString("No devices found. Open Spotify on any device.\n")
		return buf.Bytes()
	}

	for i, d := range devices {
		marker := " "
		if d.IsActive {
			marker = "*"
		}
		fmt.Fprintf(&buf, "%s %d. %s", marker, i+1, d.Label())
		if d.IsRestricted {
			buf.WriteString(" [restricted]")
		}
		if d.VolumePercent > 0 {
			fmt.Fprintf(&buf, " %d%%", d.VolumePercent)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// SearchToText renders search results as a numbered list.
func SearchToText(tracks []models.Track) []byte {
	var buf bytes.Buffer

	if len(tracks) == 0 {
		buf.WriteString("No tracks found.\n")
		return buf.Bytes()
	}

	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.ArtistLine(), track.Name, albumPart, shared.FormatDuration(track.DurationMs))
	}

	return buf.Bytes()
}

// SearchToCSV converts search results to CSV with columns: URI, Title, Artist, Album, Duration
func SearchToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"URI", "Title", "Artist", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.URI,
			track.Name,
			track.ArtistLine(),
			track.Album,
			shared.FormatDuration(track.DurationMs),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToJSON renders v as indented JSON.
func ToJSON(v any) ([]byte, error) {
	return shared.MarshalJSON(v, true)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidInput)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteAlbumArt saves the album art of info to path.
func WriteAlbumArt(client *http.Client, info models.TrackInfo, path string) error {
	if info.AlbumArt == "" {
		return fmt.Errorf("%w: %q has no album art", shared.ErrInvalidInput, info.Name)
	}

	data, err := DownloadImage(client, info.AlbumArt)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write album art: %w", err)
	}
	return nil
}
