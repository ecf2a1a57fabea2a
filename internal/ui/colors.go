package ui

import "github.com/charmbracelet/lipgloss"

const (
	spotifyGreen = lipgloss.Color("#1DB954")
	okGreen      = lipgloss.Color("#04B575")
	errorRed     = lipgloss.Color("#FF5F5F")
	idleAmber    = lipgloss.Color("#FFA500")
	dimGray      = lipgloss.Color("#626262")
)

var styles = newPalette()

// palette holds the player's styles.
type palette struct {
	title lipgloss.Style
	track lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	idle  lipgloss.Style
	help  lipgloss.Style
	frame lipgloss.Style
}

func newPalette() palette {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return palette{
		title: fg(spotifyGreen).Bold(true).MarginBottom(1),
		track: lipgloss.NewStyle().Bold(true),
		ok:    fg(okGreen).Bold(true),
		err:   fg(errorRed).Bold(true),
		idle:  fg(idleAmber),
		help:  fg(dimGray).Italic(true),
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(spotifyGreen).
			Padding(0, 1),
	}
}
