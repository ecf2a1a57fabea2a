package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/intmo/internal/shared"
	"github.com/desertthunder/intmo/internal/ui"
	"github.com/urfave/cli/v3"
)

// Player launches the interactive mini player.
//
// Authorization happens before the program takes over the terminal; the authorization URL is
// still printed to the terminal while log output goes to the file.
func (r *Runner) Player(ctx context.Context, cmd *cli.Command) error {
	dir, err := r.config.StoragePath()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(dir, "player.log")
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(fileLogger, log.DebugLevel)
	}
	r.SetLogger(fileLogger)

	p, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, p, r.config.Player.PollInterval)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(r.input),
		tea.WithOutput(r.output))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running player: %w", err)
	}

	return model.Err()
}
