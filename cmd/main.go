package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/desertthunder/intmo/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newApp(runner)
	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		runner.Close()
		switch {
		case errors.Is(err, shared.ErrAuthorizationCancelled), errors.Is(err, context.Canceled):
			logger.Warn("cancelled")
			os.Exit(130)
		case errors.Is(err, shared.ErrNoDeviceSelected):
			logger.Warn("no device selected")
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "intmo",
		Usage:    "Control Spotify playback from the terminal",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.Before,
		Commands: r.register(),
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:  "paste",
			Usage: "Paste the redirect URL instead of running the local callback listener",
		},
		&cli.BoolFlag{
			Name:  "no-browser",
			Usage: "Print the authorization URL without opening a browser",
		},
	}
}
