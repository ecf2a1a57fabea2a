// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles Spotify authorization
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify login",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize intmo in the browser and store the tokens",
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the storage backend and stored credentials",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "verify",
						Usage: "Call the Spotify API to confirm the tokens work",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the stored tokens",
				Action: r.AuthLogout,
			},
			{
				Name:  "configure",
				Usage: "Store the Spotify app client id and secret in the secret store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "client-id",
						Usage:    "Spotify app client id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "client-secret",
						Usage:    "Spotify app client secret",
						Required: true,
					},
				},
				Action: r.AuthConfigure,
			},
		},
	}
}

// nowCommand shows the current track
func nowCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "now",
		Aliases: []string{"status"},
		Usage:   "Show the track that is playing",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "Keep printing the track as it changes",
			},
			&cli.StringFlag{
				Name:  "art",
				Usage: "Save the album art to this path",
			},
		},
		Action: r.NowPlaying,
	}
}

// playbackCommands returns the transport controls
func playbackCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:    "toggle",
			Aliases: []string{"pp"},
			Usage:   "Play or pause",
			Action:  r.Toggle,
		},
		{
			Name:   "next",
			Usage:  "Skip to the next track",
			Action: r.Next,
		},
		{
			Name:    "previous",
			Aliases: []string{"prev"},
			Usage:   "Go back to the previous track",
			Action:  r.Previous,
		},
	}
}

// searchCommand finds tracks
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Spotify for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results (1-50)",
				Value:   10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output CSV",
			},
		},
		Action: r.Search,
	}
}

// devicesCommand lists and selects Connect devices
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List Spotify Connect devices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "select",
				Usage: "Pick a device to play on when none is active",
			},
			&cli.StringFlag{
				Name:  "transfer",
				Usage: "Transfer playback to the device with this id",
			},
		},
		Action: r.Devices,
	}
}

// playerCommand launches the mini player.
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive mini player",
		Action:  r.Player,
	}
}

// setupCommand writes the configuration file and prepares storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the secret store",
		Action: r.Setup,
	}
}
