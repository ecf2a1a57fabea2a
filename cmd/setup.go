package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/intmo/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml when it is missing and initializes the secret store.
//
// For the sqlite backend, opening the store runs the migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = cmd.String("config")
	}

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config file", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}

		config, err := shared.ResolveConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		r.config = config
		r.writePlain("✓ Created %s\n", configPath)
	}

	if _, err := r.openStore(ctx); err != nil {
		return err
	}
	r.logger.Info("secret store ready", "backend", r.backend)
	r.writePlain("✓ Secret store ready (%s backend)\n", r.backend)

	if _, err := r.clientConfig(ctx); err != nil {
		r.writePlain("\nNext steps:\n")
		r.writePlain("  1. Create an app at https://developer.spotify.com/dashboard\n")
		r.writePlain("  2. Add %s as a redirect URI\n", r.config.Credentials.Spotify.RedirectURI)
		r.writePlain("  3. Run 'intmo auth configure --client-id ID --client-secret SECRET'\n")
		r.writePlain("  4. Run 'intmo auth login'\n")
		return nil
	}

	r.writePlain("\nRun 'intmo auth login' to connect your Spotify account.\n")
	return nil
}
