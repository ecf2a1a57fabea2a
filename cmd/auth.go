package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/intmo/internal/auth"
	"github.com/desertthunder/intmo/internal/services"
	"github.com/desertthunder/intmo/internal/shared"
	"github.com/urfave/cli/v3"
)

// profileReader is implemented by services that can identify the logged in user.
type profileReader interface {
	UserProfile(ctx context.Context) (*services.SpotifyUser, error)
}

// AuthLogin runs the interactive authorization flow and stores the new token pair.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	session, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}

	if err := session.Authenticate(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	r.writePlain("✓ Logged in to Spotify\n")
	r.writePlain("Tokens stored in the %s backend\n", r.backend)
	return nil
}

// AuthStatus reports where credentials live and whether a token pair is stored.
//
// It never starts an authorization flow: --verify only calls the API when tokens exist.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Storage backend: %s\n", r.backend)

	if _, err := r.clientConfig(ctx); err != nil {
		if !errors.Is(err, shared.ErrMissingCredentials) {
			return err
		}
		r.writePlain("Client credentials: missing (set them in config.toml or run 'intmo auth configure')\n")
	} else {
		r.writePlain("Client credentials: configured\n")
	}

	hasTokens := true
	for _, key := range []string{auth.KeyAccessToken, auth.KeyRefreshToken} {
		_, ok, err := store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", key, err)
		}
		hasTokens = hasTokens && ok
	}

	if !hasTokens {
		r.writePlain("Tokens: none (run 'intmo auth login')\n")
		return nil
	}
	r.writePlain("Tokens: stored\n")

	if !cmd.Bool("verify") {
		return nil
	}

	p, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}

	if reader, ok := r.service.(profileReader); ok {
		user, err := auth.Execute(ctx, r.session, reader.UserProfile)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		r.writePlain("✓ Logged in as %s (%s)\n", user.DisplayName, user.Product)
		return nil
	}

	if _, err := p.State(ctx); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	r.writePlain("✓ Tokens accepted by Spotify\n")
	return nil
}

// AuthLogout deletes the stored token pair. Client credentials are kept.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	session, err := r.newSession(ctx, cmd)
	switch {
	case err == nil:
		if err := session.Logout(ctx); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
	case errors.Is(err, shared.ErrMissingCredentials):
		store, err := r.openStore(ctx)
		if err != nil {
			return err
		}
		if err := errors.Join(store.Delete(ctx, auth.KeyAccessToken), store.Delete(ctx, auth.KeyRefreshToken)); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
	default:
		return err
	}

	r.writePlain("✓ Logged out\n")
	return nil
}

// AuthConfigure stores the Spotify app credentials in the secret store.
func (r *Runner) AuthConfigure(ctx context.Context, cmd *cli.Command) error {
	clientID := strings.TrimSpace(cmd.String("client-id"))
	clientSecret := strings.TrimSpace(cmd.String("client-secret"))
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("%w: --client-id and --client-secret must not be empty", shared.ErrMissingArgument)
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	if err := store.Set(ctx, auth.KeyClientID, clientID); err != nil {
		return fmt.Errorf("failed to store client id: %w", err)
	}
	if err := store.Set(ctx, auth.KeyClientSecret, clientSecret); err != nil {
		return fmt.Errorf("failed to store client secret: %w", err)
	}

	r.writePlain("✓ Client credentials stored in the %s backend\n", r.backend)
	return nil
}
