package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/desertthunder/intmo/internal/shared"
	"golang.org/x/oauth2"
)

// Secret store keys.
const (
	KeyAccessToken  = "spotifyAccessToken"
	KeyRefreshToken = "spotifyRefreshToken"
	KeyClientID     = "clientId"
	KeyClientSecret = "clientSecret"
)

// SecretStore is scoped key/value persistence for credentials.
//
// Get reports ok=false for a missing key. Deleting a missing key is not an error.
type SecretStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Provider is the OAuth2 authorization server.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Opener shows the authorization URL to the user outside the process.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to [Opener].
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error { return f(url) }

// CallbackHandler receives the redirect URI, or a non-nil err when the acceptor gave up
// (for example the user cancelled a manual paste).
type CallbackHandler func(uri *url.URL, err error)

// Disposable releases a registration. Dispose must be safe to call more than once.
type Disposable interface {
	Dispose()
}

// CallbackRegistrar registers a one-shot callback acceptor.
//
// Registering while another registration is live fails with [shared.ErrAcceptorBusy].
type CallbackRegistrar interface {
	Register(handler CallbackHandler) (Disposable, error)
}

// ClientConfig identifies the application to the provider. It does not change for the
// lifetime of a [Session].
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// Validate reports configuration errors. They are fatal and never retried.
func (c ClientConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	u, err := url.Parse(c.RedirectURI)
	if err != nil || !u.IsAbs() || u.Host == "" || u.Path == "" {
		return fmt.Errorf("%w: redirect URI %q must be an absolute URL with a callback path", shared.ErrInvalidConfig, c.RedirectURI)
	}
	return nil
}

// ResolveClientConfig fills missing client credentials from the secret store keys
// [KeyClientID] and [KeyClientSecret].
func ResolveClientConfig(ctx context.Context, store SecretStore, base ClientConfig) (ClientConfig, error) {
	fill := func(dst *string, key string) error {
		if *dst != "" {
			return nil
		}
		v, ok, err := store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", key, err)
		}
		if ok {
			*dst = v
		}
		return nil
	}

	if err := fill(&base.ClientID, KeyClientID); err != nil {
		return base, err
	}
	if err := fill(&base.ClientSecret, KeyClientSecret); err != nil {
		return base, err
	}
	return base, base.Validate()
}

// IsUnauthorized reports whether err is the API's "unauthorized" signal.
func IsUnauthorized(err error) bool {
	return errors.Is(err, shared.ErrUnauthorized)
}

// IsRevoked reports whether a refresh failure means the refresh token itself is no longer
// valid (OAuth2 invalid_grant).
func IsRevoked(err error) bool {
	if errors.Is(err, shared.ErrRefreshRevoked) {
		return true
	}
	var rErr *oauth2.RetrieveError
	return errors.As(err, &rErr) && rErr.ErrorCode == "invalid_grant"
}
