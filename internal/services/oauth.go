package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/intmo/internal/auth"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// SpotifyEndpoint is the Spotify accounts service.
var SpotifyEndpoint = oauth2.Endpoint{
	AuthURL:   spotifyAuthURL,
	TokenURL:  spotifyTokenURL,
	AuthStyle: oauth2.AuthStyleInHeader,
}

// SpotifyOAuth implements [auth.Provider] for the Spotify accounts service.
type SpotifyOAuth struct {
	config     *oauth2.Config
	httpClient *http.Client
}

var _ auth.Provider = (*SpotifyOAuth)(nil)

// OAuthOption configures a [SpotifyOAuth].
type OAuthOption func(*SpotifyOAuth)

// WithEndpoint replaces the authorization and token URLs (tests).
func WithEndpoint(e oauth2.Endpoint) OAuthOption {
	return func(p *SpotifyOAuth) { p.config.Endpoint = e }
}

// WithOAuthHTTPClient sets the client used for token requests.
func WithOAuthHTTPClient(c *http.Client) OAuthOption {
	return func(p *SpotifyOAuth) { p.httpClient = c }
}

// NewOAuthProvider builds the OAuth2 configuration from cfg.
func NewOAuthProvider(cfg auth.ClientConfig, opts ...OAuthOption) *SpotifyOAuth {
	p := &SpotifyOAuth{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint:     SpotifyEndpoint,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthCodeURL returns the URL the user visits to grant access.
func (p *SpotifyOAuth) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token pair.
func (p *SpotifyOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(p.context(ctx), code)
}

// Refresh trades a refresh token for a new access token. A rejected refresh token surfaces as
// *[oauth2.RetrieveError] with ErrorCode "invalid_grant".
func (p *SpotifyOAuth) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return p.config.TokenSource(p.context(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
}

func (p *SpotifyOAuth) context(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
