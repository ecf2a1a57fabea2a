package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/intmo/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// State is the session's position in the authentication state machine.
type State int

const (
	Unauthenticated State = iota
	Restoring
	Ready
	Refreshing
	AwaitingAuthorization
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Restoring:
		return "restoring"
	case Ready:
		return "ready"
	case Refreshing:
		return "refreshing"
	case AwaitingAuthorization:
		return "awaiting authorization"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a [Session]. Store, Provider, Opener and Registrar are required.
type Options struct {
	Store     SecretStore
	Provider  Provider
	Opener    Opener
	Registrar CallbackRegistrar
	Logger    *log.Logger
	// Timeout bounds the interactive flow. Zero means [DefaultAuthorizationTimeout].
	Timeout time.Duration
}

// Session owns one user's token pair.
//
// It is safe for concurrent use. The in-memory pair is only replaced as a whole, and every
// replacement bumps the generation so recoveries started against an old pair can tell that
// someone else already fixed it.
type Session struct {
	store     SecretStore
	provider  Provider
	opener    Opener
	registrar CallbackRegistrar
	logger    *log.Logger
	timeout   time.Duration
	now       func() time.Time

	mu         sync.Mutex
	state      State
	token      *oauth2.Token
	generation uint64
	pending    *pendingAuthorization

	// storeMu serializes writes of the two token keys.
	storeMu sync.Mutex
	flights singleflight.Group
}

// NewSession creates an Unauthenticated session.
func NewSession(opts Options) (*Session, error) {
	switch {
	case opts.Store == nil:
		return nil, fmt.Errorf("%w: auth session requires a secret store", shared.ErrInvalidConfig)
	case opts.Provider == nil:
		return nil, fmt.Errorf("%w: auth session requires a provider", shared.ErrInvalidConfig)
	case opts.Opener == nil:
		return nil, fmt.Errorf("%w: auth session requires an opener", shared.ErrInvalidConfig)
	case opts.Registrar == nil:
		return nil, fmt.Errorf("%w: auth session requires a callback registrar", shared.ErrInvalidConfig)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultAuthorizationTimeout
	}

	return &Session{
		store:     opts.Store,
		provider:  opts.Provider,
		opener:    opts.Opener,
		registrar: opts.Registrar,
		logger:    shared.WithLogger(logger, "component", "auth", "session", shared.GenerateID()),
		timeout:   timeout,
		now:       time.Now,
	}, nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation counts applied token pairs.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Token returns a copy of the current access token. It implements [oauth2.TokenSource].
//
// Token never refreshes; expiry is discovered by the API and handled by [Execute]. Without a
// usable token the error wraps both [shared.ErrNotAuthenticated] and [shared.ErrUnauthorized],
// so a wrapped call recovers the session instead of failing for good.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil || (s.state != Ready && s.state != Refreshing) {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, shared.ErrUnauthorized)
	}
	t := *s.token
	return &t, nil
}

// RestoreOrAuthenticate makes the session usable: a Ready session returns immediately, otherwise
// the persisted pair is restored, and when there is none the interactive flow runs.
//
// Restored tokens are trusted without a network call.
func (s *Session) RestoreOrAuthenticate(ctx context.Context) (oauth2.TokenSource, error) {
	s.mu.Lock()
	if s.state == Ready {
		s.mu.Unlock()
		return s, nil
	}
	s.mu.Unlock()

	_, err, _ := s.flights.Do("restore", func() (any, error) {
		return nil, s.restore(ctx)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) restore(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Ready {
		s.mu.Unlock()
		return nil
	}
	s.state = Restoring
	s.mu.Unlock()

	token, err := s.loadPair(ctx)
	if err != nil {
		s.setState(Unauthenticated)
		return err
	}

	if token != nil {
		s.apply(token)
		s.logger.Debug("restored persisted credentials")
		return nil
	}

	s.logger.Info("no stored credentials, starting authorization")
	s.setState(AwaitingAuthorization)
	return s.authorize(ctx)
}

// Refresh exchanges the persisted refresh token for a new pair.
//
// seen is the [Session.Generation] the caller observed when its call failed; if the pair has
// changed since, the refresh is skipped. Concurrent refreshes share one provider call. When the
// provider reports the refresh token revoked, both stored keys are deleted and the error wraps
// [shared.ErrRefreshRevoked]. While an interactive flow is waiting it fails with
// [shared.ErrAuthorizationPending].
func (s *Session) Refresh(ctx context.Context, seen uint64) error {
	if s.staleAndReady(seen) {
		return nil
	}

	_, err, joined := s.flights.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx, seen)
	})
	if joined {
		s.logger.Debug("joined in-flight refresh")
	}
	return err
}

func (s *Session) refresh(ctx context.Context, seen uint64) error {
	s.mu.Lock()
	switch {
	case s.generation != seen && s.state == Ready:
		s.mu.Unlock()
		return nil
	case s.pending != nil:
		s.mu.Unlock()
		return shared.ErrAuthorizationPending
	}
	prev := s.state
	s.state = Refreshing
	s.mu.Unlock()

	rt, ok, err := s.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		s.abandonRefresh(prev)
		return fmt.Errorf("reading refresh token: %w", err)
	}
	if !ok || rt == "" {
		if err := s.revoke(ctx); err != nil {
			return err
		}
		return fmt.Errorf("%w: no refresh token stored", shared.ErrRefreshRevoked)
	}

	s.logger.Debug("refreshing access token")
	token, err := s.provider.Refresh(ctx, rt)
	if err != nil {
		if IsRevoked(err) {
			s.logger.Warn("refresh token rejected, authorization required")
			if rerr := s.revoke(ctx); rerr != nil {
				return errors.Join(fmt.Errorf("%w: %w", shared.ErrRefreshRevoked, err), rerr)
			}
			return fmt.Errorf("%w: %w", shared.ErrRefreshRevoked, err)
		}
		s.abandonRefresh(prev)
		return fmt.Errorf("%w: %w", shared.ErrTokenExchange, err)
	}

	if token.AccessToken == "" {
		s.abandonRefresh(prev)
		return fmt.Errorf("%w: refresh returned no access token", shared.ErrTokenExchange)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = rt
	}

	if err := s.savePair(ctx, token); err != nil {
		s.abandonRefresh(prev)
		return err
	}
	s.apply(token)
	s.logger.Info("access token refreshed")
	return nil
}

// Reauthenticate runs the interactive flow on behalf of a failed call. Concurrent recoveries
// share one flow; a caller whose generation is stale skips it.
func (s *Session) Reauthenticate(ctx context.Context, seen uint64) error {
	if s.staleAndReady(seen) {
		return nil
	}

	_, err, _ := s.flights.Do("authorize", func() (any, error) {
		if s.staleAndReady(seen) {
			return nil, nil
		}
		return nil, s.authorize(ctx)
	})
	return err
}

// Authenticate runs the interactive flow unconditionally, replacing any current pair on
// success. It fails with [shared.ErrAuthorizationPending] while another flow is waiting.
func (s *Session) Authenticate(ctx context.Context) error {
	return s.authorize(ctx)
}

// Logout forgets the pair in memory and in the store.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.deletePair(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = nil
	s.state = Unauthenticated
	s.generation++
	s.mu.Unlock()

	s.logger.Info("logged out")
	return nil
}

func (s *Session) staleAndReady(seen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation != seen && s.state == Ready
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// abandonRefresh leaves a failed refresh without claiming a token the session never had.
func (s *Session) abandonRefresh(prev State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != nil {
		s.state = Ready
		return
	}
	s.state = prev
}

// apply installs a new pair and bumps the generation.
func (s *Session) apply(token *oauth2.Token) {
	t := *token

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &t
	s.state = Ready
	s.generation++
}

// revoke deletes the stored pair and drops the in-memory one.
func (s *Session) revoke(ctx context.Context) error {
	s.mu.Lock()
	s.token = nil
	s.state = AwaitingAuthorization
	s.mu.Unlock()

	if err := s.deletePair(ctx); err != nil {
		return fmt.Errorf("clearing revoked credentials: %w", err)
	}
	return nil
}

// loadPair returns nil, nil when either key is missing.
func (s *Session) loadPair(ctx context.Context) (*oauth2.Token, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	access, ok, err := s.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("reading access token: %w", err)
	}
	if !ok || access == "" {
		return nil, nil
	}

	refresh, ok, err := s.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("reading refresh token: %w", err)
	}
	if !ok || refresh == "" {
		return nil, nil
	}

	return &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}, nil
}

func (s *Session) savePair(ctx context.Context, token *oauth2.Token) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	if err := s.store.Set(ctx, KeyAccessToken, token.AccessToken); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	if err := s.store.Set(ctx, KeyRefreshToken, token.RefreshToken); err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	return nil
}

func (s *Session) deletePair(ctx context.Context) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	return errors.Join(
		s.store.Delete(ctx, KeyAccessToken),
		s.store.Delete(ctx, KeyRefreshToken),
	)
}
