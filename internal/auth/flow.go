package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/desertthunder/intmo/internal/shared"
)

// DefaultAuthorizationTimeout bounds the wait for the authorization callback.
const DefaultAuthorizationTimeout = 5 * time.Minute

// AuthorizationResult is the outcome of one authorization attempt: a code on success, or Err.
type AuthorizationResult struct {
	Code string
	Err  error
}

// pendingAuthorization is one in-flight authorization-code request.
//
// It is resolved exactly once, by the callback, the timeout, or cancellation; later
// resolutions are ignored.
type pendingAuthorization struct {
	expectedState string
	deadline      time.Time

	once   sync.Once
	done   chan struct{}
	result AuthorizationResult
}

func newPendingAuthorization(state string, deadline time.Time) *pendingAuthorization {
	return &pendingAuthorization{
		expectedState: state,
		deadline:      deadline,
		done:          make(chan struct{}),
	}
}

func (p *pendingAuthorization) resolve(r AuthorizationResult) {
	p.once.Do(func() {
		p.result = r
		close(p.done)
	})
}

// wait blocks until resolved.
func (p *pendingAuthorization) wait() AuthorizationResult {
	<-p.done
	return p.result
}

// accept is the [CallbackHandler] registered for this attempt.
func (p *pendingAuthorization) accept(uri *url.URL, err error) {
	if err != nil {
		p.resolve(AuthorizationResult{Err: err})
		return
	}

	code, err := parseCallback(uri, p.expectedState)
	p.resolve(AuthorizationResult{Code: code, Err: err})
}

// parseCallback extracts the authorization code from a redirect URI.
//
// The raw query is decoded exactly once. State is checked before the provider's error or the
// code so a forged redirect never reaches the token endpoint.
func parseCallback(uri *url.URL, expectedState string) (string, error) {
	if uri == nil {
		return "", fmt.Errorf("%w: empty callback", shared.ErrCallbackValidation)
	}

	query, err := url.ParseQuery(uri.RawQuery)
	if err != nil {
		return "", fmt.Errorf("%w: malformed query: %v", shared.ErrCallbackValidation, err)
	}

	state := query.Get("state")
	if state == "" {
		return "", fmt.Errorf("%w: missing state parameter", shared.ErrCallbackValidation)
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
		return "", fmt.Errorf("%w: state parameter does not match", shared.ErrCallbackValidation)
	}

	if reason := query.Get("error"); reason != "" {
		if desc := query.Get("error_description"); desc != "" {
			reason = reason + " - " + desc
		}
		return "", fmt.Errorf("%w: %s", shared.ErrAuthorizationDenied, reason)
	}

	code := query.Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: missing code parameter", shared.ErrCallbackValidation)
	}
	return code, nil
}

// beginPending installs a new pending authorization, rejecting a second concurrent one.
func (s *Session) beginPending(state string) (*pendingAuthorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return nil, shared.ErrAuthorizationPending
	}

	p := newPendingAuthorization(state, s.now().Add(s.timeout))
	s.pending = p
	s.state = AwaitingAuthorization
	return p, nil
}

// endPending clears p. A failed flow over a still-held pair (an explicit login while Ready)
// leaves the session Ready.
func (s *Session) endPending(p *pendingAuthorization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != p {
		return
	}
	s.pending = nil
	if s.state == AwaitingAuthorization && s.token != nil {
		s.state = Ready
	}
}

// authorize runs the interactive authorization-code flow. Nothing is persisted or applied
// unless every step succeeds.
func (s *Session) authorize(ctx context.Context) error {
	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	p, err := s.beginPending(state)
	if err != nil {
		return err
	}
	defer s.endPending(p)

	reg, err := s.registrar.Register(p.accept)
	if err != nil {
		return fmt.Errorf("registering callback acceptor: %w", err)
	}
	defer reg.Dispose()

	s.logger.Info("waiting for authorization", "timeout", s.timeout)
	if err := s.opener.Open(s.provider.AuthCodeURL(state)); err != nil {
		s.logger.Warn("could not open browser automatically", "error", err)
	}

	timer := time.NewTimer(time.Until(p.deadline))
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		reg.Dispose()
		p.resolve(AuthorizationResult{Err: shared.ErrAuthorizationTimeout})
	case <-ctx.Done():
		reg.Dispose()
		p.resolve(AuthorizationResult{Err: fmt.Errorf("%w: %w", shared.ErrAuthorizationCancelled, ctx.Err())})
	}
	reg.Dispose()

	result := p.wait()
	if result.Err != nil {
		s.logger.Warn("authorization failed", "error", result.Err)
		return result.Err
	}

	token, err := s.provider.Exchange(ctx, result.Code)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrTokenExchange, err)
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		return fmt.Errorf("%w: provider returned an incomplete token pair", shared.ErrTokenExchange)
	}

	if err := s.savePair(ctx, token); err != nil {
		return err
	}
	s.apply(token)
	s.logger.Info("authorization complete")
	return nil
}
