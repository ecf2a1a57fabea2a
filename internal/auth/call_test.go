package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/intmo/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// apiCall simulates an API operation that rejects every access token except valid.
func apiCall(s *Session, valid string, calls *atomic.Int32) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		calls.Add(1)
		token, err := s.Token()
		if err != nil {
			return "", err
		}
		if token.AccessToken != valid {
			return "", fmt.Errorf("%w: status 401", shared.ErrUnauthorized)
		}
		return "playing", nil
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	restored := func(t *testing.T, opener func(h *harness) Opener) *harness {
		t.Helper()
		if opener == nil {
			opener = func(*harness) Opener { return OpenerFunc(func(string) error { return nil }) }
		}
		h := withOpener(t, time.Minute, opener, KeyAccessToken, "expired", KeyRefreshToken, "r1")
		_, err := h.session.RestoreOrAuthenticate(ctx)
		require.NoError(t, err)
		return h
	}

	t.Run("success runs once", func(t *testing.T) {
		h := restored(t, nil)
		var calls atomic.Int32

		got, err := Execute(ctx, h.session, apiCall(h.session, "expired", &calls))
		require.NoError(t, err)
		assert.Equal(t, "playing", got)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 0, h.provider.refreshCount())
	})

	t.Run("unauthorized is refreshed and retried", func(t *testing.T) {
		h := restored(t, nil)
		var calls atomic.Int32

		got, err := Execute(ctx, h.session, apiCall(h.session, "refreshed", &calls))
		require.NoError(t, err)
		assert.Equal(t, "playing", got)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, 1, h.provider.refreshCount())
	})

	t.Run("other errors propagate unchanged", func(t *testing.T) {
		h := restored(t, nil)
		upstream := errors.New("503 from upstream")
		calls := 0

		_, err := Execute(ctx, h.session, func(context.Context) (int, error) {
			calls++
			return 0, upstream
		})
		assert.Same(t, upstream, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, h.provider.refreshCount())
	})

	t.Run("at most two invocations", func(t *testing.T) {
		h := restored(t, nil)
		calls := 0
		unauthorized := fmt.Errorf("%w: status 401", shared.ErrUnauthorized)

		_, err := Execute(ctx, h.session, func(context.Context) (int, error) {
			calls++
			return 0, unauthorized
		})
		assert.Same(t, unauthorized, err, "the retry's failure is returned as-is")
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, h.provider.refreshCount())
	})

	t.Run("refresh failure is returned without retry", func(t *testing.T) {
		h := restored(t, nil)
		h.provider.RefreshFunc = func(string) (*oauth2.Token, error) {
			return nil, errors.New("token endpoint down")
		}
		var calls atomic.Int32

		_, err := Execute(ctx, h.session, apiCall(h.session, "refreshed", &calls))
		assert.True(t, errors.Is(err, shared.ErrTokenExchange))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("revoked refresh falls back to authorization", func(t *testing.T) {
		h := restored(t, func(h *harness) Opener {
			return respondWith(t, h.registrar, validCallback("fresh"))
		})
		h.provider.RefreshFunc = func(string) (*oauth2.Token, error) {
			return nil, &oauth2.RetrieveError{ErrorCode: "invalid_grant"}
		}
		var calls atomic.Int32

		got, err := Execute(ctx, h.session, apiCall(h.session, "access-fresh", &calls))
		require.NoError(t, err)
		assert.Equal(t, "playing", got)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, 1, h.provider.exchangeCount())

		deleteAccess := h.events.index("delete:" + KeyAccessToken)
		deleteRefresh := h.events.index("delete:" + KeyRefreshToken)
		register := h.events.index("register")
		require.NotEqual(t, -1, deleteAccess)
		require.NotEqual(t, -1, deleteRefresh)
		assert.Less(t, deleteAccess, register, "tokens must be deleted before re-authentication")
		assert.Less(t, deleteRefresh, register, "tokens must be deleted before re-authentication")

		access, _ := h.store.value(KeyAccessToken)
		assert.Equal(t, "access-fresh", access)
	})

	t.Run("failed re-authentication is returned", func(t *testing.T) {
		h := restored(t, func(h *harness) Opener {
			return respondWith(t, h.registrar, func(string) string { return "code=x&state=wrong" })
		})
		h.provider.RefreshFunc = func(string) (*oauth2.Token, error) {
			return nil, &oauth2.RetrieveError{ErrorCode: "invalid_grant"}
		}
		var calls atomic.Int32

		_, err := Execute(ctx, h.session, apiCall(h.session, "access-x", &calls))
		assert.True(t, errors.Is(err, shared.ErrCallbackValidation))
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, AwaitingAuthorization, h.session.State())
	})

	t.Run("next call after a timed out authorization starts a new flow", func(t *testing.T) {
		var answer atomic.Bool
		h := withOpener(t, 20*time.Millisecond, func(h *harness) Opener {
			respond := respondWith(t, h.registrar, validCallback("fresh"))
			return OpenerFunc(func(authURL string) error {
				if !answer.Load() {
					return nil
				}
				return respond(authURL)
			})
		}, KeyAccessToken, "expired", KeyRefreshToken, "r1")
		_, err := h.session.RestoreOrAuthenticate(ctx)
		require.NoError(t, err)
		h.provider.RefreshFunc = func(string) (*oauth2.Token, error) {
			return nil, &oauth2.RetrieveError{ErrorCode: "invalid_grant"}
		}
		var calls atomic.Int32

		_, err = Execute(ctx, h.session, apiCall(h.session, "access-fresh", &calls))
		require.True(t, errors.Is(err, shared.ErrAuthorizationTimeout), "got %v", err)
		assert.Equal(t, AwaitingAuthorization, h.session.State())

		_, tokenErr := h.session.Token()
		assert.True(t, IsUnauthorized(tokenErr), "a session without a token must trigger recovery")

		answer.Store(true)
		got, err := Execute(ctx, h.session, apiCall(h.session, "access-fresh", &calls))
		require.NoError(t, err)
		assert.Equal(t, "playing", got)
		assert.Len(t, h.provider.stateList(), 2)
		assert.Equal(t, 1, h.provider.exchangeCount())
		assert.Equal(t, 1, h.provider.refreshCount())
		assert.Equal(t, Ready, h.session.State())
	})

	t.Run("concurrent failures share one refresh", func(t *testing.T) {
		h := restored(t, nil)
		release := make(chan struct{})
		h.provider.RefreshFunc = func(string) (*oauth2.Token, error) {
			<-release
			return &oauth2.Token{AccessToken: "refreshed"}, nil
		}

		const callers = 8
		var (
			wg      sync.WaitGroup
			calls   atomic.Int32
			failed  sync.WaitGroup
			results = make(chan error, callers)
		)
		failed.Add(callers)

		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var once sync.Once
				_, err := Execute(ctx, h.session, func(c context.Context) (string, error) {
					v, err := apiCall(h.session, "refreshed", &calls)(c)
					if err != nil {
						once.Do(failed.Done)
					}
					return v, err
				})
				results <- err
			}()
		}

		failed.Wait()
		close(release)
		wg.Wait()
		close(results)

		for err := range results {
			assert.NoError(t, err)
		}
		assert.Equal(t, 1, h.provider.refreshCount(), "refresh must be coalesced")
		assert.Equal(t, int32(2*callers), calls.Load())
	})

	t.Run("concurrent revocations share one authorization", func(t *testing.T) {
		h := restored(t, func(h *harness) Opener {
			return respondWith(t, h.registrar, validCallback("fresh"))
		})
		h.provider.RefreshFunc = func(string) (*oauth2.Token, error) {
			return nil, &oauth2.RetrieveError{ErrorCode: "invalid_grant"}
		}

		var wg sync.WaitGroup
		var calls atomic.Int32
		errs := make(chan error, 4)
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := Execute(ctx, h.session, apiCall(h.session, "access-fresh", &calls))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, 1, h.provider.exchangeCount())
	})

	t.Run("ExecuteErr", func(t *testing.T) {
		h := restored(t, nil)
		calls := 0

		err := ExecuteErr(ctx, h.session, func(context.Context) error {
			calls++
			if calls == 1 {
				return shared.ErrUnauthorized
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})
}

type countingRecoverer struct {
	refreshErr error
	reauthErr  error
	refreshes  int
	reauths    int
}

func (r *countingRecoverer) Generation() uint64 { return 7 }

func (r *countingRecoverer) Refresh(_ context.Context, seen uint64) error {
	r.refreshes++
	if seen != 7 {
		return errors.New("unexpected generation")
	}
	return r.refreshErr
}

func (r *countingRecoverer) Reauthenticate(context.Context, uint64) error {
	r.reauths++
	return r.reauthErr
}

func TestExecute_Recoverer(t *testing.T) {
	ctx := context.Background()
	failOnce := func() func(context.Context) (bool, error) {
		n := 0
		return func(context.Context) (bool, error) {
			n++
			if n == 1 {
				return false, shared.ErrUnauthorized
			}
			return true, nil
		}
	}

	t.Run("refresh only", func(t *testing.T) {
		rec := &countingRecoverer{}
		ok, err := Execute(ctx, rec, failOnce())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, rec.refreshes)
		assert.Equal(t, 0, rec.reauths)
	})

	t.Run("revoked goes to reauthentication", func(t *testing.T) {
		rec := &countingRecoverer{refreshErr: fmt.Errorf("%w: invalid_grant", shared.ErrRefreshRevoked)}
		ok, err := Execute(ctx, rec, failOnce())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, rec.reauths)
	})

	t.Run("reauthentication error", func(t *testing.T) {
		rec := &countingRecoverer{
			refreshErr: shared.ErrRefreshRevoked,
			reauthErr:  shared.ErrAuthorizationTimeout,
		}
		ok, err := Execute(ctx, rec, failOnce())
		assert.False(t, ok)
		assert.True(t, errors.Is(err, shared.ErrAuthorizationTimeout))
	})
}
