package auth

import (
	"context"
	"errors"

	"github.com/desertthunder/intmo/internal/shared"
)

// Recoverer repairs a session after an API call was rejected as unauthorized.
//
// seen is the generation observed before the failing call.
type Recoverer interface {
	Generation() uint64
	Refresh(ctx context.Context, seen uint64) error
	Reauthenticate(ctx context.Context, seen uint64) error
}

var _ Recoverer = (*Session)(nil)

// Execute runs op and, if it fails with [shared.ErrUnauthorized], refreshes the session (falling
// back to interactive authorization when the refresh token is revoked or a flow is already
// waiting) and runs op once more.
//
// op runs at most twice. Errors that are not authorization failures are returned unchanged, as
// is the outcome of the retry.
func Execute[T any](ctx context.Context, rec Recoverer, op func(context.Context) (T, error)) (T, error) {
	seen := rec.Generation()

	result, err := op(ctx)
	if err == nil || !IsUnauthorized(err) {
		return result, err
	}

	if err := recoverSession(ctx, rec, seen); err != nil {
		var zero T
		return zero, err
	}

	return op(ctx)
}

// ExecuteErr is [Execute] for operations without a result.
func ExecuteErr(ctx context.Context, rec Recoverer, op func(context.Context) error) error {
	_, err := Execute(ctx, rec, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func recoverSession(ctx context.Context, rec Recoverer, seen uint64) error {
	err := rec.Refresh(ctx, seen)
	if err == nil {
		return nil
	}
	if !errors.Is(err, shared.ErrRefreshRevoked) && !errors.Is(err, shared.ErrAuthorizationPending) {
		return err
	}
	return rec.Reauthenticate(ctx, seen)
}
