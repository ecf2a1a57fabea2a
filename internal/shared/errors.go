package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated       = fmt.Errorf("not authenticated")
	ErrTimeout                = fmt.Errorf("operation timed out")
	ErrAuthorizationTimeout   = fmt.Errorf("%w: no authorization callback received", ErrTimeout)
	ErrAuthorizationCancelled = fmt.Errorf("authorization cancelled")
	ErrAuthorizationPending   = fmt.Errorf("authorization already in progress")
	ErrAuthorizationDenied    = fmt.Errorf("authorization denied by provider")
	ErrCallbackValidation     = fmt.Errorf("invalid authorization callback")
	ErrTokenExchange          = fmt.Errorf("token exchange failed")
	ErrRefreshRevoked         = fmt.Errorf("refresh token revoked")
	ErrAcceptorBusy           = fmt.Errorf("callback acceptor already registered")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNoDevices          = fmt.Errorf("no Spotify devices found")
	ErrNoDeviceSelected   = fmt.Errorf("no device selected")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
