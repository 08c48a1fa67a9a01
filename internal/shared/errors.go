package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrAuthPending      = fmt.Errorf("authorization pending")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrThrottled  = fmt.Errorf("rate limited by remote service")
	ErrNotFound   = fmt.Errorf("not found")

	// Record data errors
	ErrInvalidRating  = fmt.Errorf("invalid rating value")
	ErrBadWatchedDate = fmt.Errorf("unparseable watched date")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
