package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenNotFound    = fmt.Errorf("auth token not found")

	// Transport and backend errors
	ErrNetwork            = fmt.Errorf("network error")
	ErrServer             = fmt.Errorf("server error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrItemNotFound       = fmt.Errorf("item not found")

	// Cache errors
	ErrEmptyCache = fmt.Errorf("no cached data available")

	// Playback errors
	ErrPlaybackRejected = fmt.Errorf("playback rejected")
	ErrMediaDecode      = fmt.Errorf("media decode error")
	ErrNoAudio          = fmt.Errorf("track has no audio url")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
