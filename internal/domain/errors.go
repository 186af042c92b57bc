package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnsupportedNetwork is returned for an affiliate network the proxy does not know
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrProviderNotConfigured is returned when a network has no credentials
	ErrProviderNotConfigured = errors.New("credentials not configured")

	// ErrProviderAPIFailure is returned when an affiliate API request fails
	ErrProviderAPIFailure = errors.New("provider API request failed")

	// ErrVisionNotConfigured is returned when the vision classifier has no credentials
	ErrVisionNotConfigured = errors.New("vision classifier not configured")

	// ErrVisionFailure is returned when the vision service is unreachable or errors
	ErrVisionFailure = errors.New("vision service request failed")

	// ErrInvalidAnalysis is returned when the vision service answers with invalid or incomplete JSON
	ErrInvalidAnalysis = errors.New("invalid analysis response")

	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidTransition is returned when a flow action does not apply to the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrDegenerateCrop is returned when a crop region has no area
	ErrDegenerateCrop = errors.New("degenerate crop region")

	// ErrUnsupportedImage is returned when image data cannot be decoded
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
)
