package service

import "errors"

var (
	// ErrNotFound means the requested code id does not exist.
	ErrNotFound = errors.New("qr code not found")
	// ErrUnauthorized means the requester does not own the record.
	ErrUnauthorized = errors.New("requester is not the owner")
	// ErrInvalidDestination rejects empty or non-http(s) destinations.
	ErrInvalidDestination = errors.New("invalid destination url")
	// ErrInvalidColor rejects colors the renderer cannot produce.
	ErrInvalidColor = errors.New("invalid color")
	// ErrScanBaseNotConfigured fires before any insert when a tracked
	// code is requested but no base URL exists to build scan URLs from.
	ErrScanBaseNotConfigured = errors.New("scan base url is not configured")
	// ErrStatsUnavailable is returned for untracked codes. Distinct from
	// ErrNotFound: the record exists, it just records nothing.
	ErrStatsUnavailable = errors.New("statistics not available for untracked qr code")

	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
