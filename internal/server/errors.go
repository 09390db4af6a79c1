package server

import "errors"

var (
	// ErrHistoryDisabled is returned by history routes when no store is configured.
	ErrHistoryDisabled = errors.New("lookup history is not enabled")

	// ErrMissingTitle is returned when the history route is called without a title.
	ErrMissingTitle = errors.New("title is required")

	// ErrLookupNotFound is returned when a stored lookup does not exist.
	ErrLookupNotFound = errors.New("lookup not found")
)
