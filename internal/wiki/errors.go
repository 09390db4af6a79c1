package wiki

import (
	"errors"
	"fmt"
)

// API client errors.
// Callers match these with errors.Is; the returned errors carry the
// request details in their message.
var (
	// ErrUnexpectedStatus is returned when an API responds with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrMalformedResponse is returned when a response body cannot be decoded
	// or lacks the structure the operation requires.
	ErrMalformedResponse = errors.New("malformed API response")

	// ErrPageMissing is returned when the requested page or entity does not exist.
	ErrPageMissing = errors.New("page does not exist")

	// ErrAPI is returned when the MediaWiki API reports an error object.
	ErrAPI = errors.New("API error")

	// ErrBodyTooLarge is returned when a response exceeds the configured size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// apiError is the error object MediaWiki returns instead of a result.
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiError) err() error {
	return fmt.Errorf("%w: %s: %s", ErrAPI, e.Code, e.Info)
}
