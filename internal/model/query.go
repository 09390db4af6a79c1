package model

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a query is empty after trimming whitespace.
// An empty query suppresses both the suggestion and the aggregation flows.
var ErrEmptyQuery = errors.New("empty query: provide a search term")

// NormalizeQuery trims surrounding whitespace from a user-supplied search term.
// It returns ErrEmptyQuery if nothing remains.
func NormalizeQuery(raw string) (string, error) {
	q := strings.TrimSpace(raw)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}
