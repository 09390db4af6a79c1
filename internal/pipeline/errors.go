package pipeline

import (
	"errors"
	"fmt"

	"github.com/nao1215/wikiscope/internal/model"
)

var (
	// ErrNoResult is returned by the resolve step when the search has no hits.
	// The pipeline turns it into a not-found outcome.
	ErrNoResult = errors.New("no search result")

	// ErrStageSkipped is returned by a conditional step that does not apply
	// to the current lookup. It is not a failure.
	ErrStageSkipped = errors.New("stage skipped")
)

// StageError reports which stage failed a lookup.
type StageError struct {
	// Stage is the failing stage.
	Stage model.Stage

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}
