package model

import "fmt"

// Status is the overall result of a lookup.
type Status int

const (
	// StatusPending means the lookup has not finished.
	StatusPending Status = iota

	// StatusSuccess means every applicable stage completed.
	StatusSuccess

	// StatusNotFound means the search returned no hits; later stages were skipped.
	StatusNotFound

	// StatusFailed means a stage failed and the remaining stages were aborted.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseStatus converts a status name back into a Status.
func ParseStatus(name string) (Status, error) {
	for _, s := range []Status{StatusPending, StatusSuccess, StatusNotFound, StatusFailed} {
		if s.String() == name {
			return s, nil
		}
	}
	return StatusPending, fmt.Errorf("unknown status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	status, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// Outcome describes how a lookup ended.
// Callers distinguish cases by Status and FailedStage, never by message text.
type Outcome struct {
	// Status is the overall result.
	Status Status `json:"status"`

	// FailedStage is the stage that failed. Only set when Status is StatusFailed.
	FailedStage Stage `json:"failed_stage,omitempty"`

	// Err is the underlying error for failed lookups.
	Err error `json:"-"`

	// ErrorMessage is the string form of Err, kept for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// Succeeded returns a successful outcome.
func Succeeded() Outcome {
	return Outcome{Status: StatusSuccess}
}

// NotFound returns the outcome for a search without hits.
func NotFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

// Failed returns the outcome for a failure at the given stage.
func Failed(stage Stage, err error) Outcome {
	o := Outcome{
		Status:      StatusFailed,
		FailedStage: stage,
		Err:         err,
	}
	if err != nil {
		o.ErrorMessage = err.Error()
	}
	return o
}

// Message returns the user-facing message for the outcome, if any.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusNotFound:
		return MessageNoResult
	case StatusFailed:
		return MessageFailure
	default:
		return ""
	}
}
