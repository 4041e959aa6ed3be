package engine

import (
	"errors"
	"fmt"
)

// ErrDuplicateVote is returned when a principal votes twice on one report.
var ErrDuplicateVote = errors.New("principal has already voted on this report")

// ErrNoAssignment is returned when an assignment-status update targets a
// report that was never assigned.
var ErrNoAssignment = errors.New("report has no assignment")

// ValidationError reports a missing or malformed submission field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation unwraps err as a ValidationError.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
