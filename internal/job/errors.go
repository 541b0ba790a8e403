package job

import (
	"errors"
	"fmt"

	"github.com/zulandar/spindle/internal/store"
)

var (
	// ErrNotFound is returned when the referenced job does not exist.
	ErrNotFound = store.ErrNotFound

	// ErrValidation is the sentinel behind every *ValidationError.
	ErrValidation = errors.New("job: validation failed")

	// ErrPreconditionFailed is returned when finishing a job that has no
	// finish time.
	ErrPreconditionFailed = errors.New("job: precondition failed")

	// ErrCurrentConflict is returned under the reject policy when a machine
	// already has a current job.
	ErrCurrentConflict = errors.New("job: machine already has a current job")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("job: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}
