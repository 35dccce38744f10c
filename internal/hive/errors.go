package hive

import "fmt"

// Error taxonomy for store and reconciler operations. The HTTP boundary
// maps these to status codes with errors.As; everything else is a 500.

// NotFoundError reports a missing hive root or a missing entity.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// PreconditionError reports an operation attempted against state that
// does not allow it (approving without a plan, duplicate feature name).
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

// ValidationError reports a malformed or missing input value.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func notFoundf(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

func preconditionf(format string, args ...any) error {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}
