package errors

import "errors"

// Sentinel errors for the approval lifecycle. Handlers map these to HTTP
// statuses; services wrap them with fmt.Errorf and %w for context.
var (
	// ErrNotFound means no approval with that id exists for the tenant.
	ErrNotFound = errors.New("approval not found")

	// ErrAlreadyReviewed means the approval left pending before this call.
	// Non-fatal: retried or duplicated transitions are no-ops.
	ErrAlreadyReviewed = errors.New("approval already reviewed")

	// ErrInvalidArgument means the request payload or candidate is malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrExecutorUnavailable means the decision persisted but the executor
	// call failed; execution can be retried without a new human decision.
	ErrExecutorUnavailable = errors.New("executor unavailable")
)

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ErrValidation) Unwrap() error {
	return ErrInvalidArgument
}
