package appointments

import "errors"

// Failure taxonomy surfaced to transports. Anything outside these sentinels
// is an unknown store failure wrapped with its original message.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("appointment not found")
	ErrInvalidState     = errors.New("invalid appointment state")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}
