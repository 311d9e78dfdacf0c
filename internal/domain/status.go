package domain

import "fmt"

// Status is the closed set of scheduling states an appointment moves through.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
	StatusCompleted Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCanceled, StatusCompleted:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Terminal reports whether no further scheduling action applies to s.
func (s Status) Terminal() bool {
	return s == StatusCanceled || s == StatusCompleted
}

// CanTransitionTo enforces the transition table:
// pending -> {confirmed, canceled}, confirmed -> {completed, canceled}.
// Re-setting the current status is allowed so repeated cancels stay idempotent.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCanceled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCanceled
	}
	return false
}
