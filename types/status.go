package types

import "fmt"

// DisplayStatus is the single human-facing status projected for a candidate.
type DisplayStatus int

const (
	// StatusNoContent marks candidates that arrived from the generator
	// without a content address. Terminal.
	StatusNoContent DisplayStatus = iota
	// StatusFailed marks candidates whose last submission or confirmation
	// errored. Retryable.
	StatusFailed
	// StatusReadyToSubmit marks candidates with content that have never
	// been submitted, or whose previous attempt failed and was cleared.
	StatusReadyToSubmit
	// StatusSubmitting marks candidates whose submission has been sent to
	// the signer but no transaction handle exists yet.
	StatusSubmitting
	// StatusAwaitingConfirmation marks candidates with an outstanding
	// transaction handle being watched for inclusion.
	StatusAwaitingConfirmation
	// StatusCompleted marks candidates whose transaction confirmed. Terminal.
	StatusCompleted
)

// String implements fmt.Stringer.
func (s DisplayStatus) String() string {
	switch s {
	case StatusNoContent:
		return "no-content"
	case StatusFailed:
		return "failed"
	case StatusReadyToSubmit:
		return "ready"
	case StatusSubmitting:
		return "submitting"
	case StatusAwaitingConfirmation:
		return "awaiting-confirmation"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status can never change again.
func (s DisplayStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusNoContent
}

// MarshalText implements encoding.TextMarshaler so statuses serialize as
// their names in JSON payloads.
func (s DisplayStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *DisplayStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "no-content":
		*s = StatusNoContent
	case "failed":
		*s = StatusFailed
	case "ready":
		*s = StatusReadyToSubmit
	case "submitting":
		*s = StatusSubmitting
	case "awaiting-confirmation":
		*s = StatusAwaitingConfirmation
	case "completed":
		*s = StatusCompleted
	default:
		return fmt.Errorf("unknown display status %q", text)
	}
	return nil
}
