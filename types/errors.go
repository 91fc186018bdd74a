package types

import "errors"

var (
	// ErrNoSigner is returned when submission is attempted without a
	// connected signer. Checked before any network call.
	ErrNoSigner = errors.New("no signer connected")

	// ErrNoContent is returned when submission is attempted for a candidate
	// without a content address.
	ErrNoContent = errors.New("candidate has no content address")

	// ErrAlreadyInFlight is returned when a submission is attempted for a
	// candidate with an unresolved outstanding submission.
	ErrAlreadyInFlight = errors.New("candidate already in flight")

	// ErrAlreadyCompleted is returned when a submission is attempted for a
	// candidate whose token has already been issued.
	ErrAlreadyCompleted = errors.New("candidate already completed")

	// ErrUnknownItem is returned when an item id does not belong to the
	// current candidate set.
	ErrUnknownItem = errors.New("unknown item")
)
