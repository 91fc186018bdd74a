package types

import "time"

// TransactionHandle identifies a submitted but not necessarily confirmed
// issuance transaction.
type TransactionHandle struct {
	Hash        string    `json:"hash"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// IsZero reports whether the handle is unset.
func (h TransactionHandle) IsZero() bool {
	return h.Hash == ""
}
