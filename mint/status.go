package mint

import (
	"github.com/certforge/certmint/types"
)

// Project derives the single human-facing status of a candidate from an
// immutable state snapshot. It is a pure function: identical inputs always
// yield identical output, and it never mutates its arguments.
//
// Per-candidate state machine:
//
//	NoContent                                    (terminal)
//	ReadyToSubmit -> Submitting -> AwaitingConfirmation -> Completed (terminal)
//	Submitting/AwaitingConfirmation -> Failed -> Submitting (retry)
func Project(c types.IssuanceCandidate, snap Snapshot) types.DisplayStatus {
	if !c.HasContent() {
		return types.StatusNoContent
	}
	if snap.Completed(c.ItemID) {
		return types.StatusCompleted
	}
	if snap.InFlight(c.ItemID) {
		if handle, ok := snap.Handle(c.ItemID); ok && !handle.IsZero() {
			return types.StatusAwaitingConfirmation
		}
		return types.StatusSubmitting
	}
	if _, ok := snap.FailureReason(c.ItemID); ok {
		return types.StatusFailed
	}
	return types.StatusReadyToSubmit
}

// CandidateStatus pairs a candidate with its projected status for display.
type CandidateStatus struct {
	Candidate types.IssuanceCandidate `json:"candidate"`
	Status    types.DisplayStatus     `json:"status"`
	TxHash    string                  `json:"txHash,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// ProjectAll projects every candidate of the current set against one
// consistent snapshot, preserving candidate order.
func ProjectAll(candidates []types.IssuanceCandidate, snap Snapshot) []CandidateStatus {
	statuses := make([]CandidateStatus, 0, len(candidates))
	for _, c := range candidates {
		status := CandidateStatus{
			Candidate: c,
			Status:    Project(c, snap),
		}
		if handle, ok := snap.Handle(c.ItemID); ok {
			status.TxHash = handle.Hash
		}
		if reason, ok := snap.FailureReason(c.ItemID); ok {
			status.Error = reason
		} else if c.GenerationError != "" {
			status.Error = c.GenerationError
		}
		statuses = append(statuses, status)
	}
	return statuses
}
