package mint

import (
	"sync"

	"github.com/certforge/certmint/types"
)

// State tracks, for every candidate, whether it is untouched, in flight,
// or completed, plus the transaction handle of each outstanding submission.
// Handles are kept per item so a confirmation can never be attributed to
// whichever candidate happens to be current at resolution time.
//
// Important assertions:
//   - a candidate is never in flight and completed at the same time
//   - a candidate enters inFlight strictly before its handle is requested
//     and leaves it strictly after the handle resolves
//   - all mutation happens under one mutex; readers get immutable snapshots
type State struct {
	mu        sync.RWMutex
	inFlight  map[string]struct{}
	completed map[string]struct{}
	failures  map[string]string
	handles   map[string]types.TransactionHandle
}

// NewState returns an empty per-item state store.
func NewState() *State {
	return &State{
		inFlight:  make(map[string]struct{}),
		completed: make(map[string]struct{}),
		failures:  make(map[string]string),
		handles:   make(map[string]types.TransactionHandle),
	}
}

// MarkInFlight claims an item for submission. It fails when the item is
// already in flight or already completed, making it the atomic gate that
// guarantees at-most-one concurrent issuance per item.
func (s *State) MarkInFlight(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.completed[itemID]; ok {
		return types.ErrAlreadyCompleted
	}
	if _, ok := s.inFlight[itemID]; ok {
		return types.ErrAlreadyInFlight
	}
	s.inFlight[itemID] = struct{}{}
	delete(s.failures, itemID)
	return nil
}

// MarkCompleted resolves an in-flight item as confirmed. The item keeps its
// handle so callers can still show the confirming transaction.
func (s *State) MarkCompleted(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, itemID)
	delete(s.failures, itemID)
	s.completed[itemID] = struct{}{}
}

// MarkFailed resolves an in-flight item as failed with a human-readable
// reason. The item leaves inFlight and becomes submittable again.
func (s *State) MarkFailed(itemID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, itemID)
	delete(s.handles, itemID)
	s.failures[itemID] = reason
}

// SetHandle records the transaction handle of an in-flight item.
func (s *State) SetHandle(itemID string, handle types.TransactionHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[itemID] = handle
}

// Handle returns the recorded transaction handle for an item.
func (s *State) Handle(itemID string) (types.TransactionHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.handles[itemID]
	return handle, ok
}

// IsInFlight reports whether the item has an unresolved submission.
func (s *State) IsInFlight(itemID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inFlight[itemID]
	return ok
}

// IsCompleted reports whether the item's certificate has been issued.
func (s *State) IsCompleted(itemID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completed[itemID]
	return ok
}

// FailureReason returns the recorded failure message for an item, if any.
func (s *State) FailureReason(itemID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reason, ok := s.failures[itemID]
	return reason, ok
}

// CanSubmit is the single gate both manual submission and the batch
// sequencer consult: the candidate has content and is neither in flight
// nor completed.
func (s *State) CanSubmit(c types.IssuanceCandidate) bool {
	if !c.HasContent() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.inFlight[c.ItemID]; ok {
		return false
	}
	_, ok := s.completed[c.ItemID]
	return !ok
}

// Snapshot is an immutable copy of the state used for status projection.
type Snapshot struct {
	inFlight  map[string]struct{}
	completed map[string]struct{}
	failures  map[string]string
	handles   map[string]types.TransactionHandle
}

// Snapshot returns a copy of the current state. Later mutations of the
// store are not visible through it.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		inFlight:  make(map[string]struct{}, len(s.inFlight)),
		completed: make(map[string]struct{}, len(s.completed)),
		failures:  make(map[string]string, len(s.failures)),
		handles:   make(map[string]types.TransactionHandle, len(s.handles)),
	}
	for id := range s.inFlight {
		snap.inFlight[id] = struct{}{}
	}
	for id := range s.completed {
		snap.completed[id] = struct{}{}
	}
	for id, reason := range s.failures {
		snap.failures[id] = reason
	}
	for id, handle := range s.handles {
		snap.handles[id] = handle
	}
	return snap
}

// InFlight reports whether the item was in flight when the snapshot was taken.
func (s Snapshot) InFlight(itemID string) bool {
	_, ok := s.inFlight[itemID]
	return ok
}

// Completed reports whether the item was completed when the snapshot was taken.
func (s Snapshot) Completed(itemID string) bool {
	_, ok := s.completed[itemID]
	return ok
}

// FailureReason returns the failure message recorded for the item, if any.
func (s Snapshot) FailureReason(itemID string) (string, bool) {
	reason, ok := s.failures[itemID]
	return reason, ok
}

// Handle returns the transaction handle recorded for the item, if any.
func (s Snapshot) Handle(itemID string) (types.TransactionHandle, bool) {
	handle, ok := s.handles[itemID]
	return handle, ok
}
