package mint

import (
	"context"
	"errors"
	"time"

	"github.com/certforge/certmint/types"
)

// BatchResult summarizes one sequential pass over a candidate list.
// A batch run always completes: per-candidate failures are collected here
// instead of aborting the iteration.
type BatchResult struct {
	BatchID string `json:"batchId"`
	// Submitted lists items whose submission was accepted, in visit order.
	Submitted []string `json:"submitted"`
	// Skipped lists items that were not eligible: no content, in flight,
	// or already completed.
	Skipped []string `json:"skipped"`
	// Failed maps failed items to their submission error.
	Failed map[string]string `json:"failed"`
}

// RunBatch drives one sequential batch run: candidates are visited in list
// order, one submission at a time, waiting for each submission call (not
// its confirmation) before pacing and moving on. Only candidates passing
// the CanSubmit gate are visited, which also makes re-running a batch
// idempotent for completed and in-flight items.
//
// The only whole-batch refusal is a missing signer; it returns
// types.ErrNoSigner without attempting any candidate.
func (m *Manager) RunBatch(ctx context.Context, batchID string, candidates []types.IssuanceCandidate) (BatchResult, error) {
	result := BatchResult{
		BatchID: batchID,
		Failed:  make(map[string]string),
	}
	if m.signer == nil {
		return result, types.ErrNoSigner
	}

	m.metrics.BatchRuns.Add(1)
	m.logger.Infow("starting batch run", "batch", batchID, "candidates", len(candidates))
	m.setStatusMessage("starting to mint certificates for batch %s", batchID)

	for _, c := range candidates {
		select {
		case <-ctx.Done():
			m.logger.Infow("batch run canceled", "batch", batchID)
			return result, nil
		default:
		}

		if !m.state.CanSubmit(c) {
			result.Skipped = append(result.Skipped, c.ItemID)
			continue
		}

		err := m.SubmitCandidate(ctx, c)
		switch {
		case err == nil:
			result.Submitted = append(result.Submitted, c.ItemID)
		case errors.Is(err, types.ErrAlreadyInFlight), errors.Is(err, types.ErrAlreadyCompleted):
			// Lost the claim to a concurrent manual trigger between the gate
			// check and the claim; treat like any other ineligible item.
			result.Skipped = append(result.Skipped, c.ItemID)
			continue
		default:
			// One failed candidate never aborts the run.
			result.Failed[c.ItemID] = err.Error()
			m.logger.Errorw("batch submission failed", "batch", batchID, "item", c.ItemID, "error", err)
		}

		if err := m.pace(ctx); err != nil {
			return result, nil
		}
	}

	return result, nil
}

// pace waits the configured pacing interval between two submissions, or
// returns early when the context ends. Validation guarantees the interval
// is positive.
func (m *Manager) pace(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.cfg.PacingInterval.Duration):
		return nil
	}
}
