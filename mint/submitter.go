package mint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/certforge/certmint/ledger"
	"github.com/certforge/certmint/pkg/store"
	"github.com/certforge/certmint/types"
)

// SubmitCandidate submits one mint transaction for a candidate. It claims
// the item before engaging the signer, holds the signer slot for the whole
// signature request, and hands the resulting transaction handle to its own
// confirmation watcher.
//
// On failure the in-flight claim is rolled back so the candidate becomes
// submittable again; membership is never left partial.
func (m *Manager) SubmitCandidate(ctx context.Context, c types.IssuanceCandidate) error {
	if m.signer == nil {
		return types.ErrNoSigner
	}
	if !c.HasContent() {
		return types.ErrNoContent
	}
	recipient, err := m.recipient()
	if err != nil {
		return err
	}

	// Claim the item strictly before the handle is requested. Losing the
	// claim means a concurrent path (batch run or manual trigger) owns it.
	if err := m.state.MarkInFlight(c.ItemID); err != nil {
		return err
	}
	m.setStatusMessage("submitting mint transaction for %s", c.DisplayName)

	m.signerMu.Lock()
	submitCtx, cancel := context.WithTimeout(ctx, m.cfg.SubmitTimeout.Duration)
	start := time.Now()
	res := m.ledger.Mint(submitCtx, recipient, c.TokenURI())
	m.metrics.SubmitTime.Observe(time.Since(start).Seconds())
	cancel()
	m.signerMu.Unlock()

	if res.Code != ledger.StatusSuccess {
		m.state.MarkFailed(c.ItemID, res.Message)
		m.metrics.SubmissionsRejected.Add(1)
		m.setStatusMessage("failed to mint certificate for %s: %s", c.DisplayName, res.Message)
		m.putRecord(ctx, c, types.TransactionHandle{}, types.StatusFailed, res.Message)

		switch res.Code {
		case ledger.StatusNoSigner:
			return types.ErrNoSigner
		case ledger.StatusContextCanceled:
			return fmt.Errorf("submission canceled for %s: %s", c.ItemID, res.Message)
		default:
			return fmt.Errorf("submission rejected for %s: %s", c.ItemID, res.Message)
		}
	}

	handle := types.TransactionHandle{Hash: res.TxHash, SubmittedAt: res.SubmittedAt}
	m.state.SetHandle(c.ItemID, handle)
	m.metrics.Submissions.Add(1)
	m.metrics.InFlightCount.Add(1)
	m.setStatusMessage("mint transaction submitted for %s, awaiting confirmation", c.DisplayName)
	m.putRecord(ctx, c, handle, types.StatusAwaitingConfirmation, "")
	m.logger.Infow("mint transaction submitted", "item", c.ItemID, "hash", handle.Hash)

	go m.watchConfirmation(m.watchContext(), c.ItemID, handle)
	return nil
}

// SubmitItem submits one candidate of the current set by item id,
// synchronously. Callers wanting serialization with a running batch use
// EnqueueMint instead.
func (m *Manager) SubmitItem(ctx context.Context, itemID string) error {
	c, ok := m.Candidate(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrUnknownItem, itemID)
	}
	return m.SubmitCandidate(ctx, c)
}

// putRecord updates the issuance record of an item, best effort.
func (m *Manager) putRecord(ctx context.Context, c types.IssuanceCandidate, handle types.TransactionHandle, status types.DisplayStatus, errMsg string) {
	if m.store == nil {
		return
	}
	batchID, _ := m.Candidates()
	record := store.IssuanceRecord{
		ItemID:      c.ItemID,
		BatchID:     batchID,
		TxHash:      handle.Hash,
		Status:      status,
		Error:       errMsg,
		SubmittedAt: handle.SubmittedAt,
	}
	if status.Terminal() || status == types.StatusFailed {
		record.ResolvedAt = time.Now()
	}
	if err := m.store.PutRecord(ctx, record); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Errorw("failed to store issuance record", "item", c.ItemID, "error", err)
	}
}
