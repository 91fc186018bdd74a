package mint

import (
	"context"
	"time"

	"github.com/certforge/certmint/ledger"
	"github.com/certforge/certmint/types"
)

// confirmationEvent is the terminal outcome of one watched transaction.
// Events carry the item id they belong to, so a confirmation can only ever
// resolve its own candidate, regardless of how many submissions happened
// in between.
type confirmationEvent struct {
	itemID      string
	handle      types.TransactionHandle
	code        ledger.StatusCode
	message     string
	blockNumber uint64
}

// watchConfirmation polls the ledger for the receipt of one transaction
// until it resolves or the context ends. One watcher goroutine exists per
// outstanding transaction; there is no shared current-handle slot.
func (m *Manager) watchConfirmation(ctx context.Context, itemID string, handle types.TransactionHandle) {
	interval := m.cfg.ConfirmationPollInterval.Duration
	if interval <= 0 {
		interval = time.Second
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	pollFailures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		res := m.ledger.TxStatus(ctx, handle.Hash)
		switch res.Code {
		case ledger.StatusSuccess:
			m.emitConfirmation(ctx, confirmationEvent{
				itemID:      itemID,
				handle:      handle,
				code:        ledger.StatusSuccess,
				blockNumber: res.BlockNumber,
			})
			return
		case ledger.StatusConfirmationFailed:
			m.emitConfirmation(ctx, confirmationEvent{
				itemID:  itemID,
				handle:  handle,
				code:    ledger.StatusConfirmationFailed,
				message: res.Message,
			})
			return
		case ledger.StatusContextCanceled:
			return
		case ledger.StatusPending:
			pollFailures = 0
		default:
			// Transient poll error; give the network a few more chances.
			pollFailures++
			m.logger.Debugw("confirmation poll failed", "item", itemID, "hash", handle.Hash, "attempt", pollFailures, "error", res.Message)
			if pollFailures >= maxPollFailures {
				m.emitConfirmation(ctx, confirmationEvent{
					itemID:  itemID,
					handle:  handle,
					code:    ledger.StatusConfirmationFailed,
					message: "confirmation polling gave up: " + res.Message,
				})
				return
			}
		}

		timer.Reset(interval)
	}
}

func (m *Manager) emitConfirmation(ctx context.Context, ev confirmationEvent) {
	select {
	case m.confirmationCh <- ev:
	case <-ctx.Done():
	}
}

// ConfirmationLoop resolves watched transactions: confirmed items move to
// completed, failed ones are recorded for retry. It is the only writer of
// terminal per-item state, so resolution order follows event order.
func (m *Manager) ConfirmationLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("confirmation loop stopped")
			return
		case ev := <-m.confirmationCh:
			m.resolveConfirmation(ctx, ev)
		}
	}
}

func (m *Manager) resolveConfirmation(ctx context.Context, ev confirmationEvent) {
	c, ok := m.Candidate(ev.itemID)
	if !ok {
		// Candidate set was replaced while the transaction was outstanding;
		// resolve state under the bare item id.
		c = types.IssuanceCandidate{ItemID: ev.itemID, DisplayName: ev.itemID}
	}

	switch ev.code {
	case ledger.StatusSuccess:
		m.state.MarkCompleted(ev.itemID)
		m.metrics.Confirmations.Add(1)
		m.metrics.InFlightCount.Add(-1)
		m.metrics.CompletedCount.Add(1)
		if !ev.handle.SubmittedAt.IsZero() {
			m.metrics.ConfirmationDelay.Observe(time.Since(ev.handle.SubmittedAt).Seconds())
		}
		m.putRecord(ctx, c, ev.handle, types.StatusCompleted, "")
		m.setStatusMessage("certificate minted for %s", c.DisplayName)
		m.logger.Infow("mint transaction confirmed", "item", ev.itemID, "hash", ev.handle.Hash, "block", ev.blockNumber)

	case ledger.StatusConfirmationFailed:
		m.state.MarkFailed(ev.itemID, ev.message)
		m.metrics.ConfirmationFailures.Add(1)
		m.metrics.InFlightCount.Add(-1)
		m.putRecord(ctx, c, ev.handle, types.StatusFailed, ev.message)
		m.setStatusMessage("transaction confirmation failed for %s: %s", c.DisplayName, ev.message)
		m.logger.Errorw("mint transaction failed", "item", ev.itemID, "hash", ev.handle.Hash, "error", ev.message)
	}
}
