package mint

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	logging "github.com/ipfs/go-log/v2"
	"github.com/stretchr/testify/require"

	"github.com/certforge/certmint/ledger"
	"github.com/certforge/certmint/pkg/config"
	"github.com/certforge/certmint/pkg/signer"
	"github.com/certforge/certmint/pkg/signer/noop"
	"github.com/certforge/certmint/pkg/store"
	"github.com/certforge/certmint/types"
)

func testMintConfig() config.MintConfig {
	return config.MintConfig{
		PacingInterval:           config.DurationWrapper{Duration: time.Millisecond},
		ConfirmationPollInterval: config.DurationWrapper{Duration: 5 * time.Millisecond},
		SubmitTimeout:            config.DurationWrapper{Duration: time.Second},
	}
}

func newTestManager(t *testing.T, lc ledger.Client) *Manager {
	t.Helper()
	s, err := noop.NewNoopSigner()
	require.NoError(t, err)
	return newTestManagerWithSigner(t, lc, s)
}

func newTestManagerWithSigner(t *testing.T, lc ledger.Client, s signer.Signer) *Manager {
	t.Helper()
	st := store.NewInMemory()
	t.Cleanup(func() { _ = st.Close() })
	return NewManager(testMintConfig(), lc, s, st, logging.Logger("test"), NopMetrics())
}

func candidate(itemID string) types.IssuanceCandidate {
	return types.IssuanceCandidate{
		ItemID:         itemID,
		DisplayName:    "Project " + itemID,
		OwnerID:        "owner-" + itemID,
		ContentAddress: "Qm" + itemID,
	}
}

func emptyCandidate(itemID string) types.IssuanceCandidate {
	return types.IssuanceCandidate{
		ItemID:          itemID,
		DisplayName:     "Project " + itemID,
		GenerationError: "rendering failed",
	}
}

// fakeLedger is a scriptable in-memory ledger. Every Mint returns a fresh
// hash whose confirmation status tests flip explicitly.
type fakeLedger struct {
	mu       sync.Mutex
	nextHash int
	statuses map[string]ledger.ResultTxStatus
	minted   []string

	// concurrent tracks how many Mint calls are inside the client at once.
	concurrent    int
	maxConcurrent int
	mintDelay     time.Duration

	rejectAll bool
}

var _ ledger.Client = (*fakeLedger)(nil)

func newFakeLedger() *fakeLedger {
	return &fakeLedger{statuses: make(map[string]ledger.ResultTxStatus)}
}

func (f *fakeLedger) Mint(ctx context.Context, recipient common.Address, tokenURI string) ledger.ResultSubmit {
	f.mu.Lock()
	f.concurrent++
	if f.concurrent > f.maxConcurrent {
		f.maxConcurrent = f.concurrent
	}
	delay := f.mintDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.concurrent--

	if f.rejectAll {
		return ledger.ResultSubmit{BaseResult: ledger.BaseResult{Code: ledger.StatusRejected, Message: "user rejected the request"}}
	}

	f.nextHash++
	hash := fmt.Sprintf("0x%064x", f.nextHash)
	f.statuses[hash] = ledger.ResultTxStatus{BaseResult: ledger.BaseResult{Code: ledger.StatusPending}}
	f.minted = append(f.minted, tokenURI)
	return ledger.ResultSubmit{
		BaseResult:  ledger.BaseResult{Code: ledger.StatusSuccess},
		TxHash:      hash,
		SubmittedAt: time.Now(),
	}
}

func (f *fakeLedger) TxStatus(ctx context.Context, txHash string) ledger.ResultTxStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.statuses[txHash]
	if !ok {
		return ledger.ResultTxStatus{BaseResult: ledger.BaseResult{Code: ledger.StatusError, Message: "unknown transaction"}}
	}
	return res
}

func (f *fakeLedger) confirm(txHash string, block uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[txHash] = ledger.ResultTxStatus{
		BaseResult:  ledger.BaseResult{Code: ledger.StatusSuccess},
		BlockNumber: block,
	}
}

func (f *fakeLedger) fail(txHash, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[txHash] = ledger.ResultTxStatus{
		BaseResult: ledger.BaseResult{Code: ledger.StatusConfirmationFailed, Message: message},
	}
}

func (f *fakeLedger) mintedURIs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.minted...)
}

func (f *fakeLedger) maxConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxConcurrent
}

func (f *fakeLedger) lastHash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("0x%064x", f.nextHash)
}
