package mint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certforge/certmint/types"
)

func TestRunBatchSubmitsInOrder(t *testing.T) {
	fl := newFakeLedger()
	m := newTestManager(t, fl)

	candidates := []types.IssuanceCandidate{candidate("a"), candidate("b"), candidate("c")}
	m.SetCandidates("batch-1", candidates)

	result, err := m.RunBatch(context.Background(), "batch-1", candidates)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, result.Submitted)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []string{"ipfs://Qma", "ipfs://Qmb", "ipfs://Qmc"}, fl.mintedURIs())
}

func TestRunBatchNoSigner(t *testing.T) {
	fl := newFakeLedger()
	m := newTestManagerWithSigner(t, fl, nil)

	_, err := m.RunBatch(context.Background(), "batch-1", []types.IssuanceCandidate{candidate("a")})
	require.ErrorIs(t, err, types.ErrNoSigner)
	assert.Empty(t, fl.mintedURIs())
}

func TestRunBatchSkipsIneligible(t *testing.T) {
	fl := newFakeLedger()
	m := newTestManager(t, fl)

	// a is already issued, b is fresh, c has no generated content.
	require.NoError(t, m.State().MarkInFlight("a"))
	m.State().MarkCompleted("a")

	candidates := []types.IssuanceCandidate{candidate("a"), candidate("b"), emptyCandidate("c")}
	m.SetCandidates("batch-1", candidates)

	result, err := m.RunBatch(context.Background(), "batch-1", candidates)
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, result.Submitted)
	assert.Equal(t, []string{"a", "c"}, result.Skipped)
	assert.Empty(t, result.Failed)
	assert.Equal(t, []string{"ipfs://Qmb"}, fl.mintedURIs())
}

func TestRunBatchContinuesAfterFailure(t *testing.T) {
	fl := newFakeLedger()
	fl.rejectAll = true
	m := newTestManager(t, fl)

	candidates := []types.IssuanceCandidate{candidate("a"), candidate("b")}
	m.SetCandidates("batch-1", candidates)

	result, err := m.RunBatch(context.Background(), "batch-1", candidates)
	require.NoError(t, err)

	assert.Empty(t, result.Submitted)
	require.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed["a"], "user rejected the request")
	assert.Contains(t, result.Failed["b"], "user rejected the request")

	// Failed candidates remain retryable.
	assert.True(t, m.State().CanSubmit(candidate("a")))
	assert.True(t, m.State().CanSubmit(candidate("b")))
}

func TestRunBatchRerunIsIdempotent(t *testing.T) {
	fl := newFakeLedger()
	m := newTestManager(t, fl)

	candidates := []types.IssuanceCandidate{candidate("a"), candidate("b")}
	m.SetCandidates("batch-1", candidates)

	first, err := m.RunBatch(context.Background(), "batch-1", candidates)
	require.NoError(t, err)
	require.Len(t, first.Submitted, 2)

	// Both submissions are still outstanding, so a rerun submits nothing.
	second, err := m.RunBatch(context.Background(), "batch-1", candidates)
	require.NoError(t, err)
	assert.Empty(t, second.Submitted)
	assert.Equal(t, []string{"a", "b"}, second.Skipped)
	assert.Len(t, fl.mintedURIs(), 2)
}

func TestRunBatchConfirmationsResolveIndependently(t *testing.T) {
	fl := newFakeLedger()
	m := newTestManager(t, fl)
	startManager(t, m)

	// a and c carry content, b has none.
	candidates := []types.IssuanceCandidate{candidate("a"), emptyCandidate("b"), candidate("c")}
	m.SetCandidates("batch-1", candidates)

	result, err := m.RunBatch(context.Background(), "batch-1", candidates)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, result.Submitted)
	assert.Equal(t, []string{"b"}, result.Skipped)

	hashA, ok := m.State().Handle("a")
	require.True(t, ok)
	hashC, ok := m.State().Handle("c")
	require.True(t, ok)
	require.NotEqual(t, hashA.Hash, hashC.Hash)

	// Confirming a completes only a; c keeps waiting on its own transaction.
	fl.confirm(hashA.Hash, 200)
	require.Eventually(t, func() bool {
		return m.State().IsCompleted("a")
	}, time.Second, 5*time.Millisecond)

	statuses := m.Statuses()
	require.Len(t, statuses, 3)
	assert.Equal(t, types.StatusCompleted, statuses[0].Status)
	assert.Equal(t, types.StatusNoContent, statuses[1].Status)
	assert.Equal(t, types.StatusAwaitingConfirmation, statuses[2].Status)
	assert.Equal(t, hashC.Hash, statuses[2].TxHash)

	fl.confirm(hashC.Hash, 201)
	require.Eventually(t, func() bool {
		return m.State().IsCompleted("c")
	}, time.Second, 5*time.Millisecond)
}

func TestRunBatchStopsOnCancel(t *testing.T) {
	fl := newFakeLedger()
	m := newTestManager(t, fl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates := []types.IssuanceCandidate{candidate("a"), candidate("b")}
	result, err := m.RunBatch(ctx, "batch-1", candidates)
	require.NoError(t, err)
	assert.Empty(t, result.Submitted)
	assert.Empty(t, fl.mintedURIs())
}

func TestPaceHonorsContext(t *testing.T) {
	m := newTestManager(t, newFakeLedger())
	m.cfg.PacingInterval.Duration = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := m.pace(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
