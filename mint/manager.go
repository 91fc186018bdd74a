package mint

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"

	"github.com/certforge/certmint/ledger"
	"github.com/certforge/certmint/pkg/config"
	"github.com/certforge/certmint/pkg/queue"
	"github.com/certforge/certmint/pkg/signer"
	"github.com/certforge/certmint/pkg/store"
	"github.com/certforge/certmint/types"
)

const (
	// maxPollFailures defines how many consecutive failed confirmation polls
	// are tolerated before a transaction is treated as failed.
	maxPollFailures = 30

	// eventChLength is large enough that watchers never block on delivery.
	eventChLength = 100
)

// Manager orchestrates certificate issuance: it owns the candidate set of
// the current batch, the per-item state, the single signer slot, and the
// confirmation watchers of all outstanding transactions.
type Manager struct {
	cfg config.MintConfig

	ledger ledger.Client
	signer signer.Signer
	store  store.Store

	state *State

	// signerMu serializes signature requests: the wallet is a single shared
	// resource, so at most one submission may engage it at a time.
	signerMu sync.Mutex

	// candidate set of the current batch run, immutable once fetched
	candidatesMu sync.RWMutex
	batchID      string
	candidates   []types.IssuanceCandidate
	byItemID     map[string]types.IssuanceCandidate

	confirmationCh chan confirmationEvent
	batchCh        chan batchRequest
	mintQueue      *queue.Queue[types.IssuanceCandidate]

	// subscriber channels of status observers, keyed for removal
	subsMu sync.Mutex
	subs   map[chan struct{}]struct{}

	// watchCtx bounds the lifetime of confirmation watchers to the run loop.
	watchCtxMu sync.RWMutex
	watchCtx   context.Context

	statusMu      sync.RWMutex
	statusMessage string

	logger  *logging.ZapEventLogger
	metrics *Metrics
}

type batchRequest struct {
	batchID    string
	candidates []types.IssuanceCandidate
}

// NewManager returns a manager with empty orchestrator state. The state
// lives for the duration of the process and is never persisted.
func NewManager(cfg config.MintConfig, lc ledger.Client, s signer.Signer, st store.Store, logger *logging.ZapEventLogger, metrics *Metrics) *Manager {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Manager{
		cfg:            cfg,
		ledger:         lc,
		signer:         s,
		store:          st,
		state:          NewState(),
		byItemID:       make(map[string]types.IssuanceCandidate),
		confirmationCh: make(chan confirmationEvent, eventChLength),
		batchCh:        make(chan batchRequest, 1),
		mintQueue:      queue.New[types.IssuanceCandidate](),
		subs:           make(map[chan struct{}]struct{}),
		logger:         logger,
		metrics:        metrics,
	}
}

// Run starts the manager loops and blocks until the context is canceled.
func (m *Manager) Run(ctx context.Context) error {
	m.watchCtxMu.Lock()
	m.watchCtx = ctx
	m.watchCtxMu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.ConfirmationLoop(ctx)
		return nil
	})
	g.Go(func() error {
		m.BatchLoop(ctx)
		return nil
	})
	g.Go(func() error {
		m.MintLoop(ctx)
		return nil
	})
	return g.Wait()
}

// SetCandidates installs the candidate set fetched for one batch run. The
// slice is treated as immutable from here on. Orchestrator state for items
// of earlier runs is kept: already issued certificates stay completed.
func (m *Manager) SetCandidates(batchID string, candidates []types.IssuanceCandidate) {
	m.candidatesMu.Lock()
	m.batchID = batchID
	m.candidates = candidates
	m.byItemID = make(map[string]types.IssuanceCandidate, len(candidates))
	for _, c := range candidates {
		m.byItemID[c.ItemID] = c
	}
	m.candidatesMu.Unlock()

	m.logger.Infow("candidate set installed", "batch", batchID, "count", len(candidates))
	m.notifyChange()
}

// Candidates returns the current batch id and candidate set.
func (m *Manager) Candidates() (string, []types.IssuanceCandidate) {
	m.candidatesMu.RLock()
	defer m.candidatesMu.RUnlock()
	return m.batchID, m.candidates
}

// Candidate looks up one candidate of the current set by item id.
func (m *Manager) Candidate(itemID string) (types.IssuanceCandidate, bool) {
	m.candidatesMu.RLock()
	defer m.candidatesMu.RUnlock()
	c, ok := m.byItemID[itemID]
	return c, ok
}

// State exposes the per-item state store.
func (m *Manager) State() *State {
	return m.state
}

// Statuses projects every candidate of the current set against one
// consistent state snapshot.
func (m *Manager) Statuses() []CandidateStatus {
	_, candidates := m.Candidates()
	return ProjectAll(candidates, m.state.Snapshot())
}

// StatusMessage returns the transient message describing the most recent
// transaction's lifecycle stage.
func (m *Manager) StatusMessage() string {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	return m.statusMessage
}

// Subscribe registers a status observer. The returned channel is signalled
// whenever candidate statuses may have changed; signals are coalesced per
// subscriber. The caller must invoke the returned function when done.
func (m *Manager) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	m.subsMu.Lock()
	m.subs[ch] = struct{}{}
	m.subsMu.Unlock()
	return ch, func() {
		m.subsMu.Lock()
		delete(m.subs, ch)
		m.subsMu.Unlock()
	}
}

// EnqueueMint queues a manual single-item submission. The request is
// processed by the mint loop, which serializes it with any running batch.
func (m *Manager) EnqueueMint(itemID string) error {
	c, ok := m.Candidate(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrUnknownItem, itemID)
	}
	if !c.HasContent() {
		return types.ErrNoContent
	}
	m.mintQueue.Push(c)
	return nil
}

// StartBatch queues a batch run over the current candidate set. It fails
// when no candidate set is installed or a run is already queued.
func (m *Manager) StartBatch() error {
	batchID, candidates := m.Candidates()
	if len(candidates) == 0 {
		return fmt.Errorf("no candidate set installed")
	}
	if m.signer == nil {
		return types.ErrNoSigner
	}
	select {
	case m.batchCh <- batchRequest{batchID: batchID, candidates: candidates}:
		return nil
	default:
		return fmt.Errorf("batch run already queued")
	}
}

// BatchLoop is responsible for executing queued batch runs one at a time.
func (m *Manager) BatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("batch loop stopped")
			return
		case req := <-m.batchCh:
			result, err := m.RunBatch(ctx, req.batchID, req.candidates)
			if err != nil {
				m.logger.Errorw("batch run refused", "batch", req.batchID, "error", err)
				continue
			}
			m.logger.Infow("batch run finished",
				"batch", req.batchID,
				"submitted", len(result.Submitted),
				"skipped", len(result.Skipped),
				"failed", len(result.Failed),
			)
		}
	}
}

// MintLoop is responsible for processing manual single-item submissions.
func (m *Manager) MintLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("mint loop stopped")
			return
		case <-m.mintQueue.NotifyCh():
		}
		for {
			c, ok := m.mintQueue.Pop()
			if !ok {
				break
			}
			if err := m.SubmitCandidate(ctx, c); err != nil {
				m.logger.Errorw("manual submission failed", "item", c.ItemID, "error", err)
			}
		}
	}
}

// recipient returns the address certificates are minted to: the configured
// recipient, or the signer's own address when none is configured.
func (m *Manager) recipient() (common.Address, error) {
	if m.cfg.Recipient != "" {
		if !common.IsHexAddress(m.cfg.Recipient) {
			return common.Address{}, fmt.Errorf("invalid recipient address %q", m.cfg.Recipient)
		}
		return common.HexToAddress(m.cfg.Recipient), nil
	}
	if m.signer == nil {
		return common.Address{}, types.ErrNoSigner
	}
	return m.signer.Address()
}

func (m *Manager) setStatusMessage(format string, args ...any) {
	m.statusMu.Lock()
	m.statusMessage = fmt.Sprintf(format, args...)
	m.statusMu.Unlock()
	m.notifyChange()
}

// notifyChange signals every subscribed status observer. Delivery per
// subscriber is coalesced: if a notification is already pending on a channel,
// no second one is queued.
func (m *Manager) notifyChange() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (m *Manager) watchContext() context.Context {
	m.watchCtxMu.RLock()
	defer m.watchCtxMu.RUnlock()
	if m.watchCtx == nil {
		return context.Background()
	}
	return m.watchCtx
}
