package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certforge/certmint/generator"
	ledgermock "github.com/certforge/certmint/ledger/mock"
	"github.com/certforge/certmint/mint"
	"github.com/certforge/certmint/pkg/config"
	"github.com/certforge/certmint/pkg/signer/noop"
	"github.com/certforge/certmint/pkg/store"
	"github.com/certforge/certmint/types"
)

const generatorResponse = `{
	"success": true,
	"results": [
		{"itemId": "item-1", "displayName": "Weather Station", "ownerId": "alice", "contentAddress": "QmFoo"},
		{"itemId": "item-2", "displayName": "Bridge Monitor", "error": "rendering failed"}
	]
}`

type testServer struct {
	*Server
	manager *mint.Manager
	store   store.Store
	http    *httptest.Server
}

func newTestServer(t *testing.T, withSigner bool) *testServer {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/generate") {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(generatorResponse))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(backend.Close)

	logger := logging.Logger("test")
	gen := generator.NewClient(backend.URL, 5*time.Second, logger)

	st := store.NewInMemory()
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.MintConfig{
		PacingInterval:           config.DurationWrapper{Duration: time.Millisecond},
		ConfirmationPollInterval: config.DurationWrapper{Duration: 5 * time.Millisecond},
		SubmitTimeout:            config.DurationWrapper{Duration: time.Second},
	}

	var manager *mint.Manager
	if withSigner {
		s, err := noop.NewNoopSigner()
		require.NoError(t, err)
		manager = mint.NewManager(cfg, &ledgermock.MockClient{}, s, st, logger, nil)
	} else {
		manager = mint.NewManager(cfg, &ledgermock.MockClient{}, nil, st, logger, nil)
	}

	srv := NewServer(config.RPCConfig{Address: "127.0.0.1:0"}, manager, gen, st, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testServer{Server: srv, manager: manager, store: st, http: ts}
}

func (ts *testServer) do(t *testing.T, method, path string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.http.URL+path, nil)
	require.NoError(t, err)
	resp, err := ts.http.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, true)
	resp, body := ts.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestGenerateInstallsCandidates(t *testing.T) {
	ts := newTestServer(t, true)

	resp, body := ts.do(t, http.MethodPost, "/v1/batches/batch-7/generate")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "batch-7", body["batchId"])

	batchID, candidates := ts.manager.Candidates()
	assert.Equal(t, "batch-7", batchID)
	require.Len(t, candidates, 2)
}

func TestStatusUnknownBatch(t *testing.T) {
	ts := newTestServer(t, true)
	resp, _ := ts.do(t, http.MethodGet, "/v1/batches/nope/status")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusProjection(t *testing.T) {
	ts := newTestServer(t, true)
	ts.do(t, http.MethodPost, "/v1/batches/batch-7/generate")

	resp, body := ts.do(t, http.MethodGet, "/v1/batches/batch-7/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "batch-7", body["batchId"])

	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	first := items[0].(map[string]any)
	assert.Equal(t, "ready", first["status"])
	second := items[1].(map[string]any)
	assert.Equal(t, "no-content", second["status"])
	assert.Equal(t, "rendering failed", second["error"])
}

func TestMintBatchRequiresGeneration(t *testing.T) {
	ts := newTestServer(t, true)
	resp, _ := ts.do(t, http.MethodPost, "/v1/batches/batch-7/mint")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMintBatchQueuesRun(t *testing.T) {
	ts := newTestServer(t, true)
	ts.do(t, http.MethodPost, "/v1/batches/batch-7/generate")

	resp, body := ts.do(t, http.MethodPost, "/v1/batches/batch-7/mint")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "started", body["status"])

	// Without a consumer running, a second trigger conflicts.
	resp, _ = ts.do(t, http.MethodPost, "/v1/batches/batch-7/mint")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMintBatchNoSigner(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do(t, http.MethodPost, "/v1/batches/batch-7/generate")

	resp, body := ts.do(t, http.MethodPost, "/v1/batches/batch-7/mint")
	require.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "no_signer", errObj["code"])
}

func TestMintItem(t *testing.T) {
	ts := newTestServer(t, true)
	ts.do(t, http.MethodPost, "/v1/batches/batch-7/generate")

	resp, _ := ts.do(t, http.MethodPost, "/v1/items/item-1/mint")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/v1/items/nope/mint")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "unknown_item", errObj["code"])

	resp, body = ts.do(t, http.MethodPost, "/v1/items/item-2/mint")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errObj = body["error"].(map[string]any)
	assert.Equal(t, "no_content", errObj["code"])
}

func TestMetadata(t *testing.T) {
	ts := newTestServer(t, true)
	ts.do(t, http.MethodPost, "/v1/batches/batch-7/generate")

	resp, body := ts.do(t, http.MethodGet, "/v1/items/item-1/metadata")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Certificate: Weather Station", body["name"])
	assert.Equal(t, "ipfs://QmFoo", body["image"])

	resp, _ = ts.do(t, http.MethodGet, "/v1/items/item-2/metadata")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/v1/items/nope/metadata")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecords(t *testing.T) {
	ts := newTestServer(t, true)

	req, err := http.NewRequest(http.MethodGet, ts.http.URL+"/v1/records", nil)
	require.NoError(t, err)
	resp, err := ts.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []store.IssuanceRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	assert.Empty(t, records)

	require.NoError(t, ts.store.PutRecord(req.Context(), store.IssuanceRecord{
		ItemID: "item-1",
		Status: types.StatusCompleted,
	}))

	resp2, err := ts.http.Client().Get(ts.http.URL + "/v1/records")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "item-1", records[0].ItemID)
}
