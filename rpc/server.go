package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"github.com/rs/cors"

	"github.com/certforge/certmint/generator"
	"github.com/certforge/certmint/mint"
	"github.com/certforge/certmint/pkg/config"
	"github.com/certforge/certmint/pkg/store"
	"github.com/certforge/certmint/types"
)

// Server exposes the issuance orchestrator over HTTP: batch generation and
// minting triggers, per-candidate statuses, metadata previews, and a
// websocket status stream.
type Server struct {
	cfg       config.RPCConfig
	manager   *mint.Manager
	generator *generator.Client
	store     store.Store
	logger    *logging.ZapEventLogger

	server http.Server
}

// NewServer creates a new instance of Server with the given configuration.
func NewServer(cfg config.RPCConfig, manager *mint.Manager, gen *generator.Client, st store.Store, logger *logging.ZapEventLogger) *Server {
	return &Server{
		cfg:       cfg,
		manager:   manager,
		generator: gen,
		store:     st,
		logger:    logger,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/batches/{batchID}/generate", s.handleGenerate).Methods(http.MethodPost)
	r.HandleFunc("/v1/batches/{batchID}/mint", s.handleMintBatch).Methods(http.MethodPost)
	r.HandleFunc("/v1/batches/{batchID}/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/items/{itemID}/mint", s.handleMintItem).Methods(http.MethodPost)
	r.HandleFunc("/v1/items/{itemID}/metadata", s.handleMetadata).Methods(http.MethodGet)
	r.HandleFunc("/v1/records", s.handleRecords).Methods(http.MethodGet)
	r.HandleFunc("/ws/status", s.handleStatusStream).Methods(http.MethodGet)
	return r
}

// Start begins serving HTTP requests on the configured address and blocks
// until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	handler := cors.Default().Handler(s.Router())
	s.server = http.Server{
		Addr:              s.cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("starting RPC server", "address", s.cfg.Address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Errorw("error while shutting down RPC server", "error", err)
		}
		return nil
	}
}

type statusResponse struct {
	BatchID string                 `json:"batchId"`
	Message string                 `json:"message,omitempty"`
	Items   []mint.CandidateStatus `json:"items"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate invokes the external generation step once for a batch and
// installs the resulting candidate set.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchID"]
	candidates, err := s.generator.Generate(r.Context(), batchID)
	if err != nil {
		s.logger.Errorw("certificate generation failed", "batch", batchID, "error", err)
		writeError(w, http.StatusBadGateway, "generation_failed", err.Error())
		return
	}
	s.manager.SetCandidates(batchID, candidates)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"batchId": batchID,
		"results": candidates,
	})
}

// handleMintBatch queues a sequential batch run over the current candidate set.
func (s *Server) handleMintBatch(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchID"]
	current, _ := s.manager.Candidates()
	if current != batchID {
		writeError(w, http.StatusNotFound, "unknown_batch", "no generated candidate set for batch "+batchID)
		return
	}
	if err := s.manager.StartBatch(); err != nil {
		if errors.Is(err, types.ErrNoSigner) {
			writeError(w, http.StatusPreconditionFailed, "no_signer", "connect a signer before minting")
			return
		}
		writeError(w, http.StatusConflict, "batch_not_started", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"batchId": batchID, "status": "started"})
}

// handleMintItem queues a manual single-item submission.
func (s *Server) handleMintItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]
	if err := s.manager.EnqueueMint(itemID); err != nil {
		switch {
		case errors.Is(err, types.ErrUnknownItem):
			writeError(w, http.StatusNotFound, "unknown_item", err.Error())
		case errors.Is(err, types.ErrNoContent):
			writeError(w, http.StatusUnprocessableEntity, "no_content", "candidate has no generated content")
		default:
			writeError(w, http.StatusInternalServerError, "mint_failed", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"itemId": itemID, "status": "queued"})
}

// handleStatus reports one unambiguous status per candidate plus the
// transient message of the most recent transaction.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	batchID := mux.Vars(r)["batchID"]
	current, _ := s.manager.Candidates()
	if current != batchID {
		writeError(w, http.StatusNotFound, "unknown_batch", "no generated candidate set for batch "+batchID)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		BatchID: batchID,
		Message: s.manager.StatusMessage(),
		Items:   s.manager.Statuses(),
	})
}

// handleMetadata serves the certificate metadata document for one candidate.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]
	c, ok := s.manager.Candidate(itemID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_item", "unknown item "+itemID)
		return
	}
	if !c.HasContent() {
		writeError(w, http.StatusUnprocessableEntity, "no_content", "candidate has no generated content")
		return
	}
	batchID, _ := s.manager.Candidates()
	writeJSON(w, http.StatusOK, types.NewCertificateMetadata(c, batchID, time.Now()))
}

// handleRecords lists the issuance records of this session.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Records(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "records_failed", err.Error())
		return
	}
	if records == nil {
		records = []store.IssuanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"request_id": "req_" + uuid.NewString(),
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
