package rpc

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second

	// wsRefreshInterval bounds how stale a stream can get when no state
	// change fires.
	wsRefreshInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The status stream is read-only and carries no credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStatusStream upgrades to a websocket and pushes the full status
// projection on every orchestrator state change.
func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Discard inbound frames; close the loop when the peer goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	changes, unsubscribe := s.manager.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(wsRefreshInterval)
	defer ticker.Stop()

	if err := s.writeStatusFrame(conn); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-changes:
		case <-ticker.C:
		}
		if err := s.writeStatusFrame(conn); err != nil {
			return
		}
	}
}

func (s *Server) writeStatusFrame(conn *websocket.Conn) error {
	batchID, _ := s.manager.Candidates()
	payload := statusResponse{
		BatchID: batchID,
		Message: s.manager.StatusMessage(),
		Items:   s.manager.Statuses(),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(payload)
}
