package rpc

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusStream(t *testing.T) {
	ts := newTestServer(t, true)
	ts.do(t, http.MethodPost, "/v1/batches/batch-7/generate")

	wsURL := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws/status"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// The first frame carries the current projection.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame statusResponse
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "batch-7", frame.BatchID)
	require.Len(t, frame.Items, 2)

	// A state change pushes a fresh frame. Earlier coalesced notifications
	// may deliver an extra frame of the old set first.
	ts.manager.SetCandidates("batch-8", nil)
	deadline := time.Now().Add(2 * time.Second)
	for frame.BatchID != "batch-8" {
		require.NoError(t, conn.SetReadDeadline(deadline))
		require.NoError(t, conn.ReadJSON(&frame))
	}
	assert.Empty(t, frame.Items)
}

func TestStatusStreamBroadcastsToAllClients(t *testing.T) {
	ts := newTestServer(t, true)
	ts.do(t, http.MethodPost, "/v1/batches/batch-7/generate")

	wsURL := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws/status"
	conns := make([]*websocket.Conn, 2)
	for i := range conns {
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		defer conn.Close()
		conns[i] = conn

		var frame statusResponse
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, "batch-7", frame.BatchID)
	}

	// A single state change must reach every connected client.
	ts.manager.SetCandidates("batch-8", nil)
	for i, conn := range conns {
		deadline := time.Now().Add(2 * time.Second)
		var frame statusResponse
		for frame.BatchID != "batch-8" {
			require.NoError(t, conn.SetReadDeadline(deadline))
			require.NoErrorf(t, conn.ReadJSON(&frame), "client %d never saw the new set", i)
		}
		assert.Empty(t, frame.Items)
	}
}
