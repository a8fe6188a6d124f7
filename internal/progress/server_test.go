package progress

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	s, err := Start("127.0.0.1:0", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Close(ctx)
	})
	return s
}

func TestServer_StreamsEvents(t *testing.T) {
	s := startServer(t)
	require.True(t, s.Running())

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/events", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	s.Emit(Event{Index: 0, Total: 2, Status: StatusCutting, Progress: 0})
	s.Emit(Event{Index: 0, Total: 2, Status: StatusCompleted, Progress: 100, EstimatedTime: Seconds(4)})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second Event
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, StatusCutting, first.Status)
	assert.Equal(t, StatusCompleted, second.Status)
	require.NotNil(t, second.EstimatedTime)
	assert.Equal(t, 4.0, *second.EstimatedTime)
}

func TestServer_StatusAndHealth(t *testing.T) {
	s := startServer(t)
	base := "http://" + s.Addr()

	resp, err := http.Get(base + "/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s.Emit(Event{Index: 1, Total: 3, Status: StatusAddingIntro, Progress: 40})

	resp, err = http.Get(base + "/status")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var ev Event
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, StatusAddingIntro, ev.Status)
	assert.Equal(t, 40.0, ev.Progress)

	resp, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestServer_CloseStopsAndDisconnects(t *testing.T) {
	s, err := Start("127.0.0.1:0", nil)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/events", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))
	assert.False(t, s.Running())
	assert.Equal(t, 0, s.Clients())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	// Emitting after close is harmless.
	s.Emit(Event{Status: StatusCompleted})
}

func TestServer_SlowClientDoesNotBlock(t *testing.T) {
	s := startServer(t)
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/events", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*4; i++ {
			s.Emit(Event{Index: i, Total: clientBuffer * 4, Status: StatusCutting})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a client that is not reading")
	}
}

func TestStart_BadAddr(t *testing.T) {
	_, err := Start("256.0.0.1:bad", nil)
	assert.Error(t, err)
}
