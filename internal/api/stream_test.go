package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEvents_RepublishesOnBus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, EventsStreamPath, r.URL.Path)
		assert.Equal(t, "Bearer acc-1", r.Header.Get("Authorization"))

		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)

		ctx := r.Context()

		require.NoError(t, wsjson.Write(ctx, conn, streamEvent{
			Type:   string(EventSessionExpired),
			Reason: ReasonRefreshFailed,
		}))
		require.NoError(t, wsjson.Write(ctx, conn, streamEvent{
			Type:   string(EventServerError),
			Status: 502,
			URL:    "/jobs",
		}))

		// Unknown event types are dropped, not fatal.
		require.NoError(t, wsjson.Write(ctx, conn, streamEvent{Type: "maintenance-window"}))

		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	client, store := newTestClient(t, srv.URL)
	seedSession(t, store, "acc-1", "ref-1")

	events, cancel := client.bus.Subscribe()
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- client.StreamEvents(context.Background())
	}()

	first := waitEvent(t, events)
	assert.Equal(t, EventSessionExpired, first.Type)
	assert.Equal(t, ReasonRefreshFailed, first.Reason)

	second := waitEvent(t, events)
	assert.Equal(t, EventServerError, second.Type)
	assert.Equal(t, 502, second.Status)
	assert.Equal(t, "/jobs", second.URL)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after server closed")
	}
}

func TestStreamEvents_RequiresLogin(t *testing.T) {
	client, _ := newTestClient(t, "http://127.0.0.1:0")

	err := client.StreamEvents(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

// waitEvent receives one bus event or fails the test after a timeout.
func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")

		return Event{}
	}
}
