package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, chan struct{}) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	return hub, cancel, stopped
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHub_DeliversOnlyToWatchersOfTheSession(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, cancel, stopped := startHub(t)

	watcher := &Client{Hub: hub, SessionID: "sess-1", Send: make(chan []byte, 4)}
	other := &Client{Hub: hub, SessionID: "sess-2", Send: make(chan []byte, 4)}
	require.True(t, hub.Register(watcher))
	require.True(t, hub.Register(other))

	hub.NotifyStatus(entity.StatusRecord{ID: "st-1", SessionID: "sess-1", Status: entity.StatusProcessing, Progress: 40})

	var msg statusMessage
	require.NoError(t, json.Unmarshal(receive(t, watcher), &msg))
	assert.Equal(t, "status", msg.Type)
	assert.Equal(t, "st-1", msg.Data.ID)
	assert.Equal(t, 40, msg.Data.Progress)

	select {
	case <-other.Send:
		t.Fatal("status leaked to another session")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	<-stopped
	_, open := <-watcher.Send
	assert.False(t, open, "send channels are closed on shutdown")
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, cancel, stopped := startHub(t)
	defer func() {
		cancel()
		<-stopped
	}()

	c := &Client{Hub: hub, SessionID: "sess-1", Send: make(chan []byte, 1)}
	require.True(t, hub.Register(c))
	hub.Unregister(c)

	_, open := <-c.Send
	assert.False(t, open)

	hub.NotifyStatus(entity.StatusRecord{ID: "st-1", SessionID: "sess-1"})
}

func TestHub_RegisterAfterStopFails(t *testing.T) {
	hub, cancel, stopped := startHub(t)
	cancel()
	<-stopped

	assert.False(t, hub.Register(&Client{Hub: hub, SessionID: "sess-1", Send: make(chan []byte, 1)}))
	hub.Unregister(&Client{Hub: hub, SessionID: "sess-1"})
}
