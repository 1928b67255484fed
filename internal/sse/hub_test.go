package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForClients(t *testing.T, h *Hub, channel string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ClientCount(channel) == n }, time.Second, 5*time.Millisecond)
}

func TestPublishReachesOnlySubscribedChannels(t *testing.T) {
	h := NewHub()
	defer h.Stop()

	panel, releasePanel := h.Subscribe("panel", Broadcast)
	defer releasePanel()
	result, releaseResult := h.Subscribe("result")
	defer releaseResult()
	waitForClients(t, h, "panel", 1)
	waitForClients(t, h, "result", 1)

	h.Publish("panel", EventState, map[string]string{"phase": "ready"})

	select {
	case ev := <-panel:
		assert.Equal(t, EventState, ev.Type)
		assert.Equal(t, "panel", ev.Channel)
	case <-time.After(time.Second):
		t.Fatal("panel did not receive its event")
	}

	select {
	case ev := <-result:
		t.Fatalf("result received %s for another window", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}

	h.Publish(Broadcast, EventLayout, nil)
	select {
	case ev := <-panel:
		assert.Equal(t, EventLayout, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("broadcast not delivered")
	}
}

func TestReleaseRemovesClient(t *testing.T) {
	h := NewHub()
	defer h.Stop()

	_, release := h.Subscribe("table")
	waitForClients(t, h, "table", 1)
	release()
	release()
	waitForClients(t, h, "table", 0)
}

// gin's Stream needs http.CloseNotifier, which ResponseRecorder lacks
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestHandleSSEWritesInitialEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHub()
	defer h.Stop()

	r := gin.New()
	r.GET("/events", func(c *gin.Context) {
		h.HandleSSE(c, &Event{Channel: "result", Type: EventState, Data: map[string]bool{"loading": true}}, "result")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool)}
	r.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "event:state\n"), body)
	assert.Contains(t, body, `"loading":true`)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
}
