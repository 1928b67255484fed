// Package sse fans window events out to browser pages over Server-Sent
// Events
package sse

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event types pushed to pages
const (
	EventState  = "state"
	EventFocus  = "focus"
	EventClose  = "close"
	EventOpen   = "open"
	EventLayout = "layout"
	EventPing   = "ping"
)

// Broadcast is the channel every page listens to besides its own
const Broadcast = "*"

// Event is one message for the pages listening on Channel
type Event struct {
	Channel   string      `json:"channel"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	channels []string
	events   chan Event
}

// Hub routes events to the clients registered on a channel
type Hub struct {
	clients    map[string]map[chan Event]bool
	clientsMu  sync.RWMutex
	register   chan client
	unregister chan client
	broadcast  chan Event
	done       chan struct{}
	stopOnce   sync.Once

	pingInterval time.Duration
}

// NewHub creates a hub and starts its dispatch loop
func NewHub() *Hub {
	hub := &Hub{
		clients:      make(map[string]map[chan Event]bool),
		register:     make(chan client, 10),
		unregister:   make(chan client, 10),
		broadcast:    make(chan Event, 100),
		done:         make(chan struct{}),
		pingInterval: 30 * time.Second,
	}

	go hub.run()
	return hub
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.clientsMu.Lock()
			for _, ch := range c.channels {
				if h.clients[ch] == nil {
					h.clients[ch] = make(map[chan Event]bool)
				}
				h.clients[ch][c.events] = true
			}
			h.clientsMu.Unlock()
			log.Printf("[SSE] Client registered on %v", c.channels)

		case c := <-h.unregister:
			h.clientsMu.Lock()
			for _, ch := range c.channels {
				if clients, exists := h.clients[ch]; exists {
					delete(clients, c.events)
					if len(clients) == 0 {
						delete(h.clients, ch)
					}
				}
			}
			h.clientsMu.Unlock()
			close(c.events)
			log.Printf("[SSE] Client unregistered from %v", c.channels)

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.Channel] {
				select {
				case clientChan <- event:
				default:
					log.Printf("[SSE] Client channel full on %s, skipping %s event", event.Channel, event.Type)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Publish queues an event for channel. It never blocks; when the queue is
// full the event is dropped.
func (h *Hub) Publish(channel, eventType string, data interface{}) {
	event := Event{Channel: channel, Type: eventType, Data: data, Timestamp: time.Now()}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast queue full, dropping %s event for %s", eventType, channel)
	}
}

// Stop ends the dispatch loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Subscribe registers a client on channels and returns its event stream
// plus a release function. Used by HandleSSE and by tests.
func (h *Hub) Subscribe(channels ...string) (<-chan Event, func()) {
	c := client{channels: channels, events: make(chan Event, 16)}
	h.register <- c
	var once sync.Once
	return c.events, func() {
		once.Do(func() { h.unregister <- c })
	}
}

// ClientCount returns the number of clients on channel
func (h *Hub) ClientCount(channel string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[channel])
}

// HandleSSE streams events for channels until the request ends. initial,
// when non-nil, is sent first so a reconnecting page catches up.
func (h *Hub) HandleSSE(c *gin.Context, initial *Event, channels ...string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, release := h.Subscribe(channels...)
	defer release()

	if initial != nil {
		writeEvent(c, *initial)
		c.Writer.Flush()
	}

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			writeEvent(c, event)
			return true

		case <-time.After(h.pingInterval):
			c.SSEvent(EventPing, `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

func writeEvent(c *gin.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[SSE] Failed to marshal %s event: %v", event.Type, err)
		return
	}
	c.SSEvent(event.Type, string(payload))
}
