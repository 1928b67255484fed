// Package events is the in-process publish/subscribe bus windows use to
// refresh each other. It knows nothing about the window host.
package events

import (
	"log"
	"sync"

	"psycdata/domain/core"
)

// Well-known channels
const (
	PanelLoad  = "panel:load"
	ResultLoad = "result:load"
)

// LoadChannel returns the refresh channel scoped to a window label
func LoadChannel(label string) string {
	return label + ":load"
}

// Handler receives a published payload
type Handler func(payload interface{})

// Subscription is returned by Subscribe. Unsubscribe is idempotent and
// safe to call from any exit path.
type Subscription interface {
	Unsubscribe()
}

// Bus delivers payloads synchronously, in subscription order, to every
// handler registered on a channel at publish time.
type Bus struct {
	mu       sync.RWMutex
	channels map[string][]subscriber
}

type subscriber struct {
	id      core.SubscriptionID
	handler Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{channels: make(map[string][]subscriber)}
}

// Subscribe registers handler on channel
func (b *Bus) Subscribe(channel string, handler Handler) Subscription {
	sub := subscriber{id: core.NewSubscriptionID(), handler: handler}

	b.mu.Lock()
	b.channels[channel] = append(b.channels[channel], sub)
	count := len(b.channels[channel])
	b.mu.Unlock()

	log.Printf("[Bus] subscribed to %s (subscribers: %d)", channel, count)
	return &subscription{bus: b, channel: channel, id: sub.id}
}

// Publish delivers payload to the channel's current subscribers and
// returns how many received it. Handlers run outside the bus lock, so
// they may subscribe or unsubscribe freely.
func (b *Bus) Publish(channel string, payload interface{}) int {
	b.mu.RLock()
	subs := make([]subscriber, len(b.channels[channel]))
	copy(subs, b.channels[channel])
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(payload)
	}
	return len(subs)
}

// Subscribers reports how many handlers are registered on channel
func (b *Bus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}

func (b *Bus) remove(channel string, id core.SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.channels[channel]
	for i, sub := range subs {
		if sub.id == id {
			b.channels[channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.channels[channel]) == 0 {
		delete(b.channels, channel)
	}
	log.Printf("[Bus] unsubscribed from %s (remaining: %d)", channel, len(b.channels[channel]))
}

type subscription struct {
	bus     *Bus
	channel string
	id      core.SubscriptionID
	once    sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.bus.remove(s.channel, s.id) })
}
