// Package layout keeps buttons in the same width group equally wide.
// Pages report their natural width; every subscriber of the group is told
// the group's maximum.
package layout

import (
	"sync"

	"psycdata/domain/core"
)

// Subscription releases a group subscription
type Subscription interface {
	Unsubscribe()
}

type group struct {
	width float64
	subs  map[core.SubscriptionID]func(float64)
}

// Coordinator is owned by the window host and shared by its pages
type Coordinator struct {
	mu     sync.Mutex
	groups map[string]*group
}

// NewCoordinator creates an empty coordinator
func NewCoordinator() *Coordinator {
	return &Coordinator{groups: make(map[string]*group)}
}

// Subscribe registers fn for width changes in groupID. When the group
// already has a width fn is called with it immediately.
func (c *Coordinator) Subscribe(groupID string, fn func(width float64)) Subscription {
	id := core.NewSubscriptionID()

	c.mu.Lock()
	g, ok := c.groups[groupID]
	if !ok {
		g = &group{subs: make(map[core.SubscriptionID]func(float64))}
		c.groups[groupID] = g
	}
	g.subs[id] = fn
	width := g.width
	c.mu.Unlock()

	if width > 0 {
		fn(width)
	}
	return &subscription{coordinator: c, group: groupID, id: id}
}

// Report records a natural width and returns the group width. Subscribers
// are notified only when the maximum grows.
func (c *Coordinator) Report(groupID string, width float64) float64 {
	c.mu.Lock()
	g, ok := c.groups[groupID]
	if !ok {
		g = &group{subs: make(map[core.SubscriptionID]func(float64))}
		c.groups[groupID] = g
	}
	if width <= g.width {
		current := g.width
		c.mu.Unlock()
		return current
	}
	g.width = width
	notify := make([]func(float64), 0, len(g.subs))
	for _, fn := range g.subs {
		notify = append(notify, fn)
	}
	c.mu.Unlock()

	for _, fn := range notify {
		fn(width)
	}
	return width
}

// Width returns the current group width, 0 when unknown
func (c *Coordinator) Width(groupID string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.groups[groupID]; ok {
		return g.width
	}
	return 0
}

// Groups returns the number of groups being tracked
func (c *Coordinator) Groups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.groups)
}

func (c *Coordinator) unsubscribe(groupID string, id core.SubscriptionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[groupID]
	if !ok {
		return
	}
	delete(g.subs, id)
	// a group nobody renders starts over
	if len(g.subs) == 0 {
		delete(c.groups, groupID)
	}
}

type subscription struct {
	coordinator *Coordinator
	group       string
	id          core.SubscriptionID
	once        sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.coordinator.unsubscribe(s.group, s.id) })
}
