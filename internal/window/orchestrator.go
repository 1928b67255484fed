// Package window keeps the label → live window registry and implements
// open-or-reuse on top of a WindowHost and the event bus.
package window

import (
	"context"
	"log"
	"sort"
	"sync"

	"psycdata/internal/errors"
	"psycdata/internal/events"
	"psycdata/ports"
)

// Publisher is the part of the event bus the orchestrator needs
type Publisher interface {
	Publish(channel string, payload interface{}) int
}

// Outcome tells the caller what OpenOrReuse did
type Outcome int

const (
	Created Outcome = iota
	Reused
)

func (o Outcome) String() string {
	if o == Reused {
		return "reused"
	}
	return "created"
}

// Orchestrator is the single source of truth for which windows are live
type Orchestrator struct {
	host ports.WindowHost
	bus  Publisher

	mu      sync.Mutex
	windows map[string]ports.WindowHandle
}

// NewOrchestrator creates an orchestrator with an empty registry
func NewOrchestrator(host ports.WindowHost, bus Publisher) *Orchestrator {
	return &Orchestrator{
		host:    host,
		bus:     bus,
		windows: make(map[string]ports.WindowHandle),
	}
}

// OpenOrReuse creates a window under label navigating to url, or, when
// one is already live, focuses it and publishes payload on
// "<label>:load" instead of navigating. A nil payload is not published.
// An entry the host no longer knows is dropped and replaced by a new
// window. Creation failures return an ORCHESTRATION_ERROR and leave no
// entry.
func (o *Orchestrator) OpenOrReuse(ctx context.Context, label, url string, payload interface{}) (ports.WindowHandle, Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if handle, ok := o.windows[label]; ok {
		err := o.host.Focus(ctx, handle)
		if err == nil {
			if payload != nil {
				n := o.bus.Publish(events.LoadChannel(label), payload)
				log.Printf("[Orchestrator] refreshed %s window in place (%d listeners)", label, n)
			}
			return handle, Reused, nil
		}
		log.Printf("[Orchestrator] focus %s failed, recreating: %v", label, err)
		delete(o.windows, label)
	}

	handle, err := o.host.Create(ctx, label, url)
	if err != nil {
		return ports.WindowHandle{}, Created, errors.OrchestrationError("failed to create "+label+" window", err)
	}
	if handle.Label == "" {
		handle.Label = label
	}
	if handle.URL == "" {
		handle.URL = url
	}
	o.windows[label] = handle
	log.Printf("[Orchestrator] created %s window %s", label, handle.ID)
	return handle, Created, nil
}

// Close asks the host to close the window registered under label. The
// registry entry is dropped by HandleClosed when the host reports it.
func (o *Orchestrator) Close(ctx context.Context, label string) error {
	handle, ok := o.Lookup(label)
	if !ok {
		return nil
	}
	if err := o.host.Close(ctx, handle); err != nil {
		return errors.OrchestrationError("failed to close "+label+" window", err)
	}
	o.HandleClosed(handle)
	return nil
}

// HandleClosed is the teardown hook. It removes the entry only when it
// still refers to the same window, so a late report for a replaced window
// cannot evict its successor.
func (o *Orchestrator) HandleClosed(handle ports.WindowHandle) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	current, ok := o.windows[handle.Label]
	if !ok || current.ID != handle.ID {
		return false
	}
	delete(o.windows, handle.Label)
	log.Printf("[Orchestrator] %s window %s closed", handle.Label, handle.ID)
	return true
}

// Lookup returns the live window for label
func (o *Orchestrator) Lookup(label string) (ports.WindowHandle, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	handle, ok := o.windows[label]
	return handle, ok
}

// Live lists registered windows ordered by label
func (o *Orchestrator) Live() []ports.WindowHandle {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]ports.WindowHandle, 0, len(o.windows))
	for _, h := range o.windows {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
