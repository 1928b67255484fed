package ui

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"psycdata/domain/core"
	"psycdata/internal/sse"
	"psycdata/ports"
)

// view is the server-side model behind one window page
type view interface {
	Snapshot() interface{}
	Close()
}

// viewFactory builds the view for a new window from its URL
type viewFactory func(label, rawURL string) (view, error)

type originKey struct{}
type directKey struct{}

// WithOrigin tags ctx with the label of the window whose action is being
// handled; that page is the one asked to open new windows
func WithOrigin(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, originKey{}, label)
}

func originFrom(ctx context.Context) string {
	label, _ := ctx.Value(originKey{}).(string)
	return label
}

// withDirectNavigation marks a Create caused by the browser already
// loading the window URL, so no page is asked to open it
func withDirectNavigation(ctx context.Context) context.Context {
	return context.WithValue(ctx, directKey{}, true)
}

func isDirectNavigation(ctx context.Context) bool {
	direct, _ := ctx.Value(directKey{}).(bool)
	return direct
}

// OpenEvent asks the origin page to open URL in the browser window named
// Label
type OpenEvent struct {
	ID     core.WindowID `json:"id"`
	Label  string        `json:"label"`
	URL    string        `json:"url"`
	Origin string        `json:"origin"`
}

type liveWindow struct {
	handle ports.WindowHandle
	view   view
}

// Host implements ports.WindowHost for browser pages. Each window is a
// view model; focus, close and open requests reach the pages over SSE.
type Host struct {
	hub      *sse.Hub
	factory  viewFactory
	onClosed func(ports.WindowHandle) bool

	mu      sync.Mutex
	windows map[core.WindowID]*liveWindow
}

var _ ports.WindowHost = (*Host)(nil)

// NewHost creates a host publishing to hub
func NewHost(hub *sse.Hub, factory viewFactory) *Host {
	return &Host{
		hub:     hub,
		factory: factory,
		windows: make(map[core.WindowID]*liveWindow),
	}
}

// OnClosed sets the teardown hook called for every closed window
func (h *Host) OnClosed(fn func(ports.WindowHandle) bool) {
	h.onClosed = fn
}

func (h *Host) Create(ctx context.Context, label, url string) (ports.WindowHandle, error) {
	v, err := h.factory(label, url)
	if err != nil {
		return ports.WindowHandle{}, fmt.Errorf("failed to create %s view: %w", label, err)
	}
	handle := ports.WindowHandle{ID: core.NewWindowID(), Label: label, URL: url}

	h.mu.Lock()
	h.windows[handle.ID] = &liveWindow{handle: handle, view: v}
	h.mu.Unlock()

	if !isDirectNavigation(ctx) {
		h.hub.Publish(sse.Broadcast, sse.EventOpen, OpenEvent{
			ID:     handle.ID,
			Label:  label,
			URL:    url,
			Origin: originFrom(ctx),
		})
	}
	log.Printf("[WindowHost] %s window %s created", label, handle.ID)
	return handle, nil
}

func (h *Host) Focus(ctx context.Context, handle ports.WindowHandle) error {
	h.mu.Lock()
	_, ok := h.windows[handle.ID]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrWindowNotFound, handle.ID)
	}
	h.hub.Publish(handle.Label, sse.EventFocus, handle)
	return nil
}

func (h *Host) Close(ctx context.Context, handle ports.WindowHandle) error {
	h.mu.Lock()
	w, ok := h.windows[handle.ID]
	delete(h.windows, handle.ID)
	h.mu.Unlock()
	if !ok {
		return nil
	}

	w.view.Close()
	h.hub.Publish(handle.Label, sse.EventClose, handle)
	if h.onClosed != nil {
		h.onClosed(handle)
	}
	log.Printf("[WindowHost] %s window %s closed", handle.Label, handle.ID)
	return nil
}

// View returns the live view for label
func (h *Host) View(label string) (view, ports.WindowHandle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.windows {
		if w.handle.Label == label {
			return w.view, w.handle, true
		}
	}
	return nil, ports.WindowHandle{}, false
}

// Handles lists live windows ordered by label
func (h *Host) Handles() []ports.WindowHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ports.WindowHandle, 0, len(h.windows))
	for _, w := range h.windows {
		out = append(out, w.handle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
