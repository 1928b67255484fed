// Package result resolves an analysis request into a table for the
// result window and keeps the window's state.
package result

import (
	"context"
	"log"
	"sync"

	"psycdata/domain/analysis"
	"psycdata/domain/table"
	"psycdata/internal/cancel"
	"psycdata/internal/codec"
	"psycdata/internal/errors"
	"psycdata/internal/events"
	"psycdata/ports"
)

// State is a snapshot of the result window
type State struct {
	Request codec.Payload `json:"request"`
	Kind    analysis.Kind `json:"analysis"`
	Loading bool          `json:"loading"`
	Table   *table.Table  `json:"table"`
	View    *View         `json:"view,omitempty"`
	Error   string        `json:"error,omitempty"`
	Missing []string      `json:"missing,omitempty"`
}

const stateChannel = "state"

// Loader owns the result window's table. Loads may overlap; whichever
// response arrives last is kept.
type Loader struct {
	backend ports.Backend
	scope   *cancel.Scope
	changes *events.Bus

	mu       sync.Mutex
	req      analysis.Request
	table    *table.Table
	err      string
	missing  []string
	inFlight int
	sub      events.Subscription
}

// NewLoader creates a loader with no table
func NewLoader(backend ports.Backend) *Loader {
	return &Loader{
		backend: backend,
		scope:   cancel.NewScope(),
		changes: events.NewBus(),
	}
}

// Resolve calls the backend operation matching req. Requests below their
// kind's variable minimum, and unknown kinds, fall back to a raw preview.
func Resolve(ctx context.Context, backend ports.Backend, req analysis.Request) (table.Table, error) {
	n := len(req.Variables)
	switch {
	case req.Kind == analysis.KindDescriptive && n >= 1:
		return backend.RunDescriptiveStats(ctx, req.FilePath, req.Sheet, req.Variables, req.SortOrder())
	case req.Kind == analysis.KindCorrelation && n >= 2:
		return backend.RunCorrelation(ctx, req.FilePath, req.Sheet, req.Variables)
	case req.Kind == analysis.KindReliability && n >= 2:
		model := req.Model()
		if model == "" {
			model = analysis.ModelAlpha
		}
		return backend.RunReliability(ctx, req.FilePath, req.Sheet, req.Variables, model)
	default:
		return backend.ParseExcel(ctx, req.FilePath, req.Sheet)
	}
}

// Resolve calls the backend operation matching req
func (l *Loader) Resolve(ctx context.Context, req analysis.Request) (table.Table, error) {
	return Resolve(ctx, l.backend, req)
}

// Load resolves req and applies the outcome unless the loader was closed
// meanwhile. Cancelling ctx never reaches the backend call; a late
// response is discarded instead. Failures clear the table and are recorded in the state; the
// returned error is informational.
func (l *Loader) Load(ctx context.Context, req analysis.Request) error {
	if !req.HasSource() {
		var missing []string
		if req.FilePath == "" {
			missing = append(missing, codec.KeyPath)
		}
		if req.Sheet == "" {
			missing = append(missing, codec.KeySheet)
		}
		l.mu.Lock()
		l.req = req
		l.table = nil
		l.err = ""
		l.missing = missing
		l.mu.Unlock()
		l.notify()
		return nil
	}

	token := l.scope.Begin()
	if token.Cancelled() {
		return nil
	}
	defer l.scope.End(token)

	l.mu.Lock()
	l.inFlight++
	l.err = ""
	l.missing = nil
	l.mu.Unlock()
	l.notify()

	tbl, err := l.Resolve(context.WithoutCancel(ctx), req)

	l.mu.Lock()
	l.inFlight--
	if token.Cancelled() {
		l.mu.Unlock()
		log.Printf("[ResultLoader] discarding %s result for closed window", req.Kind)
		return nil
	}
	l.req = req
	if err != nil {
		l.table = nil
		l.err = errors.Message(err)
	} else {
		l.table = &tbl
		l.err = ""
	}
	l.mu.Unlock()
	l.notify()

	if err != nil {
		log.Printf("[ResultLoader] %s on %s/%s failed: %v", req.Kind, req.FilePath, req.Sheet, err)
		return errors.IOError("analysis failed", err)
	}
	return nil
}

// Subscribe listens for result:load on bus. Each delivery starts a load
// on its own goroutine.
func (l *Loader) Subscribe(ctx context.Context, bus *events.Bus) {
	sub := bus.Subscribe(events.ResultLoad, func(payload interface{}) {
		p, ok := codec.AsPayload(payload)
		if !ok {
			log.Printf("[ResultLoader] ignoring malformed result:load payload %T", payload)
			return
		}
		req := codec.DecodePayload(p)
		go l.Load(ctx, req)
	})

	l.mu.Lock()
	prev := l.sub
	l.sub = sub
	l.mu.Unlock()
	if prev != nil {
		prev.Unsubscribe()
	}
}

// Close cancels outstanding loads and releases the bus subscription
func (l *Loader) Close() {
	l.scope.Close()

	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// Observe registers fn to receive a snapshot after every change
func (l *Loader) Observe(fn func(State)) events.Subscription {
	return l.changes.Subscribe(stateChannel, func(p interface{}) {
		if s, ok := p.(State); ok {
			fn(s)
		}
	})
}

func (l *Loader) notify() {
	l.changes.Publish(stateChannel, l.State())
}

// State returns a snapshot of the loader
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := State{
		Request: codec.EncodePayload(l.req),
		Kind:    l.req.Kind,
		Loading: l.inFlight > 0,
		Error:   l.err,
		Missing: append([]string(nil), l.missing...),
	}
	if l.table != nil {
		t := l.table.Clone()
		s.Table = &t
		view := Render(l.req.Kind, t)
		s.View = &view
	}
	return s
}

// Table returns the current table, if any
func (l *Loader) Table() (table.Table, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.table == nil {
		return table.Table{}, false
	}
	return l.table.Clone(), true
}

// Request returns the request behind the current table
func (l *Loader) Request() analysis.Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.req
}
