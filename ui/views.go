package ui

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"psycdata/domain/analysis"
	"psycdata/internal/codec"
	"psycdata/internal/events"
	"psycdata/internal/layout"
	"psycdata/internal/panel"
	"psycdata/internal/result"
	"psycdata/internal/sse"
	"psycdata/internal/tableview"
	"psycdata/ports"
)

// ActionGroup is the layout group shared by the action buttons of every
// window
const ActionGroup = "actions"

// LayoutEvent tells a page the width of a button group
type LayoutEvent struct {
	Group string  `json:"group"`
	Width float64 `json:"width"`
}

// windowBase holds what every view releases on close
type windowBase struct {
	cancel context.CancelFunc
	subs   []events.Subscription
	layout []layout.Subscription
}

func (b *windowBase) release() {
	for _, sub := range b.subs {
		sub.Unsubscribe()
	}
	for _, sub := range b.layout {
		sub.Unsubscribe()
	}
	b.cancel()
}

type tableWindow struct {
	windowBase
	ctrl *tableview.Controller
}

func (w *tableWindow) Snapshot() interface{} { return w.ctrl.State() }

func (w *tableWindow) Close() {
	w.ctrl.Close()
	w.release()
}

type panelWindow struct {
	windowBase
	ctrl *panel.Controller
}

func (w *panelWindow) Snapshot() interface{} { return w.ctrl.State() }

func (w *panelWindow) Close() {
	w.ctrl.Unmount()
	w.release()
}

type resultWindow struct {
	windowBase
	loader *result.Loader
}

func (w *resultWindow) Snapshot() interface{} { return w.loader.State() }

func (w *resultWindow) Close() {
	w.loader.Close()
	w.release()
}

// newView builds and starts the view model for a window. Views outlive the
// request that created them, so they run on their own context.
func (s *Server) newView(label, rawURL string) (view, error) {
	query := ""
	if u, err := url.Parse(rawURL); err == nil {
		query = u.RawQuery
	}
	ctx, cancel := context.WithCancel(context.Background())
	base := windowBase{cancel: cancel}
	base.layout = append(base.layout, s.layout.Subscribe(ActionGroup, func(width float64) {
		s.hub.Publish(label, sse.EventLayout, LayoutEvent{Group: ActionGroup, Width: width})
	}))
	push := func(state interface{}) { s.hub.Publish(label, sse.EventState, state) }

	switch label {
	case ports.LabelTable:
		ctrl := tableview.NewController(s.backend, s.windows, s.baseURL)
		base.subs = append(base.subs, ctrl.Observe(func(st tableview.State) { push(st) }))
		return &tableWindow{windowBase: base, ctrl: ctrl}, nil

	case ports.LabelPanel:
		q, _ := url.ParseQuery(query)
		ctrl := panel.NewController(s.backend, s.windows, s.baseURL,
			q.Get(codec.KeyPath), q.Get(codec.KeySheet), analysis.Kind(q.Get(codec.KeyAnalysis)))
		base.subs = append(base.subs,
			ctrl.Observe(func(st panel.State) { push(st) }),
			ctrl.Subscribe(ctx, s.bus),
		)
		go func() {
			if err := ctrl.Mount(ctx); err != nil {
				log.Printf("[UI] panel preview failed: %v", err)
			}
		}()
		return &panelWindow{windowBase: base, ctrl: ctrl}, nil

	case ports.LabelResult:
		loader := result.NewLoader(s.backend)
		base.subs = append(base.subs, loader.Observe(func(st result.State) { push(st) }))
		loader.Subscribe(ctx, s.bus)
		req := codec.DecodeQuery(query)
		go loader.Load(ctx, req)
		return &resultWindow{windowBase: base, loader: loader}, nil

	default:
		cancel()
		for _, sub := range base.layout {
			sub.Unsubscribe()
		}
		return nil, fmt.Errorf("unknown window label %q", label)
	}
}
