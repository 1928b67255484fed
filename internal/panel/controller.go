// Package panel implements the analysis panel: variable selection and
// options for one analysis kind, then hand-off to the result window.
package panel

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"sync"

	"psycdata/domain/analysis"
	"psycdata/domain/core"
	"psycdata/domain/table"
	"psycdata/internal/cancel"
	"psycdata/internal/codec"
	"psycdata/internal/errors"
	"psycdata/internal/events"
	"psycdata/internal/window"
	"psycdata/ports"
)

// ErrPreviewPending is returned by selection edits while the sheet
// preview is still loading
var ErrPreviewPending = stderrors.New("preview is still loading")

// ErrSelectionDisabled is returned when the preview failed or the panel
// has already been dispatched or closed
var ErrSelectionDisabled = stderrors.New("variable selection is disabled")

// Phase of the panel. Ready is derived from the selection size.
type Phase string

const (
	PhaseLoading            Phase = "loading"
	PhaseSelectingVariables Phase = "selecting_variables"
	PhaseConfiguringOptions Phase = "configuring_options"
	PhaseReady              Phase = "ready"
	PhaseDispatched         Phase = "dispatched"
	PhaseClosed             Phase = "closed"
)

// PreviewSource loads the sheet whose headers become the variable list
type PreviewSource interface {
	ParseExcel(ctx context.Context, path, sheet string) (table.Table, error)
}

// Windows is the orchestrator surface the panel uses
type Windows interface {
	OpenOrReuse(ctx context.Context, label, url string, payload interface{}) (ports.WindowHandle, window.Outcome, error)
	Close(ctx context.Context, label string) error
}

// State is a snapshot of the panel for rendering
type State struct {
	Phase        Phase         `json:"phase"`
	Path         string        `json:"path"`
	Sheet        string        `json:"sheet"`
	Kind         analysis.Kind `json:"analysis"`
	Headers      []string      `json:"headers"`
	Variables    []string      `json:"variables"`
	Pending      codec.Payload `json:"pending"`
	MinVariables int           `json:"min_variables"`
	CanConfirm   bool          `json:"can_confirm"`
	Loading      bool          `json:"loading"`
	Error        string        `json:"error,omitempty"`
}

const stateChannel = "state"

// Controller is the state machine behind one panel window
type Controller struct {
	source  PreviewSource
	windows Windows
	baseURL string

	scope   *cancel.Scope
	changes *events.Bus

	mu             sync.Mutex
	path           string
	sheet          string
	kind           analysis.Kind
	headers        []string
	loaded         bool
	loading        bool
	loadToken      *cancel.Token
	loadErr        string
	actionErr      string
	variables      []string
	options        analysis.Options
	optionsTouched bool
	confirming     bool
	dispatched     bool
	closed         bool
}

// NewController creates a panel for kind reading from path/sheet. The
// preview is not loaded until Mount.
func NewController(source PreviewSource, windows Windows, baseURL, path, sheet string, kind analysis.Kind) *Controller {
	c := &Controller{
		source:  source,
		windows: windows,
		baseURL: baseURL,
		scope:   cancel.NewScope(),
		changes: events.NewBus(),
	}
	c.resetLocked(path, sheet, kind)
	return c
}

func (c *Controller) resetLocked(path, sheet string, kind analysis.Kind) {
	if c.loadToken != nil {
		c.loadToken.Cancel()
		c.loadToken = nil
	}
	c.path = path
	c.sheet = sheet
	c.kind = kind
	c.headers = nil
	c.loaded = false
	c.loading = false
	c.loadErr = ""
	c.actionErr = ""
	c.variables = nil
	c.options = analysis.DefaultOptions(kind)
	c.optionsTouched = false
	c.confirming = false
	c.dispatched = false
	c.closed = false
}

// Mount loads the preview table. It blocks until the backend answers and
// is normally run on its own goroutine by the host. A result that
// arrives after Reset or Unmount is discarded.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.scope.Closed() {
		c.mu.Unlock()
		return nil
	}
	if c.path == "" || c.sheet == "" {
		c.loadErr = "no file or sheet selected"
		c.mu.Unlock()
		c.notify()
		return errors.InvalidInput(c.loadErr)
	}
	token := c.scope.Begin()
	c.loadToken = token
	c.loading = true
	path, sheet := c.path, c.sheet
	c.mu.Unlock()
	c.notify()

	defer c.scope.End(token)
	preview, err := c.source.ParseExcel(context.WithoutCancel(ctx), path, sheet)

	c.mu.Lock()
	if token.Cancelled() {
		c.mu.Unlock()
		log.Printf("[Panel] discarding stale preview for %s/%s", path, sheet)
		return nil
	}
	c.loading = false
	c.loadToken = nil
	if err != nil {
		c.loadErr = errors.Message(err)
		c.headers = nil
	} else {
		c.loaded = true
		c.headers = preview.DisplayHeaders()
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		return errors.IOError("failed to load sheet preview", err)
	}
	return nil
}

// Reset re-targets the panel in place (panel:load) and reloads the preview
func (c *Controller) Reset(ctx context.Context, path, sheet string, kind analysis.Kind) error {
	c.mu.Lock()
	c.resetLocked(path, sheet, kind)
	c.mu.Unlock()
	return c.Mount(ctx)
}

// Subscribe listens for panel:load on bus; the returned subscription must
// be released on teardown.
func (c *Controller) Subscribe(ctx context.Context, bus *events.Bus) events.Subscription {
	return bus.Subscribe(events.PanelLoad, func(payload interface{}) {
		p, ok := codec.AsPayload(payload)
		if !ok {
			log.Printf("[Panel] ignoring malformed panel:load payload %T", payload)
			return
		}
		go func() {
			if err := c.Reset(ctx, p.Path, p.Sheet, analysis.Kind(p.Analysis)); err != nil {
				log.Printf("[Panel] reload after panel:load failed: %v", err)
			}
		}()
	})
}

// Unmount discards outstanding preview loads
func (c *Controller) Unmount() {
	c.scope.Close()
	c.mu.Lock()
	c.closed = true
	c.loading = false
	c.mu.Unlock()
}

func (c *Controller) selectable() error {
	switch {
	case c.loading:
		return ErrPreviewPending
	case !c.loaded, c.dispatched, c.closed:
		return ErrSelectionDisabled
	}
	return nil
}

func (c *Controller) checkHeader(name string) error {
	for _, h := range c.headers {
		if h == name {
			return nil
		}
	}
	return errors.WithCode(errors.CodeInvalidInput, core.NewVariableNotFoundError(name))
}

// SetVariables replaces the selection; order is kept, duplicates dropped
func (c *Controller) SetVariables(vars []string) error {
	c.mu.Lock()
	if err := c.selectable(); err != nil {
		c.mu.Unlock()
		return err
	}
	for _, v := range vars {
		if err := c.checkHeader(v); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.variables = analysis.UniqueVariables(vars)
	c.actionErr = ""
	c.mu.Unlock()
	c.notify()
	return nil
}

// Toggle adds or removes one variable and reports whether it is now selected
func (c *Controller) Toggle(name string) (bool, error) {
	c.mu.Lock()
	if err := c.selectable(); err != nil {
		c.mu.Unlock()
		return false, err
	}
	if err := c.checkHeader(name); err != nil {
		c.mu.Unlock()
		return false, err
	}

	selected := true
	next := make([]string, 0, len(c.variables)+1)
	for _, v := range c.variables {
		if v == name {
			selected = false
			continue
		}
		next = append(next, v)
	}
	if selected {
		next = append(next, name)
	}
	c.variables = analysis.UniqueVariables(next)
	c.actionErr = ""
	c.mu.Unlock()
	c.notify()
	return selected, nil
}

func (c *Controller) setOptions(want analysis.Kind, update func(analysis.Options) (analysis.Options, error)) error {
	c.mu.Lock()
	if c.kind != want {
		c.mu.Unlock()
		return errors.InvalidInput(fmt.Sprintf("%s options do not apply to a %s panel", want, c.kind))
	}
	if c.dispatched || c.closed {
		c.mu.Unlock()
		return ErrSelectionDisabled
	}
	next, err := update(c.options)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.options = next
	c.optionsTouched = true
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetSortOrder sets the descriptive row order
func (c *Controller) SetSortOrder(order analysis.SortOrder) error {
	return c.setOptions(analysis.KindDescriptive, func(analysis.Options) (analysis.Options, error) {
		if !order.Valid() {
			return nil, errors.InvalidInput("unknown sort order " + string(order))
		}
		return analysis.DescriptiveOptions{SortOrder: order}, nil
	})
}

// SetModel sets the reliability coefficient
func (c *Controller) SetModel(model analysis.Model) error {
	return c.setOptions(analysis.KindReliability, func(analysis.Options) (analysis.Options, error) {
		if !model.Valid() {
			return nil, errors.InvalidInput("unknown reliability model " + string(model))
		}
		return analysis.ReliabilityOptions{Model: model}, nil
	})
}

// SetMethods sets the correlation coefficients to report
func (c *Controller) SetMethods(methods []analysis.CorrelationMethod) error {
	return c.setOptions(analysis.KindCorrelation, func(cur analysis.Options) (analysis.Options, error) {
		for _, m := range methods {
			if !m.Valid() {
				return nil, errors.InvalidInput("unknown correlation method " + string(m))
			}
		}
		opts, _ := cur.(analysis.CorrelationOptions)
		opts.Methods = analysis.UniqueMethods(methods)
		return opts, nil
	})
}

// SetTailedness sets one- or two-sided testing for correlation
func (c *Controller) SetTailedness(tail analysis.Tailedness) error {
	return c.setOptions(analysis.KindCorrelation, func(cur analysis.Options) (analysis.Options, error) {
		if !tail.Valid() {
			return nil, errors.InvalidInput("unknown tailedness " + string(tail))
		}
		opts, _ := cur.(analysis.CorrelationOptions)
		opts.Tailedness = tail
		return opts, nil
	})
}

// SetFactorOptions replaces the factor extraction settings
func (c *Controller) SetFactorOptions(opts analysis.FactorOptions) error {
	return c.setOptions(analysis.KindFactor, func(analysis.Options) (analysis.Options, error) {
		if opts.FactorCount != nil && *opts.FactorCount < 1 {
			return nil, errors.InvalidInput("factor count must be positive")
		}
		if opts.FactorCount != nil {
			opts.FactorCount = analysis.IntPtr(*opts.FactorCount)
		}
		return opts, nil
	})
}

func (c *Controller) canConfirmLocked() bool {
	return c.loaded && !c.loading && !c.confirming && !c.dispatched && !c.closed &&
		c.kind.Ready(len(c.variables))
}

// CanConfirm reports whether the confirm action is enabled
func (c *Controller) CanConfirm() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canConfirmLocked()
}

// Confirm hands the request to the result window and closes the panel.
// It returns a VALIDATION_ERROR without touching any window when the
// selection is below the kind's minimum. If the result window cannot be
// opened the panel keeps its state.
func (c *Controller) Confirm(ctx context.Context) (analysis.Request, error) {
	c.mu.Lock()
	if !c.canConfirmLocked() {
		msg := fmt.Sprintf("%s requires at least %d variables (selected %d)", c.kind, c.kind.MinVariables(), len(c.variables))
		if !c.kind.IsKnown() {
			msg = fmt.Sprintf("unknown analysis %q", c.kind)
		} else if !c.loaded {
			msg = "preview is not loaded"
		}
		c.mu.Unlock()
		return analysis.Request{}, errors.ValidationError(msg)
	}
	req := analysis.NewRequest(c.path, c.sheet, c.kind, c.variables, c.options)
	c.confirming = true
	c.mu.Unlock()

	_, outcome, err := c.windows.OpenOrReuse(ctx, ports.LabelResult, codec.ResultURL(c.baseURL, req), codec.EncodePayload(req))

	c.mu.Lock()
	c.confirming = false
	if err != nil {
		c.actionErr = errors.Message(err)
		c.mu.Unlock()
		c.notify()
		return analysis.Request{}, err
	}
	c.dispatched = true
	c.actionErr = ""
	c.mu.Unlock()
	c.notify()

	log.Printf("[Panel] dispatched %s with %d variables (%s result window)", req.Kind, len(req.Variables), outcome)
	if err := c.windows.Close(ctx, ports.LabelPanel); err != nil {
		log.Printf("[Panel] failed to close panel after dispatch: %v", err)
	}
	return req, nil
}

// Cancel closes the panel without dispatching
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.notify()
	return c.windows.Close(ctx, ports.LabelPanel)
}

// Observe registers fn to receive a snapshot after every change
func (c *Controller) Observe(fn func(State)) events.Subscription {
	return c.changes.Subscribe(stateChannel, func(p interface{}) {
		if s, ok := p.(State); ok {
			fn(s)
		}
	})
}

func (c *Controller) notify() {
	c.changes.Publish(stateChannel, c.State())
}

// State returns a snapshot of the panel
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := codec.EncodePayload(analysis.NewRequest(c.path, c.sheet, c.kind, c.variables, c.options))
	errMsg := c.loadErr
	if errMsg == "" {
		errMsg = c.actionErr
	}
	return State{
		Phase:        c.phaseLocked(),
		Path:         c.path,
		Sheet:        c.sheet,
		Kind:         c.kind,
		Headers:      append([]string(nil), c.headers...),
		Variables:    append([]string(nil), c.variables...),
		Pending:      pending,
		MinVariables: c.kind.MinVariables(),
		CanConfirm:   c.canConfirmLocked(),
		Loading:      c.loading,
		Error:        errMsg,
	}
}

// Phase returns the current phase
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

func (c *Controller) phaseLocked() Phase {
	switch {
	case c.dispatched:
		return PhaseDispatched
	case c.closed:
		return PhaseClosed
	case c.loading:
		return PhaseLoading
	case c.loaded && c.kind.Ready(len(c.variables)):
		return PhaseReady
	case c.optionsTouched:
		return PhaseConfiguringOptions
	default:
		return PhaseSelectingVariables
	}
}
