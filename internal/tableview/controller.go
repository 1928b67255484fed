// Package tableview implements the data viewer window: choose a workbook
// and sheet, preview it, and open an analysis panel for it.
package tableview

import (
	"context"
	"log"
	"strings"
	"sync"

	"psycdata/domain/analysis"
	"psycdata/domain/table"
	"psycdata/internal/cancel"
	"psycdata/internal/codec"
	"psycdata/internal/errors"
	"psycdata/internal/events"
	"psycdata/internal/result"
	"psycdata/internal/window"
	"psycdata/ports"
)

// Source is the part of the backend the viewer calls
type Source interface {
	ListSheets(ctx context.Context, path string) ([]string, error)
	ParseExcel(ctx context.Context, path, sheet string) (table.Table, error)
}

// Windows is the orchestrator surface used to open panels
type Windows interface {
	OpenOrReuse(ctx context.Context, label, url string, payload interface{}) (ports.WindowHandle, window.Outcome, error)
}

// State is a snapshot of the viewer
type State struct {
	Path    string       `json:"path"`
	Sheets  []string     `json:"sheets"`
	Sheet   string       `json:"sheet"`
	Table   *table.Table `json:"table"`
	Grid    *result.Grid `json:"grid,omitempty"`
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
}

const stateChannel = "state"

// Controller owns the viewer state. Each backend call takes a token from
// the current generation; Clear and Close start a new one so late
// responses are dropped.
type Controller struct {
	source  Source
	windows Windows
	baseURL string
	changes *events.Bus

	mu      sync.Mutex
	scope   *cancel.Scope
	path    string
	sheets  []string
	sheet   string
	table   *table.Table
	loading int
	err     string
	closed  bool
}

// NewController creates an empty viewer
func NewController(source Source, windows Windows, baseURL string) *Controller {
	return &Controller{
		source:  source,
		windows: windows,
		baseURL: baseURL,
		changes: events.NewBus(),
		scope:   cancel.NewScope(),
	}
}

// begin starts a backend call; the returned scope is the generation the
// result belongs to
func (c *Controller) begin() (*cancel.Scope, *cancel.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	scope := c.scope
	token := scope.Begin()
	if !token.Cancelled() {
		c.loading++
		c.err = ""
	}
	return scope, token
}

// finish applies apply under the lock unless token was cancelled
func (c *Controller) finish(scope *cancel.Scope, token *cancel.Token, apply func()) bool {
	defer scope.End(token)
	c.mu.Lock()
	if token.Cancelled() {
		c.mu.Unlock()
		return false
	}
	c.loading--
	apply()
	c.mu.Unlock()
	c.notify()
	return true
}

// SelectFile lists the sheets of path. The previous sheet choice and
// preview are dropped.
func (c *Controller) SelectFile(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.InvalidInput("no file selected")
	}

	c.mu.Lock()
	c.path = path
	c.sheets = nil
	c.sheet = ""
	c.table = nil
	c.mu.Unlock()

	scope, token := c.begin()
	if token.Cancelled() {
		return nil
	}
	c.notify()

	sheets, err := c.source.ListSheets(ctx, path)
	c.finish(scope, token, func() {
		if err != nil {
			c.table = nil
			c.err = errors.Message(err)
			return
		}
		c.sheets = sheets
	})
	if err != nil {
		return errors.IOError("failed to list sheets", err)
	}
	return nil
}

// SelectSheet chooses a sheet without loading it
func (c *Controller) SelectSheet(sheet string) error {
	c.mu.Lock()
	found := false
	for _, s := range c.sheets {
		if s == sheet {
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return errors.InvalidInput("unknown sheet: " + sheet)
	}
	c.sheet = sheet
	c.mu.Unlock()
	c.notify()
	return nil
}

// Load reads the selected sheet into the preview
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	path, sheet := c.path, c.sheet
	c.mu.Unlock()
	if path == "" || sheet == "" {
		return errors.ValidationError("select a file and a sheet first")
	}

	scope, token := c.begin()
	if token.Cancelled() {
		return nil
	}
	c.notify()

	t, err := c.source.ParseExcel(ctx, path, sheet)
	c.finish(scope, token, func() {
		if err != nil {
			c.table = nil
			c.err = errors.Message(err)
			return
		}
		c.table = &t
	})
	if err != nil {
		return errors.IOError("failed to load sheet", err)
	}
	return nil
}

// Clear resets the viewer and discards responses still in flight
func (c *Controller) Clear() {
	c.mu.Lock()
	old := c.scope
	if !c.closed {
		c.scope = cancel.NewScope()
	}
	c.path = ""
	c.sheets = nil
	c.sheet = ""
	c.table = nil
	c.loading = 0
	c.err = ""
	c.mu.Unlock()
	old.Close()
	c.notify()
}

// OpenPanel opens (or retargets) the analysis panel for the selected sheet
func (c *Controller) OpenPanel(ctx context.Context, kind analysis.Kind) (ports.WindowHandle, error) {
	c.mu.Lock()
	path, sheet := c.path, c.sheet
	c.mu.Unlock()
	if path == "" || sheet == "" {
		return ports.WindowHandle{}, errors.ValidationError("select a file and a sheet first")
	}
	if kind == "" {
		return ports.WindowHandle{}, errors.InvalidInput("no analysis selected")
	}

	payload := codec.Payload{Path: path, Sheet: sheet, Analysis: string(kind)}
	handle, outcome, err := c.windows.OpenOrReuse(ctx, ports.LabelPanel, codec.PanelURL(c.baseURL, path, sheet, kind), payload)
	if err != nil {
		c.mu.Lock()
		c.err = errors.Message(err)
		c.mu.Unlock()
		c.notify()
		return ports.WindowHandle{}, err
	}
	log.Printf("[TableView] %s panel for %s/%s (%s)", kind, path, sheet, outcome)
	return handle, nil
}

// Close discards in-flight responses; the controller keeps its last state
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	scope := c.scope
	c.mu.Unlock()
	scope.Close()
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

// State returns a snapshot of the viewer
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Path:    c.path,
		Sheets:  append([]string(nil), c.sheets...),
		Sheet:   c.sheet,
		Loading: c.loading > 0,
		Error:   c.err,
	}
	if c.table != nil {
		t := c.table.Clone()
		s.Table = &t
		s.Grid = result.NewGrid(t)
	}
	return s
}
