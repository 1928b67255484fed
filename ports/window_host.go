package ports

import (
	"context"

	"psycdata/domain/core"
)

// Window labels. At most one live window exists per label.
const (
	LabelTable  = "table"
	LabelPanel  = "panel"
	LabelResult = "result"
)

// WindowHandle identifies one live window
type WindowHandle struct {
	ID    core.WindowID `json:"id"`
	Label string        `json:"label"`
	URL   string        `json:"url"`
}

// WindowHost creates and manages the actual windows. Hosts must report
// every close, whatever triggered it, to the orchestrator's teardown hook.
type WindowHost interface {
	Create(ctx context.Context, label, url string) (WindowHandle, error)
	Focus(ctx context.Context, handle WindowHandle) error
	Close(ctx context.Context, handle WindowHandle) error
}
