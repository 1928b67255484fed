package ports

import "context"

// TextStore persists exported text
type TextStore interface {
	SaveTextFile(ctx context.Context, path, content string) error
}
