package ports

import (
	"context"

	"psycdata/domain/history"
)

// ExportHistoryRepository records saved exports
type ExportHistoryRepository interface {
	Record(ctx context.Context, rec *history.Record) error
	List(ctx context.Context, limit int) ([]*history.Record, error)
}
