package ports

import (
	"context"

	"psycdata/domain/analysis"
	"psycdata/domain/table"
)

// Backend is the fixed set of spreadsheet and statistics operations the
// windows call. Implementations may run in process or over HTTP.
type Backend interface {
	ListSheets(ctx context.Context, path string) ([]string, error)
	ParseExcel(ctx context.Context, path, sheet string) (table.Table, error)
	RunDescriptiveStats(ctx context.Context, path, sheet string, variables []string, sort analysis.SortOrder) (table.Table, error)
	RunCorrelation(ctx context.Context, path, sheet string, variables []string) (table.Table, error)
	RunReliability(ctx context.Context, path, sheet string, variables []string, model analysis.Model) (table.Table, error)
}
