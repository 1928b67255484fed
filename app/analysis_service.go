package app

import (
	"context"
	stderrors "errors"
	"time"

	"psycdata/domain/analysis"
	"psycdata/domain/core"
	"psycdata/domain/dataset"
	"psycdata/domain/table"
	"psycdata/internal"
	"psycdata/internal/errors"
	"psycdata/ports"
)

// WorkbookReader reads sheets and numeric datasets from workbook files
type WorkbookReader interface {
	ListSheets(ctx context.Context, path string) ([]string, error)
	ReadSheet(ctx context.Context, path, sheet string) (table.Table, error)
	NumericDataset(ctx context.Context, path, sheet string, variables []string) (dataset.Numeric, error)
}

// StatsEngine computes result tables from numeric datasets
type StatsEngine interface {
	Descriptive(ds dataset.Numeric, order analysis.SortOrder) (table.Table, error)
	Correlation(ctx context.Context, ds dataset.Numeric) (table.Table, error)
	Reliability(ds dataset.Numeric, model analysis.Model) (table.Table, error)
}

// AnalysisService is the in-process backend: it reads the workbook and
// runs the statistics engine on the selected variables
type AnalysisService struct {
	reader WorkbookReader
	engine StatsEngine
}

var _ ports.Backend = (*AnalysisService)(nil)

// NewAnalysisService creates the in-process backend
func NewAnalysisService(reader WorkbookReader, engine StatsEngine) *AnalysisService {
	return &AnalysisService{reader: reader, engine: engine}
}

func (s *AnalysisService) ListSheets(ctx context.Context, path string) ([]string, error) {
	sheets, err := s.reader.ListSheets(ctx, path)
	if err != nil {
		return nil, classify(err, "failed to list sheets")
	}
	return sheets, nil
}

func (s *AnalysisService) ParseExcel(ctx context.Context, path, sheet string) (table.Table, error) {
	t, err := s.reader.ReadSheet(ctx, path, sheet)
	if err != nil {
		return table.Table{}, classify(err, "failed to read sheet")
	}
	return t, nil
}

func (s *AnalysisService) RunDescriptiveStats(ctx context.Context, path, sheet string, variables []string, sort analysis.SortOrder) (table.Table, error) {
	if !sort.Valid() {
		return table.Table{}, errors.InvalidInput("unknown sort order: " + string(sort))
	}
	return s.run(ctx, "descriptive", path, sheet, variables, func(ds dataset.Numeric) (table.Table, error) {
		return s.engine.Descriptive(ds, sort)
	})
}

func (s *AnalysisService) RunCorrelation(ctx context.Context, path, sheet string, variables []string) (table.Table, error) {
	return s.run(ctx, "correlation", path, sheet, variables, func(ds dataset.Numeric) (table.Table, error) {
		return s.engine.Correlation(ctx, ds)
	})
}

func (s *AnalysisService) RunReliability(ctx context.Context, path, sheet string, variables []string, model analysis.Model) (table.Table, error) {
	return s.run(ctx, "reliability", path, sheet, variables, func(ds dataset.Numeric) (table.Table, error) {
		return s.engine.Reliability(ds, model)
	})
}

var analysisLog = internal.DefaultLogger.With("AnalysisService")

func (s *AnalysisService) run(ctx context.Context, name, path, sheet string, variables []string,
	compute func(dataset.Numeric) (table.Table, error)) (table.Table, error) {
	start := time.Now()

	ds, err := s.reader.NumericDataset(ctx, path, sheet, variables)
	if err != nil {
		return table.Table{}, classify(err, "failed to read "+name+" data")
	}
	t, err := compute(ds)
	if err != nil {
		return table.Table{}, classify(err, name+" failed")
	}

	analysisLog.Debug("%s on %d variables (%d rows) completed in %v",
		name, len(ds.Columns), ds.Rows(), time.Since(start))
	return t, nil
}

// classify attaches an error code so transports can map failures to a status
func classify(err error, message string) error {
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.IOError(message, err)
	case core.IsNotFoundError(err):
		return &errors.AppError{Code: errors.CodeNotFound, Message: message, Cause: err}
	case stderrors.Is(err, core.ErrEmptyPath),
		stderrors.Is(err, core.ErrEmptySheet),
		stderrors.Is(err, core.ErrNoVariables),
		stderrors.Is(err, core.ErrUnsupportedModel),
		core.IsDatasetError(err):
		return &errors.AppError{Code: errors.CodeInvalidInput, Message: message, Cause: err}
	default:
		return errors.IOError(message, err)
	}
}
