package app

import (
	"context"
	"path/filepath"
	"strings"

	"psycdata/domain/history"
	"psycdata/domain/table"
	"psycdata/internal"
	"psycdata/internal/errors"
	"psycdata/internal/export"
	"psycdata/ports"
)

// ExportRequest is a table to save along with the request that produced it
type ExportRequest struct {
	Path      string
	Format    history.Format // empty: inferred from Path
	Analysis  string
	Sheet     string
	Variables []string
	Table     table.Table
	Meta      map[string]interface{}
}

var exportLog = internal.DefaultLogger.With("ExportService")

// ExportService renders result tables and saves them through a TextStore,
// recording each export when a history repository is configured
type ExportService struct {
	store   ports.TextStore
	history ports.ExportHistoryRepository
	csv     export.CSVOptions
}

// NewExportService creates an export service; repo may be nil
func NewExportService(store ports.TextStore, repo ports.ExportHistoryRepository, csv export.CSVOptions) *ExportService {
	return &ExportService{store: store, history: repo, csv: csv}
}

// Render produces the file content for req without saving it
func (s *ExportService) Render(req ExportRequest) (string, history.Format, error) {
	format := req.Format
	if format == "" {
		format = history.FormatForPath(req.Path)
	}
	switch format {
	case history.FormatCSV:
		return export.ToCSV(req.Table, s.csv), format, nil
	case history.FormatJSON:
		content, err := export.ToJSON(export.Payload{
			Analysis:  req.Analysis,
			Sheet:     req.Sheet,
			Variables: req.Variables,
			Table:     req.Table,
			Meta:      req.Meta,
		})
		if err != nil {
			return "", format, errors.Wrap(err, "failed to render JSON export")
		}
		return content, format, nil
	default:
		return "", format, errors.InvalidInput("unsupported export format: " + string(format))
	}
}

// Export renders and saves req. A path without an extension gets the
// format's extension. History failures are logged and do not fail the
// export.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*history.Record, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, errors.InvalidInput("export path is empty")
	}
	content, format, err := s.Render(req)
	if err != nil {
		return nil, err
	}

	path := req.Path
	if filepath.Ext(path) == "" {
		path += format.Extension()
	}
	if err := s.store.SaveTextFile(ctx, path, content); err != nil {
		return nil, errors.IOError("failed to save export", err)
	}

	rec := history.NewRecord(path, format, req.Analysis, req.Sheet, len(content))
	if s.history != nil {
		if err := s.history.Record(ctx, rec); err != nil {
			exportLog.Warn("failed to record export %s: %v", rec.ID, err)
		}
	}
	exportLog.Info("saved %s export to %s (%d bytes)", format, path, len(content))
	return rec, nil
}

// History lists recent exports, newest first. Without a repository the
// list is empty.
func (s *ExportService) History(ctx context.Context, limit int) ([]*history.Record, error) {
	if s.history == nil {
		return []*history.Record{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	records, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list exports", err)
	}
	return records, nil
}
