package sqlstore

import (
	"context"
	"fmt"
	"time"

	"psycdata/domain/core"
	"psycdata/domain/history"
	"psycdata/ports"

	"github.com/jmoiron/sqlx"
)

// createdAtLayout is fixed width so text ordering matches time ordering
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

type exportRow struct {
	ID        string `db:"id"`
	Path      string `db:"path"`
	Format    string `db:"format"`
	Analysis  string `db:"analysis"`
	Sheet     string `db:"sheet"`
	Bytes     int    `db:"bytes"`
	CreatedAt string `db:"created_at"`
}

// ExportHistoryRepository stores history.Record rows
type ExportHistoryRepository struct {
	db *sqlx.DB
}

var _ ports.ExportHistoryRepository = (*ExportHistoryRepository)(nil)

// NewExportHistoryRepository creates a repository over an open database
func NewExportHistoryRepository(db *sqlx.DB) *ExportHistoryRepository {
	return &ExportHistoryRepository{db: db}
}

// Record inserts rec
func (r *ExportHistoryRepository) Record(ctx context.Context, rec *history.Record) error {
	if rec.ID == "" {
		rec.ID = core.NewExportID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = core.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO export_history (id, path, format, analysis, sheet, bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID.String(),
		rec.Path,
		string(rec.Format),
		rec.Analysis,
		rec.Sheet,
		rec.Bytes,
		rec.CreatedAt.Time().UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

// List returns up to limit records, newest first
func (r *ExportHistoryRepository) List(ctx context.Context, limit int) ([]*history.Record, error) {
	query := r.db.Rebind(`
		SELECT id, path, format, analysis, sheet, bytes, created_at
		FROM export_history
		ORDER BY created_at DESC
		LIMIT ?`)

	var rows []exportRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	records := make([]*history.Record, 0, len(rows))
	for _, row := range rows {
		createdAt, err := time.Parse(createdAtLayout, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at for export %s: %w", row.ID, err)
		}
		records = append(records, &history.Record{
			ID:        core.ExportID(row.ID),
			Path:      row.Path,
			Format:    history.Format(row.Format),
			Analysis:  row.Analysis,
			Sheet:     row.Sheet,
			Bytes:     row.Bytes,
			CreatedAt: core.NewTimestamp(createdAt),
		})
	}
	return records, nil
}
