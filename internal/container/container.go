package container

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"psycdata/adapters/api"
	"psycdata/adapters/excel"
	"psycdata/adapters/sqlstore"
	"psycdata/adapters/stats"
	"psycdata/adapters/storage"
	"psycdata/app"
	"psycdata/internal"
	"psycdata/internal/config"
	"psycdata/internal/export"
	"psycdata/ports"
	"psycdata/ui"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Backend and persistence
	Backend     ports.Backend
	Store       ports.TextStore
	HistoryRepo ports.ExportHistoryRepository

	// Services
	Exports *app.ExportService
	UI      *ui.Server
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	internal.DefaultLogger.SetLevel(internal.ParseLogLevel(cfg.LogLevel))
	return &Container{Config: cfg}, nil
}

// Init wires the backend, the export pipeline and the window host. The
// database is optional; without it exports are not recorded.
func (c *Container) Init(ctx context.Context) error {
	c.initBackend()

	if c.Config.Database.Enabled() {
		db, err := sqlstore.Open(ctx, c.Config.Database.Driver, c.Config.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to open export history database: %w", err)
		}
		c.DB = db
		c.HistoryRepo = sqlstore.NewExportHistoryRepository(db)
		log.Printf("[Container] export history stored in %s", c.Config.Database.Driver)
	}

	c.Exports = app.NewExportService(c.Store, c.HistoryRepo, export.CSVOptions{
		BOM:     export.Bool(c.Config.Export.BOM),
		Newline: c.Config.Export.Newline,
	})

	server, err := ui.NewServer(ui.Deps{
		Backend: c.Backend,
		Exports: c.Exports,
		BaseURL: c.Config.Server.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create window host: %w", err)
	}
	c.UI = server

	log.Printf("[Container] initialized (remote backend: %t)", c.Config.Backend.Remote())
	return nil
}

func (c *Container) initBackend() {
	if c.Config.Backend.Remote() {
		client := api.NewClient(c.Config.Backend.URL, &http.Client{Timeout: c.Config.Backend.RequestTimeout})
		c.Backend = client
		c.Store = client
		return
	}
	c.Backend = NewLocalBackend(c.Config.Backend.MaxConcurrent)
	c.Store = storage.NewFileStore(c.Config.Export.Dir)
}

// NewLocalBackend is the in-process backend: workbook reader plus
// statistics engine
func NewLocalBackend(workers int64) *app.AnalysisService {
	return app.NewAnalysisService(excel.NewReader(), stats.NewEngine(int(workers)))
}

// Shutdown closes live windows and the database
func (c *Container) Shutdown(ctx context.Context) error {
	if c.UI != nil {
		c.UI.Shutdown(ctx)
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
