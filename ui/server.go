// Package ui hosts the analysis windows as browser pages. Each window is
// a server-side view model observed over Server-Sent Events.
package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"psycdata/app"
	"psycdata/internal/events"
	"psycdata/internal/layout"
	"psycdata/internal/sse"
	"psycdata/internal/window"
	"psycdata/ports"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// Deps are the services the window host needs
type Deps struct {
	Backend ports.Backend
	Exports *app.ExportService
	BaseURL string
}

// Server is the window host
type Server struct {
	router    *gin.Engine
	templates *template.Template
	backend   ports.Backend
	exports   *app.ExportService
	baseURL   string

	bus     *events.Bus
	hub     *sse.Hub
	host    *Host
	windows *window.Orchestrator
	layout  *layout.Coordinator
}

// NewServer creates the window host and its routes
func NewServer(deps Deps) (*Server, error) {
	if deps.Backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		templates: templates,
		backend:   deps.Backend,
		exports:   deps.Exports,
		baseURL:   strings.TrimRight(deps.BaseURL, "/"),
		bus:       events.NewBus(),
		hub:       sse.NewHub(),
		layout:    layout.NewCoordinator(),
	}
	s.host = NewHost(s.hub, s.newView)
	s.windows = window.NewOrchestrator(s.host, s.bus)
	s.host.OnClosed(s.windows.HandleClosed)

	s.router.Use(gin.Logger(), gin.Recovery())
	s.setupRoutes()
	return s, nil
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Windows exposes the orchestrator, e.g. for opening the first window
func (s *Server) Windows() *window.Orchestrator {
	return s.windows
}

// Bus exposes the event bus windows listen on
func (s *Server) Bus() *events.Bus {
	return s.bus
}

func (s *Server) setupRoutes() {
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/w/"+ports.LabelTable)
	})
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "windows": len(s.windows.Live())})
	})

	w := s.router.Group("/w/:label")
	w.GET("", s.handleWindowPage)
	w.GET("/state", s.handleWindowState)
	w.GET("/events", s.handleWindowEvents)
	w.POST("/close", s.handleWindowClose)

	api := s.router.Group("/api")
	api.GET("/windows", s.handleListWindows)
	api.POST("/windows", s.handleOpenWindow)
	api.GET("/exports", s.handleListExports)
	api.POST("/layout/:group", s.handleLayoutReport)

	table := api.Group("/table")
	table.POST("/file", s.handleTableFile)
	table.POST("/sheet", s.handleTableSheet)
	table.POST("/load", s.handleTableLoad)
	table.POST("/clear", s.handleTableClear)
	table.POST("/panel", s.handleTableOpenPanel)

	panel := api.Group("/panel")
	panel.POST("/variables", s.handlePanelVariables)
	panel.POST("/toggle", s.handlePanelToggle)
	panel.POST("/options", s.handlePanelOptions)
	panel.POST("/confirm", s.handlePanelConfirm)
	panel.POST("/cancel", s.handlePanelCancel)

	result := api.Group("/result")
	result.POST("/export", s.handleResultExport)
	result.GET("/download", s.handleResultDownload)
}

// Run serves on addr until ctx is cancelled, then closes every window
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[UI] Window host listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Shutdown(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

// Shutdown closes every live window and stops event delivery
func (s *Server) Shutdown(ctx context.Context) {
	for _, handle := range s.windows.Live() {
		if err := s.windows.Close(ctx, handle.Label); err != nil {
			log.Printf("[UI] Failed to close %s window: %v", handle.Label, err)
		}
	}
	s.hub.Stop()
}
