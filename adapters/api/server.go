// Package api serves the backend operations over HTTP and provides the
// matching client
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"
	"time"

	"psycdata/domain/table"
	"psycdata/internal/errors"
	"psycdata/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"
)

// Server exposes a ports.Backend and a ports.TextStore as JSON endpoints.
// Analyses share a bounded number of slots.
type Server struct {
	router  *chi.Mux
	backend ports.Backend
	store   ports.TextStore
	slots   *semaphore.Weighted
	timeout time.Duration
}

// NewServer creates the backend HTTP server. maxConcurrent bounds
// concurrent analyses; timeout (0 = none) bounds each request.
func NewServer(backend ports.Backend, store ports.TextStore, maxConcurrent int64, timeout time.Duration) *Server {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	s := &Server{
		router:  chi.NewRouter(),
		backend: backend,
		store:   store,
		slots:   semaphore.NewWeighted(maxConcurrent),
		timeout: timeout,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	if s.timeout > 0 {
		s.router.Use(middleware.Timeout(s.timeout))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get(RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Post(RouteSheets, s.handleListSheets)
	s.router.Post(RouteExcel, s.handleParseExcel)
	s.router.Post(RouteDescriptive, s.handleDescriptive)
	s.router.Post(RouteCorrelation, s.handleCorrelation)
	s.router.Post(RouteReliability, s.handleReliability)
	s.router.Post(RouteFiles, s.handleSaveTextFile)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[BackendServer] Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	var req SheetsRequest
	if !decode(w, r, &req) {
		return
	}
	sheets, err := s.backend.ListSheets(r.Context(), req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SheetsResponse{Sheets: sheets})
}

func (s *Server) handleParseExcel(w http.ResponseWriter, r *http.Request) {
	var req SheetRequest
	if !decode(w, r, &req) {
		return
	}
	s.respondTable(w, r, func(ctx context.Context) (table.Table, error) {
		return s.backend.ParseExcel(ctx, req.Path, req.Sheet)
	})
}

func (s *Server) handleDescriptive(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !decode(w, r, &req) {
		return
	}
	s.respondTable(w, r, func(ctx context.Context) (table.Table, error) {
		return s.backend.RunDescriptiveStats(ctx, req.Path, req.Sheet, req.Variables, req.Sort)
	})
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !decode(w, r, &req) {
		return
	}
	s.respondTable(w, r, func(ctx context.Context) (table.Table, error) {
		return s.backend.RunCorrelation(ctx, req.Path, req.Sheet, req.Variables)
	})
}

func (s *Server) handleReliability(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if !decode(w, r, &req) {
		return
	}
	s.respondTable(w, r, func(ctx context.Context) (table.Table, error) {
		return s.backend.RunReliability(ctx, req.Path, req.Sheet, req.Variables, req.Model)
	})
}

func (s *Server) handleSaveTextFile(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if !decode(w, r, &req) {
		return
	}
	if s.store == nil {
		writeError(w, errors.New(errors.CodeNotFound, "file saving is not enabled"))
		return
	}
	if err := s.store.SaveTextFile(r.Context(), req.Path, req.Content); err != nil {
		writeError(w, errors.IOError("failed to save file", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondTable runs fn in an analysis slot and writes the table
func (s *Server) respondTable(w http.ResponseWriter, r *http.Request, fn func(context.Context) (table.Table, error)) {
	ctx := r.Context()
	if err := s.slots.Acquire(ctx, 1); err != nil {
		writeError(w, errors.IOError("request cancelled while waiting for an analysis slot", err))
		return
	}
	defer s.slots.Release(1)

	t, err := fn(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errors.ParseError("invalid request body", err))
		return false
	}
	return true
}

// StatusFor maps an error code to an HTTP status
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeValidation, errors.CodeParse:
		return http.StatusBadRequest
	case errors.CodeIO:
		if stderrors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[BackendServer] %v", err)
	}
	writeJSON(w, status, ErrorResponse{Error: errors.Message(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[BackendServer] Failed to encode response: %v", err)
	}
}
