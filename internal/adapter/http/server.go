// Package http serves the read-only JSON API over the ingested inventory,
// plus health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidegate/nid-etl/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	searchLimit      = 10
	minSearchLen     = 2
)

// DamReader is the read contract the API serves. The concrete store
// guarantees display-string columns and count columns are consistent with
// the primary records after a successful ingestion run.
type DamReader interface {
	DamBySlug(ctx context.Context, slug string) (store.DamDetail, error)
	ListDams(ctx context.Context, f store.DamFilter, limit int) ([]store.DamSummary, error)
	SearchDams(ctx context.Context, query string, limit int) ([]store.DamSummary, error)
	ListStates(ctx context.Context, limit int) ([]store.LookupRow, error)
	ListCounties(ctx context.Context, limit int) ([]store.LookupRow, error)
	ListPurposes(ctx context.Context, limit int) ([]store.LookupRow, error)
	ListOwnerTypes(ctx context.Context, limit int) ([]store.LookupRow, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// Server exposes the dam inventory read API.
type Server struct {
	httpServer *http.Server
	reader     DamReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, health, and metrics routes.
func NewServer(addr string, reader DamReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reader: reader,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/dams", s.handleListDams)
	mux.HandleFunc("GET /api/dams/{slug}", s.handleDamBySlug)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/states", s.handleLookup(reader.ListStates))
	mux.HandleFunc("GET /api/counties", s.handleLookup(reader.ListCounties))
	mux.HandleFunc("GET /api/purposes", s.handleLookup(reader.ListPurposes))
	mux.HandleFunc("GET /api/owner-types", s.handleLookup(reader.ListOwnerTypes))
	mux.HandleFunc("GET /api/stats", s.handleStats)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListDams(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.DamFilter{
		State:     q.Get("state"),
		County:    q.Get("county"),
		Purpose:   q.Get("purpose"),
		OwnerType: q.Get("owner_type"),
		Hazard:    q.Get("hazard"),
	}

	dams, err := s.reader.ListDams(r.Context(), filter, parseLimit(q.Get("limit")))
	if err != nil {
		s.fail(w, "list dams", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": emptyIfNil(dams)})
}

func (s *Server) handleDamBySlug(w http.ResponseWriter, r *http.Request) {
	dam, err := s.reader.DamBySlug(r.Context(), r.PathValue("slug"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "dam not found"})
		return
	}
	if err != nil {
		s.fail(w, "dam by slug", err)
		return
	}
	writeJSON(w, http.StatusOK, dam)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) < minSearchLen {
		writeJSON(w, http.StatusOK, map[string]any{"results": []store.DamSummary{}})
		return
	}

	dams, err := s.reader.SearchDams(r.Context(), query, searchLimit)
	if err != nil {
		s.fail(w, "search dams", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": emptyIfNil(dams)})
}

func (s *Server) handleLookup(list func(ctx context.Context, limit int) ([]store.LookupRow, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := list(r.Context(), parseLimit(r.URL.Query().Get("limit")))
		if err != nil {
			s.fail(w, "list lookup", err)
			return
		}
		if rows == nil {
			rows = []store.LookupRow{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": rows})
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reader.Stats(r.Context())
	if err != nil {
		s.fail(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

func emptyIfNil(dams []store.DamSummary) []store.DamSummary {
	if dams == nil {
		return []store.DamSummary{}
	}
	return dams
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
