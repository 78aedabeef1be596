// Package server exposes stored snapshots over HTTP for dashboards and
// ad-hoc queries.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pyventory/pyventory/pkg/store"
)

// Server serves the read-only snapshot API.
type Server struct {
	store  store.Store
	logger *log.Logger
	router chi.Router
}

// New wires the routes. The server never triggers scans; it only reads what
// the scan command stored.
func New(st store.Store, logger *log.Logger) *Server {
	s := &Server{store: st, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/snapshot/summary", s.handleSummary)

	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Latest(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Latest(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           snap.ID,
		"org":          snap.Org,
		"generated_at": snap.GeneratedAt,
		"summary":      snap.Summary,
	})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNoSnapshot) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot stored yet"})
		return
	}
	s.logger.Error("snapshot read failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot read failed"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
