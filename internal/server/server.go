// Package server exposes the JSON API the presentation layer calls into.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avirta/brandscope/internal/config"
	"github.com/avirta/brandscope/internal/query"
	"github.com/avirta/brandscope/internal/store"
)

type Server struct {
	cfg     config.Config
	store   store.Store
	queries *query.Service
	version string
	httpSrv *http.Server
}

func New(cfg config.Config, st store.Store, queries *query.Service, version string) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		queries: queries,
		version: version,
	}
}

// Start sets up routes and starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	s.routes(mux)

	handler := recoveryMiddleware(loggingMiddleware(mux))

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	slog.Info("Starting server", "addr", addr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/models", s.handleModels)

	mux.HandleFunc("POST /api/query", s.handleQueryRun)
	mux.HandleFunc("GET /api/queries", s.handleQueryList)
	mux.HandleFunc("GET /api/queries/{id}", s.handleQueryGet)
	mux.HandleFunc("GET /api/queries/{id}/highlight", s.handleHighlight)
	mux.HandleFunc("DELETE /api/queries/{id}", s.handleQueryDelete)
	mux.HandleFunc("DELETE /api/queries", s.handleQueryClear)

	mux.HandleFunc("GET /api/credentials", s.handleCredentialsGet)
	mux.HandleFunc("PUT /api/credentials", s.handleCredentialsPut)
	mux.HandleFunc("GET /api/settings", s.handleSettingsGet)
	mux.HandleFunc("PUT /api/settings", s.handleSettingsPut)

	mux.HandleFunc("GET /api/scheduled", s.handleScheduledList)
	mux.HandleFunc("POST /api/scheduled", s.handleScheduledCreate)
	mux.HandleFunc("PATCH /api/scheduled/{id}", s.handleScheduledPatch)
	mux.HandleFunc("DELETE /api/scheduled/{id}", s.handleScheduledDelete)
	mux.HandleFunc("POST /api/scheduled/{id}/run", s.handleScheduledRun)

	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok", "version": s.version})
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
