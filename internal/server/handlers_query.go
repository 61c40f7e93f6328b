package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/avirta/brandscope/internal/dispatch"
	"github.com/avirta/brandscope/internal/models"
	"github.com/avirta/brandscope/internal/query"
	"github.com/avirta/brandscope/internal/store"
)

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]any{"models": models.AvailableModels})
}

func (s *Server) handleQueryRun(w http.ResponseWriter, r *http.Request) {
	var req query.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", 400)
		return
	}

	rec, err := s.queries.Run(r.Context(), req)
	if err != nil {
		if errors.Is(err, dispatch.ErrEmptyPrompt) || errors.Is(err, dispatch.ErrNoModels) {
			jsonError(w, err.Error(), 400)
			return
		}
		slog.Error("query failed", "error", err)
		jsonError(w, "Query failed", 500)
		return
	}

	jsonResponse(w, rec)
}

func (s *Server) handleQueryList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Queries()
	if err != nil {
		slog.Error("failed to list queries", "error", err)
		jsonError(w, "Failed to list queries", 500)
		return
	}
	if records == nil {
		records = []models.QueryRecord{}
	}
	jsonResponse(w, map[string]any{"queries": records})
}

func (s *Server) handleQueryGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.QueryByID(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "Query not found", 404)
			return
		}
		jsonError(w, "Failed to load query", 500)
		return
	}
	jsonResponse(w, rec)
}

func (s *Server) handleQueryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteQuery(r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "Query not found", 404)
			return
		}
		jsonError(w, "Failed to delete query", 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQueryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearQueries(); err != nil {
		jsonError(w, "Failed to clear queries", 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
