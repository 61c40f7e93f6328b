package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avirta/brandscope/internal/models"
	"github.com/avirta/brandscope/internal/schedule"
	"github.com/avirta/brandscope/internal/store"
)

func (s *Server) handleScheduledList(w http.ResponseWriter, r *http.Request) {
	scheduled, err := s.store.Scheduled()
	if err != nil {
		slog.Error("failed to list scheduled queries", "error", err)
		jsonError(w, "Failed to list scheduled queries", 500)
		return
	}
	if scheduled == nil {
		scheduled = []models.ScheduledQuery{}
	}
	jsonResponse(w, map[string]any{"scheduled": scheduled})
}

func (s *Server) handleScheduledCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt   string          `json:"prompt"`
		Models   []string        `json:"models"`
		Brands   []string        `json:"brands"`
		Interval models.Interval `json:"interval"`
		Time     string          `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", 400)
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		jsonError(w, "Prompt is required", 400)
		return
	}
	if len(req.Models) == 0 {
		jsonError(w, "At least one model is required", 400)
		return
	}

	now := time.Now()
	nextRun, err := schedule.NextRun(req.Interval, req.Time, now)
	if err != nil {
		jsonError(w, err.Error(), 400)
		return
	}

	brands := make([]string, 0, len(req.Brands))
	for _, b := range req.Brands {
		if strings.TrimSpace(b) != "" {
			brands = append(brands, b)
		}
	}

	sq := models.ScheduledQuery{
		ID:        uuid.NewString(),
		Prompt:    req.Prompt,
		Models:    req.Models,
		Brands:    brands,
		Interval:  req.Interval,
		Time:      req.Time,
		Enabled:   true,
		NextRun:   nextRun,
		CreatedAt: now,
	}

	if err := s.store.AppendScheduled(sq); err != nil {
		slog.Error("failed to save scheduled query", "error", err)
		jsonError(w, "Failed to save scheduled query", 500)
		return
	}
	jsonResponse(w, sq)
}

func (s *Server) handleScheduledPatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", 400)
		return
	}

	id := r.PathValue("id")
	err := s.store.UpdateScheduled(id, models.ScheduledPatch{Enabled: req.Enabled})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "Scheduled query not found", 404)
			return
		}
		jsonError(w, "Failed to update scheduled query", 500)
		return
	}

	sq, err := s.store.ScheduledByID(id)
	if err != nil {
		jsonError(w, "Failed to load scheduled query", 500)
		return
	}
	jsonResponse(w, sq)
}

func (s *Server) handleScheduledDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteScheduled(r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "Scheduled query not found", 404)
			return
		}
		jsonError(w, "Failed to delete scheduled query", 500)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScheduledRun is the manual trigger. There is no background execution;
// this endpoint is the only way a scheduled query ever runs.
func (s *Server) handleScheduledRun(w http.ResponseWriter, r *http.Request) {
	sq, err := s.queries.RunScheduled(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "Scheduled query not found", 404)
			return
		}
		slog.Error("scheduled run failed", "error", err)
		jsonError(w, "Scheduled run failed", 500)
		return
	}
	jsonResponse(w, sq)
}
