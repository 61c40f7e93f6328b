package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/avirta/brandscope/internal/aggregate"
	"github.com/avirta/brandscope/internal/mentions"
	"github.com/avirta/brandscope/internal/store"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Queries()
	if err != nil {
		slog.Error("failed to load queries for stats", "error", err)
		jsonError(w, "Failed to compute stats", 500)
		return
	}

	stats := aggregate.Compute(records)
	jsonResponse(w, map[string]any{
		"totalQueries":  len(records),
		"brandMentions": stats.BrandMentions,
		"modelUsage":    stats.ModelUsage,
		"queriesByDate": stats.QueriesByDate,
		"recentDays":    aggregate.LastDays(records, 14),
	})
}

// handleHighlight marks brand occurrences in a stored result's response so
// the UI can render it as rich text without doing its own escaping.
func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.QueryByID(r.PathValue("id"))
	if err != nil {
		jsonError(w, "Query not found", 404)
		return
	}

	type highlighted struct {
		ModelID  string         `json:"modelId"`
		Marked   string         `json:"marked,omitempty"`
		Mentions map[string]int `json:"mentions,omitempty"`
	}

	out := make([]highlighted, 0, len(rec.Results))
	for _, result := range rec.Results {
		h := highlighted{ModelID: result.ModelID}
		if result.Response != nil {
			h.Marked = mentions.Highlight(*result.Response, rec.Brands)
			h.Mentions = mentions.Count(*result.Response, rec.Brands)
		}
		out = append(out, h)
	}
	jsonResponse(w, map[string]any{"id": rec.ID, "results": out})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	bundle, err := store.Export(s.store)
	if err != nil {
		slog.Error("export failed", "error", err)
		jsonError(w, "Export failed", 500)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="brandscope-export.json"`)
	jsonResponse(w, bundle)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "Failed to read request body", 400)
		return
	}

	if err := store.Import(s.store, body); err != nil {
		slog.Warn("import rejected", "error", err)
		jsonError(w, err.Error(), 400)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
