// Package query is the caller side of a dispatch: prompt expansion, record
// construction, and history persistence.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avirta/brandscope/internal/dispatch"
	"github.com/avirta/brandscope/internal/models"
	"github.com/avirta/brandscope/internal/schedule"
	"github.com/avirta/brandscope/internal/store"
)

// Request is one user-initiated query.
type Request struct {
	Prompt       string              `json:"prompt"`
	QuestionType models.QuestionType `json:"questionType"`
	Choices      []string            `json:"choices"`
	Brands       []string            `json:"brands"`
	Models       []string            `json:"models"`
}

// Service runs queries through the dispatcher and persists the outcome.
type Service struct {
	store      store.Store
	dispatcher *dispatch.Dispatcher
}

// NewService creates the query service.
func NewService(st store.Store, d *dispatch.Dispatcher) *Service {
	return &Service{store: st, dispatcher: d}
}

// Run dispatches the request and appends the resulting record to history.
func (s *Service) Run(ctx context.Context, req Request) (models.QueryRecord, error) {
	creds, err := s.store.Credentials()
	if err != nil {
		return models.QueryRecord{}, fmt.Errorf("load credentials: %w", err)
	}

	questionType := req.QuestionType
	if questionType == "" {
		questionType = models.QuestionOpen
	}

	choices := filterBlank(req.Choices)
	finalPrompt := req.Prompt
	if questionType == models.QuestionChoice && len(choices) > 0 {
		finalPrompt = ExpandChoices(req.Prompt, choices)
	}

	results, err := s.dispatcher.Dispatch(ctx, finalPrompt, req.Models, creds)
	if err != nil {
		return models.QueryRecord{}, err
	}

	rec := models.QueryRecord{
		ID:             uuid.NewString(),
		Prompt:         finalPrompt,
		OriginalPrompt: req.Prompt,
		QuestionType:   questionType,
		Choices:        choices,
		Brands:         filterBlank(req.Brands),
		Models:         req.Models,
		Results:        results,
		Timestamp:      time.Now(),
	}

	if err := s.store.AppendQuery(rec); err != nil {
		return models.QueryRecord{}, fmt.Errorf("save query record: %w", err)
	}

	slog.Info("query completed", "id", rec.ID, "models", len(req.Models), "brands", len(rec.Brands))
	return rec, nil
}

// RunScheduled triggers a scheduled query now: it dispatches, stamps the
// last-run fields, recomputes the advisory next-run time, and appends a
// normal history record so the run shows up in aggregation.
func (s *Service) RunScheduled(ctx context.Context, id string) (models.ScheduledQuery, error) {
	sq, err := s.store.ScheduledByID(id)
	if err != nil {
		return models.ScheduledQuery{}, err
	}

	rec, err := s.Run(ctx, Request{
		Prompt: sq.Prompt,
		Brands: sq.Brands,
		Models: sq.Models,
	})
	if err != nil {
		return models.ScheduledQuery{}, err
	}

	now := time.Now()
	patch := models.ScheduledPatch{
		LastRun:     &now,
		LastResults: rec.Results,
	}
	if next, err := schedule.NextRun(sq.Interval, sq.Time, now); err == nil {
		patch.NextRun = &next
	} else {
		slog.Warn("could not recompute next run", "id", id, "error", err)
	}

	if err := s.store.UpdateScheduled(id, patch); err != nil {
		return models.ScheduledQuery{}, fmt.Errorf("update scheduled query: %w", err)
	}
	return s.store.ScheduledByID(id)
}

// ExpandChoices appends a numbered option list to the prompt, the way
// multiple-choice questions are phrased to the models.
func ExpandChoices(prompt string, choices []string) string {
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\nVaihtoehdot:\n")
	for i, choice := range choices {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, choice))
	}
	return sb.String()
}

func filterBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
