package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avirta/brandscope/internal/models"
	"github.com/avirta/brandscope/internal/provider"
)

// Validation errors raised before any network activity.
var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrNoModels    = errors.New("no models selected")
)

// MissingKeyError is the fixed error text of a result synthesized for a model
// without a usable credential.
const MissingKeyError = "API key missing"

// Dispatcher fans a single prompt out to the selected providers concurrently
// and collects one result per model.
type Dispatcher struct {
	adapters map[string]provider.Adapter
	timeout  time.Duration
	limit    int
}

// New creates a dispatcher. timeout bounds each individual provider call
// (0 disables it); limit caps how many calls run at once (0 means unlimited).
func New(adapters map[string]provider.Adapter, timeout time.Duration, limit int) *Dispatcher {
	return &Dispatcher{adapters: adapters, timeout: timeout, limit: limit}
}

// Dispatch runs the prompt against every model in modelIDs. The returned
// slice has one entry per input identifier, in input order. A failure of one
// provider never aborts its siblings; the only top-level errors are the
// caller-side validation ones.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt string, modelIDs []string, credentials models.CredentialSet) ([]models.QueryResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if len(modelIDs) == 0 {
		return nil, ErrNoModels
	}

	results := make([]models.QueryResult, len(modelIDs))

	g := new(errgroup.Group)
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}

	for i, id := range modelIDs {
		if !credentials.Has(id) {
			results[i] = errorResult(id, MissingKeyError)
			continue
		}

		key := credentials[id]
		g.Go(func() error {
			results[i] = d.invoke(ctx, id, prompt, key)
			return nil
		})
	}

	// Worker funcs never return errors; Wait is only the settlement barrier.
	g.Wait()

	return results, nil
}

// invoke runs one adapter call, measuring wall-clock duration around the call
// itself rather than from dispatch start.
func (d *Dispatcher) invoke(ctx context.Context, modelID, prompt, credential string) models.QueryResult {
	adapter, ok := d.adapters[modelID]
	if !ok {
		return errorResult(modelID, fmt.Sprintf("unknown model: %s", modelID))
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := adapter.Invoke(ctx, prompt, credential)
	elapsed := time.Since(start)

	if err != nil {
		slog.Warn("provider call failed", "model", modelID, "elapsed", elapsed.String(), "error", err)
		msg := err.Error()
		return models.QueryResult{
			ModelID:    modelID,
			Error:      &msg,
			DurationMS: elapsed.Milliseconds(),
			Timestamp:  time.Now(),
		}
	}

	slog.Debug("provider call completed", "model", modelID, "elapsed", elapsed.String(), "response_chars", len(text))
	return models.QueryResult{
		ModelID:    modelID,
		Response:   &text,
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  time.Now(),
	}
}

func errorResult(modelID, message string) models.QueryResult {
	return models.QueryResult{
		ModelID:   modelID,
		Error:     &message,
		Timestamp: time.Now(),
	}
}
