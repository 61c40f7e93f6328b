package provider

import (
	"context"
	"fmt"
)

// Adapter is the interface every vendor backend implements: one prompt and
// one credential in, generated text out, or a typed failure.
type Adapter interface {
	ID() string
	Invoke(ctx context.Context, prompt, credential string) (string, error)
}

// ProviderError is the failure an adapter returns. StatusCode is set for
// non-2xx HTTP responses; Malformed marks a 2xx response whose envelope was
// missing the expected fields.
type ProviderError struct {
	Model      string
	StatusCode int
	Malformed  bool
	Message    string
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API error: status %d: %s", e.Model, e.StatusCode, e.Message)
	case e.Malformed:
		return fmt.Sprintf("%s returned a malformed response: %s", e.Model, e.Message)
	default:
		return fmt.Sprintf("%s request failed: %s", e.Model, e.Message)
	}
}

// Defaults returns the four production adapters keyed by model identifier.
func Defaults() map[string]Adapter {
	return map[string]Adapter{
		"claude": NewAnthropic(),
		"gpt":    NewOpenAI(),
		"gemini": NewGemini(),
		"llama":  NewGroq(),
	}
}
