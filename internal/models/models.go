package models

import (
	"strings"
	"time"
)

// ModelDescriptor identifies one of the supported AI models.
type ModelDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// AvailableModels is the fixed set of models the tool can query.
var AvailableModels = []ModelDescriptor{
	{ID: "claude", Name: "Claude", Provider: "anthropic"},
	{ID: "gpt", Name: "GPT-4", Provider: "openai"},
	{ID: "gemini", Name: "Gemini", Provider: "google"},
	{ID: "llama", Name: "Llama", Provider: "groq"},
}

// KnownModel reports whether id is one of the supported model identifiers.
func KnownModel(id string) bool {
	for _, m := range AvailableModels {
		if m.ID == id {
			return true
		}
	}
	return false
}

// CredentialSet maps a model identifier to its API key. An absent or empty
// value means the model cannot be dispatched.
type CredentialSet map[string]string

// DefaultCredentials returns a set with every known model mapped to an
// empty key.
func DefaultCredentials() CredentialSet {
	c := make(CredentialSet, len(AvailableModels))
	for _, m := range AvailableModels {
		c[m.ID] = ""
	}
	return c
}

// Clone returns an independent copy of the credential set.
func (c CredentialSet) Clone() CredentialSet {
	out := make(CredentialSet, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Has reports whether the set carries a non-empty key for the model.
func (c CredentialSet) Has(modelID string) bool {
	return strings.TrimSpace(c[modelID]) != ""
}

// QueryResult is the outcome of one model's invocation within a dispatch.
// At most one of Response and Error is set; both are absent only for results
// that were never attempted. Immutable after creation.
type QueryResult struct {
	ModelID    string    `json:"modelId"`
	Response   *string   `json:"response"`
	Error      *string   `json:"error"`
	DurationMS int64     `json:"duration"`
	Timestamp  time.Time `json:"timestamp"`
}

// QuestionType distinguishes open questions from multiple-choice ones.
type QuestionType string

const (
	QuestionOpen   QuestionType = "open"
	QuestionChoice QuestionType = "choice"
)

// QueryRecord is one persisted query with its per-model results.
type QueryRecord struct {
	ID             string        `json:"id"`
	Prompt         string        `json:"prompt"`
	OriginalPrompt string        `json:"originalPrompt"`
	QuestionType   QuestionType  `json:"questionType"`
	Choices        []string      `json:"choices"`
	Brands         []string      `json:"brands"`
	Models         []string      `json:"models"`
	Results        []QueryResult `json:"results"`
	Timestamp      time.Time     `json:"timestamp"`
}

// Interval is a scheduled query's recurrence step.
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

// Valid reports whether the interval is one of the supported values.
func (i Interval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return false
}

// ScheduledQuery is a saved query definition with an advisory next-run time.
// Nothing triggers it automatically; runs happen on explicit user action.
type ScheduledQuery struct {
	ID          string        `json:"id"`
	Prompt      string        `json:"prompt"`
	Models      []string      `json:"models"`
	Brands      []string      `json:"brands"`
	Interval    Interval      `json:"interval"`
	Time        string        `json:"time"` // "HH:MM", local time
	Enabled     bool          `json:"enabled"`
	LastRun     *time.Time    `json:"lastRun"`
	LastResults []QueryResult `json:"lastResults,omitempty"`
	NextRun     time.Time     `json:"nextRun"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// ScheduledPatch carries the fields of a scheduled query that user actions
// may change. Nil fields are left untouched.
type ScheduledPatch struct {
	Enabled     *bool
	LastRun     *time.Time
	LastResults []QueryResult
	NextRun     *time.Time
}

// Settings holds the user-facing preferences.
type Settings struct {
	Language      string   `json:"language"`
	DefaultModels []string `json:"defaultModels"`
	AutoHighlight bool     `json:"autoHighlight"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{
		Language:      "fi",
		DefaultModels: []string{"claude", "gpt", "gemini"},
		AutoHighlight: true,
	}
}

// ExportBundle is the backup document. On import, a nil collection means the
// key was absent from the document and the stored collection is left as-is.
type ExportBundle struct {
	Credentials CredentialSet    `json:"apiKeys,omitempty"`
	Queries     []QueryRecord    `json:"queries,omitempty"`
	Scheduled   []ScheduledQuery `json:"scheduled,omitempty"`
	Settings    *Settings        `json:"settings,omitempty"`
	ExportedAt  time.Time        `json:"exportedAt"`
}
