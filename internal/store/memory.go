package store

import (
	"sync"

	"github.com/avirta/brandscope/internal/models"
)

// Memory is an in-memory Store used by tests and ephemeral runs. It applies
// the same cap and defaults as the SQLite implementation.
type Memory struct {
	mu        sync.Mutex
	creds     models.CredentialSet
	queries   []models.QueryRecord // newest first
	scheduled []models.ScheduledQuery
	settings  models.Settings
}

// NewMemory creates an empty in-memory store with default credentials and
// settings.
func NewMemory() *Memory {
	return &Memory{
		creds:    models.DefaultCredentials(),
		settings: models.DefaultSettings(),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Credentials() (models.CredentialSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds.Clone(), nil
}

func (m *Memory) SetCredentials(creds models.CredentialSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for modelID, apiKey := range creds {
		m.creds[modelID] = apiKey
	}
	return nil
}

func (m *Memory) AppendQuery(rec models.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append([]models.QueryRecord{rec}, m.queries...)
	if len(m.queries) > HistoryCap {
		m.queries = m.queries[:HistoryCap]
	}
	return nil
}

func (m *Memory) ReplaceQueries(recs []models.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append([]models.QueryRecord(nil), recs...)
	return nil
}

func (m *Memory) Queries() ([]models.QueryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.QueryRecord(nil), m.queries...), nil
}

func (m *Memory) QueryByID(id string) (models.QueryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.queries {
		if rec.ID == id {
			return rec, nil
		}
	}
	return models.QueryRecord{}, ErrNotFound
}

func (m *Memory) DeleteQuery(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, rec := range m.queries {
		if rec.ID == id {
			m.queries = append(m.queries[:i], m.queries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ClearQueries() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = nil
	return nil
}

func (m *Memory) Scheduled() ([]models.ScheduledQuery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ScheduledQuery(nil), m.scheduled...), nil
}

func (m *Memory) ScheduledByID(id string) (models.ScheduledQuery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sq := range m.scheduled {
		if sq.ID == id {
			return sq, nil
		}
	}
	return models.ScheduledQuery{}, ErrNotFound
}

func (m *Memory) AppendScheduled(sq models.ScheduledQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled = append(m.scheduled, sq)
	return nil
}

func (m *Memory) ReplaceScheduled(sqs []models.ScheduledQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled = append([]models.ScheduledQuery(nil), sqs...)
	return nil
}

func (m *Memory) UpdateScheduled(id string, patch models.ScheduledPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.scheduled {
		if m.scheduled[i].ID == id {
			applyScheduledPatch(&m.scheduled[i], patch)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) DeleteScheduled(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sq := range m.scheduled {
		if sq.ID == id {
			m.scheduled = append(m.scheduled[:i], m.scheduled[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) Settings() (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *Memory) SetSettings(settings models.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
	return nil
}
