// Package store is the persistence port. The core packages only ever see the
// Store interface; the SQLite implementation backs normal runs and the memory
// implementation backs tests and ephemeral runs.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avirta/brandscope/internal/models"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// HistoryCap bounds the query history; appending beyond it evicts the oldest
// records.
const HistoryCap = 100

// Store is the storage contract the rest of the application depends on.
type Store interface {
	Credentials() (models.CredentialSet, error)
	SetCredentials(models.CredentialSet) error

	AppendQuery(models.QueryRecord) error
	ReplaceQueries([]models.QueryRecord) error
	Queries() ([]models.QueryRecord, error)
	QueryByID(id string) (models.QueryRecord, error)
	DeleteQuery(id string) error
	ClearQueries() error

	Scheduled() ([]models.ScheduledQuery, error)
	ScheduledByID(id string) (models.ScheduledQuery, error)
	AppendScheduled(models.ScheduledQuery) error
	ReplaceScheduled([]models.ScheduledQuery) error
	UpdateScheduled(id string, patch models.ScheduledPatch) error
	DeleteScheduled(id string) error

	Settings() (models.Settings, error)
	SetSettings(models.Settings) error

	Close() error
}

// Export collects every stored collection into one backup bundle.
func Export(s Store) (models.ExportBundle, error) {
	creds, err := s.Credentials()
	if err != nil {
		return models.ExportBundle{}, fmt.Errorf("export credentials: %w", err)
	}
	queries, err := s.Queries()
	if err != nil {
		return models.ExportBundle{}, fmt.Errorf("export queries: %w", err)
	}
	scheduled, err := s.Scheduled()
	if err != nil {
		return models.ExportBundle{}, fmt.Errorf("export scheduled: %w", err)
	}
	settings, err := s.Settings()
	if err != nil {
		return models.ExportBundle{}, fmt.Errorf("export settings: %w", err)
	}

	if queries == nil {
		queries = []models.QueryRecord{}
	}
	if scheduled == nil {
		scheduled = []models.ScheduledQuery{}
	}

	return models.ExportBundle{
		Credentials: creds,
		Queries:     queries,
		Scheduled:   scheduled,
		Settings:    &settings,
		ExportedAt:  time.Now(),
	}, nil
}

// Import parses a backup document and applies it per collection: keys present
// in the document overwrite the corresponding stored collection, absent keys
// leave it untouched. Malformed JSON fails the whole import before anything
// is written.
func Import(s Store, data []byte) error {
	var bundle models.ExportBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("parse import document: %w", err)
	}

	if bundle.Credentials != nil {
		if err := s.SetCredentials(bundle.Credentials); err != nil {
			return fmt.Errorf("import credentials: %w", err)
		}
	}
	if bundle.Queries != nil {
		if err := s.ReplaceQueries(bundle.Queries); err != nil {
			return fmt.Errorf("import queries: %w", err)
		}
	}
	if bundle.Scheduled != nil {
		if err := s.ReplaceScheduled(bundle.Scheduled); err != nil {
			return fmt.Errorf("import scheduled queries: %w", err)
		}
	}
	if bundle.Settings != nil {
		if err := s.SetSettings(*bundle.Settings); err != nil {
			return fmt.Errorf("import settings: %w", err)
		}
	}
	return nil
}
