package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/avirta/brandscope/internal/models"
)

// SQLite persists all collections in a single local database file. Query and
// scheduled records are stored as JSON documents; credentials and settings as
// rows of their own.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and runs migrations.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(2)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLite{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS credentials (
			model_id TEXT PRIMARY KEY,
			api_key  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS queries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id  TEXT NOT NULL UNIQUE,
			doc TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scheduled_queries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id  TEXT NOT NULL UNIQUE,
			doc TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w\nstatement: %s", err, stmt)
		}
	}

	return s.seed()
}

// seed inserts the default credential rows and settings document so a fresh
// database behaves like the documented defaults.
func (s *SQLite) seed() error {
	for _, m := range models.AvailableModels {
		if _, err := s.conn.Exec(
			`INSERT OR IGNORE INTO credentials (model_id, api_key) VALUES (?, '')`, m.ID); err != nil {
			return err
		}
	}

	doc, err := json.Marshal(models.DefaultSettings())
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES ('settings', ?)`, string(doc))
	return err
}

func (s *SQLite) Credentials() (models.CredentialSet, error) {
	rows, err := s.conn.Query(`SELECT model_id, api_key FROM credentials`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	creds := models.DefaultCredentials()
	for rows.Next() {
		var modelID, apiKey string
		if err := rows.Scan(&modelID, &apiKey); err != nil {
			return nil, err
		}
		creds[modelID] = apiKey
	}
	return creds, rows.Err()
}

func (s *SQLite) SetCredentials(creds models.CredentialSet) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for modelID, apiKey := range creds {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO credentials (model_id, api_key) VALUES (?, ?)`, modelID, apiKey); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) AppendQuery(rec models.QueryRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal query record: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO queries (id, doc) VALUES (?, ?)`, rec.ID, string(doc)); err != nil {
		return err
	}

	// Evict everything beyond the newest HistoryCap records.
	if _, err := tx.Exec(`DELETE FROM queries WHERE seq NOT IN (
			SELECT seq FROM queries ORDER BY seq DESC LIMIT ?)`, HistoryCap); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) ReplaceQueries(recs []models.QueryRecord) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM queries`); err != nil {
		return err
	}

	// Input is newest-first; insert in reverse so the newest record gets the
	// highest sequence number.
	for i := len(recs) - 1; i >= 0; i-- {
		doc, err := json.Marshal(recs[i])
		if err != nil {
			return fmt.Errorf("marshal query record: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO queries (id, doc) VALUES (?, ?)`, recs[i].ID, string(doc)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) Queries() ([]models.QueryRecord, error) {
	rows, err := s.conn.Query(`SELECT doc FROM queries ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QueryRecord
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rec models.QueryRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal query record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) QueryByID(id string) (models.QueryRecord, error) {
	var doc string
	err := s.conn.QueryRow(`SELECT doc FROM queries WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return models.QueryRecord{}, ErrNotFound
	}
	if err != nil {
		return models.QueryRecord{}, err
	}

	var rec models.QueryRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return models.QueryRecord{}, fmt.Errorf("unmarshal query record: %w", err)
	}
	return rec, nil
}

func (s *SQLite) DeleteQuery(id string) error {
	res, err := s.conn.Exec(`DELETE FROM queries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) ClearQueries() error {
	_, err := s.conn.Exec(`DELETE FROM queries`)
	return err
}

func (s *SQLite) Scheduled() ([]models.ScheduledQuery, error) {
	rows, err := s.conn.Query(`SELECT doc FROM scheduled_queries ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScheduledQuery
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var sq models.ScheduledQuery
		if err := json.Unmarshal([]byte(doc), &sq); err != nil {
			return nil, fmt.Errorf("unmarshal scheduled query: %w", err)
		}
		out = append(out, sq)
	}
	return out, rows.Err()
}

func (s *SQLite) ScheduledByID(id string) (models.ScheduledQuery, error) {
	var doc string
	err := s.conn.QueryRow(`SELECT doc FROM scheduled_queries WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return models.ScheduledQuery{}, ErrNotFound
	}
	if err != nil {
		return models.ScheduledQuery{}, err
	}

	var sq models.ScheduledQuery
	if err := json.Unmarshal([]byte(doc), &sq); err != nil {
		return models.ScheduledQuery{}, fmt.Errorf("unmarshal scheduled query: %w", err)
	}
	return sq, nil
}

func (s *SQLite) AppendScheduled(sq models.ScheduledQuery) error {
	doc, err := json.Marshal(sq)
	if err != nil {
		return fmt.Errorf("marshal scheduled query: %w", err)
	}
	_, err = s.conn.Exec(`INSERT INTO scheduled_queries (id, doc) VALUES (?, ?)`, sq.ID, string(doc))
	return err
}

func (s *SQLite) ReplaceScheduled(sqs []models.ScheduledQuery) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM scheduled_queries`); err != nil {
		return err
	}
	for _, sq := range sqs {
		doc, err := json.Marshal(sq)
		if err != nil {
			return fmt.Errorf("marshal scheduled query: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO scheduled_queries (id, doc) VALUES (?, ?)`, sq.ID, string(doc)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) UpdateScheduled(id string, patch models.ScheduledPatch) error {
	sq, err := s.ScheduledByID(id)
	if err != nil {
		return err
	}

	applyScheduledPatch(&sq, patch)

	doc, err := json.Marshal(sq)
	if err != nil {
		return fmt.Errorf("marshal scheduled query: %w", err)
	}
	_, err = s.conn.Exec(`UPDATE scheduled_queries SET doc = ? WHERE id = ?`, string(doc), id)
	return err
}

func (s *SQLite) DeleteScheduled(id string) error {
	res, err := s.conn.Exec(`DELETE FROM scheduled_queries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Settings() (models.Settings, error) {
	var doc string
	err := s.conn.QueryRow(`SELECT value FROM settings WHERE key = 'settings'`).Scan(&doc)
	if err == sql.ErrNoRows {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, err
	}

	var settings models.Settings
	if err := json.Unmarshal([]byte(doc), &settings); err != nil {
		return models.Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, nil
}

func (s *SQLite) SetSettings(settings models.Settings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = s.conn.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES ('settings', ?)`, string(doc))
	return err
}

// applyScheduledPatch copies the set fields of a patch onto a scheduled query.
func applyScheduledPatch(sq *models.ScheduledQuery, patch models.ScheduledPatch) {
	if patch.Enabled != nil {
		sq.Enabled = *patch.Enabled
	}
	if patch.LastRun != nil {
		sq.LastRun = patch.LastRun
	}
	if patch.LastResults != nil {
		sq.LastResults = patch.LastResults
	}
	if patch.NextRun != nil {
		sq.NextRun = *patch.NextRun
	}
}
