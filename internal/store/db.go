package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-data-concierge/internal/model"
)

// Store persists requests and their terminal results in SQLite. It is the
// default Sink implementation; callers with their own persistence plug in a
// different Sink instead.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	requestTable := `
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		spec TEXT,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	resultTable := `
	CREATE TABLE IF NOT EXISTS results (
		request_id TEXT PRIMARY KEY,
		source TEXT,
		symbol TEXT,
		decision TEXT,
		payload TEXT,
		completed_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS request_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT,
		error_kind TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	for _, stmt := range []string{requestTable, resultTable, errorTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRequest records a newly submitted collection request.
func (s *Store) SaveRequest(req model.CollectionRequest) error {
	spec, err := json.Marshal(req)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(`INSERT INTO requests (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		req.ID, spec, string(model.StatePending), now, now)
	return err
}

// UpdateStatus moves a request through its lifecycle states.
func (s *Store) UpdateStatus(requestID string, state model.RequestState) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(state), now, requestID)
	return err
}

// Store implements pipeline.Sink: the full result is kept as JSON alongside
// the indexed decision columns, and failures land in request_errors.
func (s *Store) Store(ctx context.Context, result *model.PipelineResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO results (request_id, source, symbol, decision, payload, completed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		result.Request.ID, result.Request.Source, result.Request.Symbol,
		string(result.Decision), payload, result.CompletedAt)
	if err != nil {
		return err
	}

	if result.Error != "" {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO request_errors (request_id, error_kind, error_message, created_at) VALUES (?, ?, ?, ?)`,
			result.Request.ID, result.ErrorKind, result.Error, time.Now().UTC())
	}
	return err
}

// GetResult loads one terminal result by request ID.
func (s *Store) GetResult(requestID string) (*model.PipelineResult, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM results WHERE request_id = ?`, requestID).Scan(&payload)
	if err != nil {
		return nil, err
	}
	var result model.PipelineResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode stored result %s: %w", requestID, err)
	}
	return &result, nil
}

// ListRequests returns basic info for every known request, newest first.
func (s *Store) ListRequests() ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT id, status, created_at, updated_at FROM requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []map[string]interface{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return requests, rows.Err()
}

// GetErrors returns the recorded errors for one request.
func (s *Store) GetErrors(requestID string) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(
		`SELECT error_kind, error_message, created_at FROM request_errors WHERE request_id = ? ORDER BY created_at`,
		requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		var kind, msg string
		var createdAt time.Time
		if err := rows.Scan(&kind, &msg, &createdAt); err != nil {
			return nil, err
		}
		out = append(out, map[string]interface{}{
			"kind":      kind,
			"message":   msg,
			"createdAt": createdAt,
		})
	}
	return out, rows.Err()
}
