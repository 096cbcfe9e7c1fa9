package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

// Session is one resolver run: a replayed scenario, a synthetic run or a
// live host attachment.
type Session struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Source     string     `json:"source"`
	ConfigJSON string     `json:"config_json"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// CreateSession inserts a new session and returns it. cfg is stored as JSON
// so a run can be reproduced with the same tuning.
func (db *DB) CreateSession(label, source string, cfg interface{}) (*Session, error) {
	cfgJSON := []byte("{}")
	if cfg != nil {
		b, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshal session config: %w", err)
		}
		cfgJSON = b
	}

	s := &Session{
		ID:         fmt.Sprintf("ses_%s", uuid.NewString()),
		Label:      label,
		Source:     source,
		ConfigJSON: string(cfgJSON),
		StartedAt:  time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, label, source, config_json, started_unix_nanos)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Label, s.Source, s.ConfigJSON, s.StartedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// EndSession stamps the session's end time.
func (db *DB) EndSession(id string) error {
	res, err := db.Exec(
		`UPDATE sessions SET ended_unix_nanos = ? WHERE session_id = ?`,
		time.Now().UTC().UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("end session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetSession loads one session.
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.QueryRow(
		`SELECT session_id, label, source, config_json, started_unix_nanos, ended_unix_nanos
		 FROM sessions WHERE session_id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// ListSessions returns the most recent sessions first.
func (db *DB) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT session_id, label, source, config_json, started_unix_nanos, ended_unix_nanos
		 FROM sessions ORDER BY started_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		s       Session
		started int64
		ended   sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Label, &s.Source, &s.ConfigJSON, &started, &ended); err != nil {
		return nil, err
	}
	s.StartedAt = time.Unix(0, started).UTC()
	if ended.Valid {
		t := time.Unix(0, ended.Int64).UTC()
		s.EndedAt = &t
	}
	return &s, nil
}
