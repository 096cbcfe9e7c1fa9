package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/facing.report/internal/resolver"
)

// SessionRecorder writes resolver output for one session.
type SessionRecorder struct {
	db        *DB
	sessionID string
}

// Recorder returns a SessionRecorder bound to sessionID.
func (db *DB) Recorder(sessionID string) *SessionRecorder {
	return &SessionRecorder{db: db, sessionID: sessionID}
}

// SessionID returns the bound session.
func (r *SessionRecorder) SessionID() string { return r.sessionID }

// RecordPublished stores one published resolution. truth is the hidden yaw
// when known.
func (r *SessionRecorder) RecordPublished(round int, tick uint64, pub resolver.Published, truth *float64) error {
	hyps, err := json.Marshal(pub.Hypotheses)
	if err != nil {
		return fmt.Errorf("marshal hypotheses: %w", err)
	}
	var t sql.NullFloat64
	if truth != nil {
		t = sql.NullFloat64{Float64: *truth, Valid: true}
	}
	_, err = r.db.Exec(
		`INSERT INTO resolutions (
			session_id, round, tick, entity_id, ideal, angle, confidence, method, hypotheses_json, truth
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.sessionID, round, int64(tick), int(pub.ID), pub.Ideal,
		pub.Resolution.Angle, pub.Resolution.Confidence, string(pub.Resolution.Method),
		string(hyps), t,
	)
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	return nil
}

// RecordFeedback stores one hit or miss and the cursor it left behind.
func (r *SessionRecorder) RecordFeedback(round int, tick uint64, id resolver.EntityID, hit bool, cursor int) error {
	h := 0
	if hit {
		h = 1
	}
	_, err := r.db.Exec(
		`INSERT INTO feedback (session_id, round, tick, entity_id, hit, fallback_cursor)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.sessionID, round, int64(tick), int(id), h, cursor,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// RecordRound marks the start of a round at tick.
func (r *SessionRecorder) RecordRound(round int, tick uint64) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO rounds (session_id, round, tick) VALUES (?, ?, ?)`,
		r.sessionID, round, int64(tick),
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}
