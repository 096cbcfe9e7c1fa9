package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/facing.report/internal/resolver"
)

// EntityAccuracy is the hit/miss tally for one entity in a session.
type EntityAccuracy struct {
	EntityID resolver.EntityID `json:"entity_id"`
	Hits     int               `json:"hits"`
	Misses   int               `json:"misses"`
	Accuracy float64           `json:"accuracy"`
}

// AccuracyByEntity tallies feedback rows per entity, ordered by entity id.
func (db *DB) AccuracyByEntity(sessionID string) ([]EntityAccuracy, error) {
	rows, err := db.Query(
		`SELECT entity_id, SUM(hit), COUNT(*) - SUM(hit)
		 FROM feedback WHERE session_id = ?
		 GROUP BY entity_id ORDER BY entity_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query accuracy: %w", err)
	}
	defer rows.Close()

	var out []EntityAccuracy
	for rows.Next() {
		var (
			a  EntityAccuracy
			id int
		)
		if err := rows.Scan(&id, &a.Hits, &a.Misses); err != nil {
			return nil, err
		}
		a.EntityID = resolver.EntityID(id)
		if total := a.Hits + a.Misses; total > 0 {
			a.Accuracy = float64(a.Hits) / float64(total)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MethodStat summarises published resolutions by method.
type MethodStat struct {
	Method         resolver.Method `json:"method"`
	Count          int             `json:"count"`
	MeanConfidence float64         `json:"mean_confidence"`
}

// MethodStats groups a session's resolutions by method, most used first.
func (db *DB) MethodStats(sessionID string) ([]MethodStat, error) {
	rows, err := db.Query(
		`SELECT method, COUNT(*), AVG(confidence)
		 FROM resolutions WHERE session_id = ?
		 GROUP BY method ORDER BY COUNT(*) DESC, method`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query method stats: %w", err)
	}
	defer rows.Close()

	var out []MethodStat
	for rows.Next() {
		var (
			m      MethodStat
			method string
		)
		if err := rows.Scan(&method, &m.Count, &m.MeanConfidence); err != nil {
			return nil, err
		}
		m.Method = resolver.Method(method)
		out = append(out, m)
	}
	return out, rows.Err()
}

// TimelinePoint is one stored resolution.
type TimelinePoint struct {
	Round      int                   `json:"round"`
	Tick       uint64                `json:"tick"`
	EntityID   resolver.EntityID     `json:"entity_id"`
	Ideal      float64               `json:"ideal"`
	Angle      float64               `json:"angle"`
	Confidence float64               `json:"confidence"`
	Method     resolver.Method       `json:"method"`
	Hypotheses []resolver.Hypothesis `json:"hypotheses"`
	Truth      *float64              `json:"truth,omitempty"`
}

// Timeline returns the resolutions for one entity in tick order.
func (db *DB) Timeline(sessionID string, entity resolver.EntityID) ([]TimelinePoint, error) {
	rows, err := db.Query(
		`SELECT round, tick, entity_id, ideal, angle, confidence, method, hypotheses_json, truth
		 FROM resolutions WHERE session_id = ? AND entity_id = ?
		 ORDER BY tick, resolution_id`, sessionID, int(entity))
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer rows.Close()

	var out []TimelinePoint
	for rows.Next() {
		var (
			p      TimelinePoint
			tick   int64
			id     int
			method string
			hyps   string
			truth  sql.NullFloat64
		)
		if err := rows.Scan(&p.Round, &tick, &id, &p.Ideal, &p.Angle, &p.Confidence, &method, &hyps, &truth); err != nil {
			return nil, err
		}
		p.Tick = uint64(tick)
		p.EntityID = resolver.EntityID(id)
		p.Method = resolver.Method(method)
		if err := json.Unmarshal([]byte(hyps), &p.Hypotheses); err != nil {
			return nil, fmt.Errorf("decode hypotheses at tick %d: %w", tick, err)
		}
		if truth.Valid {
			v := truth.Float64
			p.Truth = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Entities lists the entity ids with stored resolutions in a session.
func (db *DB) Entities(sessionID string) ([]resolver.EntityID, error) {
	rows, err := db.Query(
		`SELECT DISTINCT entity_id FROM resolutions WHERE session_id = ? ORDER BY entity_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out []resolver.EntityID
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, resolver.EntityID(id))
	}
	return out, rows.Err()
}
