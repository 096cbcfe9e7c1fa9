package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/banshee-data/facing.report/internal/angles"
	"github.com/banshee-data/facing.report/internal/resolver"
	"github.com/banshee-data/facing.report/internal/timeutil"
)

// Recorder persists what a run produced.
type Recorder interface {
	RecordPublished(round int, tick uint64, pub resolver.Published, truth *float64) error
	RecordFeedback(round int, tick uint64, id resolver.EntityID, hit bool, cursor int) error
	RecordRound(round int, tick uint64) error
}

type nopRecorder struct{}

func (nopRecorder) RecordPublished(int, uint64, resolver.Published, *float64) error { return nil }
func (nopRecorder) RecordFeedback(int, uint64, resolver.EntityID, bool, int) error  { return nil }
func (nopRecorder) RecordRound(int, uint64) error                                   { return nil }

// Result summarises a run.
type Result struct {
	Frames    int `json:"frames"`
	Published int `json:"published"`
	Hits      int `json:"hits"`
	Misses    int `json:"misses"`
	Rounds    int `json:"rounds"`
}

// Runner plays a Source into an Engine, acting as the host integration:
// frames become OnTick calls, feedback and round records become events.
type Runner struct {
	Engine   *resolver.Engine
	Recorder Recorder

	// AutoFeedback derives a hit or miss after every publication whose
	// entity has a known true yaw, using HitTolerance degrees.
	AutoFeedback bool
	HitTolerance float64

	// Pace delivers one frame per interval on Clock; zero runs flat out.
	Pace  time.Duration
	Clock timeutil.Clock

	// OnPublished, if set, sees every publication.
	OnPublished func(resolver.Published)
}

// Run consumes src until io.EOF or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, src Source) (Result, error) {
	if r.Engine == nil {
		return Result{}, errors.New("runner has no engine")
	}
	rec := r.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	var tick <-chan time.Time
	if r.Pace > 0 {
		clock := r.Clock
		if clock == nil {
			clock = timeutil.RealClock{}
		}
		t := clock.NewTicker(r.Pace)
		defer t.Stop()
		tick = t.C()
	}

	var (
		res   Result
		round int
		ticks uint64
	)
	if err := rec.RecordRound(round, 0); err != nil {
		return res, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		record, err := src.Next()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("read scenario: %w", err)
		}
		if err := record.Validate(); err != nil {
			return res, fmt.Errorf("invalid scenario record: %w", err)
		}

		switch record.Kind {
		case KindFrame:
			if tick != nil {
				select {
				case <-tick:
				case <-ctx.Done():
					return res, ctx.Err()
				}
			}
			ticks++
			res.Frames++
			pub, ok := r.Engine.OnTick(*record.Frame)
			if !ok {
				continue
			}
			res.Published++
			if r.OnPublished != nil {
				r.OnPublished(pub)
			}

			var truth *float64
			if yaw, known := record.Truth[pub.ID]; known {
				truth = &yaw
			}
			if err := rec.RecordPublished(round, ticks, pub, truth); err != nil {
				return res, err
			}
			if r.AutoFeedback && truth != nil {
				hit := angles.Delta(pub.Resolution.Angle, *truth) <= r.HitTolerance
				if err := r.feedback(rec, &res, round, ticks, pub.ID, hit); err != nil {
					return res, err
				}
			}

		case KindHit, KindMiss:
			if err := r.feedback(rec, &res, round, ticks, record.Entity, record.Kind == KindHit); err != nil {
				return res, err
			}

		case KindRoundReset:
			r.Engine.OnRoundReset()
			round++
			res.Rounds++
			if err := rec.RecordRound(round, ticks); err != nil {
				return res, err
			}
		}
	}
}

func (r *Runner) feedback(rec Recorder, res *Result, round int, tick uint64, id resolver.EntityID, hit bool) error {
	if hit {
		r.Engine.OnHit(id)
		res.Hits++
	} else {
		r.Engine.OnMiss(id)
		res.Misses++
	}
	snap, _ := r.Engine.Entity(id)
	return rec.RecordFeedback(round, tick, id, hit, snap.FallbackCursor)
}

// OverrideTable is a resolver.Sink that keeps the latest override per entity
// for display.
type OverrideTable struct {
	mu   sync.RWMutex
	last map[resolver.EntityID]float64
}

// NewOverrideTable returns an empty table.
func NewOverrideTable() *OverrideTable {
	return &OverrideTable{last: make(map[resolver.EntityID]float64)}
}

// SetOverride implements resolver.Sink.
func (t *OverrideTable) SetOverride(id resolver.EntityID, angle float64, force bool) {
	if !force {
		return
	}
	t.mu.Lock()
	t.last[id] = angle
	t.mu.Unlock()
}

// Get returns the last override for id.
func (t *OverrideTable) Get(id resolver.EntityID) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.last[id]
	return v, ok
}

// All returns a copy of every override.
func (t *OverrideTable) All() map[resolver.EntityID]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[resolver.EntityID]float64, len(t.last))
	for k, v := range t.last {
		out[k] = v
	}
	return out
}
