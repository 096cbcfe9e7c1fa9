package resolver

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/banshee-data/facing.report/internal/angles"
)

// SelectionState is the selector's memory between ticks.
type SelectionState struct {
	ActiveTarget  *EntityID `json:"active_target,omitempty"`
	LastSelection time.Time `json:"last_selection"`
}

// Selector picks the single entity to resolve each tick. While the previous
// target stays eligible it is kept until the rescore limiter allows another
// pass, so the choice does not flap between near-equal candidates.
type Selector struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	maxDistance float64
	fovW        float64
	distW       float64
	healthW     float64
	armorW      float64
	state       SelectionState
}

// NewSelector creates a selector from the engine config.
func NewSelector(cfg Config) *Selector {
	s := &Selector{}
	s.configure(cfg, time.Time{})
	return s
}

// configure installs cfg. now must come from the same clock Select is
// driven by, or the limiter refills against the wrong timeline.
func (s *Selector) configure(cfg Config, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit := rate.Inf
	if cfg.SelectionInterval > 0 {
		limit = rate.Every(cfg.SelectionInterval)
	}
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(limit, 1)
	} else {
		s.limiter.SetLimitAt(now, limit)
	}
	s.maxDistance = cfg.MaxTrackDistance
	s.fovW = cfg.FOVWeight
	s.distW = cfg.DistanceWeight
	s.healthW = cfg.HealthWeight
	s.armorW = cfg.ArmorWeight
}

// Score rates a candidate for the given viewer. ok is false when the
// candidate is not eligible (dead, hidden, unpositioned, out of range).
func (s *Selector) Score(viewer Viewer, c Candidate) (score float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score(viewer, c)
}

func (s *Selector) score(viewer Viewer, c Candidate) (float64, bool) {
	if !c.Alive || !c.Visible || c.Position == nil {
		return 0, false
	}
	dist := viewer.Position.Dist(*c.Position)
	if s.maxDistance <= 0 || dist > s.maxDistance {
		return 0, false
	}

	fov := 1 - angles.Delta(angles.Bearing(viewer.Position, *c.Position), viewer.Yaw)/180
	proximity := 1 - dist/s.maxDistance
	health := clamp01(float64(c.Health) / 100)
	armor := clamp01(float64(c.Armor) / 100)

	return s.fovW*fov + s.distW*proximity + s.healthW*health + s.armorW*armor, true
}

// Select returns the candidate to resolve this tick, or nil when none is
// eligible. The returned pointer aliases the candidates slice.
func (s *Selector) Select(now time.Time, viewer Viewer, candidates []Candidate) *Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *Candidate
	if s.state.ActiveTarget != nil {
		for i := range candidates {
			if candidates[i].ID != *s.state.ActiveTarget {
				continue
			}
			if _, ok := s.score(viewer, candidates[i]); ok {
				prev = &candidates[i]
			}
			break
		}
	}

	// Allow consumes the token either way so the interval restarts from
	// this selection.
	allowed := s.limiter.AllowN(now, 1)
	if prev != nil && !allowed {
		return prev
	}

	var best *Candidate
	bestScore := math.Inf(-1)
	for i := range candidates {
		sc, ok := s.score(viewer, candidates[i])
		if !ok {
			continue
		}
		if best == nil || sc > bestScore {
			best = &candidates[i]
			bestScore = sc
		}
	}

	s.state.LastSelection = now
	if best == nil {
		s.state.ActiveTarget = nil
		return nil
	}
	id := best.ID
	s.state.ActiveTarget = &id
	return best
}

// Active returns the current target id, if any.
func (s *Selector) Active() (EntityID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ActiveTarget == nil {
		return 0, false
	}
	return *s.state.ActiveTarget, true
}

// State returns a copy of the selection state.
func (s *Selector) State() SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.ActiveTarget != nil {
		id := *st.ActiveTarget
		st.ActiveTarget = &id
	}
	return st
}

// Reset clears the active target and refills the limiter.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SelectionState{}
	s.limiter = rate.NewLimiter(s.limiter.Limit(), 1)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
