package resolver

import (
	"sort"
	"sync"
	"time"

	"github.com/banshee-data/facing.report/internal/angles"
	"github.com/banshee-data/facing.report/internal/monitoring"
	"github.com/banshee-data/facing.report/internal/timeutil"
)

// Engine owns all resolver state. Every exported method takes the engine
// lock, so hosts may deliver ticks and feedback events from different
// goroutines.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	clock    timeutil.Clock
	sink     Sink
	metrics  *monitoring.Metrics
	selector *Selector
	targets  map[EntityID]*TrackedEntityState
	tick     uint64
	rounds   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the wall clock used for selector throttling.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSink sets where resolved yaws are published.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine with no tracked entities.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		clock:   timeutil.RealClock{},
		sink:    nopSink{},
		targets: make(map[EntityID]*TrackedEntityState),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink == nil {
		e.sink = nopSink{}
	}
	e.selector = NewSelector(cfg)
	return e
}

// OnTick processes one frame. The selected target is sampled and classified
// every tick; fusion and publication run once every EstimateEveryTicks
// ticks. ok is false when nothing was published.
func (e *Engine) OnTick(frame Frame) (pub Published, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tick++
	e.metrics.ObserveTick()

	if frame.Viewer == nil {
		return Published{}, false
	}
	viewer := *frame.Viewer

	prevID, hadPrev := e.selector.Active()
	target := e.selector.Select(e.clock.Now(), viewer, frame.Candidates)
	if target == nil {
		if hadPrev {
			monitoring.Logf("[selector] target %s lost", prevID)
		}
		return Published{}, false
	}
	if !hadPrev || prevID != target.ID {
		monitoring.EntityLogf(target.ID.String(), "selected as target at tick %d", e.tick)
		e.metrics.ObserveTargetSwitch()
	}
	if target.Props == nil {
		return Published{}, false
	}

	st := e.stateFor(target.ID)
	ideal := angles.Bearing(viewer.Position, *target.Position)
	if st.Observations > 0 && st.LastSampledTick+1 != e.tick {
		st.HasSimulationTime = false
		st.HasLBY = false
	}
	e.sample(st, target, ideal)
	classifyLBY(st, target.Props.LowerBodyYaw, frame.CurTime, e.cfg)
	classifyOscillation(st, e.cfg)
	classifyAnomaly(st, target.Props.SimulationTime, e.tick, e.cfg)

	every := uint64(e.cfg.EstimateEveryTicks)
	if every > 1 && e.tick%every != 0 {
		return Published{}, false
	}

	res, hyps := fuse(st, ideal, e.tick, e.cfg)
	st.Resolution = res
	st.Resolved = true
	e.sink.SetOverride(st.ID, res.Angle, true)
	e.metrics.ObservePublished(string(res.Method), res.Confidence)

	return Published{ID: st.ID, Ideal: ideal, Resolution: res, Hypotheses: hyps}, true
}

func (e *Engine) sample(st *TrackedEntityState, c *Candidate, ideal float64) {
	eye := angles.Normalize(c.Props.EyeYaw)
	st.History.Push(eye)
	st.LastEyeYaw = eye
	st.LastBodyYaw = angles.Normalize(c.Props.LowerBodyYaw)
	st.BodyYawDelta = angles.Diff(st.LastBodyYaw, ideal)
	st.LastIdeal = ideal
	st.Speed = c.Velocity.Length2D()
	st.Observations++
	st.LastSampledTick = e.tick
}

// stateFor returns the state for id, creating it on first use.
func (e *Engine) stateFor(id EntityID) *TrackedEntityState {
	st, ok := e.targets[id]
	if !ok {
		st = newTrackedEntityState(id, e.cfg.HistoryCapacity)
		e.targets[id] = st
		e.metrics.SetTracked(len(e.targets))
	}
	return st
}

// OnHit records a confirmed hit against id.
func (e *Engine) OnHit(id EntityID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.stateFor(id)
	st.recordHit()
	acc, _ := st.Accuracy()
	e.metrics.ObserveFeedback(id.String(), true, acc)
}

// OnMiss records a miss against id and advances its fallback cursor.
func (e *Engine) OnMiss(id EntityID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.stateFor(id)
	st.recordMiss()
	acc, _ := st.Accuracy()
	e.metrics.ObserveFeedback(id.String(), false, acc)
	monitoring.EntityLogf(id.String(), "miss %d, fallback cursor -> %d", st.MissCount, st.FallbackCursor)
}

// OnRoundReset discards every tracked entity and the selection state.
func (e *Engine) OnRoundReset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.targets)
	e.targets = make(map[EntityID]*TrackedEntityState)
	e.selector.Reset()
	e.rounds++
	e.metrics.ObserveRoundReset()
	monitoring.Logf("[engine] round reset: cleared %d tracked entities", n)
}

// UpdateConfig applies fn to a copy of the current config and installs it.
// Existing history rings keep their capacity; entities created afterwards
// use the new one.
func (e *Engine) UpdateConfig(fn func(*Config)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg
	fn(&cfg)
	e.cfg = cfg
	e.selector.configure(cfg, e.clock.Now())
}

// Config returns the active config.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Snapshot is a read-only view of the engine.
type Snapshot struct {
	Tick          uint64           `json:"tick"`
	Rounds        int              `json:"rounds"`
	ActiveTarget  *EntityID        `json:"active_target,omitempty"`
	LastSelection time.Time        `json:"last_selection"`
	Entities      []EntitySnapshot `json:"entities"`
}

// Snapshot copies the current state. Entities are ordered by id.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	sel := e.selector.State()
	snap := Snapshot{
		Tick:          e.tick,
		Rounds:        e.rounds,
		ActiveTarget:  sel.ActiveTarget,
		LastSelection: sel.LastSelection,
		Entities:      make([]EntitySnapshot, 0, len(e.targets)),
	}
	for _, st := range e.targets {
		snap.Entities = append(snap.Entities, st.snapshot())
	}
	sort.Slice(snap.Entities, func(i, j int) bool {
		return snap.Entities[i].ID < snap.Entities[j].ID
	})
	return snap
}

// Entity returns a snapshot of one entity. For an untracked id it returns a
// freshly initialised state and false; nothing is created.
func (e *Engine) Entity(id EntityID) (EntitySnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.targets[id]; ok {
		return st.snapshot(), true
	}
	return newTrackedEntityState(id, e.cfg.HistoryCapacity).snapshot(), false
}
