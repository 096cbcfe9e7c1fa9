package scenario

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"

	"github.com/banshee-data/facing.report/internal/angles"
	"github.com/banshee-data/facing.report/internal/resolver"
)

// Behavior selects how a synthetic entity disguises its facing.
type Behavior string

const (
	// BehaviorStatic looks straight at the viewer while its body yaw gives
	// the true facing away.
	BehaviorStatic Behavior = "static"
	// BehaviorJitter swings its eye yaw ±40° around the true facing every tick.
	BehaviorJitter Behavior = "jitter"
	// BehaviorDefensive stalls its simulation clock and then jumps ahead.
	BehaviorDefensive Behavior = "defensive"
	// BehaviorSlowTurn rotates its true facing steadily, revealing it only
	// through periodic body-yaw updates.
	BehaviorSlowTurn Behavior = "slow_turn"
)

// AllBehaviors lists every synthetic behaviour.
var AllBehaviors = []Behavior{BehaviorStatic, BehaviorJitter, BehaviorDefensive, BehaviorSlowTurn}

// ParseBehaviors parses a comma-separated list; "all" selects every behaviour.
func ParseBehaviors(s string) ([]Behavior, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return append([]Behavior(nil), AllBehaviors...), nil
	}
	var out []Behavior
	for _, part := range strings.Split(s, ",") {
		b := Behavior(strings.TrimSpace(part))
		switch b {
		case BehaviorStatic, BehaviorJitter, BehaviorDefensive, BehaviorSlowTurn:
			out = append(out, b)
		default:
			return nil, fmt.Errorf("unknown behavior %q", part)
		}
	}
	return out, nil
}

// SyntheticConfig controls the generator.
type SyntheticConfig struct {
	Seed         int64
	Ticks        int
	Behaviors    []Behavior // one entity per entry
	TickInterval float64    // seconds
	RoundTicks   int        // emit a round reset every RoundTicks ticks; 0 disables
	Radius       float64    // distance of entities from the viewer
}

const (
	jitterAmplitude  = 40.0
	lbyUpdatePeriod  = 1.1 // seconds between body-yaw reveals
	slowTurnRate     = 0.75
	defensivePeriod  = 24 // ticks between clock stalls
	defensiveStall   = 3
	defensiveNoise   = 10.0
	orbitRate        = 0.05 // degrees per tick for moving entities
	minHiddenOffset  = 20.0
	maxHiddenOffset  = 110.0
	defaultRadius    = 600.0
	defaultSynthTick = 1.0 / 64
)

type synthEntity struct {
	id       resolver.EntityID
	behavior Behavior
	orbit    float64 // position angle around the viewer, degrees
	rate     float64 // degrees per tick
	hidden   float64 // true facing relative to the viewer bearing
	lby      float64
	lbyNext  float64
	simTime  float64
	stall    int
}

// Generator produces a synthetic scenario. It implements Source.
type Generator struct {
	cfg          SyntheticConfig
	rng          *rand.Rand
	entities     []*synthEntity
	tick         int
	pendingReset bool
}

// NewGenerator creates a generator. The same config always yields the same
// records.
func NewGenerator(cfg SyntheticConfig) *Generator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultSynthTick
	}
	if cfg.Radius <= 0 {
		cfg.Radius = defaultRadius
	}
	if len(cfg.Behaviors) == 0 {
		cfg.Behaviors = AllBehaviors
	}
	g := &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	spacing := 360.0 / float64(len(cfg.Behaviors))
	for i, b := range cfg.Behaviors {
		e := &synthEntity{
			id:       resolver.EntityID(i + 1),
			behavior: b,
			orbit:    float64(i)*spacing + g.rng.Float64()*spacing/2,
		}
		if b == BehaviorStatic || b == BehaviorSlowTurn {
			e.rate = orbitRate
		}
		g.entities = append(g.entities, e)
	}
	g.randomise()
	return g
}

// randomise draws fresh hidden offsets, as at the start of a round.
func (g *Generator) randomise() {
	for _, e := range g.entities {
		side := 1.0
		if g.rng.Intn(2) == 0 {
			side = -1
		}
		e.hidden = side * (minHiddenOffset + g.rng.Float64()*(maxHiddenOffset-minHiddenOffset))
		e.lbyNext = 0
	}
}

// Next returns the next record, or io.EOF after cfg.Ticks frames.
func (g *Generator) Next() (Record, error) {
	if g.pendingReset {
		g.pendingReset = false
		return Record{Kind: KindRoundReset}, nil
	}
	if g.tick >= g.cfg.Ticks {
		return Record{}, io.EOF
	}
	g.tick++
	rec := g.frame()
	if g.cfg.RoundTicks > 0 && g.tick%g.cfg.RoundTicks == 0 && g.tick < g.cfg.Ticks {
		g.pendingReset = true
		g.randomise()
	}
	return rec, nil
}

func (g *Generator) frame() Record {
	ti := g.cfg.TickInterval
	now := float64(g.tick) * ti
	frame := &resolver.Frame{
		CurTime:    now,
		Candidates: make([]resolver.Candidate, 0, len(g.entities)),
	}
	truth := make(map[resolver.EntityID]float64, len(g.entities))

	for _, e := range g.entities {
		e.orbit = angles.Normalize(e.orbit + e.rate)
		rad := angles.DegToRad(e.orbit)
		p := angles.Vec3{X: g.cfg.Radius * math.Cos(rad), Y: g.cfg.Radius * math.Sin(rad)}
		tangential := g.cfg.Radius * angles.DegToRad(e.rate) / ti
		vel := angles.Vec3{X: -math.Sin(rad) * tangential, Y: math.Cos(rad) * tangential}
		ideal := angles.Bearing(angles.Vec3{}, p)

		if e.behavior == BehaviorSlowTurn {
			e.hidden = angles.Normalize(e.hidden + slowTurnRate)
		}
		yaw := angles.Normalize(ideal + e.hidden)
		truth[e.id] = yaw

		e.simTime = g.simTime(e, now)
		eye, lby := g.observe(e, ideal, yaw, now)

		frame.Candidates = append(frame.Candidates, resolver.Candidate{
			ID:       e.id,
			Alive:    true,
			Visible:  true,
			Position: &p,
			Velocity: vel,
			Health:   100,
			Armor:    g.rng.Intn(101),
			Props: &resolver.Properties{
				EyeYaw:         eye,
				LowerBodyYaw:   lby,
				SimulationTime: e.simTime,
			},
		})
	}

	if len(frame.Candidates) > 0 {
		frame.Viewer = &resolver.Viewer{Yaw: angles.Bearing(angles.Vec3{}, *frame.Candidates[0].Position)}
	} else {
		frame.Viewer = &resolver.Viewer{}
	}
	return Record{Kind: KindFrame, Frame: frame, Truth: truth}
}

// simTime advances an entity's simulation clock. Defensive entities hold
// the clock still for a few ticks and then catch up in one step.
func (g *Generator) simTime(e *synthEntity, now float64) float64 {
	if e.behavior != BehaviorDefensive {
		return now
	}
	if e.stall > 0 {
		e.stall--
		return e.simTime
	}
	if g.tick%defensivePeriod == 0 {
		e.stall = defensiveStall
		return e.simTime
	}
	return now
}

// observe returns the eye yaw and lower-body yaw the host would read.
func (g *Generator) observe(e *synthEntity, ideal, yaw, now float64) (eye, lby float64) {
	revealLBY := func() {
		if now >= e.lbyNext {
			e.lby = yaw
			e.lbyNext = now + lbyUpdatePeriod
		}
	}
	switch e.behavior {
	case BehaviorStatic:
		eye = ideal
		e.lby = yaw
	case BehaviorJitter:
		side := 1.0
		if g.tick%2 == 0 {
			side = -1
		}
		eye = yaw + side*jitterAmplitude
		revealLBY()
	case BehaviorDefensive:
		eye = yaw + (g.rng.Float64()*2-1)*defensiveNoise
		e.lby = ideal
	case BehaviorSlowTurn:
		eye = yaw + 90
		revealLBY()
	}
	return angles.Normalize(eye), angles.Normalize(e.lby)
}

// Generate returns every record the config produces.
func Generate(cfg SyntheticConfig) []Record {
	g := NewGenerator(cfg)
	var out []Record
	for {
		rec, err := g.Next()
		if err != nil {
			return out
		}
		out = append(out, rec)
	}
}
