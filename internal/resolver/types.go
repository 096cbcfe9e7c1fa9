package resolver

import (
	"strconv"

	"github.com/banshee-data/facing.report/internal/angles"
)

// EntityID identifies an entity in the host simulation.
type EntityID int

// String returns the decimal form of the id.
func (id EntityID) String() string { return strconv.Itoa(int(id)) }

// Method names the information source behind a hypothesis or resolution.
type Method string

// Methods in fixed priority order, highest first.
const (
	MethodBodyYaw     Method = "body_yaw"
	MethodOscillation Method = "oscillation"
	MethodAnomaly     Method = "anomaly"
	MethodHistory     Method = "history"
	MethodFallback    Method = "fallback"
)

// Category classifies oscillation amplitude.
type Category string

const (
	CategoryNone  Category = "none"
	CategoryMicro Category = "micro"
	CategoryLarge Category = "large"
)

// Viewer is the local observer the resolver works on behalf of.
type Viewer struct {
	Position angles.Vec3 `json:"position"`
	Yaw      float64     `json:"yaw"`
}

// Properties are the raw per-entity reads sampled once per tick.
type Properties struct {
	EyeYaw         float64 `json:"eye_yaw"`
	LowerBodyYaw   float64 `json:"lower_body_yaw"`
	SimulationTime float64 `json:"simulation_time"`
}

// Candidate is one entity offered to the selector in a frame. A nil Position
// or Props means the host could not sample it this tick.
type Candidate struct {
	ID       EntityID     `json:"id"`
	Alive    bool         `json:"alive"`
	Visible  bool         `json:"visible"`
	Position *angles.Vec3 `json:"position,omitempty"`
	Velocity angles.Vec3  `json:"velocity"`
	Health   int          `json:"health"`
	Armor    int          `json:"armor"`
	Props    *Properties  `json:"props,omitempty"`
}

// Frame is everything the host observed for one simulation tick.
type Frame struct {
	CurTime    float64     `json:"cur_time"` // simulation clock, seconds
	Viewer     *Viewer     `json:"viewer,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// Sink receives the final yaw override for an entity.
type Sink interface {
	SetOverride(id EntityID, angle float64, force bool)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(id EntityID, angle float64, force bool)

// SetOverride calls f.
func (f SinkFunc) SetOverride(id EntityID, angle float64, force bool) { f(id, angle, force) }

type nopSink struct{}

func (nopSink) SetOverride(EntityID, float64, bool) {}

// Hypothesis is one weighted yaw candidate produced during a fusion pass.
type Hypothesis struct {
	Angle  float64 `json:"angle"`
	Weight float64 `json:"weight"`
	Source Method  `json:"source"`
}

// Resolution is the fused estimate for an entity.
type Resolution struct {
	Angle      float64 `json:"angle"`
	Confidence float64 `json:"confidence"`
	Method     Method  `json:"method"`
	Tick       uint64  `json:"tick"`
}

// Published is what the engine emitted for one qualifying tick. Hosts use it
// for recording; the hypotheses are a copy and are not retained by the engine.
type Published struct {
	ID         EntityID     `json:"id"`
	Ideal      float64      `json:"ideal"`
	Resolution Resolution   `json:"resolution"`
	Hypotheses []Hypothesis `json:"hypotheses"`
}
