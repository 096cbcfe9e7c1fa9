package resolver

import (
	"github.com/banshee-data/facing.report/internal/history"
)

// OscillationState is the latest oscillation classification for an entity.
type OscillationState struct {
	Active           bool     `json:"active"`
	Category         Category `json:"category"`
	Side             int      `json:"side"` // -1 or +1 when active
	Flips            int      `json:"flips"`
	AverageAmplitude float64  `json:"average_amplitude"`
	Bias             int      `json:"bias"`
}

// AnomalyState is the anomalous-timing latch.
type AnomalyState struct {
	Active    bool   `json:"active"`
	SinceTick uint64 `json:"since_tick"`
}

// TrackedEntityState is everything the engine remembers about one entity
// between ticks. It is created lazily on first observation or feedback
// event and discarded on round reset.
type TrackedEntityState struct {
	ID      EntityID
	History *history.Ring

	LastEyeYaw   float64
	LastBodyYaw  float64
	BodyYawDelta float64 // signed lower-body yaw relative to the ideal bearing
	LastIdeal    float64
	Speed        float64
	Observations int

	// LastSampledTick is the engine tick of the latest sample. Entities are
	// only sampled while selected, so a gap means the timing and LBY
	// baselines are stale.
	LastSampledTick uint64

	LastSimulationTime float64
	HasSimulationTime  bool

	LBYLastValue      float64
	HasLBY            bool
	LBYLastChangeTime float64
	HasLBYChange      bool
	LBYRecent         bool

	Oscillation OscillationState
	Anomaly     AnomalyState

	Resolution Resolution
	Resolved   bool

	HitCount       int
	MissCount      int
	FallbackCursor int
}

func newTrackedEntityState(id EntityID, capacity int) *TrackedEntityState {
	return &TrackedEntityState{
		ID:          id,
		History:     history.New(capacity),
		Oscillation: OscillationState{Category: CategoryNone},
	}
}

// EntitySnapshot is a read-only copy of a TrackedEntityState.
type EntitySnapshot struct {
	ID                 EntityID         `json:"id"`
	History            []float64        `json:"history"` // newest first
	HistoryCapacity    int              `json:"history_capacity"`
	HistoryWriteIndex  int              `json:"history_write_index"`
	LastEyeYaw         float64          `json:"last_eye_yaw"`
	LastBodyYaw        float64          `json:"last_body_yaw"`
	BodyYawDelta       float64          `json:"body_yaw_delta"`
	LastIdeal          float64          `json:"last_ideal"`
	Speed              float64          `json:"speed"`
	Observations       int              `json:"observations"`
	LastSampledTick    uint64           `json:"last_sampled_tick"`
	LastSimulationTime float64          `json:"last_simulation_time"`
	LBYLastValue       float64          `json:"lby_last_value"`
	LBYLastChangeTime  float64          `json:"lby_last_change_time"`
	LBYRecent          bool             `json:"lby_recent"`
	Oscillation        OscillationState `json:"oscillation"`
	Anomaly            AnomalyState     `json:"anomaly"`
	Resolution         Resolution       `json:"resolution"`
	Resolved           bool             `json:"resolved"`
	HitCount           int              `json:"hit_count"`
	MissCount          int              `json:"miss_count"`
	FallbackCursor     int              `json:"fallback_cursor"`
	Accuracy           float64          `json:"accuracy"`
	HasAccuracy        bool             `json:"has_accuracy"`
}

func (s *TrackedEntityState) snapshot() EntitySnapshot {
	acc, ok := s.Accuracy()
	return EntitySnapshot{
		ID:                 s.ID,
		History:            s.History.Recent(s.History.Len()),
		HistoryCapacity:    s.History.Cap(),
		HistoryWriteIndex:  s.History.WriteIndex(),
		LastEyeYaw:         s.LastEyeYaw,
		LastBodyYaw:        s.LastBodyYaw,
		BodyYawDelta:       s.BodyYawDelta,
		LastIdeal:          s.LastIdeal,
		Speed:              s.Speed,
		Observations:       s.Observations,
		LastSampledTick:    s.LastSampledTick,
		LastSimulationTime: s.LastSimulationTime,
		LBYLastValue:       s.LBYLastValue,
		LBYLastChangeTime:  s.LBYLastChangeTime,
		LBYRecent:          s.LBYRecent,
		Oscillation:        s.Oscillation,
		Anomaly:            s.Anomaly,
		Resolution:         s.Resolution,
		Resolved:           s.Resolved,
		HitCount:           s.HitCount,
		MissCount:          s.MissCount,
		FallbackCursor:     s.FallbackCursor,
		Accuracy:           acc,
		HasAccuracy:        ok,
	}
}
