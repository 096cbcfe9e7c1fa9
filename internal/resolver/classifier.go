package resolver

import (
	"math"

	"github.com/banshee-data/facing.report/internal/angles"
	"github.com/banshee-data/facing.report/internal/monitoring"
)

// minOscillationSamples is the fewest history samples a window needs before
// oscillation can be judged.
const minOscillationSamples = 4

// classifyOscillation scans the most recent JitterWindow samples for sign
// reversals of the per-step yaw delta.
func classifyOscillation(st *TrackedEntityState, cfg Config) {
	samples := st.History.Chronological(cfg.JitterWindow)
	if len(samples) < minOscillationSamples {
		st.Oscillation = OscillationState{Category: CategoryNone}
		return
	}

	var (
		flips, bias, counted, prevSign int
		ampSum                         float64
	)
	for i := 1; i < len(samples); i++ {
		d := angles.Diff(samples[i], samples[i-1])
		mag := math.Abs(d)
		if mag <= cfg.JitterNoiseFloor {
			continue
		}
		sign := angles.Sign(d)
		bias += sign
		ampSum += mag
		counted++
		if prevSign != 0 && sign != prevSign && mag > cfg.JitterThreshold {
			flips++
		}
		prevSign = sign
	}

	osc := OscillationState{Category: CategoryNone, Flips: flips, Bias: bias}
	if counted > 0 {
		osc.AverageAmplitude = ampSum / float64(counted)
	}
	if flips >= cfg.JitterMinFlips {
		osc.Active = true
		switch {
		case bias > 0:
			osc.Side = 1
		case bias < 0:
			osc.Side = -1
		default:
			// Balanced: follow the newest significant step.
			osc.Side = prevSign
		}
		if osc.AverageAmplitude < cfg.JitterMicroAmplitude {
			osc.Category = CategoryMicro
		} else {
			osc.Category = CategoryLarge
		}
	}
	st.Oscillation = osc
}

// classifyAnomaly updates the anomalous-timing latch. A trigger is a
// simulation-time step that is too long or runs backwards, or an active
// oscillation while the entity is nearly stationary. Each trigger refreshes
// the latch; it expires AnomalyExpireTicks after the last one.
func classifyAnomaly(st *TrackedEntityState, simTime float64, tick uint64, cfg Config) {
	triggered := false
	reason := ""
	if st.HasSimulationTime {
		dt := simTime - st.LastSimulationTime
		switch {
		case dt > cfg.TickInterval*cfg.AnomalyMultiplier:
			triggered, reason = true, "long step"
		case dt < -cfg.AnomalyNegativeTolerance*cfg.TickInterval:
			triggered, reason = true, "backwards step"
		}
	}
	if !triggered && st.Oscillation.Active && st.Speed < cfg.NearStationarySpeed {
		triggered, reason = true, "stationary oscillation"
	}
	st.LastSimulationTime = simTime
	st.HasSimulationTime = true

	if triggered {
		if !st.Anomaly.Active {
			monitoring.EntityLogf(st.ID.String(), "anomaly latched at tick %d (%s)", tick, reason)
		}
		st.Anomaly = AnomalyState{Active: true, SinceTick: tick}
		return
	}
	if st.Anomaly.Active && tick-st.Anomaly.SinceTick >= uint64(cfg.AnomalyExpireTicks) {
		st.Anomaly = AnomalyState{}
	}
}

// classifyLBY tracks lower-body yaw jumps and whether the last one happened
// within LBYRecentWindow seconds of curTime.
func classifyLBY(st *TrackedEntityState, lby, curTime float64, cfg Config) {
	lby = angles.Normalize(lby)
	if st.HasLBY && angles.Delta(lby, st.LBYLastValue) > cfg.LBYChangeThreshold {
		st.LBYLastChangeTime = curTime
		st.HasLBYChange = true
	}
	st.LBYLastValue = lby
	st.HasLBY = true

	elapsed := curTime - st.LBYLastChangeTime
	st.LBYRecent = st.HasLBYChange && elapsed >= 0 && elapsed < cfg.LBYRecentWindow
}
