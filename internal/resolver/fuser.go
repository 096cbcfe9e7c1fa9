package resolver

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/facing.report/internal/angles"
	"github.com/banshee-data/facing.report/internal/config"
)

// hypotheses builds the candidate yaws for an entity in priority order.
// The fallback hypothesis is always present.
func hypotheses(st *TrackedEntityState, ideal float64, cfg Config) []Hypothesis {
	hyps := make([]Hypothesis, 0, 5)
	add := func(angle, weight float64, src Method) {
		if weight <= 0 {
			return
		}
		hyps = append(hyps, Hypothesis{Angle: angles.Normalize(angle), Weight: weight, Source: src})
	}

	if math.Abs(st.BodyYawDelta) > cfg.BodyYawThreshold {
		w := cfg.BodyYawWeight
		if st.LBYRecent {
			w = cfg.BodyYawRecentWeight
		}
		add(ideal+float64(angles.Sign(st.BodyYawDelta))*cfg.BodyYawOffset, w, MethodBodyYaw)
	}

	if osc := st.Oscillation; osc.Active {
		offset, w := cfg.OscillationLargeOffset, cfg.OscillationLargeWeight
		if osc.Category == CategoryMicro {
			offset, w = cfg.OscillationMicroOffset, cfg.OscillationMicroWeight
		}
		add(ideal+float64(osc.Side)*offset, w, MethodOscillation)
	}

	if st.Anomaly.Active {
		if past, ok := st.History.At(cfg.AnomalyLookback); ok {
			add(past, cfg.AnomalyWeight, MethodAnomaly)
		}
	}

	if cfg.HistorySamples > 0 && st.History.Len() >= cfg.HistorySamples {
		recent := st.History.Recent(cfg.HistorySamples)
		weights := make([]float64, len(recent))
		for i := range recent {
			weights[i] = float64(len(recent) - i)
		}
		add(weightedMean(recent, weights, recent[0], cfg.FusionMode), cfg.HistoryWeight, MethodHistory)
	}

	w := cfg.FallbackWeight
	if w <= 0 {
		w = math.SmallestNonzeroFloat64
	}
	add(ideal+st.fallbackOffset(), w, MethodFallback)
	return hyps
}

// weightedMean averages yaws in degrees. Circular mode sums unit vectors;
// linear mode unwraps every sample around ref and averages the offsets.
func weightedMean(yaws, weights []float64, ref float64, mode string) float64 {
	if mode == config.FusionLinear {
		var sum, total float64
		for i, y := range yaws {
			sum += weights[i] * angles.Diff(y, ref)
			total += weights[i]
		}
		if total == 0 {
			return angles.Normalize(ref)
		}
		return angles.Normalize(ref + sum/total)
	}
	rad := make([]float64, len(yaws))
	for i, y := range yaws {
		rad[i] = angles.DegToRad(y)
	}
	return angles.Normalize(angles.RadToDeg(stat.CircularMean(rad, weights)))
}

// fuse combines the hypotheses into a single resolution.
func fuse(st *TrackedEntityState, ideal float64, tick uint64, cfg Config) (Resolution, []Hypothesis) {
	hyps := hypotheses(st, ideal, cfg)

	yaws := make([]float64, len(hyps))
	weights := make([]float64, len(hyps))
	var total float64
	micro := false
	for i, h := range hyps {
		yaws[i] = h.Angle
		weights[i] = h.Weight
		total += h.Weight
		if h.Source == MethodOscillation && st.Oscillation.Category == CategoryMicro {
			micro = true
		}
	}

	conf := clamp01(total)
	if micro {
		conf *= cfg.MicroConfidenceScale
	}
	if st.Anomaly.Active {
		conf = math.Min(1, conf+cfg.AnomalyConfidenceBonus)
	}

	return Resolution{
		Angle:      weightedMean(yaws, weights, ideal, cfg.FusionMode),
		Confidence: clamp01(conf),
		Method:     hyps[0].Source,
		Tick:       tick,
	}, hyps
}
