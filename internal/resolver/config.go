package resolver

import (
	"time"

	"github.com/banshee-data/facing.report/internal/config"
)

// FallbackOffsets is the brute-force offset table, in degrees from the ideal
// bearing. The fallback cursor indexes it modulo its length; entry 0 is the
// baseline the cursor returns to after a hit.
var FallbackOffsets = [16]float64{
	15, -15, 30, -30, 45, -45, 58, -58,
	75, -75, 90, -90, 105, -105, 120, -120,
}

// Config holds the resolved tuning parameters for the engine.
type Config struct {
	// Pacing
	HistoryCapacity    int
	EstimateEveryTicks int     // fusion runs at most once per this many ticks
	TickInterval       float64 // seconds per simulation step

	// Target selection
	SelectionInterval time.Duration
	MaxTrackDistance  float64
	FOVWeight         float64
	DistanceWeight    float64
	HealthWeight      float64
	ArmorWeight       float64

	// Oscillation
	JitterWindow         int
	JitterThreshold      float64 // degrees a reversal must exceed to count as a flip
	JitterNoiseFloor     float64 // degrees below which a delta is ignored
	JitterMicroAmplitude float64 // average amplitude separating micro from large
	JitterMinFlips       int

	// Anomalous timing
	AnomalyMultiplier        float64
	AnomalyNegativeTolerance float64 // fraction of TickInterval
	AnomalyExpireTicks       int
	NearStationarySpeed      float64

	// Lower-body yaw
	LBYChangeThreshold float64
	LBYRecentWindow    float64 // seconds

	// Fusion
	BodyYawThreshold       float64
	BodyYawOffset          float64
	BodyYawWeight          float64
	BodyYawRecentWeight    float64
	OscillationLargeOffset float64
	OscillationMicroOffset float64
	OscillationLargeWeight float64
	OscillationMicroWeight float64
	AnomalyWeight          float64
	AnomalyLookback        int
	HistoryWeight          float64
	HistorySamples         int
	FallbackWeight         float64
	MicroConfidenceScale   float64
	AnomalyConfidenceBonus float64
	FusionMode             string
}

// DefaultConfig returns the built-in tuning.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyResolverConfig())
}

// ConfigFromTuning builds a Config from a loaded ResolverConfig.
func ConfigFromTuning(cfg *config.ResolverConfig) Config {
	return Config{
		HistoryCapacity:          cfg.GetHistoryCapacity(),
		EstimateEveryTicks:       cfg.GetEstimateEveryTicks(),
		TickInterval:             cfg.GetTickInterval(),
		SelectionInterval:        cfg.GetSelectionInterval(),
		MaxTrackDistance:         cfg.GetMaxTrackDistance(),
		FOVWeight:                cfg.GetFOVWeight(),
		DistanceWeight:           cfg.GetDistanceWeight(),
		HealthWeight:             cfg.GetHealthWeight(),
		ArmorWeight:              cfg.GetArmorWeight(),
		JitterWindow:             cfg.GetJitterWindow(),
		JitterThreshold:          cfg.GetJitterThreshold(),
		JitterNoiseFloor:         cfg.GetJitterNoiseFloor(),
		JitterMicroAmplitude:     cfg.GetJitterMicroAmplitude(),
		JitterMinFlips:           cfg.GetJitterMinFlips(),
		AnomalyMultiplier:        cfg.GetAnomalyMultiplier(),
		AnomalyNegativeTolerance: cfg.GetAnomalyNegativeTolerance(),
		AnomalyExpireTicks:       cfg.GetAnomalyExpireTicks(),
		NearStationarySpeed:      cfg.GetNearStationarySpeed(),
		LBYChangeThreshold:       cfg.GetLBYChangeThreshold(),
		LBYRecentWindow:          cfg.GetLBYRecentWindow(),
		BodyYawThreshold:         cfg.GetBodyYawThreshold(),
		BodyYawOffset:            cfg.GetBodyYawOffset(),
		BodyYawWeight:            cfg.GetBodyYawWeight(),
		BodyYawRecentWeight:      cfg.GetBodyYawRecentWeight(),
		OscillationLargeOffset:   cfg.GetOscillationLargeOffset(),
		OscillationMicroOffset:   cfg.GetOscillationMicroOffset(),
		OscillationLargeWeight:   cfg.GetOscillationLargeWeight(),
		OscillationMicroWeight:   cfg.GetOscillationMicroWeight(),
		AnomalyWeight:            cfg.GetAnomalyWeight(),
		AnomalyLookback:          cfg.GetAnomalyLookback(),
		HistoryWeight:            cfg.GetHistoryWeight(),
		HistorySamples:           cfg.GetHistorySamples(),
		FallbackWeight:           cfg.GetFallbackWeight(),
		MicroConfidenceScale:     cfg.GetMicroConfidenceScale(),
		AnomalyConfidenceBonus:   cfg.GetAnomalyConfidenceBonus(),
		FusionMode:               cfg.GetFusionMode(),
	}
}
