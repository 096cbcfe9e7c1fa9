// Package config loads the resolver tuning file.
//
// The file is flat JSON (or YAML) with every field optional. Missing fields
// fall back to the defaults held in the Get* accessors, so a partial file is
// always safe to load.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the conventional location of the tuning file.
const DefaultConfigPath = "config/resolver.defaults.json"

// Fusion modes accepted by fusion_mode.
const (
	FusionCircular = "circular"
	FusionLinear   = "linear"
)

// ResolverConfig is the root tuning document for the facing resolver.
type ResolverConfig struct {
	// History and pacing
	HistoryCapacity    *int     `json:"history_capacity,omitempty" yaml:"history_capacity,omitempty"`
	EstimateEveryTicks *int     `json:"estimate_every_ticks,omitempty" yaml:"estimate_every_ticks,omitempty"`
	TickInterval       *float64 `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"` // seconds per simulation step

	// Target selection
	SelectionInterval *string  `json:"selection_interval,omitempty" yaml:"selection_interval,omitempty"` // duration string like "250ms"
	MaxTrackDistance  *float64 `json:"max_track_distance,omitempty" yaml:"max_track_distance,omitempty"`
	FOVWeight         *float64 `json:"fov_weight,omitempty" yaml:"fov_weight,omitempty"`
	DistanceWeight    *float64 `json:"distance_weight,omitempty" yaml:"distance_weight,omitempty"`
	HealthWeight      *float64 `json:"health_weight,omitempty" yaml:"health_weight,omitempty"`
	ArmorWeight       *float64 `json:"armor_weight,omitempty" yaml:"armor_weight,omitempty"`

	// Oscillation classifier
	JitterWindow         *int     `json:"jitter_window,omitempty" yaml:"jitter_window,omitempty"`
	JitterThreshold      *float64 `json:"jitter_threshold,omitempty" yaml:"jitter_threshold,omitempty"`
	JitterNoiseFloor     *float64 `json:"jitter_noise_floor,omitempty" yaml:"jitter_noise_floor,omitempty"`
	JitterMicroAmplitude *float64 `json:"jitter_micro_amplitude,omitempty" yaml:"jitter_micro_amplitude,omitempty"`
	JitterMinFlips       *int     `json:"jitter_min_flips,omitempty" yaml:"jitter_min_flips,omitempty"`

	// Anomalous-timing classifier
	AnomalyMultiplier        *float64 `json:"anomaly_multiplier,omitempty" yaml:"anomaly_multiplier,omitempty"`
	AnomalyNegativeTolerance *float64 `json:"anomaly_negative_tolerance,omitempty" yaml:"anomaly_negative_tolerance,omitempty"`
	AnomalyExpireTicks       *int     `json:"anomaly_expire_ticks,omitempty" yaml:"anomaly_expire_ticks,omitempty"`
	NearStationarySpeed      *float64 `json:"near_stationary_speed,omitempty" yaml:"near_stationary_speed,omitempty"`

	// Lower-body-yaw classifier
	LBYChangeThreshold *float64 `json:"lby_change_threshold,omitempty" yaml:"lby_change_threshold,omitempty"`
	LBYRecentWindow    *float64 `json:"lby_recent_window,omitempty" yaml:"lby_recent_window,omitempty"` // seconds

	// Fusion layers
	BodyYawThreshold       *float64 `json:"body_yaw_threshold,omitempty" yaml:"body_yaw_threshold,omitempty"`
	BodyYawOffset          *float64 `json:"body_yaw_offset,omitempty" yaml:"body_yaw_offset,omitempty"`
	BodyYawWeight          *float64 `json:"body_yaw_weight,omitempty" yaml:"body_yaw_weight,omitempty"`
	BodyYawRecentWeight    *float64 `json:"body_yaw_recent_weight,omitempty" yaml:"body_yaw_recent_weight,omitempty"`
	OscillationLargeOffset *float64 `json:"oscillation_large_offset,omitempty" yaml:"oscillation_large_offset,omitempty"`
	OscillationMicroOffset *float64 `json:"oscillation_micro_offset,omitempty" yaml:"oscillation_micro_offset,omitempty"`
	OscillationLargeWeight *float64 `json:"oscillation_large_weight,omitempty" yaml:"oscillation_large_weight,omitempty"`
	OscillationMicroWeight *float64 `json:"oscillation_micro_weight,omitempty" yaml:"oscillation_micro_weight,omitempty"`
	AnomalyWeight          *float64 `json:"anomaly_weight,omitempty" yaml:"anomaly_weight,omitempty"`
	AnomalyLookback        *int     `json:"anomaly_lookback,omitempty" yaml:"anomaly_lookback,omitempty"`
	HistoryWeight          *float64 `json:"history_weight,omitempty" yaml:"history_weight,omitempty"`
	HistorySamples         *int     `json:"history_samples,omitempty" yaml:"history_samples,omitempty"`
	FallbackWeight         *float64 `json:"fallback_weight,omitempty" yaml:"fallback_weight,omitempty"`
	MicroConfidenceScale   *float64 `json:"micro_confidence_scale,omitempty" yaml:"micro_confidence_scale,omitempty"`
	AnomalyConfidenceBonus *float64 `json:"anomaly_confidence_bonus,omitempty" yaml:"anomaly_confidence_bonus,omitempty"`
	FusionMode             *string  `json:"fusion_mode,omitempty" yaml:"fusion_mode,omitempty"`

	// Scenario host
	HitTolerance *float64 `json:"hit_tolerance,omitempty" yaml:"hit_tolerance,omitempty"` // degrees
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyResolverConfig returns a ResolverConfig with all fields set to nil.
// Every Get* accessor on it yields the built-in default.
func EmptyResolverConfig() *ResolverConfig {
	return &ResolverConfig{}
}

// DefaultResolverConfig returns a ResolverConfig with every field populated
// from the built-in defaults. Useful for writing out a template file.
func DefaultResolverConfig() *ResolverConfig {
	e := EmptyResolverConfig()
	return &ResolverConfig{
		HistoryCapacity:          ptrInt(e.GetHistoryCapacity()),
		EstimateEveryTicks:       ptrInt(e.GetEstimateEveryTicks()),
		TickInterval:             ptrFloat64(e.GetTickInterval()),
		SelectionInterval:        ptrString(e.GetSelectionInterval().String()),
		MaxTrackDistance:         ptrFloat64(e.GetMaxTrackDistance()),
		FOVWeight:                ptrFloat64(e.GetFOVWeight()),
		DistanceWeight:           ptrFloat64(e.GetDistanceWeight()),
		HealthWeight:             ptrFloat64(e.GetHealthWeight()),
		ArmorWeight:              ptrFloat64(e.GetArmorWeight()),
		JitterWindow:             ptrInt(e.GetJitterWindow()),
		JitterThreshold:          ptrFloat64(e.GetJitterThreshold()),
		JitterNoiseFloor:         ptrFloat64(e.GetJitterNoiseFloor()),
		JitterMicroAmplitude:     ptrFloat64(e.GetJitterMicroAmplitude()),
		JitterMinFlips:           ptrInt(e.GetJitterMinFlips()),
		AnomalyMultiplier:        ptrFloat64(e.GetAnomalyMultiplier()),
		AnomalyNegativeTolerance: ptrFloat64(e.GetAnomalyNegativeTolerance()),
		AnomalyExpireTicks:       ptrInt(e.GetAnomalyExpireTicks()),
		NearStationarySpeed:      ptrFloat64(e.GetNearStationarySpeed()),
		LBYChangeThreshold:       ptrFloat64(e.GetLBYChangeThreshold()),
		LBYRecentWindow:          ptrFloat64(e.GetLBYRecentWindow()),
		BodyYawThreshold:         ptrFloat64(e.GetBodyYawThreshold()),
		BodyYawOffset:            ptrFloat64(e.GetBodyYawOffset()),
		BodyYawWeight:            ptrFloat64(e.GetBodyYawWeight()),
		BodyYawRecentWeight:      ptrFloat64(e.GetBodyYawRecentWeight()),
		OscillationLargeOffset:   ptrFloat64(e.GetOscillationLargeOffset()),
		OscillationMicroOffset:   ptrFloat64(e.GetOscillationMicroOffset()),
		OscillationLargeWeight:   ptrFloat64(e.GetOscillationLargeWeight()),
		OscillationMicroWeight:   ptrFloat64(e.GetOscillationMicroWeight()),
		AnomalyWeight:            ptrFloat64(e.GetAnomalyWeight()),
		AnomalyLookback:          ptrInt(e.GetAnomalyLookback()),
		HistoryWeight:            ptrFloat64(e.GetHistoryWeight()),
		HistorySamples:           ptrInt(e.GetHistorySamples()),
		FallbackWeight:           ptrFloat64(e.GetFallbackWeight()),
		MicroConfidenceScale:     ptrFloat64(e.GetMicroConfidenceScale()),
		AnomalyConfidenceBonus:   ptrFloat64(e.GetAnomalyConfidenceBonus()),
		FusionMode:               ptrString(e.GetFusionMode()),
		HitTolerance:             ptrFloat64(e.GetHitTolerance()),
	}
}

// LoadResolverConfig loads a ResolverConfig from a .json, .yaml or .yml file.
// The file must be under 1MB. Fields omitted from the file keep their
// defaults, so partial configs are safe.
func LoadResolverConfig(path string) (*ResolverConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyResolverConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ResolverConfig) Validate() error {
	if c.HistoryCapacity != nil && (*c.HistoryCapacity < 8 || *c.HistoryCapacity > 32) {
		return fmt.Errorf("history_capacity must be between 8 and 32, got %d", *c.HistoryCapacity)
	}
	if c.EstimateEveryTicks != nil && *c.EstimateEveryTicks < 1 {
		return fmt.Errorf("estimate_every_ticks must be at least 1, got %d", *c.EstimateEveryTicks)
	}
	if c.TickInterval != nil && *c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %f", *c.TickInterval)
	}
	if c.SelectionInterval != nil && *c.SelectionInterval != "" {
		d, err := time.ParseDuration(*c.SelectionInterval)
		if err != nil {
			return fmt.Errorf("invalid selection_interval '%s': %w", *c.SelectionInterval, err)
		}
		if d < 0 {
			return fmt.Errorf("selection_interval must be non-negative, got %s", d)
		}
	}
	if c.MaxTrackDistance != nil && *c.MaxTrackDistance <= 0 {
		return fmt.Errorf("max_track_distance must be positive, got %f", *c.MaxTrackDistance)
	}
	if c.JitterWindow != nil && (*c.JitterWindow < 4 || *c.JitterWindow > 32) {
		return fmt.Errorf("jitter_window must be between 4 and 32, got %d", *c.JitterWindow)
	}
	if c.JitterMinFlips != nil && *c.JitterMinFlips < 1 {
		return fmt.Errorf("jitter_min_flips must be at least 1, got %d", *c.JitterMinFlips)
	}
	if c.AnomalyExpireTicks != nil && *c.AnomalyExpireTicks < 1 {
		return fmt.Errorf("anomaly_expire_ticks must be at least 1, got %d", *c.AnomalyExpireTicks)
	}
	if c.AnomalyLookback != nil && *c.AnomalyLookback < 0 {
		return fmt.Errorf("anomaly_lookback must be non-negative, got %d", *c.AnomalyLookback)
	}
	if c.HistorySamples != nil && *c.HistorySamples < 2 {
		return fmt.Errorf("history_samples must be at least 2, got %d", *c.HistorySamples)
	}

	weights := map[string]*float64{
		"fov_weight":               c.FOVWeight,
		"distance_weight":          c.DistanceWeight,
		"health_weight":            c.HealthWeight,
		"armor_weight":             c.ArmorWeight,
		"body_yaw_weight":          c.BodyYawWeight,
		"body_yaw_recent_weight":   c.BodyYawRecentWeight,
		"oscillation_large_weight": c.OscillationLargeWeight,
		"oscillation_micro_weight": c.OscillationMicroWeight,
		"anomaly_weight":           c.AnomalyWeight,
		"history_weight":           c.HistoryWeight,
		"micro_confidence_scale":   c.MicroConfidenceScale,
		"anomaly_confidence_bonus": c.AnomalyConfidenceBonus,
	}
	for name, w := range weights {
		if w != nil && (*w < 0 || *w > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *w)
		}
	}
	// The fallback layer is always present, so it must carry weight.
	if c.FallbackWeight != nil && (*c.FallbackWeight <= 0 || *c.FallbackWeight > 1) {
		return fmt.Errorf("fallback_weight must be in (0, 1], got %f", *c.FallbackWeight)
	}

	degrees := map[string]*float64{
		"jitter_threshold":         c.JitterThreshold,
		"jitter_noise_floor":       c.JitterNoiseFloor,
		"jitter_micro_amplitude":   c.JitterMicroAmplitude,
		"lby_change_threshold":     c.LBYChangeThreshold,
		"body_yaw_threshold":       c.BodyYawThreshold,
		"body_yaw_offset":          c.BodyYawOffset,
		"oscillation_large_offset": c.OscillationLargeOffset,
		"oscillation_micro_offset": c.OscillationMicroOffset,
		"hit_tolerance":            c.HitTolerance,
	}
	for name, d := range degrees {
		if d != nil && (*d < 0 || *d > 180) {
			return fmt.Errorf("%s must be between 0 and 180 degrees, got %f", name, *d)
		}
	}

	if c.FusionMode != nil && *c.FusionMode != "" {
		switch *c.FusionMode {
		case FusionCircular, FusionLinear:
		default:
			return fmt.Errorf("fusion_mode must be %q or %q, got %q", FusionCircular, FusionLinear, *c.FusionMode)
		}
	}

	return nil
}

// GetHistoryCapacity returns the history_capacity value or the default.
func (c *ResolverConfig) GetHistoryCapacity() int {
	if c.HistoryCapacity == nil {
		return 16
	}
	return *c.HistoryCapacity
}

// GetEstimateEveryTicks returns the estimate_every_ticks value or the default.
func (c *ResolverConfig) GetEstimateEveryTicks() int {
	if c.EstimateEveryTicks == nil {
		return 2
	}
	return *c.EstimateEveryTicks
}

// GetTickInterval returns the tick_interval value or the default (64 Hz).
func (c *ResolverConfig) GetTickInterval() float64 {
	if c.TickInterval == nil {
		return 1.0 / 64.0
	}
	return *c.TickInterval
}

// GetSelectionInterval parses and returns the SelectionInterval as a time.Duration.
func (c *ResolverConfig) GetSelectionInterval() time.Duration {
	if c.SelectionInterval == nil || *c.SelectionInterval == "" {
		return 250 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.SelectionInterval)
	if err != nil {
		return 250 * time.Millisecond // default on parse error
	}
	return d
}

// GetMaxTrackDistance returns the max_track_distance value or the default.
func (c *ResolverConfig) GetMaxTrackDistance() float64 {
	if c.MaxTrackDistance == nil {
		return 4096
	}
	return *c.MaxTrackDistance
}

// GetFOVWeight returns the fov_weight value or the default.
func (c *ResolverConfig) GetFOVWeight() float64 {
	if c.FOVWeight == nil {
		return 0.50
	}
	return *c.FOVWeight
}

// GetDistanceWeight returns the distance_weight value or the default.
func (c *ResolverConfig) GetDistanceWeight() float64 {
	if c.DistanceWeight == nil {
		return 0.30
	}
	return *c.DistanceWeight
}

// GetHealthWeight returns the health_weight value or the default.
func (c *ResolverConfig) GetHealthWeight() float64 {
	if c.HealthWeight == nil {
		return 0.15
	}
	return *c.HealthWeight
}

// GetArmorWeight returns the armor_weight value or the default.
func (c *ResolverConfig) GetArmorWeight() float64 {
	if c.ArmorWeight == nil {
		return 0.05
	}
	return *c.ArmorWeight
}

// GetJitterWindow returns the jitter_window value or the default.
func (c *ResolverConfig) GetJitterWindow() int {
	if c.JitterWindow == nil {
		return 8
	}
	return *c.JitterWindow
}

// GetJitterThreshold returns the jitter_threshold value or the default.
func (c *ResolverConfig) GetJitterThreshold() float64 {
	if c.JitterThreshold == nil {
		return 26
	}
	return *c.JitterThreshold
}

// GetJitterNoiseFloor returns the jitter_noise_floor value or the default.
func (c *ResolverConfig) GetJitterNoiseFloor() float64 {
	if c.JitterNoiseFloor == nil {
		return 0.1
	}
	return *c.JitterNoiseFloor
}

// GetJitterMicroAmplitude returns the jitter_micro_amplitude value or the default.
func (c *ResolverConfig) GetJitterMicroAmplitude() float64 {
	if c.JitterMicroAmplitude == nil {
		return 18
	}
	return *c.JitterMicroAmplitude
}

// GetJitterMinFlips returns the jitter_min_flips value or the default.
func (c *ResolverConfig) GetJitterMinFlips() int {
	if c.JitterMinFlips == nil {
		return 2
	}
	return *c.JitterMinFlips
}

// GetAnomalyMultiplier returns the anomaly_multiplier value or the default.
func (c *ResolverConfig) GetAnomalyMultiplier() float64 {
	if c.AnomalyMultiplier == nil {
		return 1.7
	}
	return *c.AnomalyMultiplier
}

// GetAnomalyNegativeTolerance returns the anomaly_negative_tolerance value or the default.
func (c *ResolverConfig) GetAnomalyNegativeTolerance() float64 {
	if c.AnomalyNegativeTolerance == nil {
		return 0.5
	}
	return *c.AnomalyNegativeTolerance
}

// GetAnomalyExpireTicks returns the anomaly_expire_ticks value or the default.
func (c *ResolverConfig) GetAnomalyExpireTicks() int {
	if c.AnomalyExpireTicks == nil {
		return 16
	}
	return *c.AnomalyExpireTicks
}

// GetNearStationarySpeed returns the near_stationary_speed value or the default.
func (c *ResolverConfig) GetNearStationarySpeed() float64 {
	if c.NearStationarySpeed == nil {
		return 5
	}
	return *c.NearStationarySpeed
}

// GetLBYChangeThreshold returns the lby_change_threshold value or the default.
func (c *ResolverConfig) GetLBYChangeThreshold() float64 {
	if c.LBYChangeThreshold == nil {
		return 25
	}
	return *c.LBYChangeThreshold
}

// GetLBYRecentWindow returns the lby_recent_window value or the default.
func (c *ResolverConfig) GetLBYRecentWindow() float64 {
	if c.LBYRecentWindow == nil {
		return 0.45
	}
	return *c.LBYRecentWindow
}

// GetBodyYawThreshold returns the body_yaw_threshold value or the default.
func (c *ResolverConfig) GetBodyYawThreshold() float64 {
	if c.BodyYawThreshold == nil {
		return 30
	}
	return *c.BodyYawThreshold
}

// GetBodyYawOffset returns the body_yaw_offset value or the default.
func (c *ResolverConfig) GetBodyYawOffset() float64 {
	if c.BodyYawOffset == nil {
		return 60
	}
	return *c.BodyYawOffset
}

// GetBodyYawWeight returns the body_yaw_weight value or the default.
func (c *ResolverConfig) GetBodyYawWeight() float64 {
	if c.BodyYawWeight == nil {
		return 0.40
	}
	return *c.BodyYawWeight
}

// GetBodyYawRecentWeight returns the body_yaw_recent_weight value or the default.
func (c *ResolverConfig) GetBodyYawRecentWeight() float64 {
	if c.BodyYawRecentWeight == nil {
		return 0.60
	}
	return *c.BodyYawRecentWeight
}

// GetOscillationLargeOffset returns the oscillation_large_offset value or the default.
func (c *ResolverConfig) GetOscillationLargeOffset() float64 {
	if c.OscillationLargeOffset == nil {
		return 58
	}
	return *c.OscillationLargeOffset
}

// GetOscillationMicroOffset returns the oscillation_micro_offset value or the default.
func (c *ResolverConfig) GetOscillationMicroOffset() float64 {
	if c.OscillationMicroOffset == nil {
		return 30
	}
	return *c.OscillationMicroOffset
}

// GetOscillationLargeWeight returns the oscillation_large_weight value or the default.
func (c *ResolverConfig) GetOscillationLargeWeight() float64 {
	if c.OscillationLargeWeight == nil {
		return 0.38
	}
	return *c.OscillationLargeWeight
}

// GetOscillationMicroWeight returns the oscillation_micro_weight value or the default.
func (c *ResolverConfig) GetOscillationMicroWeight() float64 {
	if c.OscillationMicroWeight == nil {
		return 0.30
	}
	return *c.OscillationMicroWeight
}

// GetAnomalyWeight returns the anomaly_weight value or the default.
func (c *ResolverConfig) GetAnomalyWeight() float64 {
	if c.AnomalyWeight == nil {
		return 0.18
	}
	return *c.AnomalyWeight
}

// GetAnomalyLookback returns the anomaly_lookback value or the default.
func (c *ResolverConfig) GetAnomalyLookback() int {
	if c.AnomalyLookback == nil {
		return 2
	}
	return *c.AnomalyLookback
}

// GetHistoryWeight returns the history_weight value or the default.
func (c *ResolverConfig) GetHistoryWeight() float64 {
	if c.HistoryWeight == nil {
		return 0.15
	}
	return *c.HistoryWeight
}

// GetHistorySamples returns the history_samples value or the default.
func (c *ResolverConfig) GetHistorySamples() int {
	if c.HistorySamples == nil {
		return 8
	}
	return *c.HistorySamples
}

// GetFallbackWeight returns the fallback_weight value or the default.
func (c *ResolverConfig) GetFallbackWeight() float64 {
	if c.FallbackWeight == nil {
		return 0.08
	}
	return *c.FallbackWeight
}

// GetMicroConfidenceScale returns the micro_confidence_scale value or the default.
func (c *ResolverConfig) GetMicroConfidenceScale() float64 {
	if c.MicroConfidenceScale == nil {
		return 0.95
	}
	return *c.MicroConfidenceScale
}

// GetAnomalyConfidenceBonus returns the anomaly_confidence_bonus value or the default.
func (c *ResolverConfig) GetAnomalyConfidenceBonus() float64 {
	if c.AnomalyConfidenceBonus == nil {
		return 0.05
	}
	return *c.AnomalyConfidenceBonus
}

// GetFusionMode returns the fusion_mode value or the default.
func (c *ResolverConfig) GetFusionMode() string {
	if c.FusionMode == nil || *c.FusionMode == "" {
		return FusionCircular
	}
	return *c.FusionMode
}

// GetHitTolerance returns the hit_tolerance value or the default.
func (c *ResolverConfig) GetHitTolerance() float64 {
	if c.HitTolerance == nil {
		return 35
	}
	return *c.HitTolerance
}
