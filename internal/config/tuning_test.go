package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultResolverConfig(t *testing.T) {
	cfg := DefaultResolverConfig()

	if cfg.HistoryCapacity == nil || *cfg.HistoryCapacity != 16 {
		t.Errorf("Expected HistoryCapacity 16, got %v", cfg.HistoryCapacity)
	}
	if cfg.SelectionInterval == nil || *cfg.SelectionInterval != "250ms" {
		t.Errorf("Expected SelectionInterval '250ms', got %v", cfg.SelectionInterval)
	}
	if cfg.FusionMode == nil || *cfg.FusionMode != FusionCircular {
		t.Errorf("Expected FusionMode %q, got %v", FusionCircular, cfg.FusionMode)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}

	// Populated defaults and nil fields must agree.
	empty := EmptyResolverConfig()
	assert.Equal(t, empty.GetFallbackWeight(), cfg.GetFallbackWeight())
	assert.Equal(t, empty.GetBodyYawWeight(), cfg.GetBodyYawWeight())
	assert.Equal(t, empty.GetJitterThreshold(), cfg.GetJitterThreshold())
	assert.Equal(t, empty.GetTickInterval(), cfg.GetTickInterval())
}

func TestLoadResolverConfigJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "resolver.json")

	testJSON := `{
  "history_capacity": 24,
  "selection_interval": "500ms",
  "jitter_threshold": 28,
  "fusion_mode": "linear"
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0644))

	cfg, err := LoadResolverConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.GetHistoryCapacity())
	assert.Equal(t, 500*time.Millisecond, cfg.GetSelectionInterval())
	assert.Equal(t, 28.0, cfg.GetJitterThreshold())
	assert.Equal(t, FusionLinear, cfg.GetFusionMode())
	// Omitted fields keep defaults.
	assert.Equal(t, 0.08, cfg.GetFallbackWeight())
}

func TestLoadResolverConfigYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "resolver.yaml")

	testYAML := `
history_capacity: 12
anomaly_expire_ticks: 20
body_yaw_weight: 0.45
`
	require.NoError(t, os.WriteFile(configPath, []byte(testYAML), 0644))

	cfg, err := LoadResolverConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.GetHistoryCapacity())
	assert.Equal(t, 20, cfg.GetAnomalyExpireTicks())
	assert.Equal(t, 0.45, cfg.GetBodyYawWeight())
	assert.Equal(t, FusionCircular, cfg.GetFusionMode())
}

func TestLoadResolverConfigErrors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadResolverConfig(filepath.Join(tmpDir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("wrong extension", func(t *testing.T) {
		p := filepath.Join(tmpDir, "resolver.toml")
		require.NoError(t, os.WriteFile(p, []byte("x = 1"), 0644))
		_, err := LoadResolverConfig(p)
		assert.ErrorContains(t, err, "extension")
	})

	t.Run("invalid json", func(t *testing.T) {
		p := filepath.Join(tmpDir, "bad.json")
		require.NoError(t, os.WriteFile(p, []byte(`{"history_capacity": "lots"`), 0644))
		_, err := LoadResolverConfig(p)
		assert.Error(t, err)
	})

	t.Run("fails validation", func(t *testing.T) {
		p := filepath.Join(tmpDir, "range.json")
		require.NoError(t, os.WriteFile(p, []byte(`{"history_capacity": 64}`), 0644))
		_, err := LoadResolverConfig(p)
		assert.ErrorContains(t, err, "invalid configuration")
	})

	t.Run("too large", func(t *testing.T) {
		p := filepath.Join(tmpDir, "huge.json")
		big := make([]byte, 1024*1024+1)
		require.NoError(t, os.WriteFile(p, big, 0644))
		_, err := LoadResolverConfig(p)
		assert.ErrorContains(t, err, "too large")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *ResolverConfig
		wantErr bool
	}{
		{name: "valid config", cfg: DefaultResolverConfig()},
		{name: "empty config is valid", cfg: &ResolverConfig{}},
		{name: "history capacity too small", cfg: &ResolverConfig{HistoryCapacity: ptrInt(4)}, wantErr: true},
		{name: "zero estimate cadence", cfg: &ResolverConfig{EstimateEveryTicks: ptrInt(0)}, wantErr: true},
		{name: "negative tick interval", cfg: &ResolverConfig{TickInterval: ptrFloat64(-0.01)}, wantErr: true},
		{name: "invalid selection interval", cfg: &ResolverConfig{SelectionInterval: ptrString("soon")}, wantErr: true},
		{name: "jitter window too small", cfg: &ResolverConfig{JitterWindow: ptrInt(3)}, wantErr: true},
		{name: "weight above one", cfg: &ResolverConfig{BodyYawWeight: ptrFloat64(1.2)}, wantErr: true},
		{name: "zero fallback weight", cfg: &ResolverConfig{FallbackWeight: ptrFloat64(0)}, wantErr: true},
		{name: "threshold beyond 180", cfg: &ResolverConfig{BodyYawThreshold: ptrFloat64(200)}, wantErr: true},
		{name: "unknown fusion mode", cfg: &ResolverConfig{FusionMode: ptrString("median")}, wantErr: true},
		{name: "linear fusion mode", cfg: &ResolverConfig{FusionMode: ptrString(FusionLinear)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetSelectionInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  *ResolverConfig
		want time.Duration
	}{
		{name: "explicit", cfg: &ResolverConfig{SelectionInterval: ptrString("1s")}, want: time.Second},
		{name: "nil pointer returns default", cfg: &ResolverConfig{}, want: 250 * time.Millisecond},
		{name: "empty string returns default", cfg: &ResolverConfig{SelectionInterval: ptrString("")}, want: 250 * time.Millisecond},
		{name: "invalid duration returns default", cfg: &ResolverConfig{SelectionInterval: ptrString("bad")}, want: 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetSelectionInterval(); got != tt.want {
				t.Errorf("GetSelectionInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultsFileMatchesBuiltins(t *testing.T) {
	path := filepath.Join("..", "..", DefaultConfigPath)
	cfg, err := LoadResolverConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultResolverConfig(), cfg)
}
