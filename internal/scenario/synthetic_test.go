package scenario

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/facing.report/internal/angles"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := SyntheticConfig{Seed: 42, Ticks: 50, RoundTicks: 20}
	a := Generate(cfg)
	b := Generate(cfg)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different records:\n%s", diff)
	}

	c := Generate(SyntheticConfig{Seed: 43, Ticks: 50, RoundTicks: 20})
	assert.NotEqual(t, a, c)
}

func TestGenerateShape(t *testing.T) {
	recs := Generate(SyntheticConfig{Seed: 1, Ticks: 50, RoundTicks: 20})

	var frames, resets int
	for _, r := range recs {
		switch r.Kind {
		case KindFrame:
			frames++
			require.Len(t, r.Frame.Candidates, len(AllBehaviors))
			require.NotNil(t, r.Frame.Viewer)
			for _, c := range r.Frame.Candidates {
				yaw, ok := r.Truth[c.ID]
				require.True(t, ok)
				assert.Greater(t, yaw, -180.0)
				assert.LessOrEqual(t, yaw, 180.0)
			}
		case KindRoundReset:
			resets++
		}
	}
	assert.Equal(t, 50, frames)
	assert.Equal(t, 2, resets, "resets after tick 20 and 40")
	assert.Equal(t, KindRoundReset, recs[20].Kind)
}

func TestJitterAlternates(t *testing.T) {
	recs := Generate(SyntheticConfig{Seed: 1, Ticks: 6, Behaviors: []Behavior{BehaviorJitter}})
	require.Len(t, recs, 6)
	for i := 1; i < len(recs); i++ {
		prev := recs[i-1].Frame.Candidates[0].Props.EyeYaw
		cur := recs[i].Frame.Candidates[0].Props.EyeYaw
		assert.InDelta(t, 2*jitterAmplitude, angles.Delta(prev, cur), 1e-6, "tick %d", i+1)
	}
	c := recs[0].Frame.Candidates[0]
	assert.Zero(t, c.Velocity.Length2D(), "jitter entities stand still")
}

func TestDefensiveStallsClock(t *testing.T) {
	recs := Generate(SyntheticConfig{Seed: 1, Ticks: 30, Behaviors: []Behavior{BehaviorDefensive}})
	ti := defaultSynthTick

	var stalled, jumped bool
	for i := 1; i < len(recs); i++ {
		dt := recs[i].Frame.Candidates[0].Props.SimulationTime - recs[i-1].Frame.Candidates[0].Props.SimulationTime
		if dt == 0 {
			stalled = true
		}
		if dt > 1.7*ti {
			jumped = true
		}
	}
	assert.True(t, stalled)
	assert.True(t, jumped)
}

func TestStaticRevealsBodyYaw(t *testing.T) {
	recs := Generate(SyntheticConfig{Seed: 5, Ticks: 2, Behaviors: []Behavior{BehaviorStatic}})
	c := recs[1].Frame.Candidates[0]
	assert.InDelta(t, 0, angles.Delta(c.Props.LowerBodyYaw, recs[1].Truth[c.ID]), 1e-9)
	assert.InDelta(t, 0, angles.Delta(c.Props.EyeYaw, angles.Bearing(angles.Vec3{}, *c.Position)), 1e-9)
}

func TestParseBehaviors(t *testing.T) {
	all, err := ParseBehaviors("all")
	require.NoError(t, err)
	assert.Equal(t, AllBehaviors, all)

	got, err := ParseBehaviors("jitter, slow_turn")
	require.NoError(t, err)
	assert.Equal(t, []Behavior{BehaviorJitter, BehaviorSlowTurn}, got)

	_, err = ParseBehaviors("static,spin")
	assert.Error(t, err)
}
