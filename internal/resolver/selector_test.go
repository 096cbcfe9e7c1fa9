package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorPrefersFacingLine(t *testing.T) {
	s := NewSelector(DefaultConfig())
	viewer := Viewer{Yaw: 0}
	onLine := candidate(2, 500, 0)
	offLine := candidate(1, 0, 500)

	a, ok := s.Score(viewer, onLine)
	require.True(t, ok)
	b, ok := s.Score(viewer, offLine)
	require.True(t, ok)
	assert.GreaterOrEqual(t, a, b)

	got := s.Select(time.Unix(0, 0), viewer, []Candidate{offLine, onLine})
	require.NotNil(t, got)
	assert.Equal(t, EntityID(2), got.ID)
}

func TestSelectorFilters(t *testing.T) {
	cfg := DefaultConfig()
	viewer := Viewer{}

	dead := candidate(1, 100, 0)
	dead.Alive = false
	hidden := candidate(2, 100, 0)
	hidden.Visible = false
	unplaced := candidate(3, 0, 0)
	unplaced.Position = nil
	far := candidate(4, cfg.MaxTrackDistance+1, 0)

	s := NewSelector(cfg)
	for _, c := range []Candidate{dead, hidden, unplaced, far} {
		_, ok := s.Score(viewer, c)
		assert.False(t, ok, "candidate %d should be filtered", c.ID)
	}
	assert.Nil(t, s.Select(time.Unix(0, 0), viewer, []Candidate{dead, hidden, unplaced, far}))
	_, active := s.Active()
	assert.False(t, active)
}

func TestSelectorTieKeepsFirst(t *testing.T) {
	s := NewSelector(DefaultConfig())
	got := s.Select(time.Unix(0, 0), Viewer{}, []Candidate{candidate(7, 100, 0), candidate(3, 100, 0)})
	require.NotNil(t, got)
	assert.Equal(t, EntityID(7), got.ID)
}

func TestSelectorHysteresis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SelectionInterval = 250 * time.Millisecond
	s := NewSelector(cfg)

	t0 := time.Unix(1000, 0)
	cands := []Candidate{candidate(1, 500, 0), candidate(2, 0, 500)}

	first := s.Select(t0, Viewer{Yaw: 0}, cands)
	require.NotNil(t, first)
	assert.Equal(t, EntityID(1), first.ID)

	// Viewer turns toward entity 2; within the interval the choice holds.
	second := s.Select(t0.Add(10*time.Millisecond), Viewer{Yaw: 90}, cands)
	require.NotNil(t, second)
	assert.Equal(t, EntityID(1), second.ID)

	third := s.Select(t0.Add(300*time.Millisecond), Viewer{Yaw: 90}, cands)
	require.NotNil(t, third)
	assert.Equal(t, EntityID(2), third.ID)
}

func TestSelectorRevalidatesStaleTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SelectionInterval = time.Hour
	s := NewSelector(cfg)
	t0 := time.Unix(0, 0)

	cands := []Candidate{candidate(1, 500, 0), candidate(2, 0, 500)}
	require.Equal(t, EntityID(1), s.Select(t0, Viewer{}, cands).ID)

	cands[0].Alive = false
	got := s.Select(t0.Add(time.Millisecond), Viewer{}, cands)
	require.NotNil(t, got)
	assert.Equal(t, EntityID(2), got.ID)
}

func TestSelectorReset(t *testing.T) {
	s := NewSelector(DefaultConfig())
	s.Select(time.Unix(0, 0), Viewer{}, []Candidate{candidate(1, 100, 0)})
	_, ok := s.Active()
	require.True(t, ok)

	s.Reset()
	st := s.State()
	assert.Nil(t, st.ActiveTarget)
	assert.True(t, st.LastSelection.IsZero())
}

func TestSelectorReconfigureKeepsHysteresis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SelectionInterval = 250 * time.Millisecond
	s := NewSelector(cfg)

	// Far from wall time, so a limiter refilled against time.Now would
	// hand out a fresh token.
	t0 := time.Unix(1000, 0)
	cands := []Candidate{candidate(1, 500, 0), candidate(2, 0, 500)}
	require.Equal(t, EntityID(1), s.Select(t0, Viewer{Yaw: 0}, cands).ID)

	cfg.SelectionInterval = 200 * time.Millisecond
	s.configure(cfg, t0)

	got := s.Select(t0.Add(time.Millisecond), Viewer{Yaw: 90}, cands)
	require.NotNil(t, got)
	assert.Equal(t, EntityID(1), got.ID)

	got = s.Select(t0.Add(250*time.Millisecond), Viewer{Yaw: 90}, cands)
	require.NotNil(t, got)
	assert.Equal(t, EntityID(2), got.ID)
}
