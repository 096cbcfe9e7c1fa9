package scenario

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/facing.report/internal/monitoring"
	"github.com/banshee-data/facing.report/internal/resolver"
	"github.com/banshee-data/facing.report/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

type memRecorder struct {
	mu        sync.Mutex
	published []resolver.Published
	truths    []*float64
	feedback  []bool
	cursors   []int
	rounds    []int
}

func (m *memRecorder) RecordPublished(round int, tick uint64, pub resolver.Published, truth *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, pub)
	m.truths = append(m.truths, truth)
	return nil
}

func (m *memRecorder) RecordFeedback(round int, tick uint64, id resolver.EntityID, hit bool, cursor int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, hit)
	m.cursors = append(m.cursors, cursor)
	return nil
}

func (m *memRecorder) RecordRound(round int, tick uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds = append(m.rounds, round)
	return nil
}

func TestRunnerSynthetic(t *testing.T) {
	cfg := resolver.DefaultConfig()
	sink := NewOverrideTable()
	rec := &memRecorder{}
	r := &Runner{
		Engine:       resolver.NewEngine(cfg, resolver.WithSink(sink)),
		Recorder:     rec,
		AutoFeedback: true,
		HitTolerance: 35,
	}

	src := NewGenerator(SyntheticConfig{Seed: 7, Ticks: 40, RoundTicks: 20})
	res, err := r.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 40, res.Frames)
	assert.Equal(t, 20, res.Published, "fusion runs every other tick")
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, res.Published, res.Hits+res.Misses)
	assert.Equal(t, []int{0, 1}, rec.rounds)
	require.Len(t, rec.published, 20)
	for _, truth := range rec.truths {
		assert.NotNil(t, truth)
	}

	last := rec.published[len(rec.published)-1]
	angle, ok := sink.Get(last.ID)
	require.True(t, ok)
	assert.Equal(t, last.Resolution.Angle, angle)
}

func TestRunnerExplicitFeedback(t *testing.T) {
	engine := resolver.NewEngine(resolver.DefaultConfig())
	rec := &memRecorder{}
	r := &Runner{Engine: engine, Recorder: rec}

	src := NewSlice([]Record{
		{Kind: KindMiss, Entity: 4},
		{Kind: KindMiss, Entity: 4},
		{Kind: KindMiss, Entity: 4},
		{Kind: KindHit, Entity: 4},
		{Kind: KindRoundReset},
	})
	res, err := r.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, Result{Hits: 1, Misses: 3, Rounds: 1}, res)
	assert.Equal(t, []bool{false, false, false, true}, rec.feedback)
	assert.Equal(t, []int{1, 2, 3, 0}, rec.cursors)

	_, tracked := engine.Entity(4)
	assert.False(t, tracked, "round reset clears feedback state")
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Engine: resolver.NewEngine(resolver.DefaultConfig())}
	_, err := r.Run(ctx, NewGenerator(SyntheticConfig{Ticks: 10}))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunnerRejectsInvalidRecord(t *testing.T) {
	engine := resolver.NewEngine(resolver.DefaultConfig())
	r := &Runner{Engine: engine, Recorder: &memRecorder{}}

	src := NewSlice([]Record{
		{Kind: KindMiss, Entity: 4},
		{Kind: KindFrame},
		{Kind: KindMiss, Entity: 4},
	})
	res, err := r.Run(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame record without frame")
	assert.Equal(t, Result{Misses: 1}, res)
	assert.Zero(t, engine.Snapshot().Tick, "engine never saw the bad frame")
}

func TestRunnerNoEngine(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background(), NewSlice(nil))
	assert.Error(t, err)
}

func TestRunnerPaced(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	r := &Runner{
		Engine: resolver.NewEngine(resolver.DefaultConfig()),
		Pace:   10 * time.Millisecond,
		Clock:  clock,
	}

	done := make(chan Result, 1)
	go func() {
		res, err := r.Run(context.Background(), NewGenerator(SyntheticConfig{Seed: 1, Ticks: 3}))
		assert.NoError(t, err)
		done <- res
	}()

	var res Result
	require.Eventually(t, func() bool {
		clock.Advance(10 * time.Millisecond)
		select {
		case res = <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, 3, res.Frames)
}

func TestOverrideTable(t *testing.T) {
	tbl := NewOverrideTable()
	tbl.SetOverride(1, 30, true)
	tbl.SetOverride(2, 40, false)

	v, ok := tbl.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)
	_, ok = tbl.Get(2)
	assert.False(t, ok, "unforced overrides are ignored")
	assert.Equal(t, map[resolver.EntityID]float64{1: 30}, tbl.All())
}
