package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedbackCursor(t *testing.T) {
	st := stateWith()

	for i := 0; i < 3; i++ {
		st.recordMiss()
	}
	assert.Equal(t, 3, st.FallbackCursor)
	assert.Equal(t, 3, st.MissCount)
	assert.Equal(t, FallbackOffsets[3], st.fallbackOffset())

	st.recordHit()
	assert.Equal(t, 0, st.FallbackCursor)
	assert.Equal(t, 1, st.HitCount)
}

func TestFeedbackCursorWraps(t *testing.T) {
	st := stateWith()
	for i := 0; i < len(FallbackOffsets)+2; i++ {
		st.recordMiss()
	}
	assert.Equal(t, 2, st.FallbackCursor)
}

func TestAccuracy(t *testing.T) {
	st := stateWith()
	_, ok := st.Accuracy()
	assert.False(t, ok)

	st.recordHit()
	st.recordMiss()
	st.recordMiss()
	st.recordHit()
	acc, ok := st.Accuracy()
	assert.True(t, ok)
	assert.InDelta(t, 0.5, acc, 1e-12)
}
