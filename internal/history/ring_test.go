package history

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClampsCapacity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultCapacity, New(0).Cap())
	assert.Equal(t, MinCapacity, New(3).Cap())
	assert.Equal(t, MaxCapacity, New(100).Cap())
	assert.Equal(t, 12, New(12).Cap())
}

func TestRecentBeforeFull(t *testing.T) {
	t.Parallel()

	r := New(8)
	assert.Nil(t, r.Recent(3))

	r.Push(10)
	r.Push(20)
	r.Push(30)

	assert.Equal(t, 3, r.Len())
	if diff := cmp.Diff([]float64{30, 20, 10}, r.Recent(5)); diff != "" {
		t.Errorf("Recent mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{30, 20}, r.Recent(2)); diff != "" {
		t.Errorf("Recent mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{20, 30}, r.Chronological(2)); diff != "" {
		t.Errorf("Chronological mismatch (-want +got):\n%s", diff)
	}
}

func TestWrapAround(t *testing.T) {
	t.Parallel()

	r := New(8)
	for k := 1; k <= 3; k++ {
		ring := New(8)
		for i := 0; i < ring.Cap()+k; i++ {
			ring.Push(float64(i))
		}
		assert.Equal(t, ring.Cap(), ring.Len(), "count after %d extra pushes", k)
		require.Len(t, ring.Recent(1), 1)
		assert.Equal(t, float64(ring.Cap()+k-1), ring.Recent(1)[0])
	}

	for i := 0; i < 11; i++ {
		r.Push(float64(i))
	}
	want := []float64{10, 9, 8, 7, 6, 5, 4, 3}
	if diff := cmp.Diff(want, r.Recent(8)); diff != "" {
		t.Errorf("Recent after wrap (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, r.WriteIndex())
}

func TestAt(t *testing.T) {
	t.Parallel()

	r := New(8)
	_, ok := r.At(0)
	assert.False(t, ok)

	for i := 0; i < 10; i++ {
		r.Push(float64(i))
	}
	v, ok := r.At(0)
	require.True(t, ok)
	assert.Equal(t, 9.0, v)

	v, ok = r.At(2)
	require.True(t, ok)
	assert.Equal(t, 7.0, v)

	_, ok = r.At(8)
	assert.False(t, ok)
	_, ok = r.At(-1)
	assert.False(t, ok)
}

func TestResetAndClone(t *testing.T) {
	t.Parallel()

	r := New(8)
	r.Push(1)
	r.Push(2)

	c := r.Clone()
	r.Reset()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.WriteIndex())
	assert.Nil(t, r.Recent(4))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []float64{2, 1}, c.Recent(2))

	var nilRing *Ring
	assert.Nil(t, nilRing.Clone())
}
