package angles

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{90, 90},
		{180, 180},
		{-180, 180},
		{-190, 170},
		{190, -170},
		{360, 0},
		{-360, 0},
		{540, 180},
		{-540, 180},
		{725, 5},
		{-725, -5},
		{179.5, 179.5},
		{-179.5, -179.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Normalize(tt.in), 1e-9, "Normalize(%v)", tt.in)
	}
}

func TestNormalizeRangeAndIdempotence(t *testing.T) {
	t.Parallel()

	for x := -2000.0; x <= 2000.0; x += 7.3 {
		n := Normalize(x)
		if n <= -180 || n > 180 {
			t.Fatalf("Normalize(%v) = %v out of (-180, 180]", x, n)
		}
		if got := Normalize(n); got != n {
			t.Fatalf("Normalize not idempotent at %v: %v -> %v", x, n, got)
		}
	}
}

func TestNormalizeNonFinite(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Normalize(math.NaN()))
	assert.Equal(t, 0.0, Normalize(math.Inf(1)))
	assert.Equal(t, 0.0, Normalize(math.Inf(-1)))
}

func TestDeltaSymmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]float64{{10, 20}, {-170, 170}, {179, -179}, {0, 180}, {45, 405}, {-90, 270}}
	for _, p := range pairs {
		ab := Delta(p[0], p[1])
		ba := Delta(p[1], p[0])
		assert.InDelta(t, ab, ba, 1e-9, "Delta(%v, %v)", p[0], p[1])
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 180.0)
	}

	assert.InDelta(t, 20.0, Delta(-170, 170), 1e-9)
	assert.InDelta(t, 2.0, Delta(179, -179), 1e-9)
}

func TestDeltaZeroIffEqualNormalized(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Delta(45, 405))
	assert.Equal(t, 0.0, Delta(-180, 180))
	assert.NotEqual(t, 0.0, Delta(45, 46))
}

func TestDiffSign(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 20.0, Diff(-170, 170), 1e-9)
	assert.InDelta(t, -20.0, Diff(170, -170), 1e-9)
	assert.InDelta(t, 180.0, Diff(0, 180), 1e-9)
}

func TestBearing(t *testing.T) {
	t.Parallel()

	origin := Vec3{}
	assert.InDelta(t, 0.0, Bearing(origin, Vec3{X: 10}), 1e-9)
	assert.InDelta(t, 90.0, Bearing(origin, Vec3{Y: 10}), 1e-9)
	assert.InDelta(t, 180.0, Bearing(origin, Vec3{X: -10}), 1e-9)
	assert.InDelta(t, -90.0, Bearing(origin, Vec3{Y: -10}), 1e-9)
	assert.InDelta(t, 45.0, Bearing(Vec3{X: 1, Y: 1}, Vec3{X: 2, Y: 2, Z: 50}), 1e-9)
	assert.Equal(t, 0.0, Bearing(origin, Vec3{Z: 3}))
}

func TestVec3(t *testing.T) {
	t.Parallel()

	v := Vec3{X: 3, Y: 4, Z: 12}
	assert.InDelta(t, 13.0, v.Length(), 1e-9)
	assert.InDelta(t, 5.0, v.Length2D(), 1e-9)
	assert.InDelta(t, 13.0, Vec3{}.Dist(v), 1e-9)
}
