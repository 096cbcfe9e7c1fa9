// Package angles provides yaw arithmetic over the (-180, 180] degree domain.
//
// Every comparison or sum of two yaw values elsewhere in the module goes
// through Normalize, Diff or Delta so the ±180 seam is handled in one place.
package angles

import "math"

// Normalize maps any angle in degrees into (-180, 180].
// Non-finite input returns 0.
func Normalize(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	if deg > -180 && deg <= 180 {
		return deg
	}
	// math.Mod truncates toward zero, so fold negatives back into [0, 360).
	r := math.Mod(deg+180, 360)
	if r < 0 {
		r += 360
	}
	r -= 180
	if r <= -180 {
		r += 360
	}
	return r
}

// Diff returns the signed shortest rotation from b to a, in (-180, 180].
func Diff(a, b float64) float64 {
	return Normalize(a - b)
}

// Delta returns the unsigned shortest angular distance between a and b, in [0, 180].
func Delta(a, b float64) float64 {
	return math.Abs(Normalize(a - b))
}

// Sign returns -1 for negative values and +1 otherwise.
func Sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }
