package angles

import "math"

// Vec3 is a world-space position or velocity in simulation units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Length returns the euclidean magnitude of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Length2D returns the planar (XY) magnitude of v.
func (v Vec3) Length2D() float64 {
	return math.Hypot(v.X, v.Y)
}

// Dist returns the euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	return o.Sub(v).Length()
}

// Bearing returns the planar yaw, in degrees, of the vector from -> to.
// Coincident points yield 0.
func Bearing(from, to Vec3) float64 {
	d := to.Sub(from)
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	return Normalize(RadToDeg(math.Atan2(d.Y, d.X)))
}
