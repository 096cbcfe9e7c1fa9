// Package report renders stored resolver sessions: an interactive echarts
// timeline, a static PNG plot and numeric summaries.
package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/facing.report/internal/angles"
	"github.com/banshee-data/facing.report/internal/db"
	"github.com/banshee-data/facing.report/internal/resolver"
)

// Point is one published resolution on a timeline.
type Point struct {
	Tick       uint64
	Ideal      float64
	Angle      float64
	Confidence float64
	Method     resolver.Method
	Truth      *float64
}

// PointsFromTimeline converts stored rows.
func PointsFromTimeline(rows []db.TimelinePoint) []Point {
	out := make([]Point, len(rows))
	for i, r := range rows {
		out[i] = Point{
			Tick:       r.Tick,
			Ideal:      r.Ideal,
			Angle:      r.Angle,
			Confidence: r.Confidence,
			Method:     r.Method,
			Truth:      r.Truth,
		}
	}
	return out
}

// Summary describes a timeline.
type Summary struct {
	Count          int     `json:"count"`
	MeanConfidence float64 `json:"mean_confidence"`
	// OffsetMean and OffsetSpread are the circular mean and circular
	// standard deviation of the resolved angle relative to the ideal bearing.
	OffsetMean   float64 `json:"offset_mean"`
	OffsetSpread float64 `json:"offset_spread"`
	// Error statistics use only points with a known true yaw.
	WithTruth       int     `json:"with_truth"`
	MeanAbsError    float64 `json:"mean_abs_error"`
	WithinTolerance float64 `json:"within_tolerance"`
	// MethodShare is the fraction of points attributed to each method.
	MethodShare map[resolver.Method]float64 `json:"method_share"`
}

// Summarize computes a Summary. tolerance is the hit tolerance in degrees.
func Summarize(pts []Point, tolerance float64) Summary {
	s := Summary{Count: len(pts), MethodShare: map[resolver.Method]float64{}}
	if len(pts) == 0 {
		return s
	}

	conf := make([]float64, len(pts))
	offsets := make([]float64, len(pts))
	var errs []float64
	within := 0
	for i, p := range pts {
		conf[i] = p.Confidence
		offsets[i] = angles.DegToRad(angles.Diff(p.Angle, p.Ideal))
		s.MethodShare[p.Method]++
		if p.Truth != nil {
			e := angles.Delta(p.Angle, *p.Truth)
			errs = append(errs, e)
			if e <= tolerance {
				within++
			}
		}
	}
	for m := range s.MethodShare {
		s.MethodShare[m] /= float64(len(pts))
	}

	s.MeanConfidence = stat.Mean(conf, nil)
	s.OffsetMean = angles.Normalize(angles.RadToDeg(stat.CircularMean(offsets, nil)))
	s.OffsetSpread = circularStdDev(offsets)

	s.WithTruth = len(errs)
	if len(errs) > 0 {
		s.MeanAbsError = floats.Sum(errs) / float64(len(errs))
		s.WithinTolerance = float64(within) / float64(len(errs))
	}
	return s
}

// circularStdDev returns sqrt(-2 ln R) in degrees, R being the mean
// resultant length of the radian samples. Fully cancelling samples report
// 180.
func circularStdDev(rad []float64) float64 {
	sin := make([]float64, len(rad))
	cos := make([]float64, len(rad))
	for i, a := range rad {
		sin[i] = math.Sin(a)
		cos[i] = math.Cos(a)
	}
	n := float64(len(rad))
	r := math.Hypot(floats.Sum(sin)/n, floats.Sum(cos)/n)
	if r >= 1 {
		return 0
	}
	if r <= 0 {
		return 180
	}
	return math.Min(180, angles.RadToDeg(math.Sqrt(-2*math.Log(r))))
}

// Methods returns the methods present in a summary, most common first.
func (s Summary) Methods() []resolver.Method {
	out := make([]resolver.Method, 0, len(s.MethodShare))
	for m := range s.MethodShare {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if s.MethodShare[out[i]] != s.MethodShare[out[j]] {
			return s.MethodShare[out[i]] > s.MethodShare[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
