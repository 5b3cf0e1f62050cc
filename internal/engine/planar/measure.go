package planar

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

// Distance is the planar minimum distance between a and b in frame units,
// zero when they intersect and NaN when either is empty.
func (e *Engine) Distance(a, b geom.T, _ *spatialref.Frame) (float64, error) {
	if a == nil || b == nil || a.Empty() || b.Empty() {
		return math.NaN(), nil
	}
	if !relate(a, b).matches("FF*FF****") {
		return 0, nil
	}

	segsA, segsB := segments(a), segments(b)
	ptsA, ptsB := geomx.PointsOf(a), geomx.PointsOf(b)
	best := math.Inf(1)
	for _, s := range segsA {
		for _, t := range segsB {
			best = math.Min(best, distSegSeg(s[0], s[1], t[0], t[1]))
		}
		for _, p := range ptsB {
			best = math.Min(best, distPointSeg(p, s[0], s[1]))
		}
	}
	for _, p := range ptsA {
		for _, t := range segsB {
			best = math.Min(best, distPointSeg(p, t[0], t[1]))
		}
		for _, q := range ptsB {
			best = math.Min(best, dist(p, q))
		}
	}
	return best, nil
}
