package planar

import (
	"math"
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
)

const eps = 1e-12

func sub(a, b geom.Coord) geom.Coord { return geom.Coord{a[0] - b[0], a[1] - b[1]} }
func cross(a, b geom.Coord) float64 { return a[0]*b[1] - a[1]*b[0] }
func dot2(a, b geom.Coord) float64 { return a[0]*b[0] + a[1]*b[1] }
func dist(a, b geom.Coord) float64 { return math.Hypot(a[0]-b[0], a[1]-b[1]) }
func lerp(a, b geom.Coord, t float64) geom.Coord {
	return geom.Coord{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}
func same(a, b geom.Coord) bool {
	return math.Abs(a[0]-b[0]) <= eps*math.Max(1, math.Abs(a[0])) &&
		math.Abs(a[1]-b[1]) <= eps*math.Max(1, math.Abs(a[1]))
}

// segParams returns the positions along a1-a2, in [0,1], where it meets
// b1-b2. Collinear overlaps contribute both overlap ends.
func segParams(a1, a2, b1, b2 geom.Coord) []float64 {
	r := sub(a2, a1)
	s := sub(b2, b1)
	den := cross(r, s)
	qp := sub(b1, a1)
	rr := dot2(r, r)
	if rr == 0 {
		if geomx.OnSegment(a1, b1, b2) {
			return []float64{0}
		}
		return nil
	}
	scale := math.Sqrt(rr) * math.Max(math.Hypot(s[0], s[1]), 1e-300)
	if math.Abs(den) <= eps*scale {
		// parallel; only collinear segments can meet
		if math.Abs(cross(qp, r)) > eps*math.Max(1, rr) {
			return nil
		}
		t0 := dot2(qp, r) / rr
		t1 := dot2(sub(b2, a1), r) / rr
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		lo, hi := math.Max(0, t0), math.Min(1, t1)
		switch {
		case lo > hi+eps:
			return nil
		case hi-lo <= eps:
			return []float64{clamp01(lo)}
		}
		return []float64{lo, hi}
	}
	t := cross(qp, s) / den
	u := cross(qp, r) / den
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return nil
	}
	return []float64{clamp01(t)}
}

func clamp01(t float64) float64 { return math.Max(0, math.Min(1, t)) }

// crossings lists the points where segment a1-a2 meets any of segs.
func crossings(a1, a2 geom.Coord, segs [][2]geom.Coord) []geom.Coord {
	var out []geom.Coord
	for _, s := range segs {
		for _, t := range segParams(a1, a2, s[0], s[1]) {
			out = append(out, lerp(a1, a2, t))
		}
	}
	return out
}

// splitLine cuts a polyline at every point where it meets segs. Each piece
// has a constant location relative to the geometry segs came from.
func splitLine(line []geom.Coord, segs [][2]geom.Coord) [][]geom.Coord {
	if len(line) < 2 {
		return nil
	}
	var pieces [][]geom.Coord
	cur := []geom.Coord{geomx.XY(line[0])}
	for i := 0; i+1 < len(line); i++ {
		a, b := geomx.XY(line[i]), geomx.XY(line[i+1])
		var ts []float64
		for _, s := range segs {
			ts = append(ts, segParams(a, b, s[0], s[1])...)
		}
		sort.Float64s(ts)
		for _, t := range ts {
			if t <= eps || t >= 1-eps {
				if t <= eps && len(cur) > 1 {
					pieces = append(pieces, cur)
					cur = []geom.Coord{a}
				}
				continue
			}
			p := lerp(a, b, t)
			if same(p, cur[len(cur)-1]) {
				continue
			}
			cur = append(cur, p)
			pieces = append(pieces, cur)
			cur = []geom.Coord{p}
		}
		if !same(b, cur[len(cur)-1]) {
			cur = append(cur, b)
		}
	}
	if len(cur) > 1 {
		pieces = append(pieces, cur)
	}
	return pieces
}

// pieceProbe is a point in the relative interior of a split piece.
func pieceProbe(piece []geom.Coord) geom.Coord {
	return lerp(piece[0], piece[1], 0.5)
}

// distPointSeg is the distance from p to segment a-b.
func distPointSeg(p, a, b geom.Coord) float64 {
	ab := sub(b, a)
	l2 := dot2(ab, ab)
	if l2 == 0 {
		return dist(p, a)
	}
	t := clamp01(dot2(sub(p, a), ab) / l2)
	return dist(p, lerp(a, b, t))
}

func distSegSeg(a1, a2, b1, b2 geom.Coord) float64 {
	if len(segParams(a1, a2, b1, b2)) > 0 {
		return 0
	}
	return math.Min(
		math.Min(distPointSeg(a1, b1, b2), distPointSeg(a2, b1, b2)),
		math.Min(distPointSeg(b1, a1, a2), distPointSeg(b2, a1, a2)),
	)
}

func lineLength(cs []geom.Coord) float64 {
	l := 0.0
	for i := 0; i+1 < len(cs); i++ {
		l += dist(cs[i], cs[i+1])
	}
	return l
}

// dedupe drops consecutive repeated vertices.
func dedupe(cs []geom.Coord) []geom.Coord {
	out := make([]geom.Coord, 0, len(cs))
	for _, c := range cs {
		c = geomx.XY(c)
		if len(out) > 0 && same(out[len(out)-1], c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// uniquePoints drops repeated points, keeping first occurrences in order.
func uniquePoints(pts []geom.Coord) []geom.Coord {
	var out []geom.Coord
next:
	for _, p := range pts {
		for _, q := range out {
			if same(p, q) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}
