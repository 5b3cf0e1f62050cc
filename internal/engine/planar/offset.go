package planar

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

// Offset moves lines to their left for positive distances and grows polygons
// outward. Points are returned unchanged.
func (e *Engine) Offset(g geom.T, p model.OffsetParams, _ *spatialref.Frame) (geom.T, error) {
	if g == nil || g.Empty() || p.Distance == 0 {
		return g, nil
	}
	switch geomx.Dimension(g) {
	case 2:
		var parts [][][]geom.Coord
		for _, poly := range geomx.PolygonsOf(g) {
			var rings [][]geom.Coord
			for i, r := range ringsOfPolygon(poly) {
				r = dedupe(r)
				if len(r) < 4 {
					continue
				}
				// shells counter-clockwise and holes clockwise put the
				// outside on the right, so growing is a negative left offset
				if (i == 0) != (geomx.SignedArea(r) > 0) {
					r = geomx.Reverse(r)
				}
				rings = append(rings, offsetPath(r, -p.Distance, p, true))
			}
			if len(rings) > 0 {
				parts = append(parts, rings)
			}
		}
		return geomx.Polygonal(parts), nil
	case 1:
		var parts [][]geom.Coord
		for _, l := range linesOf(g) {
			closed := len(l) > 3 && same(l[0], l[len(l)-1])
			parts = append(parts, offsetPath(l, p.Distance, p, closed))
		}
		return geomx.Linear(parts), nil
	}
	return g, nil
}

// offsetPath shifts a polyline d to its left, joining consecutive offset
// segments according to the join type. Closed paths are joined around their
// start vertex as well.
func offsetPath(cs []geom.Coord, d float64, p model.OffsetParams, closed bool) []geom.Coord {
	if closed {
		cs = cs[:len(cs)-1]
	}
	n := len(cs)
	type seg struct{ a, b, dir geom.Coord }
	var segs []seg
	last := n - 1
	if closed {
		last = n
	}
	for i := 0; i < last; i++ {
		a, b := cs[i], cs[(i+1)%n]
		v := sub(b, a)
		l := math.Hypot(v[0], v[1])
		if l == 0 {
			continue
		}
		u := geom.Coord{v[0] / l, v[1] / l}
		nrm := geom.Coord{-u[1] * d, u[0] * d}
		segs = append(segs, seg{
			a:   geom.Coord{a[0] + nrm[0], a[1] + nrm[1]},
			b:   geom.Coord{b[0] + nrm[0], b[1] + nrm[1]},
			dir: u,
		})
	}
	if len(segs) == 0 {
		return cs
	}

	var out []geom.Coord
	join := func(prev, next seg, vertex geom.Coord) {
		out = append(out, joinPoints(prev.b, next.a, prev.dir, next.dir, vertex, d, p)...)
	}
	if !closed {
		out = append(out, segs[0].a)
	}
	for i := range segs {
		if i > 0 {
			join(segs[i-1], segs[i], cs[i%n])
		} else if closed {
			join(segs[len(segs)-1], segs[0], cs[0])
		}
	}
	if closed {
		out = append(out, out[0])
	} else {
		out = append(out, segs[len(segs)-1].b)
	}
	return out
}

// joinPoints connects the end of one offset segment (p1) to the start of the
// next (p2) around vertex.
func joinPoints(p1, p2, d1, d2, vertex geom.Coord, d float64, p model.OffsetParams) []geom.Coord {
	turn := cross(d1, d2)
	r := math.Abs(d)
	if math.Abs(turn) < 1e-12 {
		return []geom.Coord{p1}
	}
	// on the inner side of the turn the offset lines simply meet
	if (turn > 0) == (d > 0) {
		if x, ok := lineIntersection(p1, d1, p2, d2); ok {
			return []geom.Coord{x}
		}
		return []geom.Coord{p1, p2}
	}

	switch p.JoinType {
	case model.JoinBevel:
		return []geom.Coord{p1, p2}
	case model.JoinMiter:
		x, ok := lineIntersection(p1, d1, p2, d2)
		limit := p.BevelRatio
		if limit <= 0 {
			limit = 10
		}
		if !ok || dist(x, vertex) > limit*r {
			return []geom.Coord{p1, p2}
		}
		return []geom.Coord{x}
	case model.JoinSquare:
		return []geom.Coord{
			{p1[0] + d1[0]*r, p1[1] + d1[1]*r},
			{p2[0] - d2[0]*r, p2[1] - d2[1]*r},
		}
	default:
		return arc(vertex, p1, p2, r, d > 0, p.FlattenError)
	}
}

func lineIntersection(p1, d1, p2, d2 geom.Coord) (geom.Coord, bool) {
	den := cross(d1, d2)
	if math.Abs(den) < 1e-15 {
		return nil, false
	}
	t := cross(sub(p2, p1), d2) / den
	return geom.Coord{p1[0] + d1[0]*t, p1[1] + d1[1]*t}, true
}

// arc walks from p1 to p2 around c. Offsets to the left sweep clockwise
// around outer corners.
func arc(c, p1, p2 geom.Coord, r float64, clockwise bool, flattenError float64) []geom.Coord {
	a1 := math.Atan2(p1[1]-c[1], p1[0]-c[0])
	a2 := math.Atan2(p2[1]-c[1], p2[0]-c[0])
	sweep := a2 - a1
	if clockwise {
		for sweep > 0 {
			sweep -= 2 * math.Pi
		}
	} else {
		for sweep < 0 {
			sweep += 2 * math.Pi
		}
	}
	if flattenError <= 0 {
		flattenError = r * 0.01
	}
	step := math.Pi / 8
	if flattenError < r {
		step = 2 * math.Acos(1-flattenError/r)
	}
	k := max(1, int(math.Ceil(math.Abs(sweep)/step)))
	out := make([]geom.Coord, 0, k+1)
	for i := 0; i <= k; i++ {
		a := a1 + sweep*float64(i)/float64(k)
		out = append(out, geom.Coord{c[0] + r*math.Cos(a), c[1] + r*math.Sin(a)})
	}
	return out
}
