package planar

import (
	"math"
	"sort"

	ct "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
)

// erode shrinks the polygons of g by r. Every ring is offset r towards the
// polygon interior with round joins and cut into simple loops where the
// offset crosses itself. A shell loop survives when it keeps the shell's
// orientation and lies at least r inside it. A hole loop survives when it
// keeps the hole's orientation, and is then subtracted from the shell loops
// of its own polygon.
func erode(g geom.T, r float64, n int) geom.T {
	op := model.OffsetParams{
		JoinType:     model.JoinRound,
		FlattenError: r * (1 - math.Cos(math.Pi/float64(n))),
	}
	minClearance := r - op.FlattenError - 1e-9*r

	var out [][][]geom.Coord
	for _, poly := range geomx.PolygonsOf(g) {
		var shells [][][]geom.Coord
		var holes []ct.Polygonal
		for i, ring := range ringsOfPolygon(poly) {
			ring = dedupe(ring)
			if len(ring) < 4 {
				continue
			}
			shell := i == 0
			// shells counter-clockwise and holes clockwise keep the
			// polygon interior on the left
			if shell != (geomx.SignedArea(ring) > 0) {
				ring = geomx.Reverse(ring)
			}
			for _, loop := range selfLoops(offsetPath(ring, r, op, true)) {
				a := geomx.SignedArea(loop)
				if math.Abs(a) <= areaEps(loop) || (a > 0) != shell {
					continue
				}
				if !shell {
					holes = append(holes, ringToClip(geomx.Reverse(loop)))
					continue
				}
				if clearance(interiorPoint(ringPolygon(loop)), ring) < minClearance {
					continue
				}
				shells = append(shells, [][]geom.Coord{loop})
			}
		}
		if len(shells) == 0 {
			continue
		}
		if len(holes) == 0 {
			out = append(out, shells...)
			continue
		}
		rest := fromClip(toClip(geomx.Polygonal(shells)).Difference(cascadeUnion(holes)))
		for _, p := range geomx.PolygonsOf(rest) {
			out = append(out, ringsOfPolygon(p))
		}
	}
	return geomx.Polygonal(out)
}

// clearance is the distance from p to the nearest edge of ring.
func clearance(p geom.Coord, ring []geom.Coord) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(ring); i++ {
		best = math.Min(best, distPointSeg(p, ring[i], ring[i+1]))
	}
	return best
}

// selfLoops cuts a closed path into closed loops that do not cross
// themselves, splitting it wherever it revisits a point.
func selfLoops(ring []geom.Coord) [][]geom.Coord {
	pts := nodeRing(ring)
	var loops [][]geom.Coord
	var path []geom.Coord
	for _, p := range pts[:len(pts)-1] {
		k := -1
		for i, q := range path {
			if same(q, p) {
				k = i
				break
			}
		}
		if k < 0 {
			path = append(path, p)
			continue
		}
		loop := append(append([]geom.Coord(nil), path[k:]...), p)
		if len(loop) >= 4 {
			loops = append(loops, loop)
		}
		path = path[:k+1]
	}
	if len(path) >= 3 {
		loops = append(loops, geomx.Close(path))
	}
	return loops
}

// nodeRing inserts every point where two non-adjacent edges of a closed path
// meet. Both edges receive the identical coordinate, so the crossing shows up
// as a repeated vertex.
func nodeRing(ring []geom.Coord) []geom.Coord {
	type node struct {
		t float64
		p geom.Coord
	}
	n := len(ring) - 1
	nodes := make([][]node, n)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[i+1]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			c, d := ring[j], ring[j+1]
			for _, t := range segParams(a, b, c, d) {
				p := lerp(a, b, t)
				switch {
				case t <= eps:
					p = a
				case t >= 1-eps:
					p = b
				}
				u := paramOn(p, c, d)
				switch {
				case u <= eps:
					p = c
				case u >= 1-eps:
					p = d
				}
				nodes[i] = append(nodes[i], node{t, p})
				nodes[j] = append(nodes[j], node{u, p})
			}
		}
	}

	out := make([]geom.Coord, 0, len(ring))
	for i := 0; i < n; i++ {
		out = append(out, ring[i])
		ns := nodes[i]
		sort.Slice(ns, func(x, y int) bool { return ns[x].t < ns[y].t })
		for _, nd := range ns {
			if same(nd.p, out[len(out)-1]) || same(nd.p, ring[i+1]) {
				continue
			}
			out = append(out, nd.p)
		}
	}
	return append(out, out[0])
}

// paramOn is the position of p projected onto c-d, with 0 at c and 1 at d.
func paramOn(p, c, d geom.Coord) float64 {
	cd := sub(d, c)
	l2 := dot2(cd, cd)
	if l2 == 0 {
		return 0
	}
	return dot2(sub(p, c), cd) / l2
}
