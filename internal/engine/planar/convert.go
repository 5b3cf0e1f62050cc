package planar

import (
	"math"

	ct "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
)

// toClip converts the polygonal parts of g into a clipper operand.
func toClip(g geom.T) ct.MultiPolygon {
	var out ct.MultiPolygon
	for _, p := range geomx.PolygonsOf(g) {
		var cp ct.Polygon
		for i := range p.NumLinearRings() {
			cs := p.LinearRing(i).Coords()
			if len(cs) < 3 {
				continue
			}
			r := make([]ct.Point, len(cs))
			for j, c := range cs {
				r[j] = ct.Point{X: c[0], Y: c[1]}
			}
			cp = append(cp, r)
		}
		if len(cp) > 0 {
			out = append(out, cp)
		}
	}
	return out
}

func ringToClip(ring []geom.Coord) ct.Polygon {
	r := make([]ct.Point, len(ring))
	for i, c := range ring {
		r[i] = ct.Point{X: c[0], Y: c[1]}
	}
	return ct.Polygon{r}
}

// fromClip rebuilds go-geom polygons from clipper output. The clipper returns
// a flat ring list, so shells and holes are recovered from nesting depth and
// re-oriented: shells counter-clockwise, holes clockwise.
func fromClip(p ct.Polygon) geom.T {
	var rings [][]geom.Coord
	for _, r := range p {
		cs := make([]geom.Coord, 0, len(r)+1)
		for _, pt := range r {
			cs = append(cs, geom.Coord{pt.X, pt.Y})
		}
		cs = dedupe(cs)
		if len(cs) > 1 && same(cs[0], cs[len(cs)-1]) {
			cs = cs[:len(cs)-1]
		}
		cs = geomx.Close(cs)
		if len(cs) < 4 || math.Abs(geomx.SignedArea(cs)) <= areaEps(cs) {
			continue
		}
		rings = append(rings, cs)
	}
	return geomx.Polygonal(nestRings(rings))
}

// nestRings groups rings by even-odd containment depth.
func nestRings(rings [][]geom.Coord) [][][]geom.Coord {
	n := len(rings)
	depth := make([]int, n)
	parent := make([]int, n)
	for i := range rings {
		parent[i] = -1
		best := math.Inf(1)
		probe := ringProbe(rings[i])
		for j := range rings {
			if i == j || !geomx.PointInRing(probe, rings[j]) {
				continue
			}
			depth[i]++
			if a := math.Abs(geomx.SignedArea(rings[j])); a < best {
				best, parent[i] = a, j
			}
		}
	}
	shellIdx := map[int]int{}
	var polys [][][]geom.Coord
	for i, r := range rings {
		if depth[i]%2 == 0 {
			if geomx.SignedArea(r) < 0 {
				r = geomx.Reverse(r)
			}
			shellIdx[i] = len(polys)
			polys = append(polys, [][]geom.Coord{r})
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 1 && parent[i] >= 0 {
			if geomx.SignedArea(r) > 0 {
				r = geomx.Reverse(r)
			}
			if k, ok := shellIdx[parent[i]]; ok {
				polys[k] = append(polys[k], r)
			}
		}
	}
	return polys
}

// ringProbe is a point strictly inside ring near its first edge, so that
// containment tests on rings sharing vertices stay unambiguous.
func ringProbe(ring []geom.Coord) geom.Coord {
	if len(ring) < 3 {
		return ring[0]
	}
	a, b := ring[0], ring[1]
	mx, my := (a[0]+b[0])/2, (a[1]+b[1])/2
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return a
	}
	// step towards the ring's interior side
	s := 1e-7 * l
	if geomx.SignedArea(ring) < 0 {
		s = -s
	}
	return geom.Coord{mx - dy/l*s, my + dx/l*s}
}

func areaEps(ring []geom.Coord) float64 {
	env := bounds(ring)
	w, h := env[2]-env[0], env[3]-env[1]
	return 1e-12 * math.Max(1, w*h)
}

// bounds returns minx, miny, maxx, maxy.
func bounds(cs []geom.Coord) [4]float64 {
	b := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, c := range cs {
		b[0] = math.Min(b[0], c[0])
		b[1] = math.Min(b[1], c[1])
		b[2] = math.Max(b[2], c[0])
		b[3] = math.Max(b[3], c[1])
	}
	return b
}

func polygonArea(g geom.T) float64 {
	a := 0.0
	for _, p := range geomx.PolygonsOf(g) {
		for i := range p.NumLinearRings() {
			s := math.Abs(geomx.SignedArea(p.LinearRing(i).Coords()))
			if i == 0 {
				a += s
			} else {
				a -= s
			}
		}
	}
	return a
}

func isPolygonal(g geom.T) bool {
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return true
	}
	return false
}

func emptyLike(g geom.T) geom.T {
	switch g.(type) {
	case *geom.Point:
		return geom.NewPoint(geom.XY)
	case *geom.MultiPoint:
		return geom.NewMultiPoint(geom.XY)
	case *geom.LineString:
		return geom.NewLineString(geom.XY)
	case *geom.MultiLineString:
		return geom.NewMultiLineString(geom.XY)
	case *geom.Polygon:
		return geom.NewPolygon(geom.XY)
	case *geom.MultiPolygon:
		return geom.NewMultiPolygon(geom.XY)
	}
	return geom.NewGeometryCollection()
}

// segments lists every edge of g's linework: line parts and polygon rings.
func segments(g geom.T) [][2]geom.Coord {
	var out [][2]geom.Coord
	add := func(cs []geom.Coord) {
		for i := 0; i+1 < len(cs); i++ {
			out = append(out, [2]geom.Coord{geomx.XY(cs[i]), geomx.XY(cs[i+1])})
		}
	}
	for _, l := range geomx.LinesOf(g) {
		add(l.Coords())
	}
	for _, p := range geomx.PolygonsOf(g) {
		for i := range p.NumLinearRings() {
			add(p.LinearRing(i).Coords())
		}
	}
	return out
}

// ringPolygon closes ring and wraps it as a polygon.
func ringPolygon(ring []geom.Coord) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{geomx.Close(ring)})
}
