// Package geomx holds small go-geom helpers shared by the codecs and the
// planar engine.
package geomx

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
)

// SignedArea returns the shoelace area of ring; positive for
// counter-clockwise rings. The ring may be open or closed.
func SignedArea(ring []geom.Coord) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	a := 0.0
	for i := range n {
		j := (i + 1) % n
		a += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return a / 2
}

// Reverse returns ring in the opposite order.
func Reverse(ring []geom.Coord) []geom.Coord {
	out := make([]geom.Coord, len(ring))
	for i, c := range ring {
		out[len(ring)-1-i] = c
	}
	return out
}

// Close appends the first coordinate when ring is open.
func Close(ring []geom.Coord) []geom.Coord {
	if len(ring) == 0 {
		return ring
	}
	f, l := ring[0], ring[len(ring)-1]
	if f[0] == l[0] && f[1] == l[1] {
		return ring
	}
	return append(append([]geom.Coord{}, ring...), geom.Coord{f[0], f[1]})
}

// XY drops any dimensions beyond the first two.
func XY(c geom.Coord) geom.Coord { return geom.Coord{c[0], c[1]} }

// PointInRing is an even-odd test; points on the boundary count as inside.
func PointInRing(p geom.Coord, ring []geom.Coord) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	in := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[j], ring[i]
		if OnSegment(p, a, b) {
			return true
		}
		if (a[1] > p[1]) != (b[1] > p[1]) {
			x := a[0] + (p[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if p[0] < x {
				in = !in
			}
		}
	}
	return in
}

const onSegmentEps = 1e-12

// OnSegment reports whether p lies on segment ab.
func OnSegment(p, a, b geom.Coord) bool {
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	scale := math.Max(1, math.Max(math.Abs(b[0]-a[0]), math.Abs(b[1]-a[1])))
	if math.Abs(cross) > onSegmentEps*scale*scale {
		return false
	}
	return p[0] >= math.Min(a[0], b[0])-onSegmentEps && p[0] <= math.Max(a[0], b[0])+onSegmentEps &&
		p[1] >= math.Min(a[1], b[1])-onSegmentEps && p[1] <= math.Max(a[1], b[1])+onSegmentEps
}

// GroupRings assembles rings into polygons: rings whose orientation matches
// outerCW are shells and every other ring is attached as a hole to the first
// shell that contains it.
func GroupRings(rings [][]geom.Coord, outerCW bool) [][][]geom.Coord {
	var polys [][][]geom.Coord
	var holes [][]geom.Coord
	for _, r := range rings {
		r = Close(r)
		cw := SignedArea(r) < 0
		if cw == outerCW {
			polys = append(polys, [][]geom.Coord{r})
		} else {
			holes = append(holes, r)
		}
	}
	for _, h := range holes {
		placed := false
		for i := range polys {
			if len(h) > 0 && PointInRing(h[0], polys[i][0]) {
				polys[i] = append(polys[i], h)
				placed = true
				break
			}
		}
		if !placed {
			polys = append(polys, [][]geom.Coord{Reverse(h)})
		}
	}
	return polys
}

// PolygonsOf lists the polygon parts of polygonal geometries.
func PolygonsOf(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		out := make([]*geom.Polygon, 0, t.NumPolygons())
		for i := range t.NumPolygons() {
			out = append(out, t.Polygon(i))
		}
		return out
	case *geom.GeometryCollection:
		var out []*geom.Polygon
		for _, sub := range t.Geoms() {
			out = append(out, PolygonsOf(sub)...)
		}
		return out
	}
	return nil
}

// LinesOf lists the line parts of linear geometries.
func LinesOf(g geom.T) []*geom.LineString {
	switch t := g.(type) {
	case *geom.LineString:
		return []*geom.LineString{t}
	case *geom.MultiLineString:
		out := make([]*geom.LineString, 0, t.NumLineStrings())
		for i := range t.NumLineStrings() {
			out = append(out, t.LineString(i))
		}
		return out
	case *geom.GeometryCollection:
		var out []*geom.LineString
		for _, sub := range t.Geoms() {
			out = append(out, LinesOf(sub)...)
		}
		return out
	}
	return nil
}

// PointsOf lists the point parts of puntal geometries.
func PointsOf(g geom.T) []geom.Coord {
	switch t := g.(type) {
	case *geom.Point:
		if t.Empty() {
			return nil
		}
		return []geom.Coord{XY(t.Coords())}
	case *geom.MultiPoint:
		out := make([]geom.Coord, 0, t.NumPoints())
		for i := range t.NumPoints() {
			if p := t.Point(i); !p.Empty() {
				out = append(out, XY(p.Coords()))
			}
		}
		return out
	case *geom.GeometryCollection:
		var out []geom.Coord
		for _, sub := range t.Geoms() {
			out = append(out, PointsOf(sub)...)
		}
		return out
	}
	return nil
}

// AllCoords lists every vertex of g.
func AllCoords(g geom.T) []geom.Coord {
	if gc, ok := g.(*geom.GeometryCollection); ok {
		var out []geom.Coord
		for _, sub := range gc.Geoms() {
			out = append(out, AllCoords(sub)...)
		}
		return out
	}
	flat := g.FlatCoords()
	stride := g.Stride()
	if stride == 0 {
		return nil
	}
	out := make([]geom.Coord, 0, len(flat)/stride)
	for i := 0; i+1 < len(flat); i += stride {
		out = append(out, geom.Coord{flat[i], flat[i+1]})
	}
	return out
}

// Dimension is 0 for points, 1 for lines, 2 for polygons; -1 when empty.
func Dimension(g geom.T) int {
	switch t := g.(type) {
	case *geom.Point, *geom.MultiPoint:
		if g.Empty() {
			return -1
		}
		return 0
	case *geom.LineString, *geom.MultiLineString:
		if g.Empty() {
			return -1
		}
		return 1
	case *geom.Polygon, *geom.MultiPolygon:
		if g.Empty() {
			return -1
		}
		return 2
	case *geom.GeometryCollection:
		d := -1
		for _, sub := range t.Geoms() {
			d = max(d, Dimension(sub))
		}
		return d
	}
	return -1
}

// Polygonal builds a Polygon or MultiPolygon from parts.
func Polygonal(parts [][][]geom.Coord) geom.T {
	switch len(parts) {
	case 0:
		return geom.NewPolygon(geom.XY)
	case 1:
		return geom.NewPolygon(geom.XY).MustSetCoords(parts[0])
	}
	return geom.NewMultiPolygon(geom.XY).MustSetCoords(parts)
}

// Linear builds a LineString or MultiLineString from parts.
func Linear(parts [][]geom.Coord) geom.T {
	switch len(parts) {
	case 0:
		return geom.NewLineString(geom.XY)
	case 1:
		return geom.NewLineString(geom.XY).MustSetCoords(parts[0])
	}
	return geom.NewMultiLineString(geom.XY).MustSetCoords(parts)
}

// Puntal builds a Point or MultiPoint from coordinates.
func Puntal(pts []geom.Coord, forceMulti bool) geom.T {
	if len(pts) == 1 && !forceMulti {
		return geom.NewPoint(geom.XY).MustSetCoords(pts[0])
	}
	return geom.NewMultiPoint(geom.XY).MustSetCoords(pts)
}

// Envelope extends env by the bounds of g.
func Envelope(env model.Envelope, g geom.T) model.Envelope {
	if g == nil || g.Empty() {
		return env
	}
	for _, c := range AllCoords(g) {
		env.XMin = math.Min(env.XMin, c[0])
		env.YMin = math.Min(env.YMin, c[1])
		env.XMax = math.Max(env.XMax, c[0])
		env.YMax = math.Max(env.YMax, c[1])
	}
	return env
}
