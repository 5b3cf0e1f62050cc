package planar

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

// mapPaths rebuilds g with every line and ring passed through fn. Rings are
// given closed and must be returned closed; nil drops the path.
func mapPaths(g geom.T, fn func(cs []geom.Coord, ring bool) []geom.Coord) geom.T {
	switch t := g.(type) {
	case *geom.LineString:
		cs := fn(dedupe(t.Coords()), false)
		if cs == nil {
			return geom.NewLineString(geom.XY)
		}
		return geom.NewLineString(geom.XY).MustSetCoords(cs)
	case *geom.MultiLineString:
		var parts [][]geom.Coord
		for _, l := range geomx.LinesOf(t) {
			if cs := fn(dedupe(l.Coords()), false); cs != nil {
				parts = append(parts, cs)
			}
		}
		return geom.NewMultiLineString(geom.XY).MustSetCoords(parts)
	case *geom.Polygon:
		return geom.NewPolygon(geom.XY).MustSetCoords(mapRings(t, fn))
	case *geom.MultiPolygon:
		var parts [][][]geom.Coord
		for _, p := range geomx.PolygonsOf(t) {
			if rings := mapRings(p, fn); len(rings) > 0 {
				parts = append(parts, rings)
			}
		}
		return geom.NewMultiPolygon(geom.XY).MustSetCoords(parts)
	case *geom.GeometryCollection:
		gc := geom.NewGeometryCollection()
		for _, sub := range t.Geoms() {
			gc.MustPush(mapPaths(sub, fn))
		}
		return gc
	}
	return g
}

// mapRings visits every ring and drops the polygon entirely when its shell
// is dropped.
func mapRings(p *geom.Polygon, fn func([]geom.Coord, bool) []geom.Coord) [][]geom.Coord {
	var rings [][]geom.Coord
	shell := true
	for i, r := range ringsOfPolygon(p) {
		cs := fn(dedupe(r), true)
		if cs == nil {
			shell = shell && i > 0
			continue
		}
		rings = append(rings, cs)
	}
	if !shell {
		return nil
	}
	return rings
}

func densifyPath(cs []geom.Coord, maxLength float64) []geom.Coord {
	if len(cs) < 2 {
		return cs
	}
	out := []geom.Coord{cs[0]}
	for i := 0; i+1 < len(cs); i++ {
		a, b := cs[i], cs[i+1]
		if n := int(math.Ceil(dist(a, b) / maxLength)); n > 1 {
			for k := 1; k < n; k++ {
				out = append(out, lerp(a, b, float64(k)/float64(n)))
			}
		}
		out = append(out, b)
	}
	return out
}

func (e *Engine) Densify(g geom.T, maxLength float64, _ *spatialref.Frame) (geom.T, error) {
	if maxLength <= 0 || g == nil || g.Empty() {
		return g, nil
	}
	return mapPaths(g, func(cs []geom.Coord, _ bool) []geom.Coord {
		return densifyPath(cs, maxLength)
	}), nil
}

func (e *Engine) ConvexHull(g geom.T, _ *spatialref.Frame) (geom.T, error) {
	cs := geomx.AllCoords(g)
	if len(cs) == 0 {
		return geom.NewPolygon(geom.XY), nil
	}
	flat := make([]float64, 0, 2*len(cs))
	for _, c := range cs {
		flat = append(flat, c[0], c[1])
	}
	hull := xy.ConvexHullFlat(geom.XY, flat)
	if p, ok := hull.(*geom.Polygon); ok && p.NumLinearRings() > 0 {
		if r := p.LinearRing(0).Coords(); geomx.SignedArea(r) < 0 {
			return ringPolygon(geomx.Reverse(r)), nil
		}
	}
	return hull, nil
}

// Boundary follows OGC: rings for polygons, mod-2 end points for lines and
// nothing for points.
func (e *Engine) Boundary(g geom.T, _ *spatialref.Frame) (geom.T, error) {
	switch geomx.Dimension(g) {
	case 2:
		var rings [][]geom.Coord
		for _, p := range geomx.PolygonsOf(g) {
			rings = append(rings, ringsOfPolygon(p)...)
		}
		return geomx.Linear(rings), nil
	case 1:
		return geom.NewMultiPoint(geom.XY).MustSetCoords(lineBoundaryPoints(g)), nil
	}
	return geom.NewMultiPoint(geom.XY), nil
}

type circle struct {
	c geom.Coord
	r float64
}

func (c circle) contains(p geom.Coord) bool { return dist(c.c, p) <= c.r*(1+1e-12)+1e-12 }

func circle2(a, b geom.Coord) circle {
	c := lerp(a, b, 0.5)
	return circle{c, dist(a, c)}
}

func circle3(a, b, c geom.Coord) circle {
	bx, by := b[0]-a[0], b[1]-a[1]
	cx, cy := c[0]-a[0], c[1]-a[1]
	d := 2 * (bx*cy - by*cx)
	if math.Abs(d) < 1e-300 {
		// collinear; the widest pair spans the others
		best := circle2(a, b)
		for _, cand := range []circle{circle2(a, c), circle2(b, c)} {
			if cand.r > best.r {
				best = cand
			}
		}
		return best
	}
	b2, c2 := bx*bx+by*by, cx*cx+cy*cy
	ux := (cy*b2 - by*c2) / d
	uy := (bx*c2 - cx*b2) / d
	center := geom.Coord{a[0] + ux, a[1] + uy}
	return circle{center, math.Hypot(ux, uy)}
}

// minCircle is Welzl's incremental minimum enclosing circle.
func minCircle(pts []geom.Coord) circle {
	c := circle{pts[0], 0}
	for i := 1; i < len(pts); i++ {
		if c.contains(pts[i]) {
			continue
		}
		c = circle{pts[i], 0}
		for j := 0; j < i; j++ {
			if c.contains(pts[j]) {
				continue
			}
			c = circle2(pts[i], pts[j])
			for k := 0; k < j; k++ {
				if !c.contains(pts[k]) {
					c = circle3(pts[i], pts[j], pts[k])
				}
			}
		}
	}
	return c
}

func (e *Engine) EnclosingCircle(g geom.T, _ *spatialref.Frame) (geom.T, error) {
	pts := uniquePoints(geomx.AllCoords(g))
	if len(pts) == 0 {
		return geom.NewPolygon(geom.XY), nil
	}
	c := minCircle(pts)
	if c.r == 0 {
		return geom.NewPoint(geom.XY).MustSetCoords(c.c), nil
	}
	return ringPolygon(circleRing(c.c, c.r, defaultCircleVertices)), nil
}

// RandomPoints scatters round(area_km² × perSquareKm) points uniformly over
// polygonal g. Areas are geodetic in geographic frames and taken in meters
// otherwise.
func (e *Engine) RandomPoints(g geom.T, perSquareKm float64, rng *rand.Rand, f *spatialref.Frame) (geom.T, error) {
	if !isPolygonal(g) {
		return nil, unsupported("random points", g)
	}
	if perSquareKm < 0 {
		return nil, errors.New("random points: density must not be negative")
	}
	var area float64
	if f.Geographic() {
		a, err := e.GeodeticArea(g, f)
		if err != nil {
			return nil, err
		}
		area = a
	} else {
		area = polygonArea(g)
	}
	n := int(math.Round(area / 1e6 * perSquareKm))
	if n > e.maxRandomPoints {
		return nil, fmt.Errorf("random points: %d points exceeds the limit of %d", n, e.maxRandomPoints)
	}
	if n <= 0 || g.Empty() {
		return geom.NewMultiPoint(geom.XY), nil
	}

	b := bounds(geomx.AllCoords(g))
	pts := make([]geom.Coord, 0, n)
	for attempts := 0; len(pts) < n; attempts++ {
		if attempts > 1000*n {
			return nil, errors.New("random points: sampling did not converge")
		}
		p := geom.Coord{b[0] + rng.Float64()*(b[2]-b[0]), b[1] + rng.Float64()*(b[3]-b[1])}
		if locate(p, g) == interior {
			pts = append(pts, p)
		}
	}
	return geom.NewMultiPoint(geom.XY).MustSetCoords(pts), nil
}

// LabelPoint is an interior point of the largest polygon, the middle vertex
// of the longest line, or the first point.
func (e *Engine) LabelPoint(g geom.T, _ *spatialref.Frame) (geom.T, error) {
	pt := func(c geom.Coord) geom.T { return geom.NewPoint(geom.XY).MustSetCoords(c) }
	switch geomx.Dimension(g) {
	case 2:
		var best *geom.Polygon
		bestArea := -1.0
		for _, p := range geomx.PolygonsOf(g) {
			if a := polygonArea(p); a > bestArea {
				best, bestArea = p, a
			}
		}
		return pt(interiorPoint(best)), nil
	case 1:
		var best []geom.Coord
		for _, l := range linesOf(g) {
			if lineLength(l) > lineLength(best) {
				best = l
			}
		}
		if len(best) == 0 {
			return geom.NewPoint(geom.XY), nil
		}
		return pt(best[len(best)/2]), nil
	case 0:
		return pt(geomx.PointsOf(g)[0]), nil
	}
	return geom.NewPoint(geom.XY), nil
}

// interiorPoint scans the polygon at the middle of its vertical extent and
// returns the midpoint of the widest inside span.
func interiorPoint(p *geom.Polygon) geom.Coord {
	rings := ringsOfPolygon(p)
	b := bounds(rings[0])
	y := (b[1] + b[3]) / 2
	var xs []float64
	for _, r := range rings {
		for i := 0; i+1 < len(r); i++ {
			a, c := r[i], r[i+1]
			if (a[1] > y) != (c[1] > y) {
				xs = append(xs, a[0]+(y-a[1])*(c[0]-a[0])/(c[1]-a[1]))
			}
		}
	}
	sort.Float64s(xs)
	best, bestW := geom.Coord{}, -1.0
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > bestW {
			best, bestW = geom.Coord{(xs[i] + xs[i+1]) / 2, y}, w
		}
	}
	if bestW < 0 {
		return geom.Coord{(b[0] + b[2]) / 2, y}
	}
	return best
}

func (e *Engine) H3Cover(g geom.T, resolution int, f *spatialref.Frame) (geom.T, error) {
	if !f.Geographic() {
		return nil, operr.Invalid("h3 cover", "needs a geographic frame, got %s", f)
	}
	cells, err := e.cells.CellsForGeometry(g, resolution)
	if err != nil {
		return nil, fmt.Errorf("h3 cover: %w", err)
	}
	return e.cells.CellPolygons(cells)
}
