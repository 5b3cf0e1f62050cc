package planar

import (
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
)

type location int

const (
	exterior location = iota
	interior
	boundary
)

// locate classifies p against g using the OGC mod-2 boundary rule for lines.
func locate(p geom.Coord, g geom.T) location {
	if g == nil || g.Empty() {
		return exterior
	}
	onBoundary := false
	for _, poly := range geomx.PolygonsOf(g) {
		switch locatePolygon(p, poly) {
		case interior:
			return interior
		case boundary:
			onBoundary = true
		}
	}
	if onBoundary {
		return boundary
	}

	lines := geomx.LinesOf(g)
	if len(lines) > 0 {
		if isLineBoundary(p, lines) {
			return boundary
		}
		for _, l := range lines {
			cs := l.Coords()
			for i := 0; i+1 < len(cs); i++ {
				if geomx.OnSegment(p, cs[i], cs[i+1]) {
					return interior
				}
			}
			if len(cs) == 1 && same(p, cs[0]) {
				return interior
			}
		}
	}

	for _, q := range geomx.PointsOf(g) {
		if same(p, q) {
			return interior
		}
	}
	return exterior
}

func locatePolygon(p geom.Coord, poly *geom.Polygon) location {
	n := poly.NumLinearRings()
	if n == 0 {
		return exterior
	}
	for i := range n {
		cs := poly.LinearRing(i).Coords()
		for j := 0; j+1 < len(cs); j++ {
			if geomx.OnSegment(p, cs[j], cs[j+1]) {
				return boundary
			}
		}
	}
	if !geomx.PointInRing(p, poly.LinearRing(0).Coords()) {
		return exterior
	}
	for i := 1; i < n; i++ {
		if geomx.PointInRing(p, poly.LinearRing(i).Coords()) {
			return exterior
		}
	}
	return interior
}

// isLineBoundary applies the mod-2 rule: an endpoint shared by an even number
// of line ends is interior.
func isLineBoundary(p geom.Coord, lines []*geom.LineString) bool {
	n := 0
	for _, l := range lines {
		cs := l.Coords()
		if len(cs) < 2 || same(cs[0], cs[len(cs)-1]) {
			continue
		}
		if same(p, cs[0]) {
			n++
		}
		if same(p, cs[len(cs)-1]) {
			n++
		}
	}
	return n%2 == 1
}

// lineBoundaryPoints lists the mod-2 boundary of the line parts of g.
func lineBoundaryPoints(g geom.T) []geom.Coord {
	lines := geomx.LinesOf(g)
	var ends []geom.Coord
	for _, l := range lines {
		cs := l.Coords()
		if len(cs) < 2 || same(cs[0], cs[len(cs)-1]) {
			continue
		}
		ends = append(ends, geomx.XY(cs[0]), geomx.XY(cs[len(cs)-1]))
	}
	var out []geom.Coord
	for _, p := range uniquePoints(ends) {
		if isLineBoundary(p, lines) {
			out = append(out, p)
		}
	}
	return out
}
