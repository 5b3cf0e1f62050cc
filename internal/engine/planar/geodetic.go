package planar

import (
	"errors"
	"math"

	"github.com/golang/geo/s2"
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

// earthRadius is the WGS84 mean radius in meters.
const earthRadius = 6371008.8

var errNoFrame = errors.New("geodetic operation needs a spatial reference")

// toGeographic returns g in longitude/latitude degrees.
func toGeographic(g geom.T, f *spatialref.Frame) (geom.T, error) {
	if f == nil {
		return nil, errNoFrame
	}
	if f.Geographic() {
		return g, nil
	}
	return transformWith(g, f, spatialref.MustWGS84())
}

func s2Point(c geom.Coord) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c[1], c[0]))
}

func geodeticPathLength(cs []geom.Coord) float64 {
	var l float64
	for i := 0; i+1 < len(cs); i++ {
		a := s2.LatLngFromDegrees(cs[i][1], cs[i][0])
		b := s2.LatLngFromDegrees(cs[i+1][1], cs[i+1][0])
		l += a.Distance(b).Radians()
	}
	return l * earthRadius
}

// ringArea is the smaller of the two areas the ring splits the sphere into,
// so ring orientation does not matter. Rings are walked counter-clockwise in
// lon/lat so the loop encloses the small side directly.
func ringArea(ring []geom.Coord) float64 {
	cs := dedupe(ring)
	if len(cs) > 1 && same(cs[0], cs[len(cs)-1]) {
		cs = cs[:len(cs)-1]
	}
	if len(cs) < 3 {
		return 0
	}
	if geomx.SignedArea(cs) < 0 {
		cs = geomx.Reverse(cs)
	}
	pts := make([]s2.Point, len(cs))
	for i, c := range cs {
		pts[i] = s2Point(c)
	}
	a := s2.LoopFromPoints(pts).Area()
	return math.Min(a, 4*math.Pi-a) * earthRadius * earthRadius
}

// GeodeticLength sums line lengths, or ring perimeters for polygons.
func (e *Engine) GeodeticLength(g geom.T, f *spatialref.Frame) (float64, error) {
	gg, err := toGeographic(g, f)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, l := range linesOf(gg) {
		total += geodeticPathLength(l)
	}
	for _, p := range geomx.PolygonsOf(gg) {
		for _, r := range ringsOfPolygon(p) {
			total += geodeticPathLength(r)
		}
	}
	return total, nil
}

func (e *Engine) GeodeticArea(g geom.T, f *spatialref.Frame) (float64, error) {
	gg, err := toGeographic(g, f)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, p := range geomx.PolygonsOf(gg) {
		for i, r := range ringsOfPolygon(p) {
			if i == 0 {
				total += ringArea(r)
			} else {
				total -= ringArea(r)
			}
		}
	}
	return math.Max(total, 0), nil
}

func geodeticDensifyPath(cs []geom.Coord, maxLength float64) []geom.Coord {
	if len(cs) < 2 {
		return cs
	}
	out := []geom.Coord{cs[0]}
	for i := 0; i+1 < len(cs); i++ {
		a, b := s2Point(cs[i]), s2Point(cs[i+1])
		n := int(math.Ceil(a.Distance(b).Radians() * earthRadius / maxLength))
		for k := 1; k < n; k++ {
			ll := s2.LatLngFromPoint(s2.Interpolate(float64(k)/float64(n), a, b))
			out = append(out, geom.Coord{ll.Lng.Degrees(), ll.Lat.Degrees()})
		}
		out = append(out, cs[i+1])
	}
	return out
}

func (e *Engine) GeodeticDensify(g geom.T, maxLength float64, f *spatialref.Frame) (geom.T, error) {
	if maxLength <= 0 || g == nil || g.Empty() {
		return g, nil
	}
	gg, err := toGeographic(g, f)
	if err != nil {
		return nil, err
	}
	out := mapPaths(gg, func(cs []geom.Coord, _ bool) []geom.Coord {
		return geodeticDensifyPath(cs, maxLength)
	})
	if f.Geographic() {
		return out, nil
	}
	return transformWith(out, spatialref.MustWGS84(), f)
}
