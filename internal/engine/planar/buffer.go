package planar

import (
	"errors"
	"math"

	ct "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

const defaultCircleVertices = 96

// circleVertices picks the polygon resolution for radius r. A positive
// maxDeviation lowers it to the fewest vertices keeping the chord error under
// the deviation; maxVertices caps it.
func circleVertices(r float64, p model.BufferParams) int {
	n := p.MaxVerticesInFullCircle
	if n <= 0 {
		n = defaultCircleVertices
	}
	if p.MaxDeviation > 0 && p.MaxDeviation < r {
		k := int(math.Ceil(math.Pi / math.Acos(1-p.MaxDeviation/r)))
		n = min(n, max(k, 8))
	}
	return max(n, 4)
}

func circleRing(c geom.Coord, r float64, n int) []geom.Coord {
	ring := make([]geom.Coord, 0, n+1)
	for k := range n {
		a := 2 * math.Pi * float64(k) / float64(n)
		ring = append(ring, geom.Coord{c[0] + r*math.Cos(a), c[1] + r*math.Sin(a)})
	}
	return append(ring, ring[0])
}

func segmentRect(a, b geom.Coord, r float64) []geom.Coord {
	d := sub(b, a)
	l := math.Hypot(d[0], d[1])
	if l == 0 {
		return nil
	}
	nx, ny := -d[1]/l*r, d[0]/l*r
	return []geom.Coord{
		{a[0] - nx, a[1] - ny}, {b[0] - nx, b[1] - ny},
		{b[0] + nx, b[1] + ny}, {a[0] + nx, a[1] + ny},
		{a[0] - nx, a[1] - ny},
	}
}

// sweep is the union of discs of radius r along every vertex and edge of g.
func sweep(g geom.T, r float64, n int) []ct.Polygonal {
	var parts []ct.Polygonal
	for _, c := range uniquePoints(geomx.AllCoords(g)) {
		parts = append(parts, ringToClip(circleRing(c, r, n)))
	}
	for _, s := range segments(g) {
		if rect := segmentRect(s[0], s[1], r); rect != nil {
			parts = append(parts, ringToClip(rect))
		}
	}
	return parts
}

func bufferGeom(g geom.T, d float64, p model.BufferParams) geom.T {
	if g == nil || g.Empty() {
		return geom.NewPolygon(geom.XY)
	}
	if d == 0 {
		if isPolygonal(g) {
			return unionPolygons([]geom.T{g})
		}
		return geom.NewPolygon(geom.XY)
	}
	r := math.Abs(d)
	n := circleVertices(r, p)

	if d > 0 {
		parts := sweep(g, r, n)
		for _, poly := range toClip(g) {
			parts = append(parts, poly)
		}
		return fromClip(cascadeUnion(parts))
	}

	// negative distances erode polygons and erase everything else
	if !isPolygonal(g) {
		return geom.NewPolygon(geom.XY)
	}
	return erode(g, r, n)
}

func ringsOfPolygon(p *geom.Polygon) [][]geom.Coord {
	out := make([][]geom.Coord, 0, p.NumLinearRings())
	for i := range p.NumLinearRings() {
		out = append(out, p.LinearRing(i).Coords())
	}
	return out
}

func (e *Engine) Buffer(g geom.T, distance float64, p model.BufferParams, _ *spatialref.Frame) (geom.T, error) {
	return bufferGeom(g, distance, p), nil
}

func (e *Engine) GeodesicBuffer(g geom.T, distance float64, p model.BufferParams, f *spatialref.Frame) (geom.T, error) {
	if g == nil || g.Empty() {
		return geom.NewPolygon(geom.XY), nil
	}
	return inLocalMeters(g, f, func(local geom.T) (geom.T, error) {
		return bufferGeom(local, distance, p), nil
	})
}

// inLocalMeters runs fn on g expressed in a transverse Mercator frame centered
// on g and maps the result back into f.
func inLocalMeters(g geom.T, f *spatialref.Frame, fn func(geom.T) (geom.T, error)) (geom.T, error) {
	if f == nil {
		return nil, errors.New("a spatial reference is required for geodesic operations")
	}
	env := geomx.Envelope(model.EmptyEnvelope(), g)
	toWGS, err := spatialref.NewTransform(f, spatialref.MustWGS84())
	if err != nil {
		return nil, err
	}
	lon, lat, err := toWGS((env.XMin+env.XMax)/2, (env.YMin+env.YMax)/2)
	if err != nil {
		return nil, err
	}
	local, err := spatialref.LocalFrame(lon, lat)
	if err != nil {
		return nil, err
	}
	lg, err := transformWith(g, f, local)
	if err != nil {
		return nil, err
	}
	out, err := fn(lg)
	if err != nil {
		return nil, err
	}
	return transformWith(out, local, f)
}
