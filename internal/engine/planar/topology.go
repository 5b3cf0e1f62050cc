package planar

import (
	"math"

	ct "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/engine"
	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

// cascadeUnion unions polygons pairwise, halving the operand count each round.
func cascadeUnion(ps []ct.Polygonal) ct.Polygon {
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ct.Polygon(nil).Union(ps[0])
	}
	mid := len(ps) / 2
	l := cascadeUnion(ps[:mid])
	r := cascadeUnion(ps[mid:])
	if len(l) == 0 {
		return r
	}
	if len(r) == 0 {
		return l
	}
	return l.Union(r)
}

func unionPolygons(gs []geom.T) geom.T {
	var ps []ct.Polygonal
	for _, g := range gs {
		for _, p := range toClip(g) {
			ps = append(ps, p)
		}
	}
	return fromClip(cascadeUnion(ps))
}

func (e *Engine) Union(in cursor.Cursor, _ *spatialref.Frame) (geom.T, error) {
	gs, err := cursor.CollectGeoms(in)
	if err != nil {
		return nil, err
	}
	return unionAll(gs), nil
}

// unionAll merges per dimension. Lower-dimensional parts covered by a higher
// dimension are dropped; mixed survivors come back as a collection.
func unionAll(gs []geom.T) geom.T {
	var polys []geom.T
	var lines [][]geom.Coord
	var pts []geom.Coord
	for _, g := range gs {
		if g == nil {
			continue
		}
		if len(geomx.PolygonsOf(g)) > 0 {
			polys = append(polys, g)
		}
		for _, l := range geomx.LinesOf(g) {
			if cs := dedupe(l.Coords()); len(cs) > 1 {
				lines = append(lines, cs)
			}
		}
		pts = append(pts, geomx.PointsOf(g)...)
	}

	var area geom.T
	if len(polys) > 0 {
		area = unionPolygons(polys)
	}
	if area != nil && len(lines) > 0 {
		lines = piecesWhere(lines, area, func(l location) bool { return l == exterior })
	}
	var linear geom.T
	if len(lines) > 0 {
		linear = geomx.Linear(lines)
	}
	var puntal geom.T
	if kept := pointsWhere(uniquePoints(pts), func(p geom.Coord) bool {
		return (area == nil || locate(p, area) == exterior) && (linear == nil || locate(p, linear) == exterior)
	}); len(kept) > 0 {
		puntal = geomx.Puntal(kept, len(kept) > 1)
	}
	return collect(area, linear, puntal)
}

// collect returns the single non-nil part, or a collection of all of them.
func collect(parts ...geom.T) geom.T {
	var nonNil []geom.T
	for _, p := range parts {
		if p != nil && !p.Empty() {
			nonNil = append(nonNil, p)
		}
	}
	switch len(nonNil) {
	case 0:
		for _, p := range parts {
			if p != nil {
				return p
			}
		}
		return geom.NewGeometryCollection()
	case 1:
		return nonNil[0]
	}
	gc := geom.NewGeometryCollection()
	for _, p := range nonNil {
		gc.MustPush(p)
	}
	return gc
}

// piecesWhere splits lines against other's linework and keeps the pieces whose
// location relative to other satisfies keep.
func piecesWhere(lines [][]geom.Coord, other geom.T, keep func(location) bool) [][]geom.Coord {
	segs := segments(other)
	var out [][]geom.Coord
	for _, l := range lines {
		for _, piece := range splitLine(l, segs) {
			if keep(locate(pieceProbe(piece), other)) {
				out = appendJoined(out, piece)
			}
		}
	}
	return out
}

// appendJoined extends the last part when piece continues it.
func appendJoined(parts [][]geom.Coord, piece []geom.Coord) [][]geom.Coord {
	if n := len(parts); n > 0 && same(parts[n-1][len(parts[n-1])-1], piece[0]) {
		parts[n-1] = append(parts[n-1], piece[1:]...)
		return parts
	}
	return append(parts, piece)
}

func pointsWhere(pts []geom.Coord, keep func(geom.Coord) bool) []geom.Coord {
	var out []geom.Coord
	for _, p := range pts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func linesOf(g geom.T) [][]geom.Coord {
	var out [][]geom.Coord
	for _, l := range geomx.LinesOf(g) {
		if cs := dedupe(l.Coords()); len(cs) > 1 {
			out = append(out, cs)
		}
	}
	return out
}

func (e *Engine) Difference(a, b geom.T, _ *spatialref.Frame) (geom.T, error) {
	return difference(a, b), nil
}

// difference keeps the dimension of a.
func difference(a, b geom.T) geom.T {
	if a == nil || a.Empty() {
		return a
	}
	if b == nil || b.Empty() {
		return a
	}
	switch geomx.Dimension(a) {
	case 2:
		if len(geomx.PolygonsOf(b)) == 0 {
			return a
		}
		return fromClip(toClip(a).Difference(toClip(b)))
	case 1:
		if geomx.Dimension(b) < 1 {
			return a
		}
		return geomx.Linear(piecesWhere(linesOf(a), b, func(l location) bool { return l == exterior }))
	case 0:
		pts := pointsWhere(geomx.PointsOf(a), func(p geom.Coord) bool { return locate(p, b) == exterior })
		if len(pts) == 0 {
			return emptyLike(a)
		}
		_, multi := a.(*geom.MultiPoint)
		return geomx.Puntal(pts, multi)
	}
	return a
}

func (e *Engine) SymmetricDifference(a, b geom.T, _ *spatialref.Frame) (geom.T, error) {
	if isPolygonal(a) && isPolygonal(b) {
		return fromClip(toClip(a).XOr(toClip(b))), nil
	}
	return unionAll([]geom.T{difference(a, b), difference(b, a)}), nil
}

func (e *Engine) Intersection(a, b geom.T, mask int, _ *spatialref.Frame) (geom.T, error) {
	if mask == 0 {
		d := min(geomx.Dimension(a), geomx.Dimension(b))
		if d < 0 {
			return emptyLike(a), nil
		}
		mask = 1 << d
	}
	var area, linear, puntal geom.T
	if mask&engine.DimArea != 0 && isPolygonal(a) && isPolygonal(b) {
		area = fromClip(toClip(a).Intersection(toClip(b)))
	}
	if mask&engine.DimLine != 0 {
		linear = intersectLines(a, b)
	}
	if mask&engine.DimPoint != 0 {
		puntal = intersectPoints(a, b)
	}
	switch {
	case area != nil && linear == nil && puntal == nil:
		return area, nil
	case area == nil && linear != nil && puntal == nil:
		return linear, nil
	case area == nil && linear == nil && puntal != nil:
		return puntal, nil
	}
	return collect(area, linear, puntal), nil
}

// intersectLines is the one-dimensional part of a ∩ b.
func intersectLines(a, b geom.T) geom.T {
	onOther := func(l location) bool { return l != exterior }
	var parts [][]geom.Coord
	parts = append(parts, piecesWhere(linesOf(a), b, onOther)...)
	if isPolygonal(a) {
		parts = append(parts, piecesWhere(linesOf(b), a, onOther)...)
	}
	if isPolygonal(a) && isPolygonal(b) {
		// shared edges count only where the areas do not overlap
		ov := toClip(a).Intersection(toClip(b))
		if len(ov) == 0 {
			for _, r := range ringsOf(a) {
				parts = append(parts, piecesWhere([][]geom.Coord{r}, b, func(l location) bool { return l == boundary })...)
			}
		}
	}
	if len(parts) == 0 {
		return geom.NewMultiLineString(geom.XY)
	}
	return geomx.Linear(parts)
}

// intersectPoints is the zero-dimensional part of a ∩ b: shared points and
// isolated crossings of the two geometries' linework.
func intersectPoints(a, b geom.T) geom.T {
	var pts []geom.Coord
	for _, p := range geomx.PointsOf(a) {
		if locate(p, b) != exterior {
			pts = append(pts, p)
		}
	}
	for _, p := range geomx.PointsOf(b) {
		if locate(p, a) != exterior {
			pts = append(pts, p)
		}
	}
	segsB := segments(b)
	for _, s := range segments(a) {
		pts = append(pts, crossings(s[0], s[1], segsB)...)
	}
	pts = uniquePoints(pts)

	higher := []geom.T{intersectLines(a, b)}
	if isPolygonal(a) && isPolygonal(b) {
		higher = append(higher, fromClip(toClip(a).Intersection(toClip(b))))
	}
	pts = pointsWhere(pts, func(p geom.Coord) bool {
		for _, h := range higher {
			if !h.Empty() && locate(p, h) != exterior {
				return false
			}
		}
		return true
	})
	if len(pts) == 0 {
		return geom.NewMultiPoint(geom.XY)
	}
	return geomx.Puntal(pts, len(pts) > 1)
}

func ringsOf(g geom.T) [][]geom.Coord {
	var out [][]geom.Coord
	for _, p := range geomx.PolygonsOf(g) {
		for i := range p.NumLinearRings() {
			out = append(out, p.LinearRing(i).Coords())
		}
	}
	return out
}

func envelopePolygon(env model.Envelope) *geom.Polygon {
	return ringPolygon([]geom.Coord{
		{env.XMin, env.YMin}, {env.XMax, env.YMin}, {env.XMax, env.YMax}, {env.XMin, env.YMax},
	})
}

func (e *Engine) Clip(g geom.T, env model.Envelope, f *spatialref.Frame) (geom.T, error) {
	if env.IsEmpty() || g == nil || g.Empty() {
		return emptyLike(g), nil
	}
	return e.Intersection(g, envelopePolygon(env), 0, f)
}

// Cut splits polygons by extending the cutter past g's bounds and
// intersecting with the region on its left; lines are split at crossings and
// sorted by side. A cutter that does not cross g leaves it unsplit.
func (e *Engine) Cut(g, cutter geom.T, considerTouch bool, _ *spatialref.Frame) ([]geom.T, error) {
	cl := linesOf(cutter)
	if len(cl) == 0 || g == nil || g.Empty() {
		return nil, nil
	}
	cut := cl[0]

	switch geomx.Dimension(g) {
	case 2:
		return cutPolygonal(g, cut), nil
	case 1:
		return cutLinear(g, cut, considerTouch), nil
	}
	return nil, nil
}

func cutPolygonal(g geom.T, cut []geom.Coord) []geom.T {
	// the cutter must run from outside to outside
	if locate(cut[0], g) == interior || locate(cut[len(cut)-1], g) == interior {
		return nil
	}
	n := 0
	rs := segments(g)
	for i := 0; i+1 < len(cut); i++ {
		n += len(crossings(cut[i], cut[i+1], rs))
	}
	if n < 2 {
		return nil
	}

	region := leftRegion(cut, g)
	left := fromClip(toClip(g).Intersection(toClip(region)))
	right := fromClip(toClip(g).Difference(toClip(region)))
	if left.Empty() || right.Empty() {
		return nil
	}
	return []geom.T{left, right}
}

// leftRegion builds the polygon to the left of cut, bounded by a box that
// contains both cut and g.
func leftRegion(cut []geom.Coord, g geom.T) *geom.Polygon {
	b := bounds(append(geomx.AllCoords(g), cut...))
	pad := math.Max(b[2]-b[0], b[3]-b[1]) + 1
	box := [4]float64{b[0] - pad, b[1] - pad, b[2] + pad, b[3] + pad}

	start := extendToBox(cut[1], cut[0], box)
	end := extendToBox(cut[len(cut)-2], cut[len(cut)-1], box)

	ring := []geom.Coord{start}
	ring = append(ring, cut...)
	ring = append(ring, end)
	// walk the box counter-clockwise from end back to start
	ring = append(ring, boxArc(end, start, box)...)
	ring = append(ring, start)
	return ringPolygon(ring)
}

// extendToBox continues the ray from->to until it leaves box.
func extendToBox(from, to geom.Coord, box [4]float64) geom.Coord {
	d := sub(to, from)
	l := math.Hypot(d[0], d[1])
	if l == 0 {
		return to
	}
	best := math.Inf(1)
	for _, c := range []struct{ v, o, lim float64 }{
		{d[0], to[0], box[0]}, {d[0], to[0], box[2]}, {d[1], to[1], box[1]}, {d[1], to[1], box[3]},
	} {
		if c.v == 0 {
			continue
		}
		if t := (c.lim - c.o) / c.v; t > 0 && t < best {
			best = t
		}
	}
	return geom.Coord{to[0] + d[0]*best, to[1] + d[1]*best}
}

// boxArc lists the box corners passed when walking counter-clockwise along
// the box boundary from p to q.
func boxArc(p, q geom.Coord, box [4]float64) []geom.Coord {
	corners := []geom.Coord{{box[2], box[1]}, {box[2], box[3]}, {box[0], box[3]}, {box[0], box[1]}}
	pos := func(c geom.Coord) float64 {
		w, h := box[2]-box[0], box[3]-box[1]
		switch {
		case math.Abs(c[1]-box[1]) <= eps*math.Max(1, h) && c[0] < box[2]:
			return (c[0] - box[0]) / w
		case math.Abs(c[0]-box[2]) <= eps*math.Max(1, w) && c[1] < box[3]:
			return 1 + (c[1]-box[1])/h
		case math.Abs(c[1]-box[3]) <= eps*math.Max(1, h) && c[0] > box[0]:
			return 2 + (box[2]-c[0])/w
		default:
			return 3 + (box[3]-c[1])/h
		}
	}
	pp, pq := pos(p), pos(q)
	if pq <= pp {
		pq += 4
	}
	var out []geom.Coord
	for k := 1; k <= 8; k++ {
		cp := float64(k)
		if cp <= pp {
			continue
		}
		if cp >= pq {
			break
		}
		out = append(out, corners[(k-1)%4])
	}
	return out
}

// cutLinear sorts the pieces of g's lines by cutter side. Pieces running
// along the cutter go left when considerTouch is set and are dropped otherwise.
func cutLinear(g geom.T, cut []geom.Coord, considerTouch bool) []geom.T {
	cutSegs := segments(geomx.Linear([][]geom.Coord{cut}))
	var left, right [][]geom.Coord
	for _, l := range linesOf(g) {
		for _, p := range splitLine(l, cutSegs) {
			switch side := sideOf(pieceProbe(p), cut); {
			case side > 0, side == 0 && considerTouch:
				left = append(left, p)
			case side < 0:
				right = append(right, p)
			}
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return nil
	}
	return []geom.T{geomx.Linear(left), geomx.Linear(right)}
}

// sideOf is positive when p lies left of the nearest cutter segment.
func sideOf(p geom.Coord, cut []geom.Coord) float64 {
	best, side := math.Inf(1), 0.0
	for i := 0; i+1 < len(cut); i++ {
		if d := distPointSeg(p, cut[i], cut[i+1]); d < best {
			best = d
			side = cross(sub(cut[i+1], cut[i]), sub(p, cut[i]))
		}
	}
	return side
}
