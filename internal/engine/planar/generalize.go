package planar

import (
	"math"

	ct "github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

// Simplify repairs g into a topologically simple geometry: repeated vertices
// and points go, polygon rings are re-noded and re-oriented by the clipper,
// and parts that collapse are dropped. Without force, an already simple
// geometry comes back untouched.
func (e *Engine) Simplify(g geom.T, force bool, _ *spatialref.Frame) (geom.T, error) {
	if g == nil || g.Empty() {
		return g, nil
	}
	if !force && isSimple(g) {
		return g, nil
	}
	return simplifyGeom(g, false), nil
}

// SimplifyOGC is Simplify with OGC rules for lines: a line crossing itself is
// split at the crossing into simple parts.
func (e *Engine) SimplifyOGC(g geom.T, force bool, _ *spatialref.Frame) (geom.T, error) {
	if g == nil || g.Empty() {
		return g, nil
	}
	if !force && isSimple(g) && !linesSelfCross(g) {
		return g, nil
	}
	return simplifyGeom(g, true), nil
}

func simplifyGeom(g geom.T, ogc bool) geom.T {
	switch t := g.(type) {
	case *geom.Point:
		return t
	case *geom.MultiPoint:
		return geom.NewMultiPoint(geom.XY).MustSetCoords(uniquePoints(geomx.PointsOf(t)))
	case *geom.LineString, *geom.MultiLineString:
		var parts [][]geom.Coord
		for _, l := range linesOf(g) {
			if lineLength(l) == 0 {
				continue
			}
			if ogc {
				parts = append(parts, splitSelfCrossings(l)...)
			} else {
				parts = append(parts, l)
			}
		}
		if _, single := g.(*geom.LineString); single && len(parts) == 1 {
			return geom.NewLineString(geom.XY).MustSetCoords(parts[0])
		}
		return geom.NewMultiLineString(geom.XY).MustSetCoords(parts)
	case *geom.Polygon, *geom.MultiPolygon:
		out := unionPolygons([]geom.T{g})
		if _, multi := g.(*geom.MultiPolygon); multi {
			if p, ok := out.(*geom.Polygon); ok {
				mp := geom.NewMultiPolygon(geom.XY)
				if !p.Empty() {
					_ = mp.Push(p)
				}
				return mp
			}
		}
		return out
	case *geom.GeometryCollection:
		gc := geom.NewGeometryCollection()
		for _, sub := range t.Geoms() {
			if s := simplifyGeom(sub, ogc); !s.Empty() {
				gc.MustPush(s)
			}
		}
		return gc
	}
	return g
}

// isSimple checks for repeated vertices or points, collapsed parts and
// self-intersecting rings. Shells must be counter-clockwise, holes clockwise.
func isSimple(g geom.T) bool {
	switch t := g.(type) {
	case *geom.Point:
		return true
	case *geom.MultiPoint:
		pts := geomx.PointsOf(t)
		return len(uniquePoints(pts)) == len(pts)
	case *geom.GeometryCollection:
		for _, sub := range t.Geoms() {
			if !isSimple(sub) {
				return false
			}
		}
		return true
	}
	for _, l := range geomx.LinesOf(g) {
		cs := l.Coords()
		if len(dedupe(cs)) != len(cs) || lineLength(cs) == 0 {
			return false
		}
	}
	for _, p := range geomx.PolygonsOf(g) {
		for i, r := range ringsOfPolygon(p) {
			if len(dedupe(r)) != len(r) || len(r) < 4 {
				return false
			}
			a := geomx.SignedArea(r)
			if (i == 0 && a <= 0) || (i > 0 && a >= 0) {
				return false
			}
			if len(selfCrossings(r, true)) > 0 {
				return false
			}
		}
	}
	return true
}

func linesSelfCross(g geom.T) bool {
	for _, l := range linesOf(g) {
		if len(selfCrossings(l, false)) > 0 {
			return true
		}
	}
	return false
}

// selfCrossings lists points where non-adjacent segments of path meet.
func selfCrossings(path []geom.Coord, closed bool) []geom.Coord {
	n := len(path) - 1
	var out []geom.Coord
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			adjacent := j == i+1 || (closed && i == 0 && j == n-1)
			ts := segParams(path[i], path[i+1], path[j], path[j+1])
			for _, t := range ts {
				p := lerp(path[i], path[i+1], t)
				if adjacent && (same(p, path[i+1]) || same(p, path[i])) {
					continue
				}
				out = append(out, p)
			}
		}
	}
	return uniquePoints(out)
}

// splitSelfCrossings breaks a line at every point where it meets itself.
func splitSelfCrossings(path []geom.Coord) [][]geom.Coord {
	xs := selfCrossings(path, false)
	if len(xs) == 0 {
		return [][]geom.Coord{path}
	}
	var segs [][2]geom.Coord
	for _, x := range xs {
		segs = append(segs, [2]geom.Coord{x, x})
	}
	return splitLine(path, segs)
}

// Generalize drops vertices closer than maxDeviation to the simplified path,
// without introducing self-intersections. Paths that collapse below
// two distinct vertices, or rings left without area, are dropped when
// removeDegenerates is set and kept as collapsed otherwise.
func (e *Engine) Generalize(g geom.T, maxDeviation float64, removeDegenerates bool, _ *spatialref.Frame) (geom.T, error) {
	if g == nil || g.Empty() || maxDeviation <= 0 {
		return g, nil
	}
	return mapPaths(g, func(cs []geom.Coord, ring bool) []geom.Coord {
		if len(cs) < 3 || (ring && len(cs) < 4) {
			return keepDegenerate(cs, ring, removeDegenerates)
		}
		out := simplifyPath(cs, maxDeviation)
		if degenerate(out, ring) {
			return keepDegenerate(out, ring, removeDegenerates)
		}
		return out
	}), nil
}

func simplifyPath(cs []geom.Coord, tol float64) []geom.Coord {
	l := make(ct.LineString, len(cs))
	for i, c := range cs {
		l[i] = ct.Point{X: c[0], Y: c[1]}
	}
	s, _ := l.Simplify(tol).(ct.LineString)
	out := make([]geom.Coord, len(s))
	for i, p := range s {
		out[i] = geom.Coord{p.X, p.Y}
	}
	return out
}

func degenerate(cs []geom.Coord, ring bool) bool {
	if ring {
		return len(cs) < 4 || math.Abs(geomx.SignedArea(cs)) <= areaEps(cs)
	}
	return len(cs) < 2 || lineLength(cs) == 0
}

func keepDegenerate(cs []geom.Coord, ring, remove bool) []geom.Coord {
	if remove && degenerate(cs, ring) {
		return nil
	}
	return cs
}

// GeneralizeByArea runs Visvalingam-Whyatt, removing the vertices with the
// smallest effective area first. PercentReduction wins over MaxPointCount;
// with neither set g is returned as is. The vertex budget is shared between
// parts in proportion to their size. Lines keep their end points and at least
// two vertices, rings at least three distinct vertices plus the closing one.
func (e *Engine) GeneralizeByArea(g geom.T, p model.GeneralizeByAreaParams, _ *spatialref.Frame) (geom.T, error) {
	if g == nil || g.Empty() {
		return g, nil
	}
	total := 0
	mapPaths(g, func(cs []geom.Coord, _ bool) []geom.Coord {
		total += len(cs)
		return cs
	})

	var target int
	switch {
	case p.PercentReduction > 0:
		target = total - int(math.Round(float64(total)*math.Min(p.PercentReduction, 100)/100))
	case p.MaxPointCount > 0:
		target = min(total, p.MaxPointCount)
	default:
		return g, nil
	}

	return mapPaths(g, func(cs []geom.Coord, ring bool) []geom.Coord {
		keep := int(math.Round(float64(len(cs)) * float64(target) / float64(total)))
		out := visvalingam(cs, ring, keep)
		if degenerate(out, ring) {
			return keepDegenerate(out, ring, p.RemoveDegenerates)
		}
		return out
	}), nil
}

func visvalingam(cs []geom.Coord, ring bool, keep int) []geom.Coord {
	if ring {
		keep = max(keep, 4)
	} else {
		keep = max(keep, 2)
	}
	if len(cs) <= keep {
		return cs
	}
	pts := make([]orb.Point, len(cs))
	for i, c := range cs {
		pts[i] = orb.Point{c[0], c[1]}
	}
	vw := simplify.VisvalingamKeep(keep)
	if ring {
		pts = vw.Ring(orb.Ring(pts))
	} else {
		pts = vw.LineString(orb.LineString(pts))
	}
	out := make([]geom.Coord, len(pts))
	for i, pt := range pts {
		out[i] = geom.Coord{pt[0], pt[1]}
	}
	return out
}
