package planar

import (
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/engine"
	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

// matrix is a DE-9IM intersection matrix; rows are the interior, boundary and
// exterior of a, columns those of b. -1 is F.
type matrix [3][3]int

func (m matrix) String() string {
	var sb strings.Builder
	for _, row := range m {
		for _, d := range row {
			if d < 0 {
				sb.WriteByte('F')
			} else {
				sb.WriteByte(byte('0' + d))
			}
		}
	}
	return sb.String()
}

func (m *matrix) set(la, lb location, d int) {
	i, j := cell(la), cell(lb)
	m[i][j] = max(m[i][j], d)
}

func cell(l location) int {
	switch l {
	case interior:
		return 0
	case boundary:
		return 1
	}
	return 2
}

// matches reports whether m satisfies a nine character pattern over
// T, F, * and 0-2.
func (m matrix) matches(pattern string) bool {
	for k := range 9 {
		d := m[k/3][k%3]
		switch c := pattern[k]; c {
		case '*':
		case 'T', 't':
			if d < 0 {
				return false
			}
		case 'F', 'f':
			if d >= 0 {
				return false
			}
		default:
			if d != int(c-'0') {
				return false
			}
		}
	}
	return true
}

func validPattern(p string) bool {
	if len(p) != 9 {
		return false
	}
	for _, c := range p {
		if !strings.ContainsRune("TtFf*012", c) {
			return false
		}
	}
	return true
}

// boundaryDim is the dimension of g's boundary, -1 when it has none.
func boundaryDim(g geom.T) int {
	switch geomx.Dimension(g) {
	case 2:
		return 1
	case 1:
		if len(lineBoundaryPoints(g)) > 0 {
			return 0
		}
	}
	return -1
}

// relate computes the matrix from evidence: shared and crossing nodes give
// dimension 0, pieces of linework split against the other geometry give 1,
// and overlapping or leftover area gives 2.
func relate(a, b geom.T) matrix {
	var m matrix
	for i := range m {
		for j := range m[i] {
			m[i][j] = -1
		}
	}
	m[2][2] = 2

	aEmpty, bEmpty := a == nil || a.Empty(), b == nil || b.Empty()
	switch {
	case aEmpty && bEmpty:
		return m
	case aEmpty:
		m[2][0], m[2][1] = geomx.Dimension(b), boundaryDim(b)
		return m
	case bEmpty:
		m[0][2], m[1][2] = geomx.Dimension(a), boundaryDim(a)
		return m
	}

	m.nodes(a, b)
	m.pieces(a, b, false)
	m.pieces(b, a, true)

	pa, pb := isPolygonal(a), isPolygonal(b)
	switch {
	case pa && pb:
		ca, cb := toClip(a), toClip(b)
		if polygonArea(fromClip(ca.Intersection(cb))) > 0 {
			m[0][0] = 2
		}
		if polygonArea(fromClip(ca.Difference(cb))) > 0 {
			m[0][2] = 2
		}
		if polygonArea(fromClip(cb.Difference(ca))) > 0 {
			m[2][0] = 2
		}
	case pa:
		m[0][2] = 2
	case pb:
		m[2][0] = 2
	}
	return m
}

// nodes classifies every vertex, point and crossing of the two geometries.
func (m *matrix) nodes(a, b geom.T) {
	pts := append(geomx.AllCoords(a), geomx.AllCoords(b)...)
	segsB := segments(b)
	for _, s := range segments(a) {
		pts = append(pts, crossings(s[0], s[1], segsB)...)
	}
	for _, p := range uniquePoints(pts) {
		if la, lb := locate(p, a), locate(p, b); la != exterior || lb != exterior {
			m.set(la, lb, 0)
		}
	}
}

// pieces splits g's linework at other's segments and points and classifies
// each piece. Line parts lie in g's interior, polygon rings on its boundary.
func (m *matrix) pieces(g, other geom.T, transpose bool) {
	segs := segments(other)
	for _, p := range geomx.PointsOf(other) {
		segs = append(segs, [2]geom.Coord{p, p})
	}
	classify := func(paths [][]geom.Coord, lg location) {
		for _, path := range paths {
			for _, piece := range splitLine(path, segs) {
				lo := locate(pieceProbe(piece), other)
				if transpose {
					m.set(lo, lg, 1)
				} else {
					m.set(lg, lo, 1)
				}
			}
		}
	}
	classify(linesOf(g), interior)
	classify(ringsOf(g), boundary)
}

func (e *Engine) Relate(a, b geom.T, pattern string, _ *spatialref.Frame) (bool, error) {
	if !validPattern(pattern) {
		return false, operr.Invalid("relate", "bad DE-9IM pattern %q", pattern)
	}
	return relate(a, b).matches(pattern), nil
}

func (e *Engine) Predicate(p engine.Predicate, a, b geom.T, _ *spatialref.Frame) (bool, error) {
	m := relate(a, b)
	da, db := geomx.Dimension(a), geomx.Dimension(b)
	switch p {
	case engine.Equals:
		if da < 0 && db < 0 {
			return true, nil
		}
		return m.matches("T*F**FFF*"), nil
	case engine.Disjoint:
		return m.matches("FF*FF****"), nil
	case engine.Intersects:
		return !m.matches("FF*FF****"), nil
	case engine.Within:
		return m.matches("T*F**F***"), nil
	case engine.Contains:
		return m.matches("T*****FF*"), nil
	case engine.Crosses:
		switch {
		case da < 0 || db < 0:
			return false, nil
		case da == 1 && db == 1:
			return m.matches("0********"), nil
		case da < db:
			return m.matches("T*T******"), nil
		case da > db:
			return m.matches("T*****T**"), nil
		}
		return false, nil
	case engine.Touches:
		if da == 0 && db == 0 {
			return false, nil
		}
		return m.matches("FT*******") || m.matches("F**T*****") || m.matches("F***T****"), nil
	case engine.Overlaps:
		switch {
		case da != db || da < 0:
			return false, nil
		case da == 1:
			return m.matches("1*T***T**"), nil
		}
		return m.matches("T*T***T**"), nil
	}
	return false, operr.Invalid("relate", "unknown predicate %v", p)
}
