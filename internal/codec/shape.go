package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
)

// ESRI shape record types (single-geometry records, no file header).
const (
	shapeNull       int32 = 0
	shapePoint      int32 = 1
	shapePolyLine   int32 = 3
	shapePolygon    int32 = 5
	shapeMultiPoint int32 = 8
)

var le = binary.LittleEndian

type shapeReader struct {
	b   []byte
	off int
	err error
}

func (r *shapeReader) i32() int32 {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.b) {
		r.err = errors.New("shape: truncated record")
		return 0
	}
	v := int32(le.Uint32(r.b[r.off:]))
	r.off += 4
	return v
}

func (r *shapeReader) f64() float64 {
	if r.err != nil {
		return 0
	}
	if r.off+8 > len(r.b) {
		r.err = errors.New("shape: truncated record")
		return 0
	}
	v := math.Float64frombits(le.Uint64(r.b[r.off:]))
	r.off += 8
	return v
}

func (r *shapeReader) count(limit int) int {
	n := int(r.i32())
	if r.err == nil && (n < 0 || n > limit) {
		r.err = fmt.Errorf("shape: bad count %d", n)
		return 0
	}
	return n
}

func decodeShape(b []byte) (geom.T, error) {
	r := &shapeReader{b: b}
	typ := r.i32()
	if r.err != nil {
		return nil, r.err
	}
	switch typ {
	case shapeNull:
		return geom.NewPoint(geom.XY), nil
	case shapePoint:
		x, y := r.f64(), r.f64()
		if r.err != nil {
			return nil, r.err
		}
		return geom.NewPointFlat(geom.XY, []float64{x, y}), nil
	case shapeMultiPoint:
		for range 4 {
			r.f64()
		}
		n := r.count(len(b) / 16)
		pts := make([]geom.Coord, 0, n)
		for range n {
			pts = append(pts, geom.Coord{r.f64(), r.f64()})
		}
		if r.err != nil {
			return nil, r.err
		}
		return geomx.Puntal(pts, true), nil
	case shapePolyLine, shapePolygon:
		for range 4 {
			r.f64()
		}
		numParts := r.count(len(b) / 4)
		numPoints := r.count(len(b) / 16)
		parts := make([]int, numParts)
		for i := range parts {
			parts[i] = int(r.i32())
		}
		pts := make([]geom.Coord, numPoints)
		for i := range pts {
			pts[i] = geom.Coord{r.f64(), r.f64()}
		}
		if r.err != nil {
			return nil, r.err
		}
		paths := make([][]geom.Coord, 0, numParts)
		for i, start := range parts {
			end := numPoints
			if i+1 < numParts {
				end = parts[i+1]
			}
			if start < 0 || end > numPoints || start > end {
				return nil, fmt.Errorf("shape: bad part offsets %d..%d", start, end)
			}
			paths = append(paths, pts[start:end])
		}
		if typ == shapePolyLine {
			return geomx.Linear(paths), nil
		}
		return geomx.Polygonal(geomx.GroupRings(paths, true)), nil
	default:
		return nil, fmt.Errorf("shape: unsupported shape type %d", typ)
	}
}

func encodeShape(g geom.T) ([]byte, error) {
	if g.Empty() {
		out := make([]byte, 4)
		le.PutUint32(out, uint32(shapeNull))
		return out, nil
	}
	switch t := g.(type) {
	case *geom.Point:
		out := make([]byte, 20)
		le.PutUint32(out, uint32(shapePoint))
		le.PutUint64(out[4:], math.Float64bits(t.X()))
		le.PutUint64(out[12:], math.Float64bits(t.Y()))
		return out, nil
	case *geom.MultiPoint:
		pts := geomx.PointsOf(t)
		out := make([]byte, 0, 40+16*len(pts))
		out = le.AppendUint32(out, uint32(shapeMultiPoint))
		out = appendBox(out, g)
		out = le.AppendUint32(out, uint32(len(pts)))
		for _, p := range pts {
			out = appendXY(out, p)
		}
		return out, nil
	case *geom.LineString, *geom.MultiLineString:
		var paths [][]geom.Coord
		for _, l := range geomx.LinesOf(t) {
			paths = append(paths, l.Coords())
		}
		return appendParts(nil, shapePolyLine, g, paths), nil
	case *geom.Polygon, *geom.MultiPolygon:
		var rings [][]geom.Coord
		for _, p := range geomx.PolygonsOf(t) {
			for i, ring := range p.Coords() {
				ring = geomx.Close(ring)
				// shells clockwise, holes counter-clockwise
				cw := geomx.SignedArea(ring) < 0
				if (i == 0) != cw {
					ring = geomx.Reverse(ring)
				}
				rings = append(rings, ring)
			}
		}
		return appendParts(nil, shapePolygon, g, rings), nil
	default:
		return nil, fmt.Errorf("shape: %w: %T", ErrUnsupportedEncoding, g)
	}
}

func appendParts(out []byte, typ int32, g geom.T, paths [][]geom.Coord) []byte {
	n := 0
	for _, p := range paths {
		n += len(p)
	}
	out = le.AppendUint32(out, uint32(typ))
	out = appendBox(out, g)
	out = le.AppendUint32(out, uint32(len(paths)))
	out = le.AppendUint32(out, uint32(n))
	off := 0
	for _, p := range paths {
		out = le.AppendUint32(out, uint32(off))
		off += len(p)
	}
	for _, p := range paths {
		for _, c := range p {
			out = appendXY(out, c)
		}
	}
	return out
}

func appendBox(out []byte, g geom.T) []byte {
	b := g.Bounds()
	for _, v := range []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)} {
		out = le.AppendUint64(out, math.Float64bits(v))
	}
	return out
}

func appendXY(out []byte, c geom.Coord) []byte {
	out = le.AppendUint64(out, math.Float64bits(c[0]))
	return le.AppendUint64(out, math.Float64bits(c[1]))
}
