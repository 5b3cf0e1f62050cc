package planar

import (
	"fmt"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

func (e *Engine) Project(in cursor.Cursor, from, to *spatialref.Frame) cursor.Cursor {
	if spatialref.Same(from, to) {
		return in
	}
	return cursor.Deferred(func() (cursor.Cursor, error) {
		tr, err := spatialref.NewTransform(from, to)
		if err != nil {
			return nil, operr.Invalid("project", "%v", err)
		}
		return cursor.Map(in, func(it cursor.Item) (cursor.Item, error) {
			g, err := transformGeom(it.Geom, tr)
			if err != nil {
				return cursor.Item{}, fmt.Errorf("project %s -> %s: %w", from, to, err)
			}
			return it.WithGeom(g), nil
		}), nil
	})
}

// transformGeom returns a transformed copy of g; g itself is left untouched.
func transformGeom(g geom.T, tr spatialref.Transformer) (geom.T, error) {
	var out geom.T
	switch t := g.(type) {
	case *geom.Point:
		out = t.Clone()
	case *geom.MultiPoint:
		out = t.Clone()
	case *geom.LineString:
		out = t.Clone()
	case *geom.MultiLineString:
		out = t.Clone()
	case *geom.Polygon:
		out = t.Clone()
	case *geom.MultiPolygon:
		out = t.Clone()
	case *geom.GeometryCollection:
		gc := geom.NewGeometryCollection()
		for _, sub := range t.Geoms() {
			s, err := transformGeom(sub, tr)
			if err != nil {
				return nil, err
			}
			if err := gc.Push(s); err != nil {
				return nil, err
			}
		}
		return gc, nil
	default:
		return nil, unsupported("project", g)
	}

	flat := out.FlatCoords()
	stride := out.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		x, y, err := tr(flat[i], flat[i+1])
		if err != nil {
			return nil, err
		}
		flat[i], flat[i+1] = x, y
	}
	return out, nil
}

// transformWith applies the from -> to transform to a single geometry.
func transformWith(g geom.T, from, to *spatialref.Frame) (geom.T, error) {
	if spatialref.Same(from, to) {
		return g, nil
	}
	tr, err := spatialref.NewTransform(from, to)
	if err != nil {
		return nil, err
	}
	return transformGeom(g, tr)
}
