package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
)

// esriGeometry is the ArcGIS REST JSON geometry object.
type esriGeometry struct {
	X      *float64       `json:"x,omitempty"`
	Y      *float64       `json:"y,omitempty"`
	Points [][]float64    `json:"points,omitempty"`
	Paths  [][][]float64  `json:"paths,omitempty"`
	Rings  [][][]float64  `json:"rings,omitempty"`
	SR     map[string]any `json:"spatialReference,omitempty"`
}

func toCoords(pts [][]float64) ([]geom.Coord, error) {
	out := make([]geom.Coord, len(pts))
	for i, p := range pts {
		if len(p) < 2 {
			return nil, fmt.Errorf("json: coordinate %d has %d values", i, len(p))
		}
		out[i] = geom.Coord{p[0], p[1]}
	}
	return out, nil
}

func fromCoords(cs []geom.Coord) [][]float64 {
	out := make([][]float64, len(cs))
	for i, c := range cs {
		out[i] = []float64{c[0], c[1]}
	}
	return out
}

func decodeEsriJSON(s string) (geom.T, error) {
	var eg esriGeometry
	if err := json.Unmarshal([]byte(s), &eg); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	switch {
	case eg.X != nil && eg.Y != nil:
		return geom.NewPointFlat(geom.XY, []float64{*eg.X, *eg.Y}), nil
	case eg.Points != nil:
		pts, err := toCoords(eg.Points)
		if err != nil {
			return nil, err
		}
		return geomx.Puntal(pts, true), nil
	case eg.Paths != nil:
		paths := make([][]geom.Coord, 0, len(eg.Paths))
		for _, p := range eg.Paths {
			cs, err := toCoords(p)
			if err != nil {
				return nil, err
			}
			paths = append(paths, cs)
		}
		return geomx.Linear(paths), nil
	case eg.Rings != nil:
		rings := make([][]geom.Coord, 0, len(eg.Rings))
		for _, r := range eg.Rings {
			cs, err := toCoords(r)
			if err != nil {
				return nil, err
			}
			rings = append(rings, cs)
		}
		return geomx.Polygonal(geomx.GroupRings(rings, true)), nil
	}
	return nil, errors.New("json: no geometry members")
}

func encodeEsriJSON(g geom.T) (string, error) {
	var eg esriGeometry
	switch t := g.(type) {
	case *geom.Point:
		if t.Empty() {
			return "{}", nil
		}
		x, y := t.X(), t.Y()
		eg.X, eg.Y = &x, &y
	case *geom.MultiPoint:
		eg.Points = fromCoords(geomx.PointsOf(t))
	case *geom.LineString, *geom.MultiLineString:
		eg.Paths = [][][]float64{}
		for _, l := range geomx.LinesOf(t) {
			eg.Paths = append(eg.Paths, fromCoords(l.Coords()))
		}
	case *geom.Polygon, *geom.MultiPolygon:
		eg.Rings = [][][]float64{}
		for _, p := range geomx.PolygonsOf(t) {
			for i, ring := range p.Coords() {
				ring = geomx.Close(ring)
				cw := geomx.SignedArea(ring) < 0
				if (i == 0) != cw {
					ring = geomx.Reverse(ring)
				}
				eg.Rings = append(eg.Rings, fromCoords(ring))
			}
		}
	default:
		return "", fmt.Errorf("json: %w: %T", ErrUnsupportedEncoding, g)
	}
	b, err := json.Marshal(eg)
	if err != nil {
		return "", fmt.Errorf("json: %w", err)
	}
	return string(b), nil
}
