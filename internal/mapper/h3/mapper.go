package h3mapper

import (
	"errors"
	"fmt"
	"sort"

	"github.com/twpayne/go-geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
)

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

func (m *Mapper) CellsForGeometry(g geom.T, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	if g == nil || g.Empty() {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(cells []string) {
		for _, c := range cells {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}

	for pi, p := range geomx.PolygonsOf(g) {
		if p.NumLinearRings() == 0 {
			continue
		}
		outer := toLoop(p.LinearRing(0).Coords())
		if len(outer) < 3 {
			return nil, fmt.Errorf("polygon %d outer ring has < 3 distinct vertices", pi)
		}
		var holes []h3.GeoLoop
		for i := 1; i < p.NumLinearRings(); i++ {
			h := toLoop(p.LinearRing(i).Coords())
			if len(h) < 3 {
				return nil, fmt.Errorf("polygon %d hole %d has < 3 distinct vertices", pi, i-1)
			}
			holes = append(holes, h)
		}
		cells, err := polyfillOne(outer, holes, res)
		if err != nil {
			return nil, err
		}
		add(cells)
	}

	// lines are covered vertex by vertex
	var pts []geom.Coord
	for _, l := range geomx.LinesOf(g) {
		pts = append(pts, l.Coords()...)
	}
	pts = append(pts, geomx.PointsOf(g)...)
	for _, c := range pts {
		cell, err := h3.LatLngToCell(h3.LatLng{Lat: c[1], Lng: c[0]}, res)
		if err != nil {
			return nil, fmt.Errorf("h3 cell for (%v, %v): %w", c[0], c[1], err)
		}
		add([]string{cell.String()})
	}

	sort.Strings(out)
	return out, nil
}

func (m *Mapper) CellPolygons(cells []string) (*geom.MultiPolygon, error) {
	mp := geom.NewMultiPolygon(geom.XY)
	for _, s := range cells {
		var c h3.Cell
		if err := c.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("parse cell: %w", err)
		}
		if !c.IsValid() {
			return nil, fmt.Errorf("invalid h3 cell %q", s)
		}
		b, err := c.Boundary()
		if err != nil {
			return nil, fmt.Errorf("boundary: %w", err)
		}
		if len(b) < 3 {
			return nil, fmt.Errorf("degenerate boundary for %s", s)
		}
		ring := make([]geom.Coord, 0, len(b)+1)
		for _, ll := range b {
			ring = append(ring, geom.Coord{ll.Lng, ll.Lat})
		}
		ring = append(ring, ring[0])
		if geomx.SignedArea(ring) < 0 {
			ring = geomx.Reverse(ring)
		}
		if err := mp.Push(geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{ring})); err != nil {
			return nil, fmt.Errorf("cell %s: %w", s, err)
		}
	}
	return mp, nil
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// Convert a lon/lat ring to an h3.GeoLoop (in degrees), dropping the closing
// vertex when present.
func toLoop(coords []geom.Coord) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(coords))
	for _, c := range coords {
		loop = append(loop, h3.LatLng{Lat: c[1], Lng: c[0]})
	}
	if len(loop) >= 2 {
		last := loop[len(loop)-1]
		first := loop[0]
		if last.Lat == first.Lat && last.Lng == first.Lng {
			loop = loop[:len(loop)-1]
		}
	}
	return loop
}

// polyfillOne computes unique cells and returns them sorted for determinism.
func polyfillOne(outer h3.GeoLoop, holes []h3.GeoLoop, res int) ([]string, error) {
	if len(outer) < 3 {
		return nil, errors.New("outer ring has < 3 vertices")
	}
	poly := h3.GeoPolygon{
		GeoLoop: outer,
		Holes:   holes,
	}

	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make([]string, 0, len(indexes))
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		s := idx.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
