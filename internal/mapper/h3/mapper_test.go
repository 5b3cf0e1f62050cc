package h3mapper

import (
	"reflect"
	"sort"
	"testing"

	"github.com/twpayne/go-geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
)

func rect(x1, y1, x2, y2 float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}, {x1, y1},
	}})
}

func TestPolygon_SortedUniqueDeterministic(t *testing.T) {
	m := New()
	poly := rect(18.00, 59.32, 18.12, 59.38)

	cells, err := m.CellsForGeometry(poly, 9)
	if err != nil {
		t.Fatalf("CellsForGeometry: %v", err)
	}
	if len(cells) == 0 {
		t.Fatalf("expected non-empty coverage")
	}
	if !sort.StringsAreSorted(cells) || hasDups(cells) {
		t.Fatalf("cells must be sorted + unique")
	}
	again, err := m.CellsForGeometry(poly, 9)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(cells, again) {
		t.Fatalf("expected identical output for identical input")
	}

	bigger, err := m.CellsForGeometry(rect(17.95, 59.30, 18.15, 59.40), 9)
	if err != nil {
		t.Fatalf("bbox: %v", err)
	}
	if len(cells) > len(bigger) {
		t.Fatalf("inner polygon coverage larger than outer (unexpected)")
	}
}

func TestPoints_MapToContainingCell(t *testing.T) {
	m := New()
	want, err := h3.LatLngToCell(h3.LatLng{Lat: 59.3293, Lng: 18.0686}, 8)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	mp := geom.NewMultiPoint(geom.XY).MustSetCoords([]geom.Coord{{18.0686, 59.3293}, {18.0686, 59.3293}})

	cells, err := m.CellsForGeometry(mp, 8)
	if err != nil {
		t.Fatalf("CellsForGeometry: %v", err)
	}
	if len(cells) != 1 || cells[0] != want.String() {
		t.Fatalf("cells=%v want [%s]", cells, want)
	}
}

func TestCellPolygons_ClosedCounterClockwiseRings(t *testing.T) {
	m := New()
	cells, err := m.CellsForGeometry(geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{13.0038, 55.6050}), 7)
	if err != nil {
		t.Fatalf("CellsForGeometry: %v", err)
	}
	mp, err := m.CellPolygons(cells)
	if err != nil {
		t.Fatalf("CellPolygons: %v", err)
	}
	if mp.NumPolygons() != 1 {
		t.Fatalf("polygons=%d want 1", mp.NumPolygons())
	}
	ring := mp.Polygon(0).LinearRing(0).Coords()
	if len(ring) < 6 {
		t.Fatalf("hexagon ring too short: %d", len(ring))
	}
	if first, last := ring[0], ring[len(ring)-1]; first[0] != last[0] || first[1] != last[1] {
		t.Fatalf("ring not closed")
	}
	if geomx.SignedArea(ring) <= 0 {
		t.Fatalf("ring should be counter-clockwise")
	}
	if !geomx.PointInRing(geom.Coord{13.0038, 55.6050}, ring) {
		t.Fatalf("cell polygon does not contain its point")
	}
}

func TestBounds_InvalidResolutionAndBadCell(t *testing.T) {
	m := New()
	poly := rect(11, 55, 12, 56)

	if _, err := m.CellsForGeometry(poly, -1); err == nil {
		t.Fatalf("expected error for res=-1")
	}
	if _, err := m.CellsForGeometry(poly, 16); err == nil {
		t.Fatalf("expected error for res=16")
	}
	if _, err := m.CellPolygons([]string{"not-a-cell"}); err == nil {
		t.Fatalf("expected error for invalid cell")
	}
}

func hasDups(s []string) bool {
	seen := map[string]struct{}{}
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
