package cursor

import (
	"errors"
	"testing"

	"github.com/twpayne/go-geom"
)

func pt(x, y float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{x, y})
}

func TestMap_IsLazyAndKeepsIDs(t *testing.T) {
	pulled := 0
	src := Func(func() (Item, bool, error) {
		if pulled == 3 {
			return Item{}, false, nil
		}
		pulled++
		return Item{Geom: pt(float64(pulled), 0), ID: int64(pulled * 10), HasID: true}, true, nil
	})

	m := Map(src, func(it Item) (Item, error) {
		p := it.Geom.(*geom.Point)
		return it.WithGeom(pt(p.X()*2, p.Y())), nil
	})
	if pulled != 0 {
		t.Fatalf("map pulled %d items before first Next", pulled)
	}

	it, ok, err := m.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if pulled != 1 {
		t.Fatalf("pulled=%d want 1", pulled)
	}
	if it.ID != 10 || !it.HasID || it.Geom.(*geom.Point).X() != 2 {
		t.Fatalf("unexpected item: %+v", it)
	}

	rest, err := Collect(m)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rest) != 2 || rest[1].ID != 30 {
		t.Fatalf("unexpected rest: %+v", rest)
	}
}

func TestMap_ErrorEndsCursor(t *testing.T) {
	boom := errors.New("boom")
	m := Map(FromGeoms(pt(0, 0), pt(1, 1)), func(Item) (Item, error) { return Item{}, boom })
	if _, _, err := m.Next(); !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
	if _, ok, err := m.Next(); ok || err != nil {
		t.Fatalf("cursor should be exhausted after error, ok=%v err=%v", ok, err)
	}
}

func TestFlatMap(t *testing.T) {
	c := FlatMap(FromGeoms(pt(0, 0), pt(1, 1), pt(2, 2)), func(it Item) ([]Item, error) {
		if it.Geom.(*geom.Point).X() == 1 {
			return nil, nil
		}
		return []Item{it, it}, nil
	})
	items, err := Collect(c)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("len=%d want 4", len(items))
	}
}

func TestDeferred_BuildsOnFirstPull(t *testing.T) {
	built := false
	c := Deferred(func() (Cursor, error) {
		built = true
		return FromGeoms(pt(0, 0)), nil
	})
	if built {
		t.Fatalf("built before pull")
	}
	if _, ok, _ := c.Next(); !ok || !built {
		t.Fatalf("expected one item after build")
	}
	if _, ok, _ := c.Next(); ok {
		t.Fatalf("expected exhaustion")
	}
}

func TestStripIDs(t *testing.T) {
	c := StripIDs(FromItems(Item{Geom: pt(0, 0), ID: 5, HasID: true}))
	it, _, _ := c.Next()
	if it.HasID || it.ID != 0 {
		t.Fatalf("ids not stripped: %+v", it)
	}
}
