// Package cursor provides lazy, single-pass sequences of geometries.
package cursor

import (
	"github.com/twpayne/go-geom"
)

// Item is one geometry flowing through a cursor. HasID is set when the caller
// supplied an identifier for it.
type Item struct {
	Geom  geom.T
	ID    int64
	HasID bool
}

// WithGeom returns a copy of it carrying g and the same identifier.
func (it Item) WithGeom(g geom.T) Item {
	it.Geom = g
	return it
}

// Cursor is pulled with Next until it reports false or an error. A cursor is
// not restartable and must have a single consumer.
type Cursor interface {
	Next() (Item, bool, error)
}

// Func adapts a closure to Cursor.
type Func func() (Item, bool, error)

func (f Func) Next() (Item, bool, error) { return f() }

type sliceCursor struct {
	items []Item
	idx   int
}

func (s *sliceCursor) Next() (Item, bool, error) {
	if s.idx >= len(s.items) {
		return Item{}, false, nil
	}
	it := s.items[s.idx]
	s.idx++
	return it, true, nil
}

func FromItems(items ...Item) Cursor { return &sliceCursor{items: items} }

// FromGeoms yields gs without identifiers.
func FromGeoms(gs ...geom.T) Cursor {
	items := make([]Item, len(gs))
	for i, g := range gs {
		items[i] = Item{Geom: g}
	}
	return &sliceCursor{items: items}
}

func Empty() Cursor { return &sliceCursor{} }

// Map lazily applies fn to each pulled item. The first error ends the cursor.
func Map(c Cursor, fn func(Item) (Item, error)) Cursor {
	done := false
	return Func(func() (Item, bool, error) {
		if done {
			return Item{}, false, nil
		}
		it, ok, err := c.Next()
		if err != nil || !ok {
			done = true
			return Item{}, false, err
		}
		out, err := fn(it)
		if err != nil {
			done = true
			return Item{}, false, err
		}
		return out, true, nil
	})
}

// MapIndexed is Map with the zero-based position of each item.
func MapIndexed(c Cursor, fn func(int, Item) (Item, error)) Cursor {
	i := -1
	return Map(c, func(it Item) (Item, error) {
		i++
		return fn(i, it)
	})
}

// FlatMap lazily expands each pulled item into zero or more items.
func FlatMap(c Cursor, fn func(Item) ([]Item, error)) Cursor {
	var pending []Item
	done := false
	return Func(func() (Item, bool, error) {
		for len(pending) == 0 {
			if done {
				return Item{}, false, nil
			}
			it, ok, err := c.Next()
			if err != nil || !ok {
				done = true
				return Item{}, false, err
			}
			if pending, err = fn(it); err != nil {
				done = true
				pending = nil
				return Item{}, false, err
			}
		}
		out := pending[0]
		pending = pending[1:]
		return out, true, nil
	})
}

// Deferred builds its cursor on the first pull, so work done by build is
// skipped when nobody consumes the result.
func Deferred(build func() (Cursor, error)) Cursor {
	var inner Cursor
	return Func(func() (Item, bool, error) {
		if inner == nil {
			c, err := build()
			if err != nil {
				inner = Empty()
				return Item{}, false, err
			}
			inner = c
		}
		return inner.Next()
	})
}

// Collect drains c.
func Collect(c Cursor) ([]Item, error) {
	var out []Item
	for {
		it, ok, err := c.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, it)
	}
}

// CollectGeoms drains c, dropping identifiers.
func CollectGeoms(c Cursor) ([]geom.T, error) {
	items, err := Collect(c)
	if err != nil {
		return nil, err
	}
	gs := make([]geom.T, len(items))
	for i, it := range items {
		gs[i] = it.Geom
	}
	return gs, nil
}

// First pulls a single item; ok is false when c is exhausted.
func First(c Cursor) (Item, bool, error) {
	if c == nil {
		return Item{}, false, nil
	}
	return c.Next()
}

// StripIDs drops identifiers from every item.
func StripIDs(c Cursor) Cursor {
	return Map(c, func(it Item) (Item, error) {
		return Item{Geom: it.Geom}, nil
	})
}
