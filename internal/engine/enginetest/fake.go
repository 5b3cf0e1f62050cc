// Package enginetest provides a recording engine.Engine for dispatcher and
// pipeline tests.
package enginetest

import (
	"math/rand"
	"sync"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/engine"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

var _ engine.Engine = (*Fake)(nil)

// Call is one recorded engine invocation.
type Call struct {
	Op    string
	Frame string
	Args  []any
}

// Fake records every call and returns its input geometry unchanged unless a
// hook overrides the result. Err, when set, is returned by every method.
type Fake struct {
	mu    sync.Mutex
	calls []Call

	Err error

	// PredicateResult answers Predicate and Relate.
	PredicateResult bool
	// Measure answers Distance, GeodeticLength and GeodeticArea.
	Measure float64
	// CutResult answers Cut; nil means the cutter missed.
	CutResult []geom.T
	// Result, when set, replaces the output of every geometry-returning
	// method.
	Result func(op string, g geom.T) geom.T
}

func (f *Fake) record(op string, fr *spatialref.Frame, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Frame: fr.String(), Args: args})
}

// Calls returns a copy of the recorded calls in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Ops lists the recorded operation names in order.
func (f *Fake) Ops() []string {
	var out []string
	for _, c := range f.Calls() {
		out = append(out, c.Op)
	}
	return out
}

func (f *Fake) geom(op string, fr *spatialref.Frame, g geom.T, args ...any) (geom.T, error) {
	f.record(op, fr, append([]any{g}, args...)...)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result != nil {
		return f.Result(op, g), nil
	}
	return g, nil
}

// Project records each pulled item, so laziness is observable through Calls.
func (f *Fake) Project(in cursor.Cursor, from, to *spatialref.Frame) cursor.Cursor {
	return cursor.Map(in, func(it cursor.Item) (cursor.Item, error) {
		f.record("Project", to, from.String(), it.Geom)
		if f.Err != nil {
			return cursor.Item{}, f.Err
		}
		return it, nil
	})
}

// Union returns the first geometry it pulls.
func (f *Fake) Union(in cursor.Cursor, fr *spatialref.Frame) (geom.T, error) {
	gs, err := cursor.CollectGeoms(in)
	if err != nil {
		return nil, err
	}
	var first geom.T = geom.NewGeometryCollection()
	if len(gs) > 0 {
		first = gs[0]
	}
	return f.geom("Union", fr, first, len(gs))
}

func (f *Fake) Difference(a, b geom.T, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("Difference", fr, a, b)
}

func (f *Fake) Intersection(a, b geom.T, mask int, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("Intersection", fr, a, b, mask)
}

func (f *Fake) SymmetricDifference(a, b geom.T, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("SymmetricDifference", fr, a, b)
}

func (f *Fake) Clip(g geom.T, env model.Envelope, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("Clip", fr, g, env)
}

func (f *Fake) Cut(g, cutter geom.T, considerTouch bool, fr *spatialref.Frame) ([]geom.T, error) {
	f.record("Cut", fr, g, cutter, considerTouch)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.CutResult, nil
}

func (f *Fake) Buffer(g geom.T, distance float64, p model.BufferParams, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("Buffer", fr, g, distance, p)
}

func (f *Fake) GeodesicBuffer(g geom.T, distance float64, p model.BufferParams, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("GeodesicBuffer", fr, g, distance, p)
}

func (f *Fake) Offset(g geom.T, p model.OffsetParams, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("Offset", fr, g, p)
}

func (f *Fake) ConvexHull(g geom.T, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("ConvexHull", fr, g)
}

func (f *Fake) Boundary(g geom.T, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("Boundary", fr, g)
}

func (f *Fake) EnclosingCircle(g geom.T, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("EnclosingCircle", fr, g)
}

func (f *Fake) RandomPoints(g geom.T, perSquareKm float64, _ *rand.Rand, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("RandomPoints", fr, g, perSquareKm)
}

func (f *Fake) LabelPoint(g geom.T, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("LabelPoint", fr, g)
}

func (f *Fake) H3Cover(g geom.T, resolution int, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("H3Cover", fr, g, resolution)
}

func (f *Fake) Densify(g geom.T, maxLength float64, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("Densify", fr, g, maxLength)
}

func (f *Fake) GeodeticDensify(g geom.T, maxLength float64, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("GeodeticDensify", fr, g, maxLength)
}

func (f *Fake) Simplify(g geom.T, force bool, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("Simplify", fr, g, force)
}

func (f *Fake) SimplifyOGC(g geom.T, force bool, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("SimplifyOGC", fr, g, force)
}

func (f *Fake) Generalize(g geom.T, maxDeviation float64, removeDegenerates bool, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("Generalize", fr, g, maxDeviation, removeDegenerates)
}

func (f *Fake) GeneralizeByArea(g geom.T, p model.GeneralizeByAreaParams, fr *spatialref.Frame) (geom.T, error) {
	return f.geom("GeneralizeByArea", fr, g, p)
}

func (f *Fake) Predicate(p engine.Predicate, a, b geom.T, fr *spatialref.Frame) (bool, error) {
	f.record("Predicate:"+p.String(), fr, a, b)
	return f.PredicateResult, f.Err
}

func (f *Fake) Relate(a, b geom.T, pattern string, fr *spatialref.Frame) (bool, error) {
	f.record("Relate", fr, a, b, pattern)
	return f.PredicateResult, f.Err
}

func (f *Fake) Distance(a, b geom.T, fr *spatialref.Frame) (float64, error) {
	f.record("Distance", fr, a, b)
	return f.Measure, f.Err
}

func (f *Fake) GeodeticLength(g geom.T, fr *spatialref.Frame) (float64, error) {
	f.record("GeodeticLength", fr, g)
	return f.Measure, f.Err
}

func (f *Fake) GeodeticArea(g geom.T, fr *spatialref.Frame) (float64, error) {
	f.record("GeodeticArea", fr, g)
	return f.Measure, f.Err
}
