package dispatch

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/engine/enginetest"
)

func pt(x, y float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{x, y})
}

func withIDs(ids ...int64) cursor.Cursor {
	items := make([]cursor.Item, len(ids))
	for i, id := range ids {
		items[i] = cursor.Item{Geom: pt(float64(i), 0), ID: id, HasID: true}
	}
	return cursor.FromItems(items...)
}

// leaf builds a request whose left input is an inline batch, which is what
// makes identifiers survive.
func leaf(op model.Operator) *model.Request {
	return &model.Request{Operator: op, LeftGeometry: &model.GeometryBatch{}}
}

func drain(t *testing.T, c cursor.Cursor) []cursor.Item {
	t.Helper()
	items, err := cursor.Collect(c)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	return items
}

func ids(items []cursor.Item) []int64 {
	var out []int64
	for _, it := range items {
		if it.HasID {
			out = append(out, it.ID)
		}
	}
	return out
}

func TestEveryOperatorHasAnEntry(t *testing.T) {
	ops := []model.Operator{
		model.OpNone, model.OpRelate, model.OpEquals, model.OpDisjoint, model.OpIntersects, model.OpWithin,
		model.OpContains, model.OpCrosses, model.OpTouches, model.OpOverlaps, model.OpDistance,
		model.OpGeodeticLength, model.OpGeodeticArea, model.OpProject, model.OpUnion, model.OpDifference,
		model.OpIntersection, model.OpSymmetricDifference, model.OpClip, model.OpCut, model.OpBuffer,
		model.OpGeodesicBuffer, model.OpDensifyByLength, model.OpGeodeticDensifyByLength, model.OpSimplify,
		model.OpSimplifyOGC, model.OpOffset, model.OpGeneralize, model.OpGeneralizeByArea, model.OpConvexHull,
		model.OpBoundary, model.OpEnclosingCircle, model.OpRandomPoints, model.OpLabelPoint, model.OpH3Cover,
		model.OpExportToWkb, model.OpExportToWkt, model.OpExportToGeoJson, model.OpExportToEsriShape,
		model.OpExportToJson,
	}
	for _, op := range ops {
		if _, err := Lookup(op); err != nil {
			t.Fatalf("%s: %v", op, err)
		}
	}
	if len(table) != len(ops) {
		t.Fatalf("table has %d entries, want %d", len(table), len(ops))
	}
}

func TestDispatch_UnknownOperator(t *testing.T) {
	_, err := Dispatch(Env{Engine: &enginetest.Fake{}, Left: cursor.Empty(), Request: leaf("Teleport")})
	if operr.KindOf(err) != operr.InvalidArgument {
		t.Fatalf("err=%v kind=%v", err, operr.KindOf(err))
	}
}

func TestDispatch_MissingRight(t *testing.T) {
	for _, op := range []model.Operator{model.OpDifference, model.OpCut, model.OpRelate, model.OpContains, model.OpDistance} {
		eng := &enginetest.Fake{}
		_, err := Dispatch(Env{Engine: eng, Left: withIDs(1), Request: leaf(op)})
		if operr.KindOf(err) != operr.InvalidArgument {
			t.Fatalf("%s: err=%v", op, err)
		}
		if len(eng.Calls()) != 0 {
			t.Fatalf("%s: engine should not be called, got %v", op, eng.Ops())
		}
	}
}

func TestDispatch_UnaryKeepsIDsAndIsLazy(t *testing.T) {
	eng := &enginetest.Fake{}
	out, err := Dispatch(Env{Engine: eng, Left: withIDs(7, 8, 9), Request: leaf(model.OpBoundary)})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Shape != Cursor {
		t.Fatalf("shape=%v", out.Shape)
	}
	if len(eng.Calls()) != 0 {
		t.Fatalf("engine called before the result was pulled: %v", eng.Ops())
	}
	items := drain(t, out.Cursor)
	if diff := cmp.Diff([]int64{7, 8, 9}, ids(items)); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Boundary", "Boundary", "Boundary"}, eng.Ops()); diff != "" {
		t.Fatalf("ops (-want +got):\n%s", diff)
	}
}

func TestDispatch_NestedLeftStripsIDs(t *testing.T) {
	req := &model.Request{Operator: model.OpBoundary, LeftGeometryRequest: &model.Request{Operator: model.OpUnion, LeftGeometry: &model.GeometryBatch{}}}
	out, err := Dispatch(Env{Engine: &enginetest.Fake{}, Left: withIDs(1, 2), Request: req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := ids(drain(t, out.Cursor)); len(got) != 0 {
		t.Fatalf("ids should be dropped after a union, got %v", got)
	}

	chain := &model.Request{Operator: model.OpBoundary, GeometryRequest: leaf(model.OpLabelPoint)}
	if !PreservesIDs(chain) {
		t.Fatalf("a 1:1 chain over a batch should keep ids")
	}
}

func TestDispatch_BinaryStripsIDs(t *testing.T) {
	eng := &enginetest.Fake{}
	req := leaf(model.OpIntersection)
	req.RightGeometry = &model.GeometryBatch{}
	req.IntersectionParams = &model.IntersectionParams{DimensionMask: 4}
	out, err := Dispatch(Env{Engine: eng, Left: withIDs(1, 2), Right: withIDs(99), Request: req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	items := drain(t, out.Cursor)
	if len(items) != 2 || len(ids(items)) != 0 {
		t.Fatalf("items=%+v", items)
	}
	calls := eng.Calls()
	if len(calls) != 2 || calls[0].Args[2] != 4 {
		t.Fatalf("calls=%+v", calls)
	}
}

func TestDispatch_PredicateMapAndCollapse(t *testing.T) {
	eng := &enginetest.Fake{PredicateResult: true}
	req := leaf(model.OpContains)
	req.RightGeometry = &model.GeometryBatch{}

	right := cursor.FromItems(
		cursor.Item{Geom: pt(1, 1), ID: 42, HasID: true},
		cursor.Item{Geom: pt(2, 2)},
	)
	out, err := Dispatch(Env{Engine: eng, Left: withIDs(1), Right: right, Request: req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Shape != Scalar || out.Cursor != nil {
		t.Fatalf("unexpected output %+v", out)
	}
	if diff := cmp.Diff(map[int64]bool{42: true, 1: true}, out.Scalar.RelateMap); diff != "" {
		t.Fatalf("relate map (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Predicate:contains", "Predicate:contains"}, eng.Ops()); diff != "" {
		t.Fatalf("ops (-want +got):\n%s", diff)
	}

	out, err = Dispatch(Env{Engine: eng, Left: withIDs(1), Right: withIDs(5), Request: req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Scalar.SpatialRelationship == nil || !*out.Scalar.SpatialRelationship || out.Scalar.RelateMap != nil {
		t.Fatalf("single result should collapse to a bool: %+v", out.Scalar)
	}
}

func TestDispatch_BufferBroadcastsDistances(t *testing.T) {
	eng := &enginetest.Fake{}
	req := leaf(model.OpBuffer)
	req.BufferParams = &model.BufferParams{Distances: []float64{1, 2}}
	out, err := Dispatch(Env{Engine: eng, Left: withIDs(1, 2, 3), Request: req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	drain(t, out.Cursor)

	var dists []float64
	for _, c := range eng.Calls() {
		dists = append(dists, c.Args[1].(float64))
		if p := c.Args[2].(model.BufferParams); p.MaxVerticesInFullCircle != 96 {
			t.Fatalf("max vertices=%d want 96", p.MaxVerticesInFullCircle)
		}
	}
	if diff := cmp.Diff([]float64{1, 2, 2}, dists); diff != "" {
		t.Fatalf("distances (-want +got):\n%s", diff)
	}
	if req.BufferParams.MaxVerticesInFullCircle != 0 {
		t.Fatalf("request params must not be mutated")
	}
}

func TestDispatch_BufferUnionResult(t *testing.T) {
	eng := &enginetest.Fake{}
	req := leaf(model.OpBuffer)
	req.BufferParams = &model.BufferParams{Distances: []float64{1}, UnionResult: true}
	out, err := Dispatch(Env{Engine: eng, Left: withIDs(1, 2), Request: req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	items := drain(t, out.Cursor)
	if len(items) != 1 || items[0].HasID {
		t.Fatalf("items=%+v", items)
	}
	if diff := cmp.Diff([]string{"Buffer", "Buffer", "Union"}, eng.Ops()); diff != "" {
		t.Fatalf("ops (-want +got):\n%s", diff)
	}
	if PreservesIDs(req) {
		t.Fatalf("a unioned buffer does not keep ids")
	}
}

func TestDispatch_ConvexHullMerge(t *testing.T) {
	eng := &enginetest.Fake{}
	req := leaf(model.OpConvexHull)
	req.ConvexParams = &model.ConvexParams{Merge: true}
	out, err := Dispatch(Env{Engine: eng, Left: withIDs(1, 2, 3), Request: req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	items := drain(t, out.Cursor)
	if len(items) != 1 {
		t.Fatalf("items=%d want 1", len(items))
	}
	mp, ok := items[0].Geom.(*geom.MultiPoint)
	if !ok || mp.NumPoints() != 3 {
		t.Fatalf("hull input should be all points, got %T", items[0].Geom)
	}
}

func TestDispatch_GeneralizeByAreaPassThrough(t *testing.T) {
	eng := &enginetest.Fake{}
	out, err := Dispatch(Env{Engine: eng, Left: withIDs(1, 2), Request: leaf(model.OpGeneralizeByArea)})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if items := drain(t, out.Cursor); len(items) != 2 {
		t.Fatalf("items=%d", len(items))
	}
	if len(eng.Calls()) != 0 {
		t.Fatalf("no targets should skip the engine, got %v", eng.Ops())
	}
}

func TestDispatch_ExportForcesEncoding(t *testing.T) {
	out, err := Dispatch(Env{Engine: &enginetest.Fake{}, Left: withIDs(1), Request: leaf(model.OpExportToGeoJson)})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Shape != PassThrough || out.Encoding != model.EncodingGeoJSON {
		t.Fatalf("out=%+v", out)
	}
	out, err = Dispatch(Env{Engine: &enginetest.Fake{}, Left: withIDs(1), Request: leaf(model.OpNone)})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Encoding != "" {
		t.Fatalf("absent operator should not force an encoding, got %q", out.Encoding)
	}
}

func TestDispatch_CutRequiresPolyline(t *testing.T) {
	eng := &enginetest.Fake{CutResult: []geom.T{pt(0, 0), pt(1, 1)}}
	req := leaf(model.OpCut)
	req.RightGeometry = &model.GeometryBatch{}

	out, err := Dispatch(Env{Engine: eng, Left: withIDs(1), Right: withIDs(2), Request: req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, err := cursor.Collect(out.Cursor); operr.KindOf(err) != operr.InvalidArgument {
		t.Fatalf("point cutter: err=%v", err)
	}

	cutter := geom.NewLineStringFlat(geom.XY, []float64{0, -1, 0, 1})
	out, err = Dispatch(Env{Engine: eng, Left: withIDs(1), Right: cursor.FromGeoms(cutter), Request: req})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if items := drain(t, out.Cursor); len(items) != 2 {
		t.Fatalf("pieces=%d want 2", len(items))
	}
}

func TestDispatch_EngineErrorKind(t *testing.T) {
	boom := errors.New("degenerate ring")
	eng := &enginetest.Fake{Err: boom}
	out, err := Dispatch(Env{Engine: eng, Left: withIDs(1), Request: leaf(model.OpLabelPoint)})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	_, err = cursor.Collect(out.Cursor)
	if operr.KindOf(err) != operr.Engine || !errors.Is(err, boom) {
		t.Fatalf("err=%v kind=%v", err, operr.KindOf(err))
	}

	req := leaf(model.OpGeodeticArea)
	if _, err := Dispatch(Env{Engine: eng, Left: withIDs(1), Request: req}); operr.KindOf(err) != operr.Engine {
		t.Fatalf("scalar err=%v", err)
	}
}

func TestDispatch_RandomPointsNeedsDensity(t *testing.T) {
	_, err := Dispatch(Env{Engine: &enginetest.Fake{}, Left: withIDs(1), Request: leaf(model.OpRandomPoints)})
	if operr.KindOf(err) != operr.InvalidArgument {
		t.Fatalf("err=%v", err)
	}
}

func TestDispatch_DistanceToEmptyIsInvalid(t *testing.T) {
	eng := &enginetest.Fake{Measure: math.NaN()}
	_, err := Dispatch(Env{Engine: eng, Left: withIDs(1), Right: withIDs(2), Request: leaf(model.OpDistance)})
	if operr.KindOf(err) != operr.InvalidArgument {
		t.Fatalf("err=%v", err)
	}
}

func TestDispatch_PredicateEmptyRightIsInvalid(t *testing.T) {
	eng := &enginetest.Fake{PredicateResult: true}
	_, err := Dispatch(Env{Engine: eng, Left: withIDs(1), Right: cursor.Empty(), Request: leaf(model.OpContains)})
	if operr.KindOf(err) != operr.InvalidArgument {
		t.Fatalf("err=%v", err)
	}
	if len(eng.Calls()) != 0 {
		t.Fatalf("engine should not be called, got %v", eng.Ops())
	}
}

func TestDispatch_PredicateKeyCollision(t *testing.T) {
	eng := &enginetest.Fake{PredicateResult: true}
	// the unlabelled first item takes position 0, which the second claims as its id
	right := cursor.FromItems(
		cursor.Item{Geom: pt(1, 1)},
		cursor.Item{Geom: pt(2, 2), ID: 0, HasID: true},
	)
	_, err := Dispatch(Env{Engine: eng, Left: withIDs(1), Right: right, Request: leaf(model.OpIntersects)})
	if operr.KindOf(err) != operr.InvalidArgument {
		t.Fatalf("err=%v", err)
	}

	dupIDs := cursor.FromItems(
		cursor.Item{Geom: pt(1, 1), ID: 7, HasID: true},
		cursor.Item{Geom: pt(2, 2), ID: 7, HasID: true},
	)
	_, err = Dispatch(Env{Engine: eng, Left: withIDs(1), Right: dupIDs, Request: leaf(model.OpIntersects)})
	if operr.KindOf(err) != operr.InvalidArgument {
		t.Fatalf("duplicate ids: err=%v", err)
	}
}
