package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/config"
	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/engine"
	"github.com/mohammed-shakir/geometry-operators/internal/engine/enginetest"
	"github.com/mohammed-shakir/geometry-operators/internal/engine/planar"
	"github.com/mohammed-shakir/geometry-operators/internal/refs"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

func newPipeline(t *testing.T, eng engine.Engine) (*Pipeline, *spatialref.Resolver) {
	t.Helper()
	frames, err := spatialref.NewResolver(spatialref.Options{})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	p, err := New(Options{
		Engine: eng,
		Refs:   refs.New(8, config.MismatchOverride, nil),
		Frames: frames,
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p, frames
}

func wktBatch(sr *model.SpatialRef, wkts ...string) *model.GeometryBatch {
	b := &model.GeometryBatch{Encoding: model.EncodingWKT, SR: sr}
	for _, s := range wkts {
		b.Geometries = append(b.Geometries, model.EncodedGeometry{Text: s})
	}
	return b
}

func withIDs(b *model.GeometryBatch, ids ...int64) *model.GeometryBatch {
	for i := range b.Geometries {
		b.Geometries[i].ID = model.ID(ids[i])
	}
	return b
}

func items(t *testing.T, r *Result) []cursor.Item {
	t.Helper()
	if r.Cursor == nil {
		t.Fatalf("expected a cursor result, got shape %v", r.Shape)
	}
	out, err := cursor.Collect(r.Cursor)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	return out
}

func itemIDs(its []cursor.Item) []int64 {
	var out []int64
	for _, it := range its {
		if it.HasID {
			out = append(out, it.ID)
		}
	}
	return out
}

func TestEvaluate_IdentifierPreservation(t *testing.T) {
	p, _ := newPipeline(t, &enginetest.Fake{})
	ctx := context.Background()
	batch := func() *model.GeometryBatch {
		return withIDs(wktBatch(nil, "POINT (0 0)", "POINT (1 1)", "POINT (2 2)"), 10, 20, 30)
	}

	cases := []struct {
		name string
		req  *model.Request
		want []int64
	}{
		{
			name: "leaf 1:1",
			req:  &model.Request{Operator: model.OpBoundary, Geometry: batch()},
			want: []int64{10, 20, 30},
		},
		{
			name: "1:1 chain",
			req: &model.Request{
				Operator:        model.OpLabelPoint,
				GeometryRequest: &model.Request{Operator: model.OpBoundary, Geometry: batch()},
			},
			want: []int64{10, 20, 30},
		},
		{
			name: "below a union",
			req: &model.Request{
				Operator:        model.OpLabelPoint,
				GeometryRequest: &model.Request{Operator: model.OpUnion, Geometry: batch()},
			},
		},
		{
			name: "right source",
			req: &model.Request{
				Operator:      model.OpDifference,
				LeftGeometry:  batch(),
				RightGeometry: wktBatch(nil, "POINT (5 5)"),
			},
		},
	}
	for _, tc := range cases {
		res, err := p.Evaluate(ctx, tc.req)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if diff := cmp.Diff(tc.want, itemIDs(items(t, res))); diff != "" {
			t.Fatalf("%s ids (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestEvaluate_ScenarioBufferHullContainsLine(t *testing.T) {
	p, _ := newPipeline(t, planar.New())
	const lineWKT = "LINESTRING (0 0, 10 0)"

	req := &model.Request{
		Operator: model.OpContains,
		LeftGeometryRequest: &model.Request{
			Operator: model.OpConvexHull,
			GeometryRequest: &model.Request{
				Operator:     model.OpBuffer,
				Geometry:     wktBatch(nil, lineWKT),
				BufferParams: &model.BufferParams{Distances: []float64{1}},
			},
		},
		RightGeometry: wktBatch(nil, lineWKT),
	}
	res, err := p.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Scalar == nil || res.Scalar.SpatialRelationship == nil || !*res.Scalar.SpatialRelationship {
		t.Fatalf("hull of buffer should contain the line, got %+v", res.Scalar)
	}
	if res.Depth != 3 {
		t.Fatalf("depth=%d want 3", res.Depth)
	}
}

func TestEvaluate_ScenarioProjectAndBack(t *testing.T) {
	p, frames := newPipeline(t, planar.New())
	ctx := context.Background()
	utm := &model.SpatialRef{WKID: 32632}
	wgs := &model.SpatialRef{WKID: 4326}
	const lineWKT = "LINESTRING (500000 6500000, 501000 6501000, 502500 6499000)"

	there := &model.Request{Operator: model.OpProject, Geometry: wktBatch(utm, lineWKT), OperationSR: wgs}
	res, err := p.Evaluate(ctx, there)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got := items(t, res)
	if len(got) != 1 {
		t.Fatalf("items=%d", len(got))
	}
	if !model.SameRef(res.SR, wgs) {
		t.Fatalf("result sr=%s", res.SR)
	}

	from, err := frames.Resolve(ctx, utm)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	to, err := frames.Resolve(ctx, wgs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	tr, err := spatialref.NewTransform(from, to)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	orig := [][2]float64{{500000, 6500000}, {501000, 6501000}, {502500, 6499000}}
	ls := got[0].Geom.(*geom.LineString)
	if ls.NumCoords() != len(orig) {
		t.Fatalf("coords=%d want %d", ls.NumCoords(), len(orig))
	}
	for i, o := range orig {
		x, y, err := tr(o[0], o[1])
		if err != nil {
			t.Fatalf("direct transform: %v", err)
		}
		c := ls.Coord(i)
		if math.Abs(c[0]-x) > 1e-10 || math.Abs(c[1]-y) > 1e-10 {
			t.Fatalf("coord %d = %v want (%v, %v)", i, c, x, y)
		}
	}

	back := &model.Request{
		Operator:        model.OpProject,
		GeometryRequest: &model.Request{Operator: model.OpProject, Geometry: wktBatch(utm, lineWKT), OperationSR: wgs},
		OperationSR:     utm,
	}
	res, err = p.Evaluate(ctx, back)
	if err != nil {
		t.Fatalf("evaluate back: %v", err)
	}
	ls = items(t, res)[0].Geom.(*geom.LineString)
	if ls.NumCoords() != len(orig) {
		t.Fatalf("round trip coords=%d", ls.NumCoords())
	}
	for i, o := range orig {
		c := ls.Coord(i)
		if math.Abs(c[0]-o[0]) > 1e-3 || math.Abs(c[1]-o[1]) > 1e-3 {
			t.Fatalf("round trip coord %d = %v want %v", i, c, o)
		}
	}
}

func TestEvaluate_ResultReferenceReprojects(t *testing.T) {
	eng := &enginetest.Fake{}
	p, _ := newPipeline(t, eng)
	req := &model.Request{
		Operator: model.OpBoundary,
		Geometry: wktBatch(&model.SpatialRef{WKID: 4326}, "POINT (10 50)"),
		ResultSR: &model.SpatialRef{Proj4: "+init=epsg:3857"},
	}
	res, err := p.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	items(t, res)
	if diff := cmp.Diff([]string{"Boundary", "Project"}, eng.Ops()); diff != "" {
		t.Fatalf("ops (-want +got):\n%s", diff)
	}
	if res.SR.WKID != 3857 {
		t.Fatalf("result sr=%s", res.SR)
	}
}

func TestEvaluate_ResultReferenceWithoutOperationFrame(t *testing.T) {
	eng := &enginetest.Fake{}
	p, _ := newPipeline(t, eng)
	req := &model.Request{
		Operator: model.OpBoundary,
		Geometry: wktBatch(nil, "POINT (10 50)"),
		ResultSR: &model.SpatialRef{WKID: 3857},
	}
	res, err := p.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	items(t, res)
	if diff := cmp.Diff([]string{"Boundary"}, eng.Ops()); diff != "" {
		t.Fatalf("ops (-want +got):\n%s", diff)
	}
	if res.SR != nil {
		t.Fatalf("local output should carry no reference, got %s", res.SR)
	}
}

func TestEvaluate_NestedScalarIsInvalid(t *testing.T) {
	p, _ := newPipeline(t, &enginetest.Fake{})
	req := &model.Request{
		Operator: model.OpConvexHull,
		GeometryRequest: &model.Request{
			Operator:      model.OpDistance,
			LeftGeometry:  wktBatch(nil, "POINT (0 0)"),
			RightGeometry: wktBatch(nil, "POINT (1 1)"),
		},
	}
	_, err := p.Evaluate(context.Background(), req)
	if operr.KindOf(err) != operr.InvalidArgument {
		t.Fatalf("err=%v kind=%v", err, operr.KindOf(err))
	}
}

func TestEvaluate_TopEncodingOnly(t *testing.T) {
	p, _ := newPipeline(t, &enginetest.Fake{})
	req := &model.Request{
		Operator:       model.OpBoundary,
		ResultEncoding: model.EncodingWKT,
		GeometryRequest: &model.Request{
			Operator:       model.OpExportToGeoJson,
			Geometry:       wktBatch(nil, "POINT (0 0)"),
			ResultEncoding: model.EncodingJSON,
		},
	}
	res, err := p.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Encoding != model.EncodingWKT {
		t.Fatalf("encoding=%q want WKT", res.Encoding)
	}
}

func TestEvaluate_DecodeErrorIsInvalid(t *testing.T) {
	p, _ := newPipeline(t, &enginetest.Fake{})
	res, err := p.Evaluate(context.Background(), &model.Request{
		Operator: model.OpBoundary,
		Geometry: wktBatch(nil, "POINT (0 0)", "POINT (oops"),
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	_, err = cursor.Collect(res.Cursor)
	if operr.KindOf(err) != operr.InvalidArgument {
		t.Fatalf("err=%v kind=%v", err, operr.KindOf(err))
	}
}
