package dispatch

import (
	"math"
	"math/rand"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/engine"
	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

const defaultMaxVertices = 96

var table map[model.Operator]Entry

func init() {
	table = map[model.Operator]Entry{
		model.OpNone: {Shape: PassThrough, PreservesIDs: true, Eval: passThrough},

		model.OpExportToWkb:       exportTo(model.EncodingWKB),
		model.OpExportToWkt:       exportTo(model.EncodingWKT),
		model.OpExportToGeoJson:   exportTo(model.EncodingGeoJSON),
		model.OpExportToEsriShape: exportTo(model.EncodingEsriShape),
		model.OpExportToJson:      exportTo(model.EncodingJSON),

		model.OpRelate:         {Shape: Scalar, NeedsRight: true, Eval: relate},
		model.OpEquals:         predicate(engine.Equals),
		model.OpDisjoint:       predicate(engine.Disjoint),
		model.OpIntersects:     predicate(engine.Intersects),
		model.OpWithin:         predicate(engine.Within),
		model.OpContains:       predicate(engine.Contains),
		model.OpCrosses:        predicate(engine.Crosses),
		model.OpTouches:        predicate(engine.Touches),
		model.OpOverlaps:       predicate(engine.Overlaps),
		model.OpDistance:       {Shape: Scalar, NeedsRight: true, Eval: distance},
		model.OpGeodeticLength: {Shape: Scalar, Eval: measure(engine.Engine.GeodeticLength)},
		model.OpGeodeticArea:   {Shape: Scalar, Eval: measure(engine.Engine.GeodeticArea)},

		// reprojection happens around dispatch, so Project itself is identity
		model.OpProject: {Shape: Cursor, PreservesIDs: true, Eval: passThrough},

		model.OpUnion: {Shape: Cursor, Eval: union},

		model.OpDifference: binary(func(env Env, a, b geom.T) (geom.T, error) {
			return env.Engine.Difference(a, b, env.Frame)
		}),
		model.OpSymmetricDifference: binary(func(env Env, a, b geom.T) (geom.T, error) {
			return env.Engine.SymmetricDifference(a, b, env.Frame)
		}),
		model.OpIntersection: binary(func(env Env, a, b geom.T) (geom.T, error) {
			mask := 0
			if p := env.Request.IntersectionParams; p != nil {
				mask = p.DimensionMask
			}
			return env.Engine.Intersection(a, b, mask, env.Frame)
		}),
		model.OpClip: {Shape: Cursor, PreservesIDs: true, Eval: clip},
		model.OpCut:  {Shape: Cursor, NeedsRight: true, Eval: cut},

		model.OpBuffer:         {Shape: Cursor, PreservesIDs: true, Eval: buffer(engine.Engine.Buffer)},
		model.OpGeodesicBuffer: {Shape: Cursor, PreservesIDs: true, Eval: buffer(engine.Engine.GeodesicBuffer)},

		model.OpDensifyByLength: unary(func(env Env, g geom.T) (geom.T, error) {
			return env.Engine.Densify(g, densifyParams(env.Request).MaxLength, env.Frame)
		}),
		model.OpGeodeticDensifyByLength: unary(func(env Env, g geom.T) (geom.T, error) {
			return env.Engine.GeodeticDensify(g, densifyParams(env.Request).MaxLength, env.Frame)
		}),
		model.OpSimplify: unary(func(env Env, g geom.T) (geom.T, error) {
			return env.Engine.Simplify(g, simplifyParams(env.Request).Force, env.Frame)
		}),
		model.OpSimplifyOGC: unary(func(env Env, g geom.T) (geom.T, error) {
			return env.Engine.SimplifyOGC(g, simplifyParams(env.Request).Force, env.Frame)
		}),
		model.OpOffset: unary(func(env Env, g geom.T) (geom.T, error) {
			var p model.OffsetParams
			if env.Request.OffsetParams != nil {
				p = *env.Request.OffsetParams
			}
			if p.JoinType == "" {
				p.JoinType = model.JoinRound
			}
			return env.Engine.Offset(g, p, env.Frame)
		}),
		model.OpGeneralize: unary(func(env Env, g geom.T) (geom.T, error) {
			var p model.GeneralizeParams
			if env.Request.GeneralizeParams != nil {
				p = *env.Request.GeneralizeParams
			}
			return env.Engine.Generalize(g, p.MaxDeviation, p.RemoveDegenerates, env.Frame)
		}),

		model.OpGeneralizeByArea: {Shape: Cursor, PreservesIDs: true, Eval: generalizeByArea},

		model.OpConvexHull: {Shape: Cursor, PreservesIDs: true, Eval: convexHull},

		model.OpBoundary: unary(func(env Env, g geom.T) (geom.T, error) {
			return env.Engine.Boundary(g, env.Frame)
		}),
		model.OpEnclosingCircle: unary(func(env Env, g geom.T) (geom.T, error) {
			return env.Engine.EnclosingCircle(g, env.Frame)
		}),
		model.OpRandomPoints: {Shape: Cursor, PreservesIDs: true, Eval: randomPoints},

		model.OpLabelPoint: unary(func(env Env, g geom.T) (geom.T, error) {
			return env.Engine.LabelPoint(g, env.Frame)
		}),
		model.OpH3Cover: {Shape: Cursor, PreservesIDs: true, Eval: h3Cover},
	}
}

// mergesItems reports whether req collapses its whole input into one output
// even though its operator is otherwise 1:1.
func mergesItems(req *model.Request) bool {
	switch req.Operator {
	case model.OpBuffer, model.OpGeodesicBuffer:
		return req.BufferParams != nil && req.BufferParams.UnionResult
	case model.OpConvexHull:
		return req.ConvexParams != nil && req.ConvexParams.Merge
	}
	return false
}

func passThrough(env Env) (Output, error) {
	return Output{Cursor: env.Left}, nil
}

func exportTo(enc model.Encoding) Entry {
	return Entry{Shape: PassThrough, PreservesIDs: true, Encoding: enc, Eval: passThrough}
}

func unary(fn func(Env, geom.T) (geom.T, error)) Entry {
	return Entry{
		Shape:        Cursor,
		PreservesIDs: true,
		Eval: func(env Env) (Output, error) {
			return Output{Cursor: eachGeom(env.Left, func(_ int, g geom.T) (geom.T, error) {
				return fn(env, g)
			})}, nil
		},
	}
}

func eachGeom(c cursor.Cursor, fn func(int, geom.T) (geom.T, error)) cursor.Cursor {
	return cursor.MapIndexed(c, func(i int, it cursor.Item) (cursor.Item, error) {
		g, err := fn(i, it.Geom)
		if err != nil {
			return cursor.Item{}, err
		}
		return it.WithGeom(g), nil
	})
}

func first(c cursor.Cursor, side string) (geom.T, error) {
	it, ok, err := cursor.First(c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, operr.Invalid("dispatch", "%s input is empty", side)
	}
	return it.Geom, nil
}

// binary evaluates every left item against the first right item.
func binary(fn func(Env, geom.T, geom.T) (geom.T, error)) Entry {
	return Entry{
		Shape:      Cursor,
		NeedsRight: true,
		Eval: func(env Env) (Output, error) {
			return Output{Cursor: cursor.Deferred(func() (cursor.Cursor, error) {
				b, err := first(env.Right, "right")
				if err != nil {
					return nil, err
				}
				return eachGeom(env.Left, func(_ int, a geom.T) (geom.T, error) {
					return fn(env, a, b)
				}), nil
			})}, nil
		},
	}
}

func union(env Env) (Output, error) {
	return Output{Cursor: cursor.Deferred(func() (cursor.Cursor, error) {
		g, err := env.Engine.Union(env.Left, env.Frame)
		if err != nil {
			return nil, err
		}
		return cursor.FromGeoms(g), nil
	})}, nil
}

func clip(env Env) (Output, error) {
	p := env.Request.ClipParams
	if p == nil {
		return Output{}, operr.Invalid("clip", "missing clip_params envelope")
	}
	return Output{Cursor: eachGeom(env.Left, func(_ int, g geom.T) (geom.T, error) {
		return env.Engine.Clip(g, p.Envelope, env.Frame)
	})}, nil
}

// cut yields nothing when the cutter misses.
func cut(env Env) (Output, error) {
	touch := env.Request.CutParams != nil && env.Request.CutParams.ConsiderTouch
	return Output{Cursor: cursor.Deferred(func() (cursor.Cursor, error) {
		g, err := first(env.Left, "left")
		if err != nil {
			return nil, err
		}
		cutter, err := first(env.Right, "right")
		if err != nil {
			return nil, err
		}
		switch cutter.(type) {
		case *geom.LineString, *geom.MultiLineString:
		default:
			return nil, operr.Invalid("cut", "cutter must be a polyline, got %T", cutter)
		}
		parts, err := env.Engine.Cut(g, cutter, touch, env.Frame)
		if err != nil {
			return nil, err
		}
		return cursor.FromGeoms(parts...), nil
	})}, nil
}

type bufferFunc func(engine.Engine, geom.T, float64, model.BufferParams, *spatialref.Frame) (geom.T, error)

func buffer(fn bufferFunc) func(Env) (Output, error) {
	return func(env Env) (Output, error) {
		if env.Request.BufferParams == nil || len(env.Request.BufferParams.Distances) == 0 {
			return Output{}, operr.Invalid("buffer", "buffer_params needs at least one distance")
		}
		p := *env.Request.BufferParams
		if p.MaxVerticesInFullCircle == 0 {
			p.MaxVerticesInFullCircle = defaultMaxVertices
		}
		out := eachGeom(env.Left, func(i int, g geom.T) (geom.T, error) {
			return fn(env.Engine, g, p.DistanceAt(i), p, env.Frame)
		})
		if !p.UnionResult {
			return Output{Cursor: out}, nil
		}
		return Output{Cursor: cursor.Deferred(func() (cursor.Cursor, error) {
			g, err := env.Engine.Union(out, env.Frame)
			if err != nil {
				return nil, err
			}
			return cursor.FromGeoms(g), nil
		})}, nil
	}
}

func generalizeByArea(env Env) (Output, error) {
	p := env.Request.GeneralizeByAreaParams
	if p == nil || (p.PercentReduction == 0 && p.MaxPointCount == 0) {
		return Output{Cursor: env.Left}, nil
	}
	if p.PercentReduction < 0 || p.MaxPointCount < 0 {
		return Output{}, operr.Invalid("generalize by area", "reduction targets must not be negative")
	}
	return Output{Cursor: eachGeom(env.Left, func(_ int, g geom.T) (geom.T, error) {
		return env.Engine.GeneralizeByArea(g, *p, env.Frame)
	})}, nil
}

func convexHull(env Env) (Output, error) {
	if env.Request.ConvexParams == nil || !env.Request.ConvexParams.Merge {
		return Output{Cursor: eachGeom(env.Left, func(_ int, g geom.T) (geom.T, error) {
			return env.Engine.ConvexHull(g, env.Frame)
		})}, nil
	}
	return Output{Cursor: cursor.Deferred(func() (cursor.Cursor, error) {
		gs, err := cursor.CollectGeoms(env.Left)
		if err != nil {
			return nil, err
		}
		var flat []float64
		for _, g := range gs {
			for _, c := range geomx.AllCoords(g) {
				flat = append(flat, c[0], c[1])
			}
		}
		hull, err := env.Engine.ConvexHull(geom.NewMultiPointFlat(geom.XY, flat), env.Frame)
		if err != nil {
			return nil, err
		}
		return cursor.FromGeoms(hull), nil
	})}, nil
}

// randomPoints shares one generator across items so a seed reproduces the
// whole batch.
func randomPoints(env Env) (Output, error) {
	p := env.Request.RandomPointsParams
	if p == nil || len(p.PointsPerSquareKm) == 0 {
		return Output{}, operr.Invalid("random points", "random_points_params needs a density")
	}
	rng := rand.New(rand.NewSource(p.Seed))
	return Output{Cursor: eachGeom(env.Left, func(i int, g geom.T) (geom.T, error) {
		return env.Engine.RandomPoints(g, broadcast(p.PointsPerSquareKm, i), rng, env.Frame)
	})}, nil
}

func h3Cover(env Env) (Output, error) {
	p := env.Request.H3Params
	if p == nil {
		return Output{}, operr.Invalid("h3 cover", "missing h3_params")
	}
	if p.Resolution < 0 || p.Resolution > 15 {
		return Output{}, operr.Invalid("h3 cover", "resolution %d outside 0..15", p.Resolution)
	}
	return Output{Cursor: eachGeom(env.Left, func(_ int, g geom.T) (geom.T, error) {
		return env.Engine.H3Cover(g, p.Resolution, env.Frame)
	})}, nil
}

func relate(env Env) (Output, error) {
	if env.Request.RelateParams == nil || env.Request.RelateParams.DE9IM == "" {
		return Output{}, operr.Invalid("relate", "missing de_9im pattern")
	}
	a, err := first(env.Left, "left")
	if err != nil {
		return Output{}, err
	}
	b, err := first(env.Right, "right")
	if err != nil {
		return Output{}, err
	}
	ok, err := env.Engine.Relate(a, b, env.Request.RelateParams.DE9IM, env.Frame)
	if err != nil {
		return Output{}, err
	}
	return Output{Scalar: &model.Response{SpatialRelationship: &ok}}, nil
}

// predicate tests the first left item against every right item. Results are
// keyed by the right item's identifier, or its position when it has none; a
// key claimed twice fails the request rather than dropping a result.
func predicate(p engine.Predicate) Entry {
	return Entry{
		Shape:      Scalar,
		NeedsRight: true,
		Eval: func(env Env) (Output, error) {
			a, err := first(env.Left, "left")
			if err != nil {
				return Output{}, err
			}
			res := map[int64]bool{}
			var last bool
			n := int64(0)
			for ; ; n++ {
				it, ok, err := env.Right.Next()
				if err != nil {
					return Output{}, err
				}
				if !ok {
					break
				}
				v, err := env.Engine.Predicate(p, a, it.Geom, env.Frame)
				if err != nil {
					return Output{}, err
				}
				key := n
				if it.HasID {
					key = it.ID
				}
				if _, dup := res[key]; dup {
					return Output{}, operr.Invalid("dispatch", "right item %d: key %d is already used by another right item", n, key)
				}
				res[key], last = v, v
			}
			switch n {
			case 0:
				return Output{}, operr.Invalid("dispatch", "right input is empty")
			case 1:
				return Output{Scalar: &model.Response{SpatialRelationship: &last}}, nil
			}
			return Output{Scalar: &model.Response{RelateMap: res}}, nil
		},
	}
}

func distance(env Env) (Output, error) {
	a, err := first(env.Left, "left")
	if err != nil {
		return Output{}, err
	}
	b, err := first(env.Right, "right")
	if err != nil {
		return Output{}, err
	}
	d, err := env.Engine.Distance(a, b, env.Frame)
	if err != nil {
		return Output{}, err
	}
	if math.IsNaN(d) {
		return Output{}, operr.Invalid("dispatch", "distance to an empty geometry is undefined")
	}
	return Output{Scalar: &model.Response{Measure: &d}}, nil
}

type measureFunc func(engine.Engine, geom.T, *spatialref.Frame) (float64, error)

func measure(fn measureFunc) func(Env) (Output, error) {
	return func(env Env) (Output, error) {
		g, err := first(env.Left, "left")
		if err != nil {
			return Output{}, err
		}
		m, err := fn(env.Engine, g, env.Frame)
		if err != nil {
			return Output{}, err
		}
		return Output{Scalar: &model.Response{Measure: &m}}, nil
	}
}

func densifyParams(req *model.Request) model.DensifyParams {
	if req.DensifyParams == nil {
		return model.DensifyParams{}
	}
	return *req.DensifyParams
}

func simplifyParams(req *model.Request) model.SimplifyParams {
	if req.SimplifyParams == nil {
		return model.SimplifyParams{}
	}
	return *req.SimplifyParams
}

// broadcast repeats the last value past the end of vs.
func broadcast(vs []float64, i int) float64 {
	if i < len(vs) {
		return vs[i]
	}
	return vs[len(vs)-1]
}
