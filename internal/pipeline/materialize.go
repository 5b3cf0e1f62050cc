package pipeline

import (
	"context"

	"github.com/mohammed-shakir/geometry-operators/internal/codec"
	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/refs"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

// materialize turns one input position into a cursor in the operation frame.
// in is the reference the source delivers; child is the resolved node when
// the source is a nested request.
func (p *Pipeline) materialize(ctx context.Context, src model.Source, child *refs.Node, in *model.SpatialRef, op *spatialref.Frame) (cursor.Cursor, error) {
	var c cursor.Cursor
	switch {
	case src.Batch != nil:
		c = codec.NewBatchCursor(src.Batch)
	case src.Request != nil:
		if child == nil {
			return nil, operr.Invalid("materialize", "nested %s request was not resolved", src.Request.Operator)
		}
		res, err := p.evaluate(ctx, child)
		if err != nil {
			return nil, err
		}
		if res.Cursor == nil {
			return nil, operr.Invalid("materialize",
				"nested %s produces a %s result and cannot feed a geometry input", src.Request.Operator, res.Shape)
		}
		c = res.Cursor
	default:
		return cursor.Empty(), nil
	}

	if in == nil || op == nil || model.SameRef(in, op.Ref) {
		return c, nil
	}
	from, err := p.frames.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	return p.engine.Project(c, from, op), nil
}
