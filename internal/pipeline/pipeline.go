// Package pipeline evaluates a request tree bottom-up: references are
// resolved for the whole tree first, then every node materializes its inputs,
// dispatches its operator and reprojects the output into its result frame.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/dispatch"
	"github.com/mohammed-shakir/geometry-operators/internal/engine"
	"github.com/mohammed-shakir/geometry-operators/internal/refs"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

type Options struct {
	Engine engine.Engine
	Refs   *refs.Resolver
	Frames *spatialref.Resolver
	Logger *slog.Logger
}

type Pipeline struct {
	engine engine.Engine
	refs   *refs.Resolver
	frames *spatialref.Resolver
	log    *slog.Logger
}

func New(o Options) (*Pipeline, error) {
	if o.Engine == nil || o.Refs == nil || o.Frames == nil {
		return nil, errors.New("pipeline: engine, reference resolver and frame resolver are required")
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Pipeline{engine: o.Engine, refs: o.Refs, frames: o.Frames, log: o.Logger}, nil
}

// Result is an evaluated request. Exactly one of Cursor and Scalar is set.
type Result struct {
	Shape    dispatch.Shape
	Cursor   cursor.Cursor
	Scalar   *model.Response
	Encoding model.Encoding
	// SR is the reference the cursor's geometries are expressed in.
	SR *model.SpatialRef
	// Depth is the nesting depth of the evaluated tree.
	Depth int
}

// Evaluate runs req. The returned cursor is lazy: engine work for cursor
// operators happens as the caller pulls it.
func (p *Pipeline) Evaluate(ctx context.Context, req *model.Request) (*Result, error) {
	root, err := p.refs.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := p.evaluate(ctx, root)
	if err != nil {
		return nil, err
	}
	// only the top node's encoding applies
	if res.Encoding == "" {
		res.Encoding = req.ResultEncoding
	}
	res.Depth = treeDepth(root)
	return res, nil
}

func (p *Pipeline) evaluate(ctx context.Context, n *refs.Node) (*Result, error) {
	req := n.Request
	opFrame, err := p.frames.Resolve(ctx, n.Refs.Operation)
	if err != nil {
		return nil, err
	}

	left, err := p.materialize(ctx, req.Left(), n.Left, n.Refs.Input, opFrame)
	if err != nil {
		return nil, err
	}
	var right cursor.Cursor
	if req.HasRight() {
		if right, err = p.materialize(ctx, req.Right(), n.Right, n.Refs.Right, opFrame); err != nil {
			return nil, err
		}
	}

	out, err := dispatch.Dispatch(dispatch.Env{
		Engine:  p.engine,
		Left:    left,
		Right:   right,
		Frame:   opFrame,
		Request: req,
	})
	if err != nil {
		return nil, err
	}
	p.log.DebugContext(ctx, "node dispatched",
		"operator", req.Operator.String(),
		"depth", n.Depth,
		"shape", out.Shape.String(),
		"operation_sr", n.Refs.Operation.String(),
		"result_sr", n.Refs.Result.String())

	res := &Result{Shape: out.Shape, Scalar: out.Scalar, Encoding: out.Encoding, SR: n.Refs.Result}
	// without an operation frame the output stays in local coordinates, so
	// it carries no reference at all
	if opFrame == nil {
		res.SR = nil
	}
	if out.Cursor == nil {
		return res, nil
	}
	res.Cursor = out.Cursor
	if opFrame != nil && !model.SameRef(n.Refs.Result, n.Refs.Operation) {
		to, err := p.frames.Resolve(ctx, n.Refs.Result)
		if err != nil {
			return nil, err
		}
		res.Cursor = p.engine.Project(out.Cursor, opFrame, to)
	}
	return res, nil
}

func treeDepth(n *refs.Node) int {
	if n == nil {
		return 0
	}
	return max(n.Depth, treeDepth(n.Left), treeDepth(n.Right))
}
