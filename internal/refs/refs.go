// Package refs infers the spatial references of every node in a request
// tree before anything is decoded or evaluated.
package refs

import (
	"context"
	"log/slog"

	"github.com/mohammed-shakir/geometry-operators/internal/core/config"
	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/observability"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
)

// Node is a request annotated with its resolved references. Left and Right
// are set for nested requests only; inline batches stay on Request.
type Node struct {
	Request *model.Request
	Refs    model.Triple
	Depth   int
	Left    *Node
	Right   *Node
}

type Resolver struct {
	MaxDepth int
	Policy   config.MismatchPolicy
	Log      *slog.Logger
}

func New(maxDepth int, policy config.MismatchPolicy, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{MaxDepth: maxDepth, Policy: policy, Log: log}
}

// Resolve annotates the whole tree rooted at req. The root is depth 1.
func (r *Resolver) Resolve(ctx context.Context, req *model.Request) (*Node, error) {
	if req == nil {
		return nil, operr.Invalid("resolve", "empty request")
	}
	return r.resolve(ctx, req, 1)
}

func (r *Resolver) resolve(ctx context.Context, req *model.Request, depth int) (*Node, error) {
	if r.MaxDepth > 0 && depth > r.MaxDepth {
		return nil, operr.Exhausted("resolve", "request nesting exceeds %d levels", r.MaxDepth)
	}
	n := &Node{Request: req, Depth: depth}

	left, err := r.source(ctx, req.Left(), depth, &n.Left)
	if err != nil {
		return nil, err
	}
	right, err := r.source(ctx, req.Right(), depth, &n.Right)
	if err != nil {
		return nil, err
	}

	t, err := r.triple(ctx, req, left, right)
	if err != nil {
		return nil, err
	}
	n.Refs = t
	return n, nil
}

// source returns the reference a source delivers its geometries in: the
// batch's declared one, or a nested request's result reference.
func (r *Resolver) source(ctx context.Context, s model.Source, depth int, child **Node) (*model.SpatialRef, error) {
	switch {
	case s.Batch != nil:
		return s.Batch.SR.Canonical(), nil
	case s.Request != nil:
		n, err := r.resolve(ctx, s.Request, depth+1)
		if err != nil {
			return nil, err
		}
		*child = n
		return n.Refs.Result, nil
	}
	return nil, nil
}

func (r *Resolver) triple(ctx context.Context, req *model.Request, left, right *model.SpatialRef) (model.Triple, error) {
	hasRight := req.HasRight()
	op := req.OperationSR.Canonical()
	res := req.ResultSR.Canonical()

	if hasRight && left != nil && right != nil && !model.SameRef(left, right) {
		if op == nil {
			return model.Triple{}, operr.Invalid("resolve",
				"inputs use different spatial references (%s, %s) and no operation_sr is given", left, right)
		}
		switch r.Policy {
		case config.MismatchReject:
			return model.Triple{}, operr.Invalid("resolve",
				"inputs use different spatial references (%s, %s)", left, right)
		case config.MismatchWarn:
			observability.IncSRMismatch()
			r.Log.WarnContext(ctx, "input spatial references differ; operation_sr overrides",
				"left", left.String(), "right", right.String(), "operation", op.String())
		}
	}

	if op == nil && (!hasRight || right == nil || model.SameRef(left, right)) {
		op = left
	}
	if left == nil {
		left = op
	}
	if hasRight && right == nil {
		right = op
	}
	if hasRight && (left == nil) != (right == nil) {
		return model.Triple{}, operr.Invalid("resolve",
			"one input declares a spatial reference and the other does not (left %s, right %s)", left, right)
	}
	if res == nil {
		res = op
	}
	return model.Triple{Input: left, Right: right, Operation: op, Result: res}, nil
}
