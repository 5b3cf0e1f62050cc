// Package dispatch maps each operator to its evaluation shape and the engine
// calls that implement it.
package dispatch

import (
	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/engine"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

type Shape int

const (
	Scalar Shape = iota
	Cursor
	PassThrough
)

func (s Shape) String() string {
	switch s {
	case Scalar:
		return "scalar"
	case Cursor:
		return "cursor"
	case PassThrough:
		return "pass_through"
	}
	return "unknown"
}

// Env is everything an operator evaluation sees. Left and Right are already
// in Frame; Right is nil when the request has no right source.
type Env struct {
	Engine  engine.Engine
	Left    cursor.Cursor
	Right   cursor.Cursor
	Frame   *spatialref.Frame
	Request *model.Request
}

// Output holds either a result cursor or a finished scalar response.
// Encoding, when set, overrides the requested result encoding.
type Output struct {
	Shape    Shape
	Cursor   cursor.Cursor
	Scalar   *model.Response
	Encoding model.Encoding
}

type Entry struct {
	Shape      Shape
	NeedsRight bool
	// PreservesIDs marks 1:1 operators; the request-level rule is the
	// PreservesIDs func.
	PreservesIDs bool
	// Encoding is forced on the output, for export operators.
	Encoding model.Encoding
	Eval     func(Env) (Output, error)
}

// Lookup returns the table entry for op.
func Lookup(op model.Operator) (Entry, error) {
	e, ok := table[op]
	if !ok {
		return Entry{}, operr.Invalid("dispatch", "unrecognized operator %q", string(op))
	}
	return e, nil
}

// Dispatch evaluates env.Request.Operator. Engine errors, including those
// surfacing later from a lazy result cursor, are classified as engine
// failures unless already classified.
func Dispatch(env Env) (Output, error) {
	op := env.Request.Operator
	e, err := Lookup(op)
	if err != nil {
		return Output{}, err
	}
	if e.NeedsRight && env.Right == nil {
		return Output{}, operr.Invalid("dispatch", "%s needs a right geometry", op)
	}
	out, err := e.Eval(env)
	if err != nil {
		return Output{}, operr.EngineFailure(op.String(), err)
	}
	out.Shape = e.Shape
	if e.Encoding != "" {
		out.Encoding = e.Encoding
	}
	if out.Cursor != nil {
		out.Cursor = classify(op, out.Cursor)
		if !PreservesIDs(env.Request) {
			out.Cursor = cursor.StripIDs(out.Cursor)
		}
	}
	return out, nil
}

func classify(op model.Operator, c cursor.Cursor) cursor.Cursor {
	return cursor.Func(func() (cursor.Item, bool, error) {
		it, ok, err := c.Next()
		if err != nil {
			return cursor.Item{}, false, operr.EngineFailure(op.String(), err)
		}
		return it, ok, nil
	})
}

// PreservesIDs reports whether the result of req can carry caller
// identifiers: req has no right source and its left chain reaches an inline
// batch through 1:1 operators only.
func PreservesIDs(req *model.Request) bool {
	if req == nil || req.HasRight() {
		return false
	}
	e, ok := table[req.Operator]
	if !ok || !e.PreservesIDs || mergesItems(req) {
		return false
	}
	switch l := req.Left(); {
	case l.Batch != nil:
		return true
	case l.Request != nil:
		return PreservesIDs(l.Request)
	}
	return false
}
