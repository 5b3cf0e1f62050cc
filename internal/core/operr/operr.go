// Package operr classifies operation failures so transports can map them to
// status codes.
package operr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind int

const (
	Internal Kind = iota
	InvalidArgument
	ResourceExhausted
	Engine
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case ResourceExhausted:
		return "resource_exhausted"
	case Engine:
		return "engine"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func Invalid(op, format string, args ...any) error {
	return &Error{Kind: InvalidArgument, Op: op, Err: fmt.Errorf(format, args...)}
}

func Exhausted(op, format string, args ...any) error {
	return &Error{Kind: ResourceExhausted, Op: op, Err: fmt.Errorf(format, args...)}
}

// EngineFailure wraps an error reported by the geometry engine. Already
// classified errors are returned unchanged.
func EngineFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: Engine, Op: op, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func GRPCCode(err error) codes.Code {
	switch KindOf(err) {
	case InvalidArgument:
		return codes.InvalidArgument
	case ResourceExhausted:
		return codes.ResourceExhausted
	case Engine:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// GRPCStatus converts err to a status error; nil stays nil.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(GRPCCode(err), err.Error())
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case InvalidArgument:
		return http.StatusBadRequest
	case ResourceExhausted:
		return http.StatusTooManyRequests
	case Engine:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
