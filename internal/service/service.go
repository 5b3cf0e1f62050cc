// Package service runs operation requests end to end for the transports:
// evaluation, encoding, metrics, audit events and request logging.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/geometry-operators/internal/auditevents"
	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/observability"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/logger"
	"github.com/mohammed-shakir/geometry-operators/internal/pipeline"
	"github.com/mohammed-shakir/geometry-operators/internal/results"
)

// Auditor receives one event per request. Publish must not block.
type Auditor interface {
	Publish(auditevents.Event)
}

type Options struct {
	Pipeline *pipeline.Pipeline
	Audit    Auditor
	Logger   *slog.Logger
}

type Service struct {
	pipe  *pipeline.Pipeline
	audit Auditor
	log   *slog.Logger
	now   func() time.Time // for tests
}

func New(o Options) *Service {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Service{pipe: o.Pipeline, audit: o.Audit, log: o.Logger, now: time.Now}
}

// Execute evaluates req and returns its whole result as one response.
func (s *Service) Execute(ctx context.Context, req *model.Request) (model.Response, error) {
	var out model.Response
	err := s.Stream(ctx, req, true, func(r model.Response) error {
		out = r
		return nil
	})
	if err != nil {
		return model.Response{}, err
	}
	return out, nil
}

// Stream evaluates req and hands every response to send as it is encoded.
// With compact set there is exactly one response. Cancellation is checked
// between responses; an error from send ends the stream.
func (s *Service) Stream(ctx context.Context, req *model.Request, compact bool, send func(model.Response) error) (err error) {
	if req == nil {
		return operr.Invalid("request", "empty request")
	}
	start := s.now()
	op := req.Operator.String()
	ctx = logger.WithOperator(ctx, op)

	shape, depth, sent := "unknown", 0, 0
	defer func() {
		s.finish(ctx, req, shape, depth, sent, start, err)
	}()

	res, err := s.pipe.Evaluate(ctx, req)
	if err != nil {
		return err
	}
	shape, depth = res.Shape.String(), res.Depth

	var it *results.Iterator
	if res.Scalar != nil {
		it = results.FromScalar(res.Scalar)
	} else {
		it = results.New(res.Cursor, res.Encoding, res.SR, compact)
	}
	for it.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := it.Next()
		if err != nil {
			return err
		}
		if err := send(r); err != nil {
			return err
		}
		sent++
	}
	return nil
}

func (s *Service) finish(ctx context.Context, req *model.Request, shape string, depth, sent int, start time.Time, err error) {
	took := s.now().Sub(start)
	oc := outcome(err)
	observability.ObserveOperation(req.Operator.String(), shape, oc, took.Seconds())

	if s.audit != nil {
		s.audit.Publish(auditevents.Event{
			Fingerprint: auditevents.Fingerprint(req),
			Operator:    req.Operator.String(),
			Depth:       depth,
			Outcome:     oc,
			Items:       sent,
			DurationMS:  float64(took.Microseconds()) / 1000,
			TS:          start.UTC(),
		})
	}

	if err != nil {
		lvl := slog.LevelWarn
		if operr.KindOf(err) == operr.Internal && oc != "canceled" {
			lvl = slog.LevelError
		}
		s.log.Log(ctx, lvl, "operation failed", "shape", shape, "depth", depth, "sent", sent, "outcome", oc, "took", took, "err", err)
		return
	}
	s.log.DebugContext(ctx, "operation done", "shape", shape, "depth", depth, "sent", sent, "took", took)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return operr.KindOf(err).String()
}
