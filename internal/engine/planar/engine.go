// Package planar is the reference geometry engine. Topology runs on
// ctessum/geom's polygon clipper, geodetic measures on the S2 sphere and H3
// covers on uber/h3-go; everything else works on go-geom coordinates.
package planar

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/engine"
	"github.com/mohammed-shakir/geometry-operators/internal/mapper"
	h3mapper "github.com/mohammed-shakir/geometry-operators/internal/mapper/h3"
)

var _ engine.Engine = (*Engine)(nil)

var errUnsupported = errors.New("unsupported geometry type")

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithCellMapper replaces the H3 cell mapper used by H3Cover.
func WithCellMapper(m mapper.Interface) Option {
	return func(e *Engine) { e.cells = m }
}

// WithMaxRandomPoints caps the points RandomPoints may generate per geometry.
func WithMaxRandomPoints(n int) Option {
	return func(e *Engine) { e.maxRandomPoints = n }
}

type Engine struct {
	log             *slog.Logger
	cells           mapper.Interface
	maxRandomPoints int
}

func New(opts ...Option) *Engine {
	e := &Engine{
		log:             slog.Default(),
		cells:           h3mapper.New(),
		maxRandomPoints: 1_000_000,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func unsupported(op string, g geom.T) error {
	return fmt.Errorf("%s: %w %T", op, errUnsupported, g)
}
