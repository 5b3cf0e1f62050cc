// Package results turns an evaluated request into wire responses, encoding
// geometries one at a time as the transport asks for them.
package results

import (
	"io"

	"github.com/mohammed-shakir/geometry-operators/internal/codec"
	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/geomx"
)

// Iterator yields responses until HasNext reports false. It is single pass;
// an error ends it.
type Iterator struct {
	c       cursor.Cursor
	enc     model.Encoding
	sr      *model.SpatialRef
	compact bool

	pending *model.Response
	err     error
	done    bool
}

// FromScalar yields resp once.
func FromScalar(resp *model.Response) *Iterator {
	return &Iterator{pending: resp, done: true}
}

// New iterates c. Geometries are written in enc, where an unset or UNKNOWN
// encoding means WKB, and labelled with sr. With compact set the whole cursor
// becomes one batch. ENVELOPE always yields a single envelope.
func New(c cursor.Cursor, enc model.Encoding, sr *model.SpatialRef, compact bool) *Iterator {
	enc = enc.Normalize()
	if enc == model.EncodingUnknown {
		enc = model.EncodingWKB
	}
	if c == nil {
		c = cursor.Empty()
	}
	return &Iterator{c: c, enc: enc, sr: sr, compact: compact}
}

func (it *Iterator) HasNext() bool {
	if it.pending == nil && it.err == nil && !it.done {
		it.advance()
	}
	return it.pending != nil || it.err != nil
}

// Next returns io.EOF once the iterator is exhausted.
func (it *Iterator) Next() (model.Response, error) {
	if !it.HasNext() {
		return model.Response{}, io.EOF
	}
	if it.err != nil {
		err := it.err
		it.err = nil
		it.done = true
		return model.Response{}, err
	}
	r := *it.pending
	it.pending = nil
	return r, nil
}

func (it *Iterator) advance() {
	switch {
	case it.enc == model.EncodingEnvelope:
		it.done = true
		it.pending, it.err = it.envelope()
	case it.compact:
		it.done = true
		it.pending, it.err = it.batch()
	default:
		item, ok, err := it.c.Next()
		if err != nil || !ok {
			it.done = true
			it.err = err
			return
		}
		eg, err := it.encode(item)
		if err != nil {
			it.done = true
			it.err = err
			return
		}
		it.pending = it.response([]model.EncodedGeometry{eg})
	}
}

func (it *Iterator) encode(item cursor.Item) (model.EncodedGeometry, error) {
	eg, err := codec.Encode(it.enc, item.Geom)
	if err != nil {
		return model.EncodedGeometry{}, operr.Invalid("encode", "%s: %v", it.enc, err)
	}
	if item.HasID {
		eg.ID = model.ID(item.ID)
	}
	return eg, nil
}

func (it *Iterator) response(gs []model.EncodedGeometry) *model.Response {
	return &model.Response{Geometry: &model.GeometryBatch{Encoding: it.enc, SR: it.sr, Geometries: gs}}
}

func (it *Iterator) batch() (*model.Response, error) {
	gs := []model.EncodedGeometry{}
	for {
		item, ok, err := it.c.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return it.response(gs), nil
		}
		eg, err := it.encode(item)
		if err != nil {
			return nil, err
		}
		gs = append(gs, eg)
	}
}

func (it *Iterator) envelope() (*model.Response, error) {
	env := model.EmptyEnvelope()
	for {
		item, ok, err := it.c.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		env = geomx.Envelope(env, item.Geom)
	}
	if env.IsEmpty() {
		env = model.Envelope{Empty: true}
	}
	env.SR = it.sr
	return &model.Response{Envelope: &env}, nil
}
