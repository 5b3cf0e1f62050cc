// Package codec converts between wire-encoded geometries and go-geom values.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/core/operr"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
)

var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// Decode parses one encoded geometry. Unknown encodings are read as WKB.
func Decode(enc model.Encoding, eg model.EncodedGeometry) (geom.T, error) {
	switch enc.Normalize() {
	case model.EncodingUnknown, model.EncodingWKB:
		g, err := wkb.Unmarshal(eg.Binary)
		if err != nil {
			return nil, fmt.Errorf("wkb: %w", err)
		}
		return g, nil
	case model.EncodingWKT:
		g, err := wkt.Unmarshal(eg.Text)
		if err != nil {
			return nil, fmt.Errorf("wkt: %w", err)
		}
		return g, nil
	case model.EncodingGeoJSON:
		return decodeGeoJSON(eg.Text)
	case model.EncodingEsriShape:
		return decodeShape(eg.Binary)
	case model.EncodingJSON:
		return decodeEsriJSON(eg.Text)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
}

// Encode serializes g. Unknown encodings are written as WKB.
func Encode(enc model.Encoding, g geom.T) (model.EncodedGeometry, error) {
	switch enc.Normalize() {
	case model.EncodingUnknown, model.EncodingWKB:
		b, err := wkb.Marshal(g, binary.LittleEndian)
		if err != nil {
			return model.EncodedGeometry{}, fmt.Errorf("wkb: %w", err)
		}
		return model.EncodedGeometry{Binary: b}, nil
	case model.EncodingWKT:
		s, err := wkt.Marshal(g)
		if err != nil {
			return model.EncodedGeometry{}, fmt.Errorf("wkt: %w", err)
		}
		return model.EncodedGeometry{Text: s}, nil
	case model.EncodingGeoJSON:
		b, err := geojson.Marshal(g)
		if err != nil {
			return model.EncodedGeometry{}, fmt.Errorf("geojson: %w", err)
		}
		return model.EncodedGeometry{Text: string(b)}, nil
	case model.EncodingEsriShape:
		b, err := encodeShape(g)
		if err != nil {
			return model.EncodedGeometry{}, err
		}
		return model.EncodedGeometry{Binary: b}, nil
	case model.EncodingJSON:
		s, err := encodeEsriJSON(g)
		if err != nil {
			return model.EncodedGeometry{}, err
		}
		return model.EncodedGeometry{Text: s}, nil
	default:
		return model.EncodedGeometry{}, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
}

// decodeGeoJSON accepts a bare geometry or a Feature wrapping one.
func decodeGeoJSON(s string) (geom.T, error) {
	var hdr struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(s), &hdr); err != nil {
		return nil, fmt.Errorf("geojson: %w", err)
	}
	if strings.EqualFold(hdr.Type, "Feature") {
		var f geojson.Feature
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			return nil, fmt.Errorf("geojson feature: %w", err)
		}
		if f.Geometry == nil {
			return nil, errors.New("geojson feature: missing geometry")
		}
		return f.Geometry, nil
	}
	var g geom.T
	if err := geojson.Unmarshal([]byte(s), &g); err != nil {
		return nil, fmt.Errorf("geojson: %w", err)
	}
	return g, nil
}

// NewBatchCursor decodes the items of b one at a time as they are pulled.
// Decode failures surface as invalid-argument errors naming the item index.
func NewBatchCursor(b *model.GeometryBatch) cursor.Cursor {
	if b == nil {
		return cursor.Empty()
	}
	enc := b.Encoding
	items := b.Geometries
	idx := 0
	return cursor.Func(func() (cursor.Item, bool, error) {
		if idx >= len(items) {
			return cursor.Item{}, false, nil
		}
		eg := items[idx]
		i := idx
		idx++
		g, err := Decode(enc, eg)
		if err != nil {
			idx = len(items)
			return cursor.Item{}, false, operr.Invalid("decode", "geometry %d: %v", i, err)
		}
		it := cursor.Item{Geom: g}
		if eg.ID != nil {
			it.ID, it.HasID = *eg.ID, true
		}
		return it, true, nil
	})
}
