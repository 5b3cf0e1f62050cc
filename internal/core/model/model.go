// Package model defines the request and response types shared across the service.
package model

import (
	"fmt"
	"math"
)

// Request is one node of an operation tree. A node reads its left input from
// LeftGeometry/LeftGeometryRequest, falling back to the singular
// Geometry/GeometryRequest alias, and its right input from
// RightGeometry/RightGeometryRequest.
type Request struct {
	Operator Operator `json:"operator,omitempty"`

	Geometry             *GeometryBatch `json:"geometry,omitempty"`
	GeometryRequest      *Request       `json:"geometry_request,omitempty"`
	LeftGeometry         *GeometryBatch `json:"left_geometry,omitempty"`
	LeftGeometryRequest  *Request       `json:"left_geometry_request,omitempty"`
	RightGeometry        *GeometryBatch `json:"right_geometry,omitempty"`
	RightGeometryRequest *Request       `json:"right_geometry_request,omitempty"`

	OperationSR *SpatialRef `json:"operation_sr,omitempty"`
	ResultSR    *SpatialRef `json:"result_sr,omitempty"`

	ResultEncoding Encoding `json:"result_encoding,omitempty"`

	BufferParams           *BufferParams           `json:"buffer_params,omitempty"`
	ConvexParams           *ConvexParams           `json:"convex_params,omitempty"`
	IntersectionParams     *IntersectionParams     `json:"intersection_params,omitempty"`
	ClipParams             *ClipParams             `json:"clip_params,omitempty"`
	CutParams              *CutParams              `json:"cut_params,omitempty"`
	DensifyParams          *DensifyParams          `json:"densify_params,omitempty"`
	SimplifyParams         *SimplifyParams         `json:"simplify_params,omitempty"`
	OffsetParams           *OffsetParams           `json:"offset_params,omitempty"`
	GeneralizeParams       *GeneralizeParams       `json:"generalize_params,omitempty"`
	GeneralizeByAreaParams *GeneralizeByAreaParams `json:"generalize_by_area_params,omitempty"`
	RandomPointsParams     *RandomPointsParams     `json:"random_points_params,omitempty"`
	RelateParams           *RelateParams           `json:"relate_params,omitempty"`
	H3Params               *H3Params               `json:"h3_params,omitempty"`
}

// Source is one resolved input position of a request: exactly one of Batch
// and Request is set, or neither when the position is empty.
type Source struct {
	Batch   *GeometryBatch
	Request *Request
}

func (s Source) Present() bool { return s.Batch != nil || s.Request != nil }

// Left applies the left-position precedence: explicit left fields win over
// the singular alias, inline batches win over nested requests.
func (r *Request) Left() Source {
	switch {
	case r.LeftGeometry != nil:
		return Source{Batch: r.LeftGeometry}
	case r.LeftGeometryRequest != nil:
		return Source{Request: r.LeftGeometryRequest}
	case r.Geometry != nil:
		return Source{Batch: r.Geometry}
	case r.GeometryRequest != nil:
		return Source{Request: r.GeometryRequest}
	}
	return Source{}
}

func (r *Request) Right() Source {
	switch {
	case r.RightGeometry != nil:
		return Source{Batch: r.RightGeometry}
	case r.RightGeometryRequest != nil:
		return Source{Request: r.RightGeometryRequest}
	}
	return Source{}
}

func (r *Request) HasRight() bool { return r.Right().Present() }

// GeometryBatch is an ordered list of encoded geometries sharing one encoding
// and one optional spatial reference.
type GeometryBatch struct {
	Encoding   Encoding          `json:"encoding,omitempty"`
	SR         *SpatialRef       `json:"sr,omitempty"`
	Geometries []EncodedGeometry `json:"geometries"`
}

// EncodedGeometry holds a single encoded geometry. Text carries WKT, GeoJSON
// and JSON payloads; Binary carries WKB and shape payloads.
type EncodedGeometry struct {
	ID     *int64 `json:"id,omitempty"`
	Text   string `json:"text,omitempty"`
	Binary []byte `json:"binary,omitempty"`
}

func ID(v int64) *int64 { return &v }

type Envelope struct {
	XMin  float64     `json:"xmin"`
	YMin  float64     `json:"ymin"`
	XMax  float64     `json:"xmax"`
	YMax  float64     `json:"ymax"`
	SR    *SpatialRef `json:"sr,omitempty"`
	// Empty marks an envelope of nothing on the wire, where the inverted
	// bounds cannot be represented.
	Empty bool        `json:"empty,omitempty"`
}

// EmptyEnvelope returns an inverted envelope that any Extend call replaces.
func EmptyEnvelope() Envelope {
	return Envelope{XMin: math.Inf(1), YMin: math.Inf(1), XMax: math.Inf(-1), YMax: math.Inf(-1)}
}

func (e Envelope) IsEmpty() bool { return e.Empty || e.XMin > e.XMax || e.YMin > e.YMax }

// String representation matching wfs/wms bbox format
func (e Envelope) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", e.XMin, e.YMin, e.XMax, e.YMax)
}

// Response carries exactly one result kind.
type Response struct {
	Geometry            *GeometryBatch `json:"geometry,omitempty"`
	Measure             *float64       `json:"measure,omitempty"`
	SpatialRelationship *bool          `json:"spatial_relationship,omitempty"`
	RelateMap           map[int64]bool `json:"relate_map,omitempty"`
	Envelope            *Envelope      `json:"envelope,omitempty"`
}

// Triple is the resolved spatial-reference assignment of one request node.
// Input is the left input's reference; Right is set only for nodes with a
// right source. Nil means "no reference".
type Triple struct {
	Input     *SpatialRef
	Right     *SpatialRef
	Operation *SpatialRef
	Result    *SpatialRef
}
