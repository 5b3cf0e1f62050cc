// Package engine defines the geometry capability the dispatcher evaluates
// operators against. Inputs and outputs are go-geom values in the frame passed
// alongside them; implementations never reproject unless asked to.
package engine

import (
	"math/rand"

	"github.com/twpayne/go-geom"

	"github.com/mohammed-shakir/geometry-operators/internal/core/model"
	"github.com/mohammed-shakir/geometry-operators/internal/cursor"
	"github.com/mohammed-shakir/geometry-operators/internal/spatialref"
)

type Engine interface {
	Reprojection
	Topology
	Construction
	Generalization
	Relation
	Measurement
}

type Reprojection interface {
	// Project lazily transforms every item pulled from in, keeping identifiers.
	Project(in cursor.Cursor, from, to *spatialref.Frame) cursor.Cursor
}

type Topology interface {
	// Union drains in and returns the union of everything it yielded.
	Union(in cursor.Cursor, f *spatialref.Frame) (geom.T, error)
	Difference(a, b geom.T, f *spatialref.Frame) (geom.T, error)
	// Intersection keeps only the dimensions selected by mask when mask is
	// nonzero; see DimPoint, DimLine and DimArea.
	Intersection(a, b geom.T, mask int, f *spatialref.Frame) (geom.T, error)
	SymmetricDifference(a, b geom.T, f *spatialref.Frame) (geom.T, error)
	Clip(g geom.T, env model.Envelope, f *spatialref.Frame) (geom.T, error)
	// Cut splits g by cutter into the part left of the cutter and the part
	// right of it. It returns nil when cutter does not split g.
	Cut(g, cutter geom.T, considerTouch bool, f *spatialref.Frame) ([]geom.T, error)
}

type Construction interface {
	Buffer(g geom.T, distance float64, p model.BufferParams, f *spatialref.Frame) (geom.T, error)
	// GeodesicBuffer takes distance in meters regardless of the frame's units.
	GeodesicBuffer(g geom.T, distance float64, p model.BufferParams, f *spatialref.Frame) (geom.T, error)
	Offset(g geom.T, p model.OffsetParams, f *spatialref.Frame) (geom.T, error)
	ConvexHull(g geom.T, f *spatialref.Frame) (geom.T, error)
	Boundary(g geom.T, f *spatialref.Frame) (geom.T, error)
	EnclosingCircle(g geom.T, f *spatialref.Frame) (geom.T, error)
	RandomPoints(g geom.T, perSquareKm float64, rng *rand.Rand, f *spatialref.Frame) (geom.T, error)
	LabelPoint(g geom.T, f *spatialref.Frame) (geom.T, error)
	H3Cover(g geom.T, resolution int, f *spatialref.Frame) (geom.T, error)
	Densify(g geom.T, maxLength float64, f *spatialref.Frame) (geom.T, error)
	// GeodeticDensify inserts great-circle vertices; maxLength is in meters.
	GeodeticDensify(g geom.T, maxLength float64, f *spatialref.Frame) (geom.T, error)
}

type Generalization interface {
	Simplify(g geom.T, force bool, f *spatialref.Frame) (geom.T, error)
	SimplifyOGC(g geom.T, force bool, f *spatialref.Frame) (geom.T, error)
	Generalize(g geom.T, maxDeviation float64, removeDegenerates bool, f *spatialref.Frame) (geom.T, error)
	GeneralizeByArea(g geom.T, p model.GeneralizeByAreaParams, f *spatialref.Frame) (geom.T, error)
}

type Relation interface {
	Predicate(p Predicate, a, b geom.T, f *spatialref.Frame) (bool, error)
	// Relate matches the DE-9IM matrix of a and b against pattern.
	Relate(a, b geom.T, pattern string, f *spatialref.Frame) (bool, error)
}

type Measurement interface {
	Distance(a, b geom.T, f *spatialref.Frame) (float64, error)
	// GeodeticLength is in meters on the WGS84 sphere.
	GeodeticLength(g geom.T, f *spatialref.Frame) (float64, error)
	// GeodeticArea is in square meters on the WGS84 sphere.
	GeodeticArea(g geom.T, f *spatialref.Frame) (float64, error)
}

type Predicate int

const (
	Equals Predicate = iota
	Disjoint
	Intersects
	Within
	Contains
	Crosses
	Touches
	Overlaps
)

func (p Predicate) String() string {
	switch p {
	case Equals:
		return "equals"
	case Disjoint:
		return "disjoint"
	case Intersects:
		return "intersects"
	case Within:
		return "within"
	case Contains:
		return "contains"
	case Crosses:
		return "crosses"
	case Touches:
		return "touches"
	case Overlaps:
		return "overlaps"
	}
	return "unknown"
}

// Dimension mask bits for Intersection.
const (
	DimPoint = 1 << iota
	DimLine
	DimArea
)
