package model

import "strings"

type Encoding string

const (
	EncodingUnknown   Encoding = "UNKNOWN"
	EncodingWKB       Encoding = "WKB"
	EncodingWKT       Encoding = "WKT"
	EncodingGeoJSON   Encoding = "GEOJSON"
	EncodingEsriShape Encoding = "ESRI_SHAPE"
	EncodingJSON      Encoding = "JSON"
	EncodingEnvelope  Encoding = "ENVELOPE"
)

// Normalize upper-cases e and maps the empty value to EncodingUnknown.
func (e Encoding) Normalize() Encoding {
	n := Encoding(strings.ToUpper(strings.TrimSpace(string(e))))
	if n == "" {
		return EncodingUnknown
	}
	return n
}

// Binary reports whether items of this encoding travel in EncodedGeometry.Binary.
func (e Encoding) Binary() bool {
	switch e.Normalize() {
	case EncodingWKB, EncodingEsriShape:
		return true
	}
	return false
}

type Operator string

const (
	OpNone Operator = ""

	OpRelate         Operator = "Relate"
	OpEquals         Operator = "Equals"
	OpDisjoint       Operator = "Disjoint"
	OpIntersects     Operator = "Intersects"
	OpWithin         Operator = "Within"
	OpContains       Operator = "Contains"
	OpCrosses        Operator = "Crosses"
	OpTouches        Operator = "Touches"
	OpOverlaps       Operator = "Overlaps"
	OpDistance       Operator = "Distance"
	OpGeodeticLength Operator = "GeodeticLength"
	OpGeodeticArea   Operator = "GeodeticArea"

	OpProject                 Operator = "Project"
	OpUnion                   Operator = "Union"
	OpDifference              Operator = "Difference"
	OpIntersection            Operator = "Intersection"
	OpSymmetricDifference     Operator = "SymmetricDifference"
	OpClip                    Operator = "Clip"
	OpCut                     Operator = "Cut"
	OpBuffer                  Operator = "Buffer"
	OpGeodesicBuffer          Operator = "GeodesicBuffer"
	OpDensifyByLength         Operator = "DensifyByLength"
	OpGeodeticDensifyByLength Operator = "GeodeticDensifyByLength"
	OpSimplify                Operator = "Simplify"
	OpSimplifyOGC             Operator = "SimplifyOGC"
	OpOffset                  Operator = "Offset"
	OpGeneralize              Operator = "Generalize"
	OpGeneralizeByArea        Operator = "GeneralizeByArea"
	OpConvexHull              Operator = "ConvexHull"
	OpBoundary                Operator = "Boundary"
	OpEnclosingCircle         Operator = "EnclosingCircle"
	OpRandomPoints            Operator = "RandomPoints"
	OpLabelPoint              Operator = "LabelPoint"
	OpH3Cover                 Operator = "H3Cover"

	OpExportToWkb       Operator = "ExportToWkb"
	OpExportToWkt       Operator = "ExportToWkt"
	OpExportToGeoJson   Operator = "ExportToGeoJson"
	OpExportToEsriShape Operator = "ExportToEsriShape"
	OpExportToJson      Operator = "ExportToJson"
)

func (o Operator) String() string {
	if o == OpNone {
		return "none"
	}
	return string(o)
}
