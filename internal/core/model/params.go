package model

type BufferParams struct {
	Distances               []float64 `json:"distances,omitempty"`
	MaxDeviation            float64   `json:"max_deviation,omitempty"`
	MaxVerticesInFullCircle int       `json:"max_vertices_in_full_circle,omitempty"`
	UnionResult             bool      `json:"union_result,omitempty"`
}

// DistanceAt broadcasts the distance list over input items; the last
// distance repeats.
func (p BufferParams) DistanceAt(i int) float64 {
	if len(p.Distances) == 0 {
		return 0
	}
	if i < len(p.Distances) {
		return p.Distances[i]
	}
	return p.Distances[len(p.Distances)-1]
}

type ConvexParams struct {
	Merge bool `json:"merge,omitempty"`
}

// IntersectionParams.DimensionMask is a bit set over result dimensions:
// 1 points, 2 lines, 4 polygons. Zero means unconstrained.
type IntersectionParams struct {
	DimensionMask int `json:"dimension_mask,omitempty"`
}

type ClipParams struct {
	Envelope Envelope `json:"envelope"`
}

type CutParams struct {
	ConsiderTouch bool `json:"consider_touch,omitempty"`
}

type DensifyParams struct {
	MaxLength float64 `json:"max_length,omitempty"`
}

type SimplifyParams struct {
	Force bool `json:"force,omitempty"`
}

type JoinType string

const (
	JoinRound  JoinType = "Round"
	JoinBevel  JoinType = "Bevel"
	JoinMiter  JoinType = "Miter"
	JoinSquare JoinType = "Square"
)

type OffsetParams struct {
	Distance     float64  `json:"distance"`
	JoinType     JoinType `json:"join_type,omitempty"`
	BevelRatio   float64  `json:"bevel_ratio,omitempty"`
	FlattenError float64  `json:"flatten_error,omitempty"`
}

type GeneralizeParams struct {
	MaxDeviation      float64 `json:"max_deviation"`
	RemoveDegenerates bool    `json:"remove_degenerates,omitempty"`
}

// GeneralizeByAreaParams uses PercentReduction or MaxPointCount, never both.
type GeneralizeByAreaParams struct {
	PercentReduction  float64 `json:"percent_reduction,omitempty"`
	MaxPointCount     int     `json:"max_point_count,omitempty"`
	RemoveDegenerates bool    `json:"remove_degenerates,omitempty"`
}

type RandomPointsParams struct {
	PointsPerSquareKm []float64 `json:"points_per_square_km"`
	Seed              int64     `json:"seed,omitempty"`
}

type RelateParams struct {
	DE9IM string `json:"de_9im"`
}

type H3Params struct {
	Resolution int `json:"resolution"`
}
