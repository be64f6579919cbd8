package models

import "time"

// Reasons attached to invalid pattern findings.
const (
	ReasonIncompleteCycle = "incomplete_cycle"
	ReasonNotPentagon     = "not_a_pentagon"
	ReasonZeroWeights     = "zero_weights"
	ReasonTooFewPoints    = "too_few_points"
	ReasonNoAngularSpread = "no_angular_spread"
)

// PentagonFinding describes a closed 5-cycle and its golden-ratio compliance.
type PentagonFinding struct {
	Cycle       []string  `json:"cycle"`
	Valid       bool      `json:"valid"`
	PhiScore    float64   `json:"phi_score"`
	Ratios      []float64 `json:"ratios,omitempty"`
	EdgeWeights []float64 `json:"edge_weights,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// TriangleReport aggregates closed 3-cycles. Triangles is only populated for
// small snapshots.
type TriangleReport struct {
	Count              int        `json:"triangle_count"`
	Triangles          [][]string `json:"triangles,omitempty"`
	StabilityIndicator int        `json:"stability_indicator"`
}

// Point is a planar position.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// SpiralParams are the fitted parameters of r = Scale * e^(GrowthRate*theta).
type SpiralParams struct {
	Scale      float64 `json:"a"`
	GrowthRate float64 `json:"b"`
	RSquared   float64 `json:"r_squared"`
	Reason     string  `json:"reason,omitempty"`
}

// SpiralFinding is a path whose node positions fit a logarithmic spiral.
type SpiralFinding struct {
	Path         []string     `json:"path"`
	Positions    []Point      `json:"positions"`
	Params       SpiralParams `json:"spiral_params"`
	GrowthFactor float64      `json:"growth_factor"`
	Valid        bool         `json:"valid"`
}

// PatternReport is the aggregate result of a comprehensive analysis.
type PatternReport struct {
	SnapshotID             string            `json:"snapshot_id"`
	GeneratedAt            time.Time         `json:"generated_at"`
	NodeCount              int               `json:"node_count"`
	EdgeCount              int               `json:"edge_count"`
	Pentagons              []PentagonFinding `json:"pentagons"`
	ValidPentagons         int               `json:"valid_pentagons"`
	PentagonComplianceRate float64           `json:"pentagon_compliance_rate"`
	Triangles              TriangleReport    `json:"triangles"`
	TriangleDensity        float64           `json:"normalized_triangle_density"`
	Spirals                []SpiralFinding   `json:"spirals,omitempty"`
	SpiralsAnalyzed        bool              `json:"spirals_analyzed"`
	SacredGeometryScore    float64           `json:"sacred_geometry_score"`
}
