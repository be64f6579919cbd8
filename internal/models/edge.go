package models

import (
	"math"
	"time"
)

// Signal enumerates the five evidence families.
type Signal string

const (
	SignalSemantic    Signal = "semantic"
	SignalStatistical Signal = "statistical"
	SignalStructural  Signal = "structural"
	SignalTemporal    Signal = "temporal"
	SignalSpatial     Signal = "spatial"
)

// AllSignals lists the families in their canonical order.
var AllSignals = []Signal{
	SignalSemantic,
	SignalStatistical,
	SignalStructural,
	SignalTemporal,
	SignalSpatial,
}

// ParseSignal returns the family named by s.
func ParseSignal(s string) (Signal, bool) {
	for _, sig := range AllSignals {
		if string(sig) == s {
			return sig, true
		}
	}
	return "", false
}

// SignalVector holds one score in [0,1] per evidence family.
type SignalVector struct {
	Semantic    float64 `json:"semantic" yaml:"semantic"`
	Statistical float64 `json:"statistical" yaml:"statistical"`
	Structural  float64 `json:"structural" yaml:"structural"`
	Temporal    float64 `json:"temporal" yaml:"temporal"`
	Spatial     float64 `json:"spatial" yaml:"spatial"`
}

// Get returns the score for sig.
func (v SignalVector) Get(sig Signal) float64 {
	switch sig {
	case SignalSemantic:
		return v.Semantic
	case SignalStatistical:
		return v.Statistical
	case SignalStructural:
		return v.Structural
	case SignalTemporal:
		return v.Temporal
	case SignalSpatial:
		return v.Spatial
	default:
		return 0
	}
}

// Set assigns the score for sig.
func (v *SignalVector) Set(sig Signal, value float64) {
	switch sig {
	case SignalSemantic:
		v.Semantic = value
	case SignalStatistical:
		v.Statistical = value
	case SignalStructural:
		v.Structural = value
	case SignalTemporal:
		v.Temporal = value
	case SignalSpatial:
		v.Spatial = value
	}
}

// Clamp returns a copy with every component in [0,1]; NaN becomes 0.
func (v SignalVector) Clamp() SignalVector {
	out := SignalVector{}
	for _, sig := range AllSignals {
		out.Set(sig, ClampUnit(v.Get(sig)))
	}
	return out
}

// Map returns the scores keyed by family.
func (v SignalVector) Map() map[Signal]float64 {
	m := make(map[Signal]float64, len(AllSignals))
	for _, sig := range AllSignals {
		m[sig] = v.Get(sig)
	}
	return m
}

// ClampUnit bounds x to [0,1], mapping NaN to 0.
func ClampUnit(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// EdgeType tags a relationship.
type EdgeType string

const (
	EdgeDependsOn     EdgeType = "depends_on"
	EdgeSupports      EdgeType = "supports"
	EdgeConflictsWith EdgeType = "conflicts_with"
	EdgeInfluences    EdgeType = "influences"
	EdgeRelatedTo     EdgeType = "related_to"
)

// Valid reports whether t belongs to the closed set of edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeDependsOn, EdgeSupports, EdgeConflictsWith, EdgeInfluences, EdgeRelatedTo:
		return true
	default:
		return false
	}
}

// Thresholds holds the per-family pass thresholds.
type Thresholds map[Signal]float64

// DefaultThresholds returns semantic 0.6, statistical 0.4, structural 0.5,
// temporal 0.3 and spatial 0.7.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SignalSemantic:    0.6,
		SignalStatistical: 0.4,
		SignalStructural:  0.5,
		SignalTemporal:    0.3,
		SignalSpatial:     0.7,
	}
}

// Clone returns an independent copy.
func (t Thresholds) Clone() Thresholds {
	out := make(Thresholds, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Provenance records how an edge was promoted, enough to replay the decision
// against different thresholds without recomputing signals.
type Provenance struct {
	Method        string             `json:"method"`
	Version       string             `json:"version"`
	Thresholds    Thresholds         `json:"thresholds"`
	RawScores     map[Signal]float64 `json:"raw_scores"`
	Passed        map[Signal]bool    `json:"passed"`
	FailedSignals []Signal           `json:"failed_signals,omitempty"`
}

// RelationshipEdge is a promoted, directed relationship between two nodes.
// Only EndedAt changes after creation.
type RelationshipEdge struct {
	ID              string       `json:"id"`
	Src             string       `json:"src"`
	Dst             string       `json:"dst"`
	Type            EdgeType     `json:"type"`
	Strength        float64      `json:"strength"`
	Confidence      float64      `json:"confidence"`
	Signals         SignalVector `json:"signals"`
	SignalsRequired int          `json:"signals_required"`
	SignalsPassed   int          `json:"signals_passed"`
	ImpactWeight    float64      `json:"impact_weight"`
	StartedAt       *time.Time   `json:"started_at,omitempty"`
	EndedAt         *time.Time   `json:"ended_at,omitempty"`
	Provenance      Provenance   `json:"provenance"`
}

// Open reports whether the edge has not been closed.
func (e RelationshipEdge) Open() bool {
	return e.EndedAt == nil
}
