package models

import "time"

// ContextNode is a read-only view of a context node owned by the graph store.
type ContextNode struct {
	ID         string
	Features   Features
	Confidence float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Attributes NodeAttributes
}

// Features bundles the payloads handed to signal analyzers.
type Features struct {
	Text     string
	Series   []float64
	Metadata map[string]string
	Timeline []time.Time
	Location *Location
}

// Location is a spatial coordinate. When Geo is set, X is longitude and Y is
// latitude in degrees.
type Location struct {
	X   float64
	Y   float64
	Geo bool
}

// Level is a four-step qualitative scale shared by priority, impact and
// stakeholder influence labels.
type Level string

const (
	LevelCritical Level = "critical"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
)

// Weight maps a level onto {1.0, 0.8, 0.5, 0.2}. Unknown levels report ok=false.
func (l Level) Weight() (float64, bool) {
	switch l {
	case LevelCritical:
		return 1.0, true
	case LevelHigh:
		return 0.8, true
	case LevelMedium:
		return 0.5, true
	case LevelLow:
		return 0.2, true
	default:
		return 0, false
	}
}

// NodeAttributes carries the optional inputs of the priority score.
type NodeAttributes struct {
	Deadline     *time.Time
	Priority     Level
	ImpactScore  *float64
	Impact       Level
	Stakeholders []Stakeholder
	Risks        []Risk
}

// Stakeholder is a party with a stake in the node's outcome.
type Stakeholder struct {
	Name      string
	Influence Level
}

// Risk is a recorded risk with its mitigation.
type Risk struct {
	Description             string
	Probability             float64
	Impact                  float64
	MitigationEffectiveness float64
}
