package models

import "time"

// InfluenceBreakdown exposes every factor of an edge influence value.
type InfluenceBreakdown struct {
	ImpactWeight float64 `json:"impact_weight"`
	Strength     float64 `json:"strength"`
	Confidence   float64 `json:"confidence"`
	Base         float64 `json:"base"`
	Gated        bool    `json:"gated"`
	DaysElapsed  float64 `json:"days_elapsed"`
	DecayFactor  float64 `json:"decay_factor"`
	QualityBoost float64 `json:"quality_boost"`
	Raw          float64 `json:"raw"`
	Influence    float64 `json:"influence"`
}

// NodeInfluence sums edge influence flowing out of and into a node.
type NodeInfluence struct {
	NodeID   string  `json:"node_id"`
	Outgoing float64 `json:"outgoing"`
	Incoming float64 `json:"incoming"`
}

// Override is a time-boxed manual priority boost.
type Override struct {
	Value  float64
	Expiry *time.Time
}

// PriorityBreakdown exposes every sub-term of a priority score by name.
type PriorityBreakdown struct {
	Urgency           float64 `json:"urgency"`
	OutcomeGain       float64 `json:"outcome_gain"`
	StakeholderWeight float64 `json:"stakeholder_weight"`
	RiskPenalty       float64 `json:"risk_penalty"`
	Freshness         float64 `json:"freshness"`
	Confidence        float64 `json:"confidence"`
	Override          float64 `json:"override"`
	OverrideActive    bool    `json:"override_active"`
	IncomingInfluence float64 `json:"incoming_influence"`
	RawScore          float64 `json:"raw_score"`
	Score             float64 `json:"score"`
}

// RankedNode pairs a node id with its priority.
type RankedNode struct {
	NodeID    string            `json:"node_id"`
	Score     float64           `json:"score"`
	Breakdown PriorityBreakdown `json:"breakdown"`
}
