package engine

import (
	"log/slog"
	"math"
	"time"

	"github.com/miradorstack/mirador-context/internal/models"
	"github.com/miradorstack/mirador-context/internal/utils"
)

const qualityBoostStep = 0.1

// InfluenceConfig tunes edge influence.
type InfluenceConfig struct {
	// DecayLambda is the exponential decay rate per day.
	DecayLambda float64
	// ConfidenceFloor gates edges whose confidence is strictly below it.
	ConfidenceFloor float64
}

// DefaultInfluenceConfig returns lambda 0.02 per day and a 0.3 confidence floor.
func DefaultInfluenceConfig() InfluenceConfig {
	return InfluenceConfig{DecayLambda: 0.02, ConfidenceFloor: 0.3}
}

// InfluenceEngine scores edges and nodes at a point in time. It holds no
// mutable state and is safe for concurrent use.
type InfluenceEngine struct {
	logger *slog.Logger
	cfg    InfluenceConfig
}

// NewInfluenceEngine validates cfg and constructs an InfluenceEngine.
func NewInfluenceEngine(logger *slog.Logger, cfg InfluenceConfig) (*InfluenceEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validateLambda(cfg.DecayLambda); err != nil {
		return nil, err
	}
	if math.IsNaN(cfg.ConfidenceFloor) || cfg.ConfidenceFloor < 0 || cfg.ConfidenceFloor > 1 {
		return nil, utils.ConfigError("engine.influence", "confidence floor %.3f outside [0,1]", cfg.ConfidenceFloor)
	}
	return &InfluenceEngine{logger: logger, cfg: cfg}, nil
}

func validateLambda(lambda float64) error {
	if math.IsNaN(lambda) || lambda < 0 {
		return utils.ConfigError("engine.influence", "decay lambda %.4f must not be negative", lambda)
	}
	return nil
}

// CalculateInfluence returns the influence of edge at now, in [0,1], using
// the configured decay lambda.
func (e *InfluenceEngine) CalculateInfluence(edge models.RelationshipEdge, now time.Time) (float64, models.InfluenceBreakdown) {
	b := e.influence(edge, now, e.cfg.DecayLambda)
	return b.Influence, b
}

// CalculateInfluenceWithLambda is CalculateInfluence with a per-call decay
// rate. A negative lambda is a configuration error.
func (e *InfluenceEngine) CalculateInfluenceWithLambda(edge models.RelationshipEdge, now time.Time, lambda float64) (float64, models.InfluenceBreakdown, error) {
	if err := validateLambda(lambda); err != nil {
		return 0, models.InfluenceBreakdown{}, err
	}
	b := e.influence(edge, now, lambda)
	return b.Influence, b, nil
}

func (e *InfluenceEngine) influence(edge models.RelationshipEdge, now time.Time, lambda float64) models.InfluenceBreakdown {
	weight := edge.ImpactWeight
	if weight == 0 {
		weight = 1.0
	}
	b := models.InfluenceBreakdown{
		ImpactWeight: weight,
		Strength:     edge.Strength,
		Confidence:   edge.Confidence,
		DecayFactor:  1.0,
		QualityBoost: 1.0,
	}
	b.Base = weight * edge.Strength * edge.Confidence

	// hard gate: low confidence contributes nothing
	if edge.Confidence < e.cfg.ConfidenceFloor {
		b.Gated = true
		return b
	}

	if edge.StartedAt != nil {
		b.DaysElapsed = utils.DaysBetween(*edge.StartedAt, now)
		b.DecayFactor = math.Exp(-lambda * b.DaysElapsed)
	}
	if edge.SignalsPassed > edge.SignalsRequired {
		b.QualityBoost = 1 + qualityBoostStep*float64(edge.SignalsPassed-edge.SignalsRequired)
	}

	b.Raw = b.Base * b.DecayFactor * b.QualityBoost
	b.Influence = models.ClampUnit(b.Raw)
	return b
}

// NodeInfluence sums the influence of open edges leaving and entering nodeID.
func (e *InfluenceEngine) NodeInfluence(nodeID string, edges []models.RelationshipEdge, now time.Time) models.NodeInfluence {
	out := models.NodeInfluence{NodeID: nodeID}
	for _, edge := range edges {
		if !edge.Open() {
			continue
		}
		if edge.Src != nodeID && edge.Dst != nodeID {
			continue
		}
		v, _ := e.CalculateInfluence(edge, now)
		if edge.Src == nodeID {
			out.Outgoing += v
		}
		if edge.Dst == nodeID {
			out.Incoming += v
		}
	}
	return out
}
