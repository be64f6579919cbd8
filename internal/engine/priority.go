package engine

import (
	"math"
	"sort"
	"time"

	"github.com/miradorstack/mirador-context/internal/models"
	"github.com/miradorstack/mirador-context/internal/utils"
)

// Priority weights. Risk is subtracted.
const (
	weightUrgency     = 0.35
	weightOutcomeGain = 0.25
	weightStakeholder = 0.15
	weightRisk        = 0.15
	weightFreshness   = 0.05
	weightConfidence  = 0.05
)

const (
	defaultLevelWeight       = 0.5
	defaultStakeholderWeight = 0.3
	defaultFreshness         = 0.5
)

// CalculatePriorityScore returns the bounded priority of node at now. The
// weighted sum is clamped to [0,1] after summation. edges only feed the
// IncomingInfluence audit field.
func (e *InfluenceEngine) CalculatePriorityScore(node models.ContextNode, edges []models.RelationshipEdge, now time.Time, override models.Override) (float64, models.PriorityBreakdown) {
	b := models.PriorityBreakdown{
		Urgency:           urgency(node.Attributes, now),
		OutcomeGain:       outcomeGain(node.Attributes),
		StakeholderWeight: stakeholderWeight(node.Attributes.Stakeholders),
		RiskPenalty:       riskPenalty(node.Attributes.Risks),
		Freshness:         freshness(node.UpdatedAt, now),
		Confidence:        models.ClampUnit(node.Confidence),
	}
	if override.Expiry != nil && !now.After(*override.Expiry) {
		b.Override = override.Value
		b.OverrideActive = true
	}
	b.IncomingInfluence = e.NodeInfluence(node.ID, edges, now).Incoming

	b.RawScore = weightUrgency*b.Urgency +
		weightOutcomeGain*b.OutcomeGain +
		weightStakeholder*b.StakeholderWeight -
		weightRisk*b.RiskPenalty +
		weightFreshness*b.Freshness +
		weightConfidence*b.Confidence +
		b.Override
	b.Score = models.ClampUnit(b.RawScore)
	return b.Score, b
}

// RankNodes scores every node and sorts them by descending priority, ties
// broken by id.
func (e *InfluenceEngine) RankNodes(nodes []models.ContextNode, edges []models.RelationshipEdge, now time.Time, overrides map[string]models.Override) []models.RankedNode {
	ranked := make([]models.RankedNode, 0, len(nodes))
	for _, node := range nodes {
		score, breakdown := e.CalculatePriorityScore(node, edges, now, overrides[node.ID])
		ranked = append(ranked, models.RankedNode{NodeID: node.ID, Score: score, Breakdown: breakdown})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].NodeID < ranked[j].NodeID
	})
	return ranked
}

func urgency(attrs models.NodeAttributes, now time.Time) float64 {
	if attrs.Deadline != nil {
		if now.After(*attrs.Deadline) {
			return 1.0
		}
		days := utils.DaysBetween(now, *attrs.Deadline)
		switch {
		case days <= 7:
			return 0.9
		case days <= 30:
			return 0.6
		default:
			return 0.3
		}
	}
	return levelWeight(attrs.Priority)
}

func outcomeGain(attrs models.NodeAttributes) float64 {
	if attrs.ImpactScore != nil {
		return models.ClampUnit(*attrs.ImpactScore)
	}
	return levelWeight(attrs.Impact)
}

func stakeholderWeight(stakeholders []models.Stakeholder) float64 {
	if len(stakeholders) == 0 {
		return defaultStakeholderWeight
	}
	sum := 0.0
	for _, s := range stakeholders {
		sum += levelWeight(s.Influence)
	}
	return sum / float64(len(stakeholders))
}

func riskPenalty(risks []models.Risk) float64 {
	if len(risks) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range risks {
		sum += models.ClampUnit(r.Probability) * models.ClampUnit(r.Impact) * (1 - models.ClampUnit(r.MitigationEffectiveness))
	}
	return sum / float64(len(risks))
}

func freshness(updated, now time.Time) float64 {
	if updated.IsZero() {
		return defaultFreshness
	}
	days := utils.DaysBetween(updated, now)
	if days <= 1 {
		return 1.0
	}
	return math.Exp(-0.1 * days)
}

// levelWeight maps a label onto its weight; missing or unknown labels are medium.
func levelWeight(l models.Level) float64 {
	if w, ok := l.Weight(); ok {
		return w
	}
	return defaultLevelWeight
}
