package patterns

import (
	"math"

	"github.com/miradorstack/mirador-context/internal/models"
)

// Phi is the golden ratio.
const Phi = 1.6180339887498948

// PhiConfig tunes pentagon harmony scoring.
type PhiConfig struct {
	// Tolerance is the accepted relative deviation from Phi.
	Tolerance float64
	// MinPhiScore is the compliant fraction required for a valid pentagon.
	MinPhiScore float64
	// IncludeClosingRatio scores the ratio from the weakest edge back to the
	// strongest as well. Off by default: in a closed cycle the five ratios
	// multiply to one, so the closing ratio can never be Phi when the others are.
	IncludeClosingRatio bool
}

// DefaultPhiConfig returns a 5% tolerance and a 0.6 majority threshold.
func DefaultPhiConfig() PhiConfig {
	return PhiConfig{Tolerance: 0.05, MinPhiScore: 0.6}
}

// ValidatePentagonPhiRatios scores how closely consecutive edge strengths of a
// 5-cycle follow the golden ratio. The cycle is read starting from its
// strongest edge; ratios are w[i]/w[i+1] and zero denominators are skipped.
func ValidatePentagonPhiRatios(s *Snapshot, cycle []string, cfg PhiConfig) models.PentagonFinding {
	finding := models.PentagonFinding{Cycle: append([]string(nil), cycle...)}
	if len(cycle) != 5 {
		finding.Reason = models.ReasonNotPentagon
		return finding
	}

	weights := make([]float64, 5)
	for i := range cycle {
		w, ok := s.Weight(cycle[i], cycle[(i+1)%5])
		if !ok {
			finding.Reason = models.ReasonIncompleteCycle
			return finding
		}
		weights[i] = w
	}

	start := strongestEdge(weights)
	rotated := make([]string, 5)
	ordered := make([]float64, 5)
	for i := 0; i < 5; i++ {
		rotated[i] = cycle[(start+i)%5]
		ordered[i] = weights[(start+i)%5]
	}
	finding.Cycle = rotated
	finding.EdgeWeights = ordered

	pairs := 4
	if cfg.IncludeClosingRatio {
		pairs = 5
	}
	compliant := 0
	for i := 0; i < pairs; i++ {
		next := ordered[(i+1)%5]
		if next == 0 {
			continue
		}
		ratio := ordered[i] / next
		finding.Ratios = append(finding.Ratios, ratio)
		if math.Abs(ratio-Phi) <= cfg.Tolerance*Phi {
			compliant++
		}
	}

	if len(finding.Ratios) == 0 {
		finding.Reason = models.ReasonZeroWeights
		return finding
	}
	finding.PhiScore = float64(compliant) / float64(len(finding.Ratios))
	finding.Valid = finding.PhiScore >= cfg.MinPhiScore
	return finding
}

// strongestEdge returns the position of the largest weight, preferring the
// earliest on ties.
func strongestEdge(weights []float64) int {
	best := 0
	for i, w := range weights {
		if w > weights[best] {
			best = i
		}
	}
	return best
}
