package extractors

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/miradorstack/mirador-context/internal/models"
)

// StatisticalAnalyzer scores the absolute Pearson correlation of two series
// over their overlapping prefix.
type StatisticalAnalyzer struct {
	minPoints int
}

// NewStatisticalAnalyzer requires at least three overlapping points.
func NewStatisticalAnalyzer() *StatisticalAnalyzer {
	return &StatisticalAnalyzer{minPoints: 3}
}

// Correlation returns |r| in [0,1]; short or constant series score 0.
func (a *StatisticalAnalyzer) Correlation(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < a.minPoints {
		return 0
	}
	r := stat.Correlation(x[:n], y[:n], nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return models.ClampUnit(math.Abs(r))
}
