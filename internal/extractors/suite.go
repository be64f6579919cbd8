package extractors

import (
	"context"
	"time"

	"github.com/miradorstack/mirador-context/internal/models"
)

// Suite bundles the reference analyzers for the five signal families. Each
// method returns a score in [0,1]; missing data scores 0 rather than erroring.
type Suite struct {
	Semantic    *SemanticAnalyzer
	Statistical *StatisticalAnalyzer
	Structural  *StructuralAnalyzer
	Temporal    *TemporalAnalyzer
	Spatial     *SpatialAnalyzer
}

// NewSuite constructs a Suite with default tuning.
func NewSuite() *Suite {
	return &Suite{
		Semantic:    NewSemanticAnalyzer(),
		Statistical: NewStatisticalAnalyzer(),
		Structural:  NewStructuralAnalyzer(),
		Temporal:    NewTemporalAnalyzer(24 * time.Hour),
		Spatial:     NewSpatialAnalyzer(1.0),
	}
}

func (s *Suite) SemanticSimilarity(ctx context.Context, a, b string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Semantic.Similarity(a, b), nil
}

func (s *Suite) StatisticalCorrelation(ctx context.Context, a, b []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Statistical.Correlation(a, b), nil
}

func (s *Suite) StructuralOverlap(ctx context.Context, a, b map[string]string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Structural.Overlap(a, b), nil
}

func (s *Suite) CausalLeadLag(ctx context.Context, a, b []time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Temporal.LeadLag(a, b), nil
}

func (s *Suite) SpatialProximity(ctx context.Context, a, b *models.Location) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Spatial.Proximity(a, b), nil
}
