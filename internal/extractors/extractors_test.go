package extractors

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/miradorstack/mirador-context/internal/models"
)

func TestSemanticSimilarity(t *testing.T) {
	a := NewSemanticAnalyzer()
	if got := a.Similarity("Quarterly revenue forecast", "quarterly revenue forecast"); got != 1 {
		t.Fatalf("expected identical text to score 1, got %f", got)
	}
	related := a.Similarity("quarterly revenue forecast", "revenue forecast for next quarter")
	unrelated := a.Similarity("quarterly revenue forecast", "kitchen plumbing repair")
	if related <= unrelated {
		t.Fatalf("expected related text (%f) to outscore unrelated text (%f)", related, unrelated)
	}
	if got := a.Similarity("", "anything"); got != 0 {
		t.Fatalf("expected empty text to score 0, got %f", got)
	}
}

func TestStatisticalCorrelation(t *testing.T) {
	a := NewStatisticalAnalyzer()
	x := []float64{1, 2, 3, 4, 5}
	inverse := []float64{10, 8, 6, 4, 2}
	if got := a.Correlation(x, inverse); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected |r|=1 for perfectly inverse series, got %f", got)
	}
	if got := a.Correlation(x, []float64{3, 3, 3, 3, 3}); got != 0 {
		t.Fatalf("expected constant series to score 0, got %f", got)
	}
	if got := a.Correlation([]float64{1, 2}, []float64{2, 4}); got != 0 {
		t.Fatalf("expected short series to score 0, got %f", got)
	}
}

func TestStructuralOverlap(t *testing.T) {
	a := NewStructuralAnalyzer()
	x := map[string]string{"team": "platform", "region": "eu", "tier": "1"}
	y := map[string]string{"team": "platform", "region": "us"}
	if got := a.Overlap(x, y); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Fatalf("expected 1/3 overlap, got %f", got)
	}
	if got := a.Overlap(nil, y); got != 0 {
		t.Fatalf("expected empty metadata to score 0, got %f", got)
	}
}

func TestTemporalLeadLag(t *testing.T) {
	a := NewTemporalAnalyzer(time.Hour)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	leader := []time.Time{base, base.Add(2 * time.Hour)}
	follower := []time.Time{base.Add(10 * time.Minute), base.Add(2*time.Hour + 5*time.Minute)}

	if got := a.LeadLag(leader, follower); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected full lead support to score 1, got %f", got)
	}
	if got := a.LeadLag(follower, leader); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected direction-independent score, got %f", got)
	}
	far := []time.Time{base.Add(10 * time.Hour)}
	if got := a.LeadLag([]time.Time{base}, far); got != 0 {
		t.Fatalf("expected lag beyond window to score 0, got %f", got)
	}
}

func TestSpatialProximity(t *testing.T) {
	a := NewSpatialAnalyzer(1)
	origin := &models.Location{X: 0, Y: 0}
	if got := a.Proximity(origin, &models.Location{X: 0, Y: 0}); got != 1 {
		t.Fatalf("expected co-located points to score 1, got %f", got)
	}
	if got := a.Proximity(origin, &models.Location{X: 3, Y: 4}); math.Abs(got-math.Exp(-5)) > 1e-12 {
		t.Fatalf("expected exp(-5), got %f", got)
	}
	if got := a.Proximity(origin, nil); got != 0 {
		t.Fatalf("expected missing location to score 0, got %f", got)
	}

	geo := NewSpatialAnalyzer(100)
	paris := &models.Location{X: 2.3522, Y: 48.8566, Geo: true}
	london := &models.Location{X: -0.1276, Y: 51.5072, Geo: true}
	got := geo.Proximity(paris, london)
	if math.Abs(got-math.Exp(-3.44)) > 0.01 {
		t.Fatalf("expected ~344km haversine distance, got score %f", got)
	}
}

func TestSpatialProximityUndefinedDistanceScoresZero(t *testing.T) {
	a := NewSpatialAnalyzer(1)
	bad := &models.Location{X: math.NaN(), Y: 0}
	if got := a.Proximity(&models.Location{}, bad); got != 0 {
		t.Fatalf("expected NaN coordinate to score 0, got %f", got)
	}
	for _, loc := range []*models.Location{{X: 0.001}, {X: 1e9}, {X: -3, Y: 7}} {
		got := a.Proximity(&models.Location{}, loc)
		if got < 0 || got > 1 {
			t.Fatalf("expected score in [0,1] for %+v, got %f", loc, got)
		}
	}
}

func TestSuiteHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSuite().SemanticSimilarity(ctx, "a", "a"); err == nil {
		t.Fatalf("expected cancelled context to fail the port")
	}
}
