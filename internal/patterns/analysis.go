package patterns

import "github.com/miradorstack/mirador-context/internal/models"

// Config bundles the tunables of a comprehensive analysis.
type Config struct {
	Phi               PhiConfig
	Spiral            SpiralConfig
	TriangleListLimit int
	// MaxNodes bounds the snapshot size accepted by Analyzer; zero disables the check.
	MaxNodes int
}

// DefaultConfig returns the default analysis configuration.
func DefaultConfig() Config {
	return Config{
		Phi:               DefaultPhiConfig(),
		Spiral:            DefaultSpiralConfig(),
		TriangleListLimit: 200,
		MaxNodes:          2000,
	}
}

// ComprehensiveAnalysis runs pentagon, triangle and (when positions is
// non-nil) spiral detection over s and combines them into a single report:
//
//	sacred_geometry_score = 0.6*pentagon_compliance_rate + 0.4*normalized_triangle_density
//
// The result depends only on its inputs; GeneratedAt is left for the caller.
func ComprehensiveAnalysis(s *Snapshot, positions map[string]models.Point, cfg Config) models.PatternReport {
	report := models.PatternReport{
		SnapshotID: s.Fingerprint(),
		NodeCount:  s.Len(),
		EdgeCount:  s.EdgeCount(),
	}

	cycles := FindPentagonCycles(s)
	report.Pentagons = make([]models.PentagonFinding, 0, len(cycles))
	for _, cycle := range cycles {
		finding := ValidatePentagonPhiRatios(s, cycle, cfg.Phi)
		if finding.Valid {
			report.ValidPentagons++
		}
		report.Pentagons = append(report.Pentagons, finding)
	}
	if len(report.Pentagons) > 0 {
		report.PentagonComplianceRate = float64(report.ValidPentagons) / float64(len(report.Pentagons))
	}

	report.Triangles = AnalyzeTriangleClosures(s, cfg.TriangleListLimit)
	report.TriangleDensity = triangleDensity(report.Triangles.Count, s.Len())

	if positions != nil {
		report.SpiralsAnalyzed = true
		report.Spirals = DetectSpiralPatterns(s, positions, cfg.Spiral)
	}

	report.SacredGeometryScore = models.ClampUnit(0.6*report.PentagonComplianceRate + 0.4*report.TriangleDensity)
	return report
}

// triangleDensity normalises a directed 3-cycle count by the maximum possible
// for n nodes, two per node triple.
func triangleDensity(count, n int) float64 {
	if n < 3 || count == 0 {
		return 0
	}
	max := float64(n) * float64(n-1) * float64(n-2) / 3
	return models.ClampUnit(float64(count) / max)
}
