package patterns

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/miradorstack/mirador-context/internal/models"
)

// SpiralConfig tunes logarithmic spiral detection.
type SpiralConfig struct {
	MinRSquared  float64
	MaxPathNodes int
	MaxPaths     int
}

// DefaultSpiralConfig accepts fits with R^2 above 0.8 on paths of up to 8 hops.
func DefaultSpiralConfig() SpiralConfig {
	return SpiralConfig{MinRSquared: 0.8, MaxPathNodes: 9, MaxPaths: 10000}
}

// FitLogSpiral fits r = a*e^(b*theta) to points around the origin by least
// squares on ln r against the unwrapped polar angle. Points at the origin are
// unusable; fewer than three usable points, no angular spread or a constant
// radius yield R^2 = 0.
func FitLogSpiral(points []models.Point) models.SpiralParams {
	thetas := make([]float64, 0, len(points))
	logRadii := make([]float64, 0, len(points))
	prev := 0.0
	for _, p := range points {
		r := math.Hypot(p.X, p.Y)
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		angle := math.Atan2(p.Y, p.X)
		if len(thetas) > 0 {
			angle = prev + wrapAngle(angle-prev)
		}
		prev = angle
		thetas = append(thetas, angle)
		logRadii = append(logRadii, math.Log(r))
	}

	if len(thetas) < 3 {
		return models.SpiralParams{Reason: models.ReasonTooFewPoints}
	}
	if floats.Max(thetas)-floats.Min(thetas) < 1e-12 {
		return models.SpiralParams{Reason: models.ReasonNoAngularSpread}
	}

	alpha, beta := stat.LinearRegression(thetas, logRadii, nil, false)
	params := models.SpiralParams{Scale: math.Exp(alpha), GrowthRate: beta}
	r2 := stat.RSquared(thetas, logRadii, nil, alpha, beta)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		params.Reason = "constant_radius"
		return params
	}
	params.RSquared = models.ClampUnit(r2)
	return params
}

// DetectSpiralPatterns fits every simple path of at least four positioned
// nodes, up to cfg.MaxPathNodes nodes and cfg.MaxPaths paths, and returns the
// paths whose fit exceeds cfg.MinRSquared. Nodes without a position are not
// traversed.
func DetectSpiralPatterns(s *Snapshot, positions map[string]models.Point, cfg SpiralConfig) []models.SpiralFinding {
	if len(positions) == 0 || s.Len() < 4 {
		return nil
	}
	maxNodes := cfg.MaxPathNodes
	if maxNodes < 4 {
		maxNodes = 4
	}

	var findings []models.SpiralFinding
	examined := 0
	path := make([]int64, 0, maxNodes)
	onPath := make([]bool, s.Len())
	positioned := func(i int64) bool {
		_, ok := positions[s.id(i)]
		return ok
	}

	var walk func(v int64) bool
	walk = func(v int64) bool {
		if len(path) >= 4 {
			if cfg.MaxPaths > 0 && examined >= cfg.MaxPaths {
				return false
			}
			examined++
			if f, ok := fitPath(s, path, positions, cfg.MinRSquared); ok {
				findings = append(findings, f)
			}
		}
		if len(path) >= maxNodes {
			return true
		}
		for _, w := range s.succ[v] {
			if onPath[w] || !positioned(w) {
				continue
			}
			path = append(path, w)
			onPath[w] = true
			more := walk(w)
			onPath[w] = false
			path = path[:len(path)-1]
			if !more {
				return false
			}
		}
		return true
	}

	for start := int64(0); start < int64(s.Len()); start++ {
		if !positioned(start) {
			continue
		}
		path = append(path[:0], start)
		onPath[start] = true
		more := walk(start)
		onPath[start] = false
		if !more {
			break
		}
	}
	return findings
}

func fitPath(s *Snapshot, path []int64, positions map[string]models.Point, minRSquared float64) (models.SpiralFinding, bool) {
	points := make([]models.Point, len(path))
	for i, idx := range path {
		points[i] = positions[s.id(idx)]
	}
	params := FitLogSpiral(points)
	if params.RSquared <= minRSquared {
		return models.SpiralFinding{}, false
	}
	return models.SpiralFinding{
		Path:         s.names(path),
		Positions:    points,
		Params:       params,
		GrowthFactor: math.Exp(params.GrowthRate * math.Pi / 2),
		Valid:        true,
	}, true
}

// wrapAngle maps a into (-pi, pi].
func wrapAngle(a float64) float64 {
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
