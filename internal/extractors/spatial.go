package extractors

import (
	"math"

	"github.com/miradorstack/mirador-context/internal/models"
)

const earthRadiusKm = 6371.0

// SpatialAnalyzer scores proximity as exp(-distance/scale). Planar locations
// use euclidean distance in their own units; geographic locations use the
// haversine distance in kilometres.
type SpatialAnalyzer struct {
	scale float64
}

// NewSpatialAnalyzer constructs a SpatialAnalyzer; non-positive scales default to 1.
func NewSpatialAnalyzer(scale float64) *SpatialAnalyzer {
	if scale <= 0 {
		scale = 1
	}
	return &SpatialAnalyzer{scale: scale}
}

// Proximity returns a score in [0,1]; a missing location scores 0.
func (a *SpatialAnalyzer) Proximity(x, y *models.Location) float64 {
	if x == nil || y == nil {
		return 0
	}
	var d float64
	if x.Geo && y.Geo {
		d = haversineKm(x.Y, x.X, y.Y, y.X)
	} else {
		d = math.Hypot(x.X-y.X, x.Y-y.Y)
	}
	return models.ClampUnit(math.Exp(-d / a.scale))
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := math.Pi / 180
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
