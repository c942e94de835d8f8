// Package geo scores location plausibility for the eligibility gate using
// great-circle distances between an activity and the user's usual spots.
package geo

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/PREETHAM1590/waste-app/core/model"
)

const earthRadiusKM = 6371.0

// HaversineLocator measures the spread of distances, in kilometres, between
// the current location and each typical location. A user scanning far from
// every place they usually recycle produces a large variance.
type HaversineLocator struct{}

// Variance returns the statistical variance of the distance samples. Fewer
// than two typical locations yields zero; there is no spread to measure.
func (HaversineLocator) Variance(current model.Location, typical []model.Location) float64 {
	if len(typical) < 2 {
		return 0
	}
	dists := make([]float64, len(typical))
	for i, loc := range typical {
		dists[i] = haversineKM(current, loc)
	}
	return stat.Variance(dists, nil)
}

// haversineKM computes the great-circle distance between two points.
func haversineKM(a, b model.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
