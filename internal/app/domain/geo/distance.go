// Package geo provides the pure coordinate math used by the proximity,
// heatmap and recommendation features. It has no dependencies on the
// storage layer so every caller ranks and filters with the same formula.
package geo

import (
	"fmt"
	"math"

	"github.com/vicinityapp/vicinity-api/internal/app/models"
)

// EarthRadiusKm is the mean radius of Earth in kilometers.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between two coordinate pairs
// in kilometers using the haversine formula. It is symmetric and returns 0
// for identical points. Inputs are assumed validated; use
// ValidateCoordinates at the operation boundary.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// ValidateCoordinates rejects out-of-range latitude or longitude. Values
// are never clamped; a bad coordinate is a caller error and nothing may be
// queried or written with it.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return fmt.Errorf("coordinates must be numeric: %w", models.ErrValidation)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]: %w", lat, models.ErrValidation)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]: %w", lon, models.ErrValidation)
	}
	return nil
}

// ValidateRadius rejects non-positive radii for proximity queries.
func ValidateRadius(radiusKm float64) error {
	if math.IsNaN(radiusKm) || radiusKm <= 0 {
		return fmt.Errorf("radius must be a positive number of kilometers: %w", models.ErrValidation)
	}
	return nil
}
