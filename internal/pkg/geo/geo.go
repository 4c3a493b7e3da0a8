// Package geo provides great-circle distance on the WGS84 sphere for
// geofence checks.
package geo

import (
	"errors"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ValidateCoordinate rejects NaN, infinities and out-of-range values.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return ErrInvalidCoordinate
	}
	if lat < -90 || lat > 90 {
		return ErrInvalidCoordinate
	}
	if lon < -180 || lon > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// Distance returns the haversine distance in meters between two points.
// Both points are validated; an error is returned instead of a garbage
// distance when either is invalid.
func Distance(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := ValidateCoordinate(lat1, lon1); err != nil {
		return 0, err
	}
	if err := ValidateCoordinate(lat2, lon2); err != nil {
		return 0, err
	}

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c, nil
}
