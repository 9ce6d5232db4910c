// Package geo holds great-circle distance helpers used by proximity search.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Pow(math.Sin(dPhi/2), 2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)

	return 2 * math.Asin(math.Sqrt(a)) * EarthRadiusKm
}

// ValidCoordinate reports whether lat/lng are inside the WGS84 ranges.
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
