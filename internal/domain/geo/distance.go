package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between a and b in meters
// using the haversine formula.
//
// The haversine term is clamped to [0, 1] so that floating-point overshoot
// for antipodal or identical points never produces NaN.
func Distance(a, b Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	h = clamp(h, 0, 1)

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
