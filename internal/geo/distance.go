package geo

import "math"

// EarthRadiusMeters is Earth's radius in meters for the Haversine calculation.
const EarthRadiusMeters = 6371008.8

// HaversineMeters calculates the great-circle distance between two points
// on Earth in meters using the Haversine formula.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// WithinMeters checks if two coordinates are within the given radius in meters.
func WithinMeters(lat1, lng1, lat2, lng2, radiusMeters float64) bool {
	return HaversineMeters(lat1, lng1, lat2, lng2) <= radiusMeters
}
