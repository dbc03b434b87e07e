// Package geo holds the great-circle math gating store check-ins.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// earthRadiusMeters is the conventional mean Earth radius used by the
// check-in gate. Deliberately not the WGS84 equatorial radius.
const earthRadiusMeters = 6371000.0

// Distance returns the haversine great-circle distance in meters between two
// points. Points follow the orb convention: Point{lng, lat}. The function is
// total; NaN coordinates yield NaN, which callers must treat as "not verifiable".
func Distance(a, b orb.Point) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLng := (b.Lon() - a.Lon()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// ValidCoordinate reports whether lat/lng form a plausible WGS84 coordinate
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
