package format

import (
	"fmt"
	"math"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// Haversine returns the great-circle distance in kilometers between two
// geographic points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// FormatDistance renders a distance between two optional points for
// listing cards: rounded meters under one kilometer, otherwise
// kilometers with one decimal. Missing coordinates render as "N/A".
func FormatDistance(lat1, lon1, lat2, lon2 *float64) string {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return "N/A"
	}

	km := Haversine(*lat1, *lon1, *lat2, *lon2)
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
