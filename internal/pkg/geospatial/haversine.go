package geospatial

import (
	"fmt"
	"math"

	"github.com/prabeshj/tokri/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Kilometers calculates the great-circle distance in kilometers between
// two points using the haversine formula. Callers must guard against
// absent coordinates; NaN inputs propagate.
func Kilometers(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// Format renders a distance for display: meters with no decimals below
// 1 km ("650m"), kilometers to one decimal at or above ("3.2km").
func Format(km float64) string {
	m := int(math.Round(km * 1000))
	if m < 1000 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%.1fkm", km)
}

// BoundingBox returns a box around a point with the given radius in
// kilometers, for cheap SQL prefiltering before exact distance checks.
func BoundingBox(lat, lon, radiusKm float64) domain.Bounds {
	latDelta := radiusKm * 1000 / 111320.0
	lonDelta := radiusKm * 1000 / (111320.0 * math.Cos(toRad(lat)))

	return domain.Bounds{
		MinLat: lat - latDelta,
		MinLon: lon - lonDelta,
		MaxLat: lat + latDelta,
		MaxLon: lon + lonDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
