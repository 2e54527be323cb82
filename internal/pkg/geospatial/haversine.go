package geospatial

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two
// lat/lon ordered points.
func Haversine(a, b orb.Point) float64 {
	lat1, lon1 := a[0], a[1]
	lat2, lon2 := b[0], b[1]
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c * 1000 // meters
}

// WithinRadius reports whether every point lies within radiusMeters of
// center. All points are lat/lon ordered. Checking the vertices of a hull is
// enough for the whole hull at the radii a stream filter uses.
func WithinRadius(center orb.Point, radiusMeters float64, points ...orb.Point) bool {
	if len(points) == 0 {
		return false
	}
	for _, p := range points {
		if Haversine(center, p) > radiusMeters {
			return false
		}
	}
	return true
}

// RadiusBound returns the native lon/lat bound of the circle around a
// lat/lon ordered center, clamped to valid coordinates.
func RadiusBound(center orb.Point, radiusMeters float64) orb.Bound {
	lat, lon := center[0], center[1]
	latDelta := radiusMeters / 111320.0
	lonDelta := 180.0
	if c := math.Cos(toRad(lat)); c > 1e-9 {
		lonDelta = math.Min(radiusMeters/(111320.0*c), 180)
	}

	return orb.Bound{
		Min: orb.Point{math.Max(lon-lonDelta, -180), math.Max(lat-latDelta, -90)},
		Max: orb.Point{math.Min(lon+lonDelta, 180), math.Min(lat+latDelta, 90)},
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
