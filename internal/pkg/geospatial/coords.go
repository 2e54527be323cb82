package geospatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ErrBadCoordinate is returned for pairs that are not a finite lon/lat.
var ErrBadCoordinate = errors.New("bad coordinate")

// Stream payloads and GeoJSON encode positions as [lon, lat]. Boundaries and
// filter points are held in lat/lon order (X = latitude, Y = longitude).
// Every conversion between the two goes through this file.

// LatLon converts a native [lon, lat] pair to a lat/lon ordered point.
func LatLon(native []float64) (orb.Point, error) {
	if len(native) != 2 {
		return orb.Point{}, fmt.Errorf("%w: want 2 values, got %d", ErrBadCoordinate, len(native))
	}
	lon, lat := native[0], native[1]
	if !finite(lon) || !finite(lat) {
		return orb.Point{}, fmt.Errorf("%w: non-finite value", ErrBadCoordinate)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return orb.Point{}, fmt.Errorf("%w: [%g, %g] out of range", ErrBadCoordinate, lon, lat)
	}
	return orb.Point{lat, lon}, nil
}

// SwapPoint flips an orb point between lon/lat and lat/lon order.
func SwapPoint(p orb.Point) orb.Point {
	return orb.Point{p[1], p[0]}
}

// CornersToPoints converts native [lon, lat] corners into a lat/lon point set.
func CornersToPoints(corners [][]float64) (orb.MultiPoint, error) {
	if len(corners) == 0 {
		return nil, fmt.Errorf("%w: no corners", ErrBadCoordinate)
	}
	points := make(orb.MultiPoint, 0, len(corners))
	for i, c := range corners {
		p, err := LatLon(c)
		if err != nil {
			return nil, fmt.Errorf("corner %d: %w", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// ToLatLon converts a native polygon or multipolygon into lat/lon order.
func ToLatLon(g orb.Geometry) (orb.Geometry, error) {
	switch g := g.(type) {
	case orb.Polygon:
		return swapPolygon(g), nil
	case orb.MultiPolygon:
		mp := make(orb.MultiPolygon, 0, len(g))
		for _, p := range g {
			mp = append(mp, swapPolygon(p))
		}
		return mp, nil
	case nil:
		return nil, errors.New("nil geometry")
	default:
		return nil, fmt.Errorf("unsupported boundary geometry %s", g.GeoJSONType())
	}
}

func swapPolygon(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, 0, len(p))
	for _, ring := range p {
		r := make(orb.Ring, 0, len(ring))
		for _, pt := range ring {
			r = append(r, SwapPoint(pt))
		}
		out = append(out, r)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
