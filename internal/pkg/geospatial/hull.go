package geospatial

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
	"github.com/peterstace/simplefeatures/geom"
)

// ErrUnsupportedShape is returned for region shapes other than polygons.
var ErrUnsupportedShape = errors.New("unsupported region shape")

// Region is a boundary shape prepared for containment tests. The shape is an
// orb.Polygon or orb.MultiPolygon in lat/lon order.
type Region struct {
	shape orb.Geometry
	geom  geom.Geometry
}

// NewRegion converts shape once so that hull tests do not pay for it per
// record. Invalid polygons, such as self-intersecting rings, are rejected.
func NewRegion(shape orb.Geometry) (*Region, error) {
	switch shape.(type) {
	case orb.Polygon, orb.MultiPolygon:
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedShape)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedShape, shape.GeoJSONType())
	}
	g, err := toGeom(shape)
	if err != nil {
		return nil, fmt.Errorf("prepare region: %w", err)
	}
	return &Region{shape: shape, geom: g}, nil
}

// ContainsPoint reports whether p lies inside the region or on its boundary.
func (r *Region) ContainsPoint(p orb.Point) bool {
	return PointWithin(p, r.shape)
}

// ContainsHull reports whether the convex hull of points lies entirely
// inside the region. Hull edges and vertices on the region boundary count as
// inside; a hull that only overlaps the region, or that spans a notch or a
// hole, does not.
func (r *Region) ContainsHull(points orb.MultiPoint) bool {
	hull, err := ConvexHull(points)
	if err != nil {
		return false
	}
	return coveredBy(hull, r.geom)
}

// ConvexHull returns the convex hull of points. Collinear or repeated inputs
// yield a line string or a single point.
func ConvexHull(points orb.MultiPoint) (geom.Geometry, error) {
	if len(points) == 0 {
		return geom.Geometry{}, errors.New("convex hull: no points")
	}
	g, err := toGeom(points)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("convex hull: %w", err)
	}
	return g.ConvexHull(), nil
}

// PointWithin reports whether p lies inside shape or on its boundary.
func PointWithin(p orb.Point, shape orb.Geometry) bool {
	switch g := shape.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	}
	return false
}

// coveredBy is the DE-9IM covered-by predicate: no part of a, interior or
// boundary, reaches the exterior of b.
func coveredBy(a, b geom.Geometry) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	m, err := geom.Relate(a, b)
	if err != nil || len(m) != 9 {
		return false
	}
	return m[2] == 'F' && m[5] == 'F'
}

func toGeom(g orb.Geometry) (geom.Geometry, error) {
	return geom.UnmarshalWKT(wkt.MarshalString(g))
}
