package usecases

import (
	"github.com/paulmach/orb"

	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/pkg/geospatial"
)

// Filter decision reasons, used as metric labels.
const (
	ReasonPointInside  = "point_inside"
	ReasonPointOutside = "point_outside"
	ReasonPlaceInside  = "place_inside"
	ReasonPlaceOutside = "place_outside"
	ReasonNoLocation   = "no_location"
	ReasonMalformed    = "malformed"
	ReasonNoBoundary   = "no_boundary"

	ReasonInvalidBoundary = "invalid_boundary"
)

// Filter decides whether a record falls inside a boundary.
type Filter struct {
	boundary *domain.Boundary
	region   *geospatial.Region
	err      error
}

// NewFilter creates a Filter. A boundary without a shape or circle disables
// filtering. A shape that cannot be prepared rejects every record; Err
// reports why.
func NewFilter(boundary *domain.Boundary) *Filter {
	f := &Filter{boundary: boundary}
	if boundary != nil && boundary.Shape != nil {
		f.region, f.err = geospatial.NewRegion(boundary.Shape)
	}
	return f
}

// Err returns the error from preparing the boundary shape, if any.
func (f *Filter) Err() error {
	return f.err
}

// Enabled reports whether records must pass Accept to be persisted.
func (f *Filter) Enabled() bool {
	return f.boundary.Filtering()
}

// Accept reports whether the record lies inside the boundary.
func (f *Filter) Accept(r *domain.Record) bool {
	ok, _ := f.Evaluate(r)
	return ok
}

// Evaluate is Accept with the reason for the decision. Point coordinates win
// over the place box; a place box is accepted only when its hull is fully
// inside the boundary. Missing or malformed locations reject the record.
func (f *Filter) Evaluate(r *domain.Record) (bool, string) {
	if !f.Enabled() {
		return false, ReasonNoBoundary
	}
	if f.err != nil {
		return false, ReasonInvalidBoundary
	}

	if r.HasPoint() {
		native, err := r.Point()
		if err != nil {
			return false, ReasonMalformed
		}
		p, err := geospatial.LatLon(native)
		if err != nil {
			return false, ReasonMalformed
		}
		if f.contains(p) {
			return true, ReasonPointInside
		}
		return false, ReasonPointOutside
	}

	corners, ok, err := r.PlaceCorners()
	if err != nil {
		return false, ReasonMalformed
	}
	if !ok {
		return false, ReasonNoLocation
	}
	points, err := geospatial.CornersToPoints(corners)
	if err != nil {
		return false, ReasonMalformed
	}
	if f.containsHull(points) {
		return true, ReasonPlaceInside
	}
	return false, ReasonPlaceOutside
}

func (f *Filter) contains(p orb.Point) bool {
	if f.region == nil {
		c := f.boundary.Circle
		return geospatial.WithinRadius(c.Center.Point(), c.RadiusMeters, p)
	}
	return f.region.ContainsPoint(p)
}

// containsHull tests the place corners. Every hull vertex is a corner, so on
// a circle checking all corners is the hull test.
func (f *Filter) containsHull(points orb.MultiPoint) bool {
	if f.region == nil {
		c := f.boundary.Circle
		return geospatial.WithinRadius(c.Center.Point(), c.RadiusMeters, points...)
	}
	return f.region.ContainsHull(points)
}
