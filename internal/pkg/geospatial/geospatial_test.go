package geospatial

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/peterstace/simplefeatures/geom"
)

var unitSquare = orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}

func TestLatLon_SwapsNativeOrder(t *testing.T) {
	p, err := LatLon([]float64{-2.935, 43.263})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p[0] != 43.263 || p[1] != -2.935 {
		t.Errorf("expected [43.263 -2.935], got %v", p)
	}
}

func TestLatLon_Rejects(t *testing.T) {
	cases := map[string][]float64{
		"empty":     nil,
		"one value": {1},
		"three":     {1, 2, 3},
		"nan":       {math.NaN(), 1},
		"lat range": {10, 91},
		"lon range": {181, 10},
		"inf":       {math.Inf(1), 0},
	}
	for name, in := range cases {
		if _, err := LatLon(in); !errors.Is(err, ErrBadCoordinate) {
			t.Errorf("%s: expected ErrBadCoordinate, got %v", name, err)
		}
	}
}

func TestToLatLon_Polygon(t *testing.T) {
	native := orb.Polygon{{{-3, 43}, {-2, 43}, {-2, 44}, {-3, 43}}}
	g, err := ToLatLon(native)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poly := g.(orb.Polygon)
	if !poly[0][1].Equal(orb.Point{43, -2}) {
		t.Errorf("expected swapped vertex [43 -2], got %v", poly[0][1])
	}
	if native[0][1][0] != -2 {
		t.Error("input polygon was modified")
	}
}

func TestToLatLon_Unsupported(t *testing.T) {
	if _, err := ToLatLon(orb.LineString{{0, 0}, {1, 1}}); err == nil {
		t.Error("expected error for line string")
	}
}

func TestCornersToPoints(t *testing.T) {
	pts, err := CornersToPoints([][]float64{{0, 1}, {2, 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 2 || !pts[1].Equal(orb.Point{3, 2}) {
		t.Errorf("unexpected points %v", pts)
	}
	if _, err := CornersToPoints([][]float64{{0, 1}, {2}}); err == nil {
		t.Error("expected error for short corner")
	}
}

func mustRegion(t *testing.T, shape orb.Geometry) *Region {
	t.Helper()
	r, err := NewRegion(shape)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	return r
}

func TestConvexHull_DropsInteriorAndDuplicates(t *testing.T) {
	hull, err := ConvexHull(orb.MultiPoint{{0, 0}, {2, 0}, {1, 1}, {2, 2}, {0, 2}, {0, 0}})
	if err != nil {
		t.Fatalf("ConvexHull: %v", err)
	}
	if hull.Type() != geom.TypePolygon {
		t.Fatalf("expected polygon hull, got %s", hull.AsText())
	}
	if n := hull.MustAsPolygon().ExteriorRing().Coordinates().Length(); n != 5 {
		t.Errorf("expected 4 hull vertices plus closing point, got %d: %s", n, hull.AsText())
	}
}

func TestConvexHull_Degenerate(t *testing.T) {
	single, err := ConvexHull(orb.MultiPoint{{1, 1}, {1, 1}})
	if err != nil || single.Type() != geom.TypePoint {
		t.Errorf("expected single point hull, got %s (%v)", single.AsText(), err)
	}
	segment, err := ConvexHull(orb.MultiPoint{{0, 0}, {1, 1}, {2, 2}})
	if err != nil || segment.Type() != geom.TypeLineString {
		t.Errorf("expected segment hull, got %s (%v)", segment.AsText(), err)
	}
	if _, err := ConvexHull(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestNewRegion_RejectsNonPolygons(t *testing.T) {
	if _, err := NewRegion(orb.Point{1, 1}); !errors.Is(err, ErrUnsupportedShape) {
		t.Errorf("expected ErrUnsupportedShape, got %v", err)
	}
	if _, err := NewRegion(nil); !errors.Is(err, ErrUnsupportedShape) {
		t.Errorf("expected ErrUnsupportedShape for nil, got %v", err)
	}
}

func TestPointWithin_EdgeCountsAsInside(t *testing.T) {
	if !PointWithin(orb.Point{0.5, 0.5}, unitSquare) {
		t.Error("center should be inside")
	}
	if !PointWithin(orb.Point{1, 0.5}, unitSquare) {
		t.Error("edge point should be inside")
	}
	if PointWithin(orb.Point{5, 5}, unitSquare) {
		t.Error("far point should be outside")
	}
}

func TestRegion_ContainsHull(t *testing.T) {
	r := mustRegion(t, unitSquare)

	if !r.ContainsHull(orb.MultiPoint{{0.2, 0.2}, {0.2, 0.8}, {0.8, 0.8}, {0.8, 0.2}}) {
		t.Error("inner box should be within")
	}
	if !r.ContainsHull(orb.MultiPoint{{0, 0}, {0, 1}, {1, 1}, {1, 0}}) {
		t.Error("box equal to the boundary should be within")
	}
	if !r.ContainsHull(orb.MultiPoint{{1, 0.5}, {1, 0.5}}) {
		t.Error("degenerate box on the edge should be within")
	}
	if r.ContainsHull(orb.MultiPoint{{0, 0}, {0, 2}, {2, 2}, {2, 0}}) {
		t.Error("overlapping box must not be within")
	}
}

func TestRegion_ContainsHull_ConcaveBoundary(t *testing.T) {
	// U shape: the notch between x=1 and x=2 is open at the top.
	u := mustRegion(t, orb.Polygon{{{0, 0}, {3, 0}, {3, 3}, {2, 3}, {2, 1}, {1, 1}, {1, 3}, {0, 3}, {0, 0}}})
	if u.ContainsHull(orb.MultiPoint{{0.5, 2}, {2.5, 2}, {2.5, 2.5}, {0.5, 2.5}}) {
		t.Error("box spanning the notch must not be within")
	}

	// V notch cut into the top edge. The box's top edge touches both mouths
	// of the notch at vertices while the notch tip pokes into the box.
	v := mustRegion(t, orb.Polygon{{{0, 0}, {6, 0}, {6, 6}, {4, 6}, {4, 3}, {3, 2}, {2, 3}, {2, 6}, {0, 6}, {0, 0}}})
	if v.ContainsHull(orb.MultiPoint{{1, 1}, {5, 1}, {5, 3}, {1, 3}}) {
		t.Error("box whose top edge touches the notch must not be within")
	}
	if !v.ContainsHull(orb.MultiPoint{{1, 0.5}, {5, 0.5}, {5, 1.5}, {1, 1.5}}) {
		t.Error("box below the notch tip should be within")
	}
}

func TestRegion_ContainsHull_Hole(t *testing.T) {
	r := mustRegion(t, orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	})
	if r.ContainsHull(orb.MultiPoint{{3, 3}, {7, 3}, {7, 7}, {3, 7}}) {
		t.Error("box enclosing a hole must not be within")
	}
	if !r.ContainsHull(orb.MultiPoint{{1, 1}, {2, 1}, {2, 2}, {1, 2}}) {
		t.Error("box away from the hole should be within")
	}
}

func TestRegion_ContainsHull_MultiPolygon(t *testing.T) {
	r := mustRegion(t, orb.MultiPolygon{
		unitSquare,
		{{{5, 5}, {6, 5}, {6, 6}, {5, 6}, {5, 5}}},
	})
	if !r.ContainsHull(orb.MultiPoint{{5.1, 5.1}, {5.9, 5.9}, {5.1, 5.9}}) {
		t.Error("hull inside second component should be within")
	}
	if r.ContainsHull(orb.MultiPoint{{0.5, 0.5}, {5.5, 5.5}}) {
		t.Error("hull spanning both components must not be within")
	}
	if !r.ContainsPoint(orb.Point{5.5, 5.5}) {
		t.Error("point in second component should be inside")
	}
}

func TestHaversine(t *testing.T) {
	// Bilbao to Donostia, about 78km.
	d := Haversine(orb.Point{43.263, -2.935}, orb.Point{43.318, -1.981})
	if d < 76000 || d > 80000 {
		t.Errorf("expected ~78km, got %.0fm", d)
	}
	if Haversine(orb.Point{10, 10}, orb.Point{10, 10}) != 0 {
		t.Error("expected zero distance for identical points")
	}
}

func TestWithinRadius(t *testing.T) {
	center := orb.Point{43.263, -2.935}
	if !WithinRadius(center, 1000, orb.Point{43.265, -2.935}, orb.Point{43.263, -2.930}) {
		t.Error("expected nearby points within 1km")
	}
	if WithinRadius(center, 1000, orb.Point{43.265, -2.935}, orb.Point{43.3, -2.935}) {
		t.Error("expected one distant point to fail the check")
	}
	if WithinRadius(center, 1000) {
		t.Error("expected no points to be rejected")
	}
}

func TestRadiusBound(t *testing.T) {
	b := RadiusBound(orb.Point{43.263, -2.935}, 10000)
	if !b.Contains(orb.Point{-2.935, 43.263}) {
		t.Errorf("bound %v does not contain the native center", b)
	}
	if dLat := b.Max[1] - 43.263; math.Abs(dLat-10000/111320.0) > 1e-9 {
		t.Errorf("unexpected latitude half-height %v", dLat)
	}

	polar := RadiusBound(orb.Point{89.99, 0}, 50000)
	if polar.Max[1] != 90 || polar.Min[0] < -180 || polar.Max[0] > 180 {
		t.Errorf("expected clamped bound near the pole, got %v", polar)
	}
}
