package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point returns p as a lat/lon ordered orb point.
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lat, p.Lon}
}

// Circle is the set of positions within RadiusMeters of Center.
type Circle struct {
	Center       GeoPoint `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`
}

func (c Circle) String() string {
	return fmt.Sprintf("%g,%g,%g", c.Center.Lat, c.Center.Lon, c.RadiusMeters)
}

// Validate checks the center and the radius.
func (c Circle) Validate() error {
	for _, v := range []float64{c.Center.Lat, c.Center.Lon, c.RadiusMeters} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("circle %s: non-finite value", c)
		}
	}
	if c.Center.Lat < -90 || c.Center.Lat > 90 || c.Center.Lon < -180 || c.Center.Lon > 180 {
		return fmt.Errorf("circle %s: center out of range", c)
	}
	if c.RadiusMeters <= 0 {
		return fmt.Errorf("circle %s: radius must be positive", c)
	}
	return nil
}

// ParseCircle parses "lat,lon,radius_meters".
func ParseCircle(s string) (Circle, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return Circle{}, fmt.Errorf("circle %q: want lat,lon,radius_meters, got %d values", s, len(fields))
	}
	vals := make([]float64, 3)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Circle{}, fmt.Errorf("circle %q: %w", s, err)
		}
		vals[i] = v
	}
	c := Circle{Center: GeoPoint{Lat: vals[0], Lon: vals[1]}, RadiusMeters: vals[2]}
	if err := c.Validate(); err != nil {
		return Circle{}, err
	}
	return c, nil
}

// BBox represents an axis-aligned geographic bounding box in degrees.
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Flatten returns the box as [west, south, east, north], the order stream
// location filters expect.
func (b BBox) Flatten() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

func (b BBox) String() string {
	parts := make([]string, 0, 4)
	for _, v := range b.Flatten() {
		parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

// Validate checks ranges and ordering of the corners.
func (b BBox) Validate() error {
	for _, v := range b.Flatten() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bbox %s: non-finite coordinate", b)
		}
	}
	if b.West < -180 || b.East > 180 || b.South < -90 || b.North > 90 {
		return fmt.Errorf("bbox %s: coordinate out of range", b)
	}
	if b.West >= b.East || b.South >= b.North {
		return fmt.Errorf("bbox %s: want west < east and south < north", b)
	}
	return nil
}

// ParseBBox parses "west,south,east,north".
func ParseBBox(s string) (BBox, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return BBox{}, fmt.Errorf("bbox %q: want 4 comma separated values, got %d", s, len(fields))
	}
	vals := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		vals[i] = v
	}
	b := BBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	if err := b.Validate(); err != nil {
		return BBox{}, err
	}
	return b, nil
}

// BBoxFromBound converts a bound in native [lon, lat] order.
func BBoxFromBound(b orb.Bound) BBox {
	return BBox{West: b.Min[0], South: b.Min[1], East: b.Max[0], North: b.Max[1]}
}

// Boundary is the region records are matched against. It is loaded once at
// startup and never mutated.
type Boundary struct {
	Region string
	// Shape holds an orb.Polygon or orb.MultiPolygon in lat/lon order
	// (X = latitude, Y = longitude). A nil Shape disables filtering.
	Shape orb.Geometry
	// Circle is used when Shape is nil.
	Circle *Circle
	// BBox is in native lon/lat degrees and is what the stream is asked for.
	BBox BBox
}

// Filtering reports whether records must be tested against Shape or Circle.
func (b *Boundary) Filtering() bool {
	return b != nil && (b.Shape != nil || b.Circle != nil)
}
