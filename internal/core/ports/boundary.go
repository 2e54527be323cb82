package ports

import (
	"context"

	"github.com/paulmach/orb"
)

// BoundaryProvider looks up region geometry in native [lon, lat] order.
type BoundaryProvider interface {
	Lookup(ctx context.Context, region string) (orb.Geometry, error)
}
