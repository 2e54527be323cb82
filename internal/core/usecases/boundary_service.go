package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/core/ports"
	"github.com/samirrijal/geolisten/internal/pkg/geospatial"
	"github.com/samirrijal/geolisten/internal/pkg/metrics"
	"github.com/samirrijal/geolisten/internal/pkg/telemetry"
)

// BoundaryService resolves region names to boundaries.
type BoundaryService struct {
	provider ports.BoundaryProvider
	cache    ports.CacheService
	ttl      time.Duration
}

// NewBoundaryService creates a new BoundaryService. cache may be nil.
func NewBoundaryService(provider ports.BoundaryProvider, cache ports.CacheService, ttl time.Duration) *BoundaryService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BoundaryService{provider: provider, cache: cache, ttl: ttl}
}

// Resolve returns the boundary of region with filtering enabled.
func (s *BoundaryService) Resolve(ctx context.Context, region string) (*domain.Boundary, error) {
	native, err := s.lookup(ctx, region)
	if err != nil {
		return nil, err
	}
	shape, err := geospatial.ToLatLon(native)
	if err != nil {
		return nil, fmt.Errorf("region %q: %w", region, err)
	}
	return &domain.Boundary{
		Region: region,
		Shape:  shape,
		BBox:   domain.BBoxFromBound(native.Bound()),
	}, nil
}

// ResolvePolygon returns the region polygon in lat/lon order.
func (s *BoundaryService) ResolvePolygon(ctx context.Context, region string) (orb.Geometry, error) {
	b, err := s.Resolve(ctx, region)
	if err != nil {
		return nil, err
	}
	return b.Shape, nil
}

// ResolveBBox returns the region bounding box.
func (s *BoundaryService) ResolveBBox(ctx context.Context, region string) (domain.BBox, error) {
	native, err := s.lookup(ctx, region)
	if err != nil {
		return domain.BBox{}, err
	}
	return domain.BBoxFromBound(native.Bound()), nil
}

func (s *BoundaryService) lookup(ctx context.Context, region string) (orb.Geometry, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, domain.ErrNoRegion
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanResolveBoundary)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrRegion, region))

	cacheKey := "boundary:" + strings.ToLower(region)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			if g, err := geojson.UnmarshalGeometry(data); err == nil && g.Geometry() != nil {
				metrics.BoundaryCacheHits.Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return g.Geometry(), nil
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			slog.Warn("boundary cache read failed", "region", region, "error", err)
		}
		metrics.BoundaryCacheMisses.Inc()
	}

	g, err := s.provider.Lookup(ctx, region)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.cache != nil {
		if data, err := geojson.NewGeometry(g).MarshalJSON(); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, int(s.ttl.Seconds()))
		}
	}
	return g, nil
}
