package boundary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geolisten/internal/core/domain"
)

// DefaultNameProperties are the feature properties matched against a region.
var DefaultNameProperties = []string{"name", "abbr", "postal"}

// GeoJSONProvider implements ports.BoundaryProvider over a GeoJSON
// FeatureCollection read from a file or an http(s) URL. The collection is
// loaded on first use and kept for the life of the provider.
type GeoJSONProvider struct {
	source     string
	properties []string
	client     *http.Client

	once    sync.Once
	fc      *geojson.FeatureCollection
	loadErr error
}

// NewGeoJSONProvider creates a provider. Regions are matched case
// insensitively against the given feature properties.
func NewGeoJSONProvider(source string, properties []string) *GeoJSONProvider {
	if len(properties) == 0 {
		properties = DefaultNameProperties
	}
	return &GeoJSONProvider{
		source:     source,
		properties: properties,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Lookup returns the polygon or multipolygon of region in native lon/lat order.
func (p *GeoJSONProvider) Lookup(ctx context.Context, region string) (orb.Geometry, error) {
	fc, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, f := range fc.Features {
		if !p.matches(f, region) {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			return g, nil
		default:
			return nil, fmt.Errorf("region %q: unsupported geometry %s", region, f.Geometry.GeoJSONType())
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", domain.ErrRegionNotFound, region, p.source)
}

// Regions lists the primary name of every feature.
func (p *GeoJSONProvider) Regions(ctx context.Context) ([]string, error) {
	fc, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		if n := f.Properties.MustString(p.properties[0], ""); n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

func (p *GeoJSONProvider) matches(f *geojson.Feature, region string) bool {
	for _, prop := range p.properties {
		if v := f.Properties.MustString(prop, ""); v != "" && strings.EqualFold(v, region) {
			return true
		}
	}
	return false
}

func (p *GeoJSONProvider) load(ctx context.Context) (*geojson.FeatureCollection, error) {
	p.once.Do(func() {
		data, err := p.read(ctx)
		if err != nil {
			p.loadErr = fmt.Errorf("read boundaries %s: %w", p.source, err)
			return
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			p.loadErr = fmt.Errorf("parse boundaries %s: %w", p.source, err)
			return
		}
		p.fc = fc
	})
	return p.fc, p.loadErr
}

func (p *GeoJSONProvider) read(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(p.source, "http://") && !strings.HasPrefix(p.source, "https://") {
		return os.ReadFile(p.source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, p.source)
	}
	return io.ReadAll(resp.Body)
}
