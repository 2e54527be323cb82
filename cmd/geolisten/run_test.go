package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	natsadapter "github.com/samirrijal/geolisten/internal/adapters/nats"
	"github.com/samirrijal/geolisten/internal/adapters/twitter"
	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/pkg/config"
)

const regionsFixture = "../../internal/adapters/boundary/testdata/regions.geojson"

func TestResolveBoundary_BBoxOnly(t *testing.T) {
	cfg := &config.Config{Collector: config.CollectorConfig{BBox: "-10,35,5,44"}}
	b, err := resolveBoundary(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Filtering() {
		t.Error("expected filtering disabled for a bare bounding box")
	}
	if b.BBox != (domain.BBox{West: -10, South: 35, East: 5, North: 44}) {
		t.Errorf("unexpected bbox %+v", b.BBox)
	}
}

func TestResolveBoundary_Circle(t *testing.T) {
	cfg := &config.Config{Collector: config.CollectorConfig{Near: "43.26,-2.93,10000"}}
	b, err := resolveBoundary(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Filtering() || b.Circle == nil {
		t.Fatal("expected a filtering circle boundary")
	}
	if err := b.BBox.Validate(); err != nil {
		t.Errorf("expected a valid stream bbox: %v", err)
	}
	if b.BBox.South > 43.26 || b.BBox.North < 43.26 || b.BBox.West > -2.93 || b.BBox.East < -2.93 {
		t.Errorf("bbox %v does not contain the center", b.BBox)
	}
}

func TestResolveBoundary_Region(t *testing.T) {
	cfg := &config.Config{
		Collector: config.CollectorConfig{Region: "BI"},
		Boundary:  config.BoundaryConfig{Source: regionsFixture, NameProperty: "name,abbr"},
	}
	b, err := resolveBoundary(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Filtering() {
		t.Error("expected filtering enabled for a region")
	}
	if b.BBox != (domain.BBox{West: -3.45, South: 42.98, East: -2.41, North: 43.46}) {
		t.Errorf("unexpected bbox %+v", b.BBox)
	}
}

func TestResolveBoundary_UnknownRegion(t *testing.T) {
	cfg := &config.Config{
		Collector: config.CollectorConfig{Region: "Atlantis"},
		Boundary:  config.BoundaryConfig{Source: regionsFixture, NameProperty: "name"},
	}
	_, err := resolveBoundary(context.Background(), cfg, nil)
	if !errors.Is(err, domain.ErrRegionNotFound) {
		t.Fatalf("expected ErrRegionNotFound, got %v", err)
	}
}

func TestNewSource(t *testing.T) {
	if _, ok := newSource(&config.Config{Collector: config.CollectorConfig{Source: config.SourceNATS}}).(*natsadapter.Source); !ok {
		t.Error("expected nats source")
	}
	if _, ok := newSource(&config.Config{Collector: config.CollectorConfig{Source: config.SourceTwitter}}).(*twitter.Source); !ok {
		t.Error("expected twitter source")
	}
}

func TestRootCmd_RequiresRegionOrBBox(t *testing.T) {
	t.Setenv("GEOLISTEN_TWITTER_BEARER_TOKEN", "tok")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--limit", "3"})

	err := cmd.ExecuteContext(context.Background())
	if !errors.Is(err, domain.ErrNoRegion) {
		t.Fatalf("expected ErrNoRegion, got %v", err)
	}
	if !strings.Contains(out.String(), "you must specify either a region or a bounding box") {
		t.Errorf("expected message on stderr, got %q", out.String())
	}
}

func TestRegionsCmd(t *testing.T) {
	t.Setenv("GEOLISTEN_BOUNDARY_SOURCE", regionsFixture)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"regions"})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "Bizkaia\nIslands\nSomewhere\n" {
		t.Errorf("unexpected output %q", got)
	}
}
