package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/geolisten/internal/adapters/boundary"
	"github.com/samirrijal/geolisten/internal/adapters/files"
	httpadapter "github.com/samirrijal/geolisten/internal/adapters/http"
	natsadapter "github.com/samirrijal/geolisten/internal/adapters/nats"
	"github.com/samirrijal/geolisten/internal/adapters/postgres"
	"github.com/samirrijal/geolisten/internal/adapters/twitter"
	"github.com/samirrijal/geolisten/internal/adapters/valkey"
	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/core/ports"
	"github.com/samirrijal/geolisten/internal/core/usecases"
	"github.com/samirrijal/geolisten/internal/pkg/config"
	"github.com/samirrijal/geolisten/internal/pkg/geospatial"
	"github.com/samirrijal/geolisten/internal/pkg/logging"
	"github.com/samirrijal/geolisten/internal/pkg/telemetry"
)

func run(ctx context.Context, cfg *config.Config) error {
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &httpadapter.Dependencies{}

	// Keep the interface nil when Valkey is unavailable.
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("boundary cache disabled", "addr", cfg.Valkey.Addr, "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}

	b, err := resolveBoundary(ctx, cfg, cache)
	if err != nil {
		return err
	}

	sinks := usecases.MultiSink{files.New(cfg.Output.Dir, cfg.Output.Basename)}

	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		sinks = append(sinks, postgres.NewRecordRepo(db))
		deps.DB = db
	}

	if cfg.NATS.PublishSubject != "" {
		conn, err := natsadapter.Connect(cfg.NATS.URL, "geolisten-publisher", nil)
		if err != nil {
			return err
		}
		defer conn.Close()
		sinks = append(sinks, natsadapter.NewPublisher(conn, cfg.NATS.PublishSubject))
		deps.NATS = conn
	}

	collector := usecases.NewCollector(newSource(cfg), sinks, b, usecases.CollectorConfig{
		Limit:     cfg.Collector.RecordLimit,
		WrapWidth: cfg.Output.WrapWidth,
	})
	deps.Status = collector.Status

	if cfg.Metrics.Addr != "" {
		app := httpadapter.NewApp(deps)
		go func() {
			slog.Info("status server starting", "addr", cfg.Metrics.Addr)
			if err := app.Listen(cfg.Metrics.Addr); err != nil {
				slog.Error("status server stopped", "error", err)
			}
		}()
		defer func() {
			if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
				slog.Warn("status server shutdown", "error", err)
			}
		}()
	}

	slog.Info("collector starting",
		"source", cfg.Collector.Source,
		"limit", cfg.Collector.RecordLimit,
		"output", cfg.Output.Dir,
	)
	if err := collector.Run(ctx); err != nil {
		slog.Error("collection failed", "error", err)
		return err
	}
	status := collector.Status()
	slog.Info("collection finished", "collected", status.Collected, "seen", status.Seen)
	return nil
}

// resolveBoundary returns the polygon boundary of the configured region, a
// radius boundary, or a bbox-only boundary with filtering disabled.
func resolveBoundary(ctx context.Context, cfg *config.Config, cache ports.CacheService) (*domain.Boundary, error) {
	if cfg.Collector.Near != "" {
		c, err := cfg.Collector.ParsedCircle()
		if err != nil {
			return nil, err
		}
		return &domain.Boundary{
			Region: "near " + c.String(),
			Circle: &c,
			BBox:   domain.BBoxFromBound(geospatial.RadiusBound(c.Center.Point(), c.RadiusMeters)),
		}, nil
	}
	if cfg.Collector.Region == "" {
		bbox, err := cfg.Collector.ParsedBBox()
		if err != nil {
			return nil, err
		}
		return &domain.Boundary{BBox: bbox}, nil
	}

	provider := boundary.NewGeoJSONProvider(cfg.Boundary.Source, cfg.Boundary.Properties())
	svc := usecases.NewBoundaryService(provider, cache, cfg.Boundary.CacheTTL)
	b, err := svc.Resolve(ctx, cfg.Collector.Region)
	if err != nil {
		if errors.Is(err, domain.ErrRegionNotFound) {
			return nil, fmt.Errorf("unknown region %q: %w", cfg.Collector.Region, err)
		}
		return nil, fmt.Errorf("resolve region: %w", err)
	}
	return b, nil
}

func newSource(cfg *config.Config) ports.StreamSource {
	if cfg.Collector.Source == config.SourceNATS {
		return natsadapter.NewSource(cfg.NATS.URL, cfg.NATS.Subject, cfg.NATS.Queue, usecases.LogSignal)
	}
	return twitter.New(twitter.Config{
		StreamURL:      cfg.Twitter.StreamURL,
		TokenURL:       cfg.Twitter.TokenURL,
		ConsumerKey:    cfg.Twitter.ConsumerKey,
		ConsumerSecret: cfg.Twitter.ConsumerSecret,
		BearerToken:    cfg.Twitter.BearerToken,
		IdleTimeout:    cfg.Twitter.IdleTimeout,
		MaxRetries:     cfg.Twitter.MaxRetries,
	}, usecases.LogSignal)
}

