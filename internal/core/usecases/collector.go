package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/core/ports"
	"github.com/samirrijal/geolisten/internal/pkg/metrics"
	"github.com/samirrijal/geolisten/internal/pkg/telemetry"
)

// CollectorConfig holds the tunables of a collection run.
type CollectorConfig struct {
	Limit     int
	WrapWidth int
}

// CollectorStatus is a point-in-time view of a run, safe to read from any
// goroutine.
type CollectorStatus struct {
	State     string    `json:"state"`
	Region    string    `json:"region,omitempty"`
	Filtering bool      `json:"filtering"`
	Limit     int       `json:"limit"`
	Seen      int64     `json:"seen"`
	Collected int64     `json:"collected"`
	StartedAt time.Time `json:"started_at"`
}

// Collector pulls records from a stream, filters them against a boundary and
// persists the accepted ones until the limit is reached.
type Collector struct {
	source   ports.StreamSource
	sink     ports.Sink
	boundary *domain.Boundary
	filter   *Filter
	session  *domain.Session
	width    int

	state     atomic.Int32
	seen      atomic.Int64
	collected atomic.Int64

	finalizeOnce sync.Once
	finalizeErr  error
}

// NewCollector creates a new Collector.
func NewCollector(source ports.StreamSource, sink ports.Sink, boundary *domain.Boundary, cfg CollectorConfig) *Collector {
	if boundary == nil {
		boundary = &domain.Boundary{}
	}
	if cfg.WrapWidth <= 0 {
		cfg.WrapWidth = DefaultWrapWidth
	}
	return &Collector{
		source:   source,
		sink:     sink,
		boundary: boundary,
		filter:   NewFilter(boundary),
		session:  domain.NewSession(cfg.Limit),
		width:    cfg.WrapWidth,
	}
}

// State returns the current lifecycle state.
func (c *Collector) State() domain.CollectorState {
	return domain.CollectorState(c.state.Load())
}

// Status returns a snapshot of the run.
func (c *Collector) Status() CollectorStatus {
	return CollectorStatus{
		State:     c.State().String(),
		Region:    c.boundary.Region,
		Filtering: c.filter.Enabled(),
		Limit:     c.session.Limit,
		Seen:      c.seen.Load(),
		Collected: c.collected.Load(),
		StartedAt: c.session.StartedAt,
	}
}

// Run executes one collection session. It returns nil when the limit is
// reached, the context is canceled or the source ends; the sink is finalized
// exactly once on every path after it was initialized.
func (c *Collector) Run(ctx context.Context) (err error) {
	if c.session.Limit <= 0 {
		return fmt.Errorf("record limit must be positive, got %d", c.session.Limit)
	}
	if err := c.filter.Err(); err != nil {
		return fmt.Errorf("boundary %q: %w", c.boundary.Region, err)
	}
	c.setState(domain.StateInitializing)

	if err := c.sink.Initialize(ctx); err != nil {
		c.setState(domain.StateTerminated)
		return fmt.Errorf("initialize sink: %w", err)
	}
	defer func() {
		if ferr := c.Finalize(context.WithoutCancel(ctx)); ferr != nil {
			slog.Error("finalize sink", "error", ferr)
			if err == nil {
				err = fmt.Errorf("finalize sink: %w", ferr)
			}
		}
	}()

	if err := c.source.Open(ctx, c.boundary.BBox); err != nil {
		if ctx.Err() != nil {
			slog.Info("interrupted before streaming started")
			return nil
		}
		return fmt.Errorf("open stream: %w", err)
	}
	defer c.source.Close()

	c.setState(domain.StateStreaming)
	slog.Info("streaming started",
		"region", c.boundary.Region,
		"bbox", c.boundary.BBox.String(),
		"filtering", c.filter.Enabled(),
		"limit", c.session.Limit,
	)

	for {
		raw, err := c.source.Next(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				slog.Info("interrupted, finishing up", "collected", c.session.Collected)
				return nil
			case errors.Is(err, domain.ErrSourceClosed), errors.Is(err, io.EOF):
				slog.Info("stream ended", "collected", c.session.Collected)
				return nil
			default:
				return fmt.Errorf("read stream: %w", err)
			}
		}

		if c.handle(ctx, raw) {
			slog.Info("record limit reached, exiting", "collected", c.session.Collected, "seen", c.session.Seen)
			return nil
		}
	}
}

// Finalize closes the session on the sink. Only the first call has effect.
func (c *Collector) Finalize(ctx context.Context) error {
	c.finalizeOnce.Do(func() {
		c.finalizeErr = c.sink.Finalize(ctx)
		c.setState(domain.StateTerminated)
	})
	return c.finalizeErr
}

// handle processes one payload and reports whether the session is done.
func (c *Collector) handle(ctx context.Context, raw []byte) bool {
	rec, err := domain.DecodeRecord(raw)
	if err != nil {
		metrics.RecordsDropped.Inc()
		slog.Warn("skipping undecodable payload", "error", err, "bytes", len(raw))
		return false
	}

	c.session.Observe()
	c.seen.Add(1)
	metrics.RecordsSeen.Inc()

	if c.filter.Enabled() {
		ok, reason := c.filter.Evaluate(rec)
		metrics.FilterDecisions.WithLabelValues(reason).Inc()
		if !ok {
			slog.Debug("record rejected", "id", rec.ID, "reason", reason)
			return false
		}
	}

	author, content := Display(rec, c.width)
	slog.Info("record collected",
		"n", c.session.Collected,
		"user", author,
		"content", content,
	)

	c.persist(ctx, domain.Entry{Record: rec, Author: author, Content: content})

	c.collected.Add(1)
	metrics.RecordsCollected.Inc()
	return c.session.Collect()
}

func (c *Collector) persist(ctx context.Context, e domain.Entry) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPersist)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrRecordID, e.Record.ID),
		attribute.String(telemetry.AttrAuthor, e.Author),
	)

	start := time.Now()
	err := c.sink.Write(ctx, e)
	metrics.SinkWriteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SinkWriteErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "sink write")
		slog.Error("write record", "id", e.Record.ID, "error", err)
	}
}

func (c *Collector) setState(s domain.CollectorState) {
	c.state.Store(int32(s))
}
