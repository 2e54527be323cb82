package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics for the health server
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolisten",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geolisten",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "path"})

	// Collector metrics
	RecordsSeen = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolisten",
		Subsystem: "collector",
		Name:      "records_seen_total",
		Help:      "Records decoded from the stream",
	})

	RecordsCollected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolisten",
		Subsystem: "collector",
		Name:      "records_collected_total",
		Help:      "Records written to the sinks",
	})

	RecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolisten",
		Subsystem: "collector",
		Name:      "records_dropped_total",
		Help:      "Payloads that could not be decoded",
	})

	FilterDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolisten",
		Subsystem: "filter",
		Name:      "decisions_total",
		Help:      "Geo filter outcomes by reason",
	}, []string{"reason"})

	SinkWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolisten",
		Subsystem: "sink",
		Name:      "write_errors_total",
		Help:      "Failed sink writes",
	})

	SinkWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geolisten",
		Subsystem: "sink",
		Name:      "write_duration_seconds",
		Help:      "Time spent persisting one record",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	StreamSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolisten",
		Subsystem: "stream",
		Name:      "signals_total",
		Help:      "Transport notices from the stream source",
	}, []string{"kind"})

	BoundaryCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolisten",
		Subsystem: "boundary",
		Name:      "cache_hits_total",
		Help:      "Boundary lookups served from cache",
	})

	BoundaryCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolisten",
		Subsystem: "boundary",
		Name:      "cache_misses_total",
		Help:      "Boundary lookups that went to the provider",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
