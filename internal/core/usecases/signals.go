package usecases

import (
	"context"
	"log/slog"

	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/pkg/metrics"
)

// LogSignal is the ports.SignalHandler used by the collector binary. Signals
// are logged and counted; they never stop the stream.
func LogSignal(ctx context.Context, sig domain.Signal) {
	metrics.StreamSignals.WithLabelValues(string(sig.Kind)).Inc()

	attrs := []any{"kind", sig.Kind}
	if sig.StatusCode != 0 {
		attrs = append(attrs, "status_code", sig.StatusCode)
	}
	if sig.Track != 0 {
		attrs = append(attrs, "track", sig.Track)
	}
	if sig.Message != "" {
		attrs = append(attrs, "message", sig.Message)
	}

	switch sig.Kind {
	case domain.SignalRateLimit:
		slog.WarnContext(ctx, "rate limit hit", attrs...)
	case domain.SignalTimeout:
		slog.WarnContext(ctx, "stream timeout, reconnecting", attrs...)
	case domain.SignalWarning:
		slog.WarnContext(ctx, "stream warning", attrs...)
	default:
		slog.ErrorContext(ctx, "stream error", attrs...)
	}
}
