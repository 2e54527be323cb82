package ports

import (
	"context"

	"github.com/samirrijal/geolisten/internal/core/domain"
)

// StreamSource is a blocking iterator over raw stream payloads. It is not
// restartable: once Next returns a non-nil error the source is finished.
type StreamSource interface {
	// Open authenticates and subscribes to records located in bbox.
	Open(ctx context.Context, bbox domain.BBox) error
	// Next blocks until the next payload arrives. It returns
	// domain.ErrSourceClosed when the source has no more records.
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// SignalHandler receives transport notices. Sources invoke it from Next, on
// the consumer's goroutine.
type SignalHandler func(ctx context.Context, sig domain.Signal)
