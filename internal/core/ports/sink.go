package ports

import (
	"context"

	"github.com/samirrijal/geolisten/internal/core/domain"
)

// Sink persists accepted records.
type Sink interface {
	// Initialize prepares the sink. Calling it again is a no-op.
	Initialize(ctx context.Context) error
	Write(ctx context.Context, e domain.Entry) error
	// Finalize closes the session on the sink.
	Finalize(ctx context.Context) error
}
