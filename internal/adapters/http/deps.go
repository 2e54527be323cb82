package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geolisten/internal/core/usecases"
)

// Pinger is a backing service that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds everything the status endpoints read. Optional
// services are left nil when not configured.
type Dependencies struct {
	Status func() usecases.CollectorStatus
	DB     Pinger
	Cache  Pinger
	NATS   *nats.Conn
}
