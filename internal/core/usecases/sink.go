package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/core/ports"
)

// MultiSink fans every call out to its sinks in order. Writes and finalizes
// are best effort: a failing sink does not stop the others.
type MultiSink []ports.Sink

// Initialize stops at the first failing sink.
func (m MultiSink) Initialize(ctx context.Context) error {
	for i, s := range m {
		if err := s.Initialize(ctx); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

func (m MultiSink) Write(ctx context.Context, e domain.Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Finalize(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if err := s.Finalize(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
