package natsadapter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geolisten/internal/core/domain"
	"github.com/samirrijal/geolisten/internal/core/ports"
)

const (
	DefaultSubject = "geolisten.records"
	msgBuffer      = 256
	eventBuffer    = 32
)

// Connect dials NATS and keeps reconnecting forever. Connection events are
// forwarded to events when it is non-nil; a full buffer drops the event.
func Connect(url, name string, events chan<- domain.Signal) (*nats.Conn, error) {
	notify := func(sig domain.Signal) {
		if events == nil {
			return
		}
		sig.At = time.Now()
		select {
		case events <- sig:
		default:
		}
	}

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			msg := "disconnected"
			if err != nil {
				msg = err.Error()
			}
			notify(domain.Signal{Kind: domain.SignalDisconnect, Message: msg})
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			notify(domain.Signal{Kind: domain.SignalWarning, Message: "reconnected to " + c.ConnectedUrl()})
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			notify(domain.Signal{Kind: domain.SignalError, Message: err.Error()})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// Source implements ports.StreamSource over a NATS subject carrying raw
// status payloads, one per message.
type Source struct {
	url      string
	subject  string
	queue    string
	onSignal ports.SignalHandler

	conn   *nats.Conn
	sub    *nats.Subscription
	msgs   chan *nats.Msg
	events chan domain.Signal
	done   chan struct{}

	closeOnce sync.Once
}

// NewSource creates a Source. An empty queue subscribes without a queue
// group.
func NewSource(url, subject, queue string, onSignal ports.SignalHandler) *Source {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Source{
		url:      url,
		subject:  subject,
		queue:    queue,
		onSignal: onSignal,
		msgs:     make(chan *nats.Msg, msgBuffer),
		events:   make(chan domain.Signal, eventBuffer),
		done:     make(chan struct{}),
	}
}

// Open connects and subscribes. Payloads are expected to be pre-filtered
// to bbox by the publisher; the collector filters them again.
func (s *Source) Open(ctx context.Context, bbox domain.BBox) error {
	conn, err := Connect(s.url, "geolisten", s.events)
	if err != nil {
		return err
	}
	conn.SetClosedHandler(func(*nats.Conn) { s.markDone() })

	var sub *nats.Subscription
	if s.queue != "" {
		sub, err = conn.ChanQueueSubscribe(s.subject, s.queue, s.msgs)
	} else {
		sub, err = conn.ChanSubscribe(s.subject, s.msgs)
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	s.conn = conn
	s.sub = sub
	slog.Info("nats subscribed", "subject", s.subject, "queue", s.queue, "bbox", bbox.String())
	return nil
}

// Conn exposes the underlying connection for health checks.
func (s *Source) Conn() *nats.Conn {
	return s.conn
}

// Next returns the next message payload.
func (s *Source) Next(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig := <-s.events:
			if s.onSignal != nil {
				s.onSignal(ctx, sig)
			}
		case msg := <-s.msgs:
			return msg.Data, nil
		case <-s.done:
			return nil, domain.ErrSourceClosed
		}
	}
}

// Close unsubscribes and drains.
func (s *Source) Close() error {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	if s.conn != nil {
		return s.conn.Drain()
	}
	s.markDone()
	return nil
}

func (s *Source) markDone() {
	s.closeOnce.Do(func() { close(s.done) })
}
