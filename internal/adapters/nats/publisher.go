package natsadapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geolisten/internal/core/domain"
)

const (
	HeaderRecordID = "Geolisten-Record-Id"
	HeaderAuthor   = "Geolisten-Author"
)

// MsgPublisher is the part of *nats.Conn the Publisher uses.
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
	FlushTimeout(timeout time.Duration) error
	IsClosed() bool
}

// Publisher relays accepted records to a NATS subject. It implements
// ports.Sink.
type Publisher struct {
	conn    MsgPublisher
	subject string
}

// NewPublisher creates a Publisher on an existing connection.
func NewPublisher(conn MsgPublisher, subject string) *Publisher {
	return &Publisher{conn: conn, subject: subject}
}

// Initialize fails if the connection is already closed.
func (p *Publisher) Initialize(ctx context.Context) error {
	if p.conn.IsClosed() {
		return errors.New("nats publisher: connection closed")
	}
	return nil
}

// Write publishes the raw payload with the display fields as headers.
func (p *Publisher) Write(ctx context.Context, e domain.Entry) error {
	msg := nats.NewMsg(p.subject)
	msg.Header.Set(HeaderRecordID, e.Record.ID)
	msg.Header.Set(HeaderAuthor, e.Author)
	msg.Data = e.Record.Raw
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Finalize flushes buffered messages.
func (p *Publisher) Finalize(ctx context.Context) error {
	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := p.conn.FlushTimeout(timeout); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}
