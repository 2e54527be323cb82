package postgres

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samirrijal/geolisten/internal/core/domain"
)

// Execer is satisfied by *DB and *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// RecordRepo archives accepted records in collected_records. It implements
// ports.Sink so it can sit next to the file artifacts.
type RecordRepo struct {
	db Execer
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(db Execer) *RecordRepo {
	return &RecordRepo{db: db}
}

// Initialize checks the connection.
func (r *RecordRepo) Initialize(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("archive ping: %w", err)
	}
	return nil
}

// Write inserts one record. The raw payload is stored as jsonb.
func (r *RecordRepo) Write(ctx context.Context, e domain.Entry) error {
	var content interface{}
	if text, ok := e.Record.Content(); ok {
		content = text
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO collected_records (record_id, author, content, payload, received_at)
		VALUES ($1, $2, $3, $4::jsonb, now())
	`, nilEmpty(e.Record.ID), e.Record.AuthorHandle(), content,
		string(bytes.TrimSpace(e.Record.Raw)))
	if err != nil {
		return fmt.Errorf("archive record %s: %w", e.Record.ID, err)
	}
	return nil
}

// Finalize is a no-op; the pool is closed by its owner.
func (r *RecordRepo) Finalize(ctx context.Context) error {
	return nil
}

func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
