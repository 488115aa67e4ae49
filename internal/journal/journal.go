// Package journal keeps an append-only record of write operations in
// PostgreSQL. A nil *Journal is valid and records nothing, which is how the
// service runs when postgres.enabled is false.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/resilience"
)

const schema = `
CREATE TABLE IF NOT EXISTS index_journal (
	id          BIGSERIAL PRIMARY KEY,
	index_name  TEXT        NOT NULL,
	op          TEXT        NOT NULL,
	documents   INTEGER     NOT NULL DEFAULT 0,
	status      TEXT        NOT NULL,
	error       TEXT,
	duration_ms BIGINT      NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_index_journal_index_name ON index_journal (index_name, created_at DESC);
`

// Entry describes one finished write operation.
type Entry struct {
	Index     string
	Op        string
	Documents int
	Err       error
	Duration  time.Duration
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Journal struct {
	db      execer
	breaker *resilience.Breaker
	logger  *slog.Logger
}

// New wraps db, usually a *sql.DB from pkg/postgres. After five failed
// inserts in a row the journal stops trying for 30 seconds.
func New(db execer) *Journal {
	return &Journal{
		db:      db,
		breaker: resilience.NewBreaker("journal", 5, 30*time.Second),
		logger:  slog.Default().With("component", "journal"),
	}
}

// EnsureSchema creates the journal table if it does not exist.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	if j == nil {
		return nil
	}
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating journal schema: %w", err)
	}
	return nil
}

// Record appends e. Failures are returned for the caller to log; they never
// undo the write that was journaled.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if j == nil {
		return nil
	}
	status := "ok"
	var errText sql.NullString
	if e.Err != nil {
		status = "failed"
		errText = sql.NullString{String: e.Err.Error(), Valid: true}
	}
	err := j.breaker.Do(func() error {
		_, err := j.db.ExecContext(ctx,
			`INSERT INTO index_journal (index_name, op, documents, status, error, duration_ms)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.Index, e.Op, e.Documents, status, errText, e.Duration.Milliseconds(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("recording journal entry: %w", err)
	}
	j.logger.Debug("journal entry recorded", "index", e.Index, "op", e.Op, "status", status)
	return nil
}
