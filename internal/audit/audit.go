// Package audit keeps an optional Postgres trail of console mutations.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Entry is one attempted mutation.
type Entry struct {
	SessionID string
	RequestID string
	Action    string
	ProjectID int64
	OK        bool
	Error     string
	CreatedAt time.Time
}

// NopRecorder drops every entry. It is used when no database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) error { return nil }

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS console_actions (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT        NOT NULL,
	request_id  TEXT        NOT NULL DEFAULT '',
	action      TEXT        NOT NULL,
	project_id  BIGINT,
	ok          BOOLEAN     NOT NULL,
	error       TEXT        NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS console_actions_created_at_idx ON console_actions (created_at);
`

// Repository writes entries through a pgx pool (or anything with Exec).
type Repository struct {
	db execer
}

// NewRepository wraps db, typically a *pgxpool.Pool.
func NewRepository(db execer) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the console_actions table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create console_actions: %w", err)
	}
	return nil
}

// Record inserts one entry.
func (r *Repository) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var projectID *int64
	if e.ProjectID != 0 {
		projectID = &e.ProjectID
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO console_actions (session_id, request_id, action, project_id, ok, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.SessionID, e.RequestID, e.Action, projectID, e.OK, e.Error, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert console action: %w", err)
	}
	return nil
}

// Prune deletes entries older than retention and returns how many went.
func (r *Repository) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	tag, err := r.db.Exec(ctx, `DELETE FROM console_actions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune console actions: %w", err)
	}
	return tag.RowsAffected(), nil
}
