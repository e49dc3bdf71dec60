package postgres

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS schedules (
    id         UUID PRIMARY KEY,
    title      TEXT NOT NULL,
    body       TEXT NOT NULL,
    topic      TEXT NOT NULL,
    image      TEXT NOT NULL DEFAULT '',
    send_at    TIMESTAMPTZ NOT NULL,
    sent       BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_schedules_pending ON schedules (sent, send_at);

CREATE TABLE IF NOT EXISTS history (
    id          UUID PRIMARY KEY,
    title       TEXT NOT NULL,
    body        TEXT NOT NULL,
    topic       TEXT NOT NULL,
    image       TEXT NOT NULL DEFAULT '',
    type        TEXT NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_created_at ON history (created_at DESC);
`

// EnsureSchema creates the two tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
