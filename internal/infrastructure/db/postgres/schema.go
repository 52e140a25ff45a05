package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent and applied on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS identities (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	app_role      TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS profiles (
	id          UUID PRIMARY KEY REFERENCES identities(id),
	full_name   TEXT NOT NULL,
	phone       TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	role        TEXT NOT NULL DEFAULT 'supplier',
	supplier_id TEXT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS profiles_role_idx ON profiles (role)`,
	`CREATE TABLE IF NOT EXISTS notifications (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES identities(id),
	title      TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	link       TEXT NOT NULL DEFAULT '',
	read_at    TIMESTAMPTZ NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_created_idx ON notifications (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS tenders (
	id           UUID PRIMARY KEY,
	reference    TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	deadline     TIMESTAMPTZ NOT NULL,
	status       TEXT NOT NULL,
	created_by   UUID NOT NULL,
	published_at TIMESTAMPTZ NULL,
	closed_at    TIMESTAMPTZ NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS tenders_status_deadline_idx ON tenders (status, deadline)`,
	`CREATE TABLE IF NOT EXISTS proposals (
	id          UUID PRIMARY KEY,
	tender_id   UUID NOT NULL REFERENCES tenders(id),
	supplier_id UUID NOT NULL,
	amount      BIGINT NOT NULL CHECK (amount > 0),
	currency    CHAR(3) NOT NULL,
	cover_note  TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS proposals_one_active_idx
	ON proposals (tender_id, supplier_id) WHERE status IN ('submitted', 'accepted')`,
	`CREATE TABLE IF NOT EXISTS attachments (
	id           UUID PRIMARY KEY,
	proposal_id  UUID NOT NULL REFERENCES proposals(id),
	object_key   TEXT NOT NULL,
	file_name    TEXT NOT NULL,
	content_type TEXT NOT NULL,
	size         BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
)`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
