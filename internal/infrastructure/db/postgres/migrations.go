package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema migration statements, executed in order at startup. Every statement
// is idempotent so repeated application is safe.
//
// Email uniqueness is enforced by a partial index rather than a plain unique
// column: users without an email must not collide with each other.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		name TEXT PRIMARY KEY
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id               UUID PRIMARY KEY,
		email            TEXT NOT NULL DEFAULT '',
		normalized_email TEXT NOT NULL DEFAULT '',
		username         TEXT NOT NULL,
		full_name        TEXT NOT NULL,
		phone_number     TEXT NOT NULL DEFAULT '',
		personal_number  TEXT NOT NULL,
		email_confirmed  BOOLEAN NOT NULL DEFAULT FALSE,
		password_hash    TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		last_logged_in   TIMESTAMPTZ
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS users_normalized_email_key
		ON users (normalized_email) WHERE normalized_email <> ''`,

	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		role    TEXT NOT NULL REFERENCES roles (name),
		PRIMARY KEY (user_id, role)
	)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id         BIGSERIAL PRIMARY KEY,
		actor      TEXT NOT NULL,
		action     TEXT NOT NULL,
		subject    TEXT NOT NULL DEFAULT '',
		detail     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS audit_log_created_at_idx
		ON audit_log (created_at)`,
}

// Apply executes all schema migrations against db.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
