package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskboard/internal/models"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{uuid}} PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(254) NOT NULL,
		role VARCHAR(16) NOT NULL,
		password_hash VARCHAR(128) NOT NULL,
		date_joined {{timestamp}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id {{uuid}} PRIMARY KEY,
		user_id {{uuid}} NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		image VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id {{uuid}} PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		content TEXT NOT NULL,
		date_posted {{timestamp}} NOT NULL,
		due_date {{timestamp}} NOT NULL,
		author_id {{uuid}} NOT NULL REFERENCES users(id),
		status VARCHAR(16) NOT NULL,
		completer_id {{uuid}} NULL REFERENCES users(id),
		date_completed {{timestamp}} NULL,
		completion_comment TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_status_date_posted ON tasks (status, date_posted)`,
	`CREATE INDEX IF NOT EXISTS tasks_status_date_completed ON tasks (status, date_completed)`,
	`CREATE INDEX IF NOT EXISTS tasks_author_id ON tasks (author_id)`,
	`CREATE INDEX IF NOT EXISTS tasks_completer_id ON tasks (completer_id)`,
}

var tombstoneProfileID = "00000000-0000-0000-0000-000000000002"

// Migrate creates the schema if needed and seeds the tombstone user that
// inherits tasks of deleted accounts. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	types := strings.NewReplacer("{{uuid}}", "TEXT", "{{timestamp}}", "DATETIME")
	if Dialect(db) == dialect.Postgres {
		types = strings.NewReplacer("{{uuid}}", "UUID", "{{timestamp}}", "TIMESTAMPTZ")
	}

	err := InTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, types.Replace(stmt)); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}

		seed := []struct {
			query string
			args  []any
		}{
			{
				query: `INSERT INTO users (id, username, email, role, password_hash, date_joined)
					VALUES (?, ?, '', ?, '', CURRENT_TIMESTAMP) ON CONFLICT (id) DO NOTHING`,
				args: []any{models.TombstoneUserID, models.TombstoneUsername, models.RoleCreator},
			},
			{
				query: `INSERT INTO profiles (id, user_id, image) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
				args:  []any{tombstoneProfileID, models.TombstoneUserID, models.DefaultProfileImage},
			},
		}
		for _, s := range seed {
			if _, err := tx.ExecContext(ctx, tx.Rebind(s.query), s.args...); err != nil {
				return fmt.Errorf("seed tombstone user: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	slog.Info("database migrations applied")
	return nil
}
