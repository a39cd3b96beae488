package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS tasks (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					due_date DATETIME,
					priority TEXT NOT NULL DEFAULT 'medium',
					is_recurring INTEGER NOT NULL DEFAULT 0,
					recurrence_rule TEXT NOT NULL DEFAULT '',
					photo_url TEXT NOT NULL DEFAULT '',
					completed INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_tasks_user ON tasks(user_id)`,
				`CREATE INDEX idx_tasks_due ON tasks(user_id, due_date)`,

				`CREATE TABLE IF NOT EXISTS events (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					location TEXT NOT NULL DEFAULT '',
					start_time DATETIME NOT NULL,
					end_time DATETIME NOT NULL,
					is_recurring INTEGER NOT NULL DEFAULT 0,
					recurrence_rule TEXT NOT NULL DEFAULT '',
					external_id TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_events_user_start ON events(user_id, start_time)`,
				`CREATE INDEX idx_events_external ON events(user_id, external_id)`,

				`CREATE TABLE IF NOT EXISTS notes (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					title TEXT NOT NULL,
					content TEXT NOT NULL DEFAULT '',
					photo_url TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_notes_user ON notes(user_id)`,
				`CREATE INDEX idx_notes_title ON notes(user_id, title COLLATE NOCASE)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					direction TEXT NOT NULL,
					amount REAL NOT NULL,
					category TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					photo_url TEXT NOT NULL DEFAULT '',
					date DATETIME NOT NULL,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
				`CREATE INDEX idx_transactions_category ON transactions(user_id, category)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add note pinning and tags",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE notes ADD COLUMN pinned INTEGER NOT NULL DEFAULT 0`,
				`ALTER TABLE notes ADD COLUMN tags TEXT NOT NULL DEFAULT '[]'`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add user settings table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS settings (
					user_id TEXT PRIMARY KEY,
					currency TEXT NOT NULL DEFAULT 'USD',
					calendar_sync INTEGER NOT NULL DEFAULT 0,
					calendar_token_file TEXT NOT NULL DEFAULT '',
					updated_at DATETIME NOT NULL
				)
			`)
			return err
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
