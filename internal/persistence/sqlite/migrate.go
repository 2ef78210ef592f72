package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Migration pairs a unique version label with the SQL that installs it.
type Migration struct {
	Version string
	SQL     string
}

// Migrations returns the ordered schema history. The UNIQUE (subject_id, day)
// index on attendance_records is the authoritative guard for the
// one-record-per-subject-per-day invariant; the application-level check only
// exists for a friendlier rejection.
func Migrations() []Migration {
	return []Migration{
		{
			Version: "001_users",
			SQL: `
				CREATE TABLE users (
					id TEXT PRIMARY KEY,
					email TEXT NOT NULL UNIQUE,
					display_name TEXT NOT NULL,
					role TEXT NOT NULL CHECK (role IN ('admin', 'hr', 'employee')),
					created_by TEXT REFERENCES users(id),
					password_hash TEXT NOT NULL,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				);
				CREATE INDEX idx_users_created_by ON users(created_by);
			`,
		},
		{
			Version: "002_sessions",
			SQL: `
				CREATE TABLE sessions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL REFERENCES users(id),
					token TEXT NOT NULL UNIQUE,
					expires_at TEXT NOT NULL,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL,
					revoked_at TEXT
				);
				CREATE INDEX idx_sessions_user ON sessions(user_id);
			`,
		},
		{
			Version: "003_attendance",
			SQL: `
				CREATE TABLE attendance_records (
					id TEXT PRIMARY KEY,
					subject_id TEXT NOT NULL REFERENCES users(id),
					subject_name TEXT NOT NULL,
					status TEXT NOT NULL CHECK (status IN ('present', 'absent', 'leave', 'half-day')),
					check_in_time TEXT,
					marked_by TEXT NOT NULL REFERENCES users(id),
					day TEXT NOT NULL,
					created_at TEXT NOT NULL,
					UNIQUE (subject_id, day)
				);
				CREATE INDEX idx_attendance_day ON attendance_records(day);
			`,
		},
		{
			Version: "004_meetings",
			SQL: `
				CREATE TABLE meetings (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					description TEXT,
					start_at TEXT NOT NULL,
					duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
					organizer_id TEXT NOT NULL REFERENCES users(id),
					status TEXT NOT NULL CHECK (status IN ('scheduled', 'completed', 'cancelled')),
					join_url TEXT,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				);
				CREATE TABLE meeting_attendees (
					meeting_id TEXT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
					user_id TEXT NOT NULL REFERENCES users(id),
					PRIMARY KEY (meeting_id, user_id)
				);
			`,
		},
		{
			Version: "005_leave_requests",
			SQL: `
				CREATE TABLE leave_requests (
					id TEXT PRIMARY KEY,
					subject_id TEXT NOT NULL REFERENCES users(id),
					from_day TEXT NOT NULL,
					to_day TEXT NOT NULL,
					reason TEXT NOT NULL,
					status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
					decided_by TEXT REFERENCES users(id),
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				);
				CREATE INDEX idx_leave_requests_subject ON leave_requests(subject_id);
			`,
		},
	}
}

// Migrate applies all pending migrations in order, each inside its own
// transaction, recording applied versions in schema_migrations.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if pool == nil {
		return errors.New("sqlite: connection pool not configured")
	}

	if _, err := pool.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	for _, migration := range Migrations() {
		applied, err := versionApplied(ctx, pool.DB(), migration.Version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
				return fmt.Errorf("migration %s failed: %w", migration.Version, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
				migration.Version, formatTime(time.Now()),
			); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func versionApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ? LIMIT 1`, version).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", version, err)
	}
	return true, nil
}
