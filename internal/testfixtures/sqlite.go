package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/workforce-attendance/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool       *sqlite.ConnectionPool
	Users      *sqlite.UserRepository
	Attendance *sqlite.AttendanceRepository
	Meetings   *sqlite.MeetingRepository
	Leave      *sqlite.LeaveRequestRepository
	Sessions   *sqlite.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a harness on a temporary database file that is
// migrated automatically. A cleanup callback is registered with tb, so
// calling Close is optional.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "workforce.db")

	pool, err := sqlite.NewConnectionPool("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:       pool,
		Users:      sqlite.NewUserRepository(pool),
		Attendance: sqlite.NewAttendanceRepository(pool),
		Meetings:   sqlite.NewMeetingRepository(pool),
		Leave:      sqlite.NewLeaveRequestRepository(pool),
		Sessions:   sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
