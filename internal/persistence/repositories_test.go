package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/workforce-attendance/internal/period"
	"github.com/example/workforce-attendance/internal/persistence"
	"github.com/example/workforce-attendance/internal/persistence/sqlite"
	"github.com/example/workforce-attendance/internal/testfixtures"
)

// Compile-time checks that the SQLite implementations satisfy the repository
// contracts.
var (
	_ persistence.UserRepository         = (*sqlite.UserRepository)(nil)
	_ persistence.AttendanceRepository   = (*sqlite.AttendanceRepository)(nil)
	_ persistence.MeetingRepository      = (*sqlite.MeetingRepository)(nil)
	_ persistence.LeaveRequestRepository = (*sqlite.LeaveRequestRepository)(nil)
	_ persistence.SessionRepository      = (*sqlite.SessionRepository)(nil)
)

// TestRepositoriesWorkingDay drives every repository through one working day
// against a shared database, so cross-table references are checked the way
// the live schema enforces them.
func TestRepositoriesWorkingDay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	defer harness.Close()

	ids := testfixtures.NewIDGenerator("user")
	base := testfixtures.ReferenceTime()

	adminID := ids.Next()
	hrID := ids.Next()
	employeeID := ids.Next()

	seed := func(id, email, role string, createdBy *string) {
		t.Helper()
		err := harness.Users.CreateUser(ctx, persistence.User{
			ID:           id,
			Email:        email,
			DisplayName:  "User " + id,
			Role:         role,
			CreatedBy:    createdBy,
			PasswordHash: "hash-" + id,
			CreatedAt:    base,
			UpdatedAt:    base,
		})
		if err != nil {
			t.Fatalf("failed to seed %s: %v", id, err)
		}
	}

	seed(adminID, "admin@example.com", "admin", nil)
	seed(hrID, "hr@example.com", "hr", &adminID)
	seed(employeeID, "employee@example.com", "employee", &hrID)

	provisioned, err := harness.Users.ListUsersCreatedBy(ctx, hrID)
	if err != nil {
		t.Fatalf("ListUsersCreatedBy failed: %v", err)
	}
	if len(provisioned) != 1 || provisioned[0].ID != employeeID {
		t.Fatalf("expected hr to have provisioned only the employee, got %#v", provisioned)
	}

	// The HR user logs in.
	session := persistence.Session{
		ID:        "session-1",
		UserID:    hrID,
		Token:     "token-1",
		ExpiresAt: base.Add(12 * time.Hour),
		CreatedAt: base,
		UpdatedAt: base,
	}
	if _, err := harness.Sessions.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// The HR user marks the employee present.
	day := period.Normalize(base)
	checkIn := base.Add(-time.Hour).UTC()
	record := persistence.AttendanceRecord{
		ID:          "rec-1",
		SubjectID:   employeeID,
		SubjectName: "User " + employeeID,
		Status:      "present",
		CheckInTime: &checkIn,
		MarkedBy:    hrID,
		Day:         day,
		CreatedAt:   base,
	}
	if err := harness.Attendance.CreateRecord(ctx, record); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	record.ID = "rec-2"
	if err := harness.Attendance.CreateRecord(ctx, record); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for second record, got %v", err)
	}

	// A meeting for the afternoon.
	meeting := persistence.Meeting{
		ID:              "meet-1",
		Title:           "Weekly sync",
		Start:           base.Add(5 * time.Hour),
		DurationMinutes: 30,
		OrganizerID:     hrID,
		AttendeeIDs:     []string{employeeID},
		Status:          "scheduled",
		CreatedAt:       base,
		UpdatedAt:       base,
	}
	if err := harness.Meetings.CreateMeeting(ctx, meeting); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	if err := harness.Meetings.UpdateMeetingStatus(ctx, meeting.ID, "completed", base.Add(6*time.Hour)); err != nil {
		t.Fatalf("UpdateMeetingStatus failed: %v", err)
	}

	// The employee requests leave for next week; HR approves it.
	request := persistence.LeaveRequest{
		ID:        "leave-1",
		SubjectID: employeeID,
		FromDay:   day.AddDate(0, 0, 7),
		ToDay:     day.AddDate(0, 0, 9),
		Reason:    "Vacation",
		Status:    "pending",
		CreatedAt: base,
		UpdatedAt: base,
	}
	if err := harness.Leave.CreateLeaveRequest(ctx, request); err != nil {
		t.Fatalf("CreateLeaveRequest failed: %v", err)
	}
	if err := harness.Leave.UpdateLeaveRequestDecision(ctx, request.ID, "approved", hrID, base.Add(2*time.Hour)); err != nil {
		t.Fatalf("UpdateLeaveRequestDecision failed: %v", err)
	}

	decided, err := harness.Leave.GetLeaveRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetLeaveRequest failed: %v", err)
	}
	if decided.Status != "approved" || decided.DecidedBy == nil || *decided.DecidedBy != hrID {
		t.Fatalf("unexpected decided request: %#v", decided)
	}

	// End of day: the HR user logs out and stale sessions are purged.
	revoked, err := harness.Sessions.RevokeSession(ctx, session.Token, base.Add(8*time.Hour))
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("expected revocation timestamp to be set")
	}

	removed, err := harness.Sessions.DeleteExpiredSessions(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 purged session, got %d", removed)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	defer harness.Close()

	record := persistence.AttendanceRecord{
		ID:          "rec-1",
		SubjectID:   "ghost",
		SubjectName: "Ghost",
		Status:      "absent",
		MarkedBy:    "ghost",
		Day:         period.Normalize(testfixtures.ReferenceTime()),
	}
	if err := harness.Attendance.CreateRecord(ctx, record); err == nil {
		t.Fatal("expected attendance insert for unknown subject to fail")
	}
}
