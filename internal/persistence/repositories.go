package persistence

import (
	"context"
	"time"
)

// UserRepository exposes directory lookups and provisioning writes.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListUsersCreatedBy(ctx context.Context, creatorID string) ([]User, error)
}

// AttendanceFilter narrows attendance queries. A nil SubjectIDs slice means
// no subject restriction; an empty non-nil slice matches nothing, though
// services are expected to short-circuit before issuing such a query.
type AttendanceFilter struct {
	SubjectIDs []string
	Day        *time.Time
}

// AttendanceRepository stores daily attendance records. CreateRecord must
// reject a second record for the same (subject, day) pair with ErrDuplicate;
// this is the authoritative uniqueness mechanism under concurrent writers.
type AttendanceRepository interface {
	CreateRecord(ctx context.Context, record AttendanceRecord) error
	GetRecordForDay(ctx context.Context, subjectID string, day time.Time) (AttendanceRecord, error)
	ListRecords(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error)
}

// MeetingFilter narrows meeting queries to those a participant organizes or
// attends. A nil ParticipantID means no restriction.
type MeetingFilter struct {
	ParticipantID *string
}

// MeetingRepository stores meetings and their attendee sets.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	UpdateMeetingStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
}

// LeaveRequestFilter narrows leave request queries by subject.
type LeaveRequestFilter struct {
	SubjectIDs []string
}

// LeaveRequestRepository stores leave requests and their decisions.
type LeaveRequestRepository interface {
	CreateLeaveRequest(ctx context.Context, request LeaveRequest) error
	GetLeaveRequest(ctx context.Context, id string) (LeaveRequest, error)
	UpdateLeaveRequestDecision(ctx context.Context, id, status, decidedBy string, updatedAt time.Time) error
	ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error)
}
