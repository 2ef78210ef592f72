package application

import (
	"time"

	"github.com/example/workforce-attendance/internal/scoping"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   scoping.Role
}

// User represents a directory account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        scoping.Role
	CreatedBy   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserSummary carries the display fields joined onto records for direct
// client consumption.
type UserSummary struct {
	ID          string
	DisplayName string
	Email       string
	Role        scoping.Role
}

// UserInput captures caller provided attributes for account provisioning.
type UserInput struct {
	Email       string
	DisplayName string
	Role        scoping.Role
	Password    string
}

// CreateUserParams wraps the data required to provision an account.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// AttendanceStatus enumerates the closed set of daily attendance states.
type AttendanceStatus string

const (
	// StatusPresent marks a worked day; a check-in time is mandatory.
	StatusPresent AttendanceStatus = "present"
	// StatusAbsent marks an unworked, unexcused day.
	StatusAbsent AttendanceStatus = "absent"
	// StatusLeave marks an approved leave day.
	StatusLeave AttendanceStatus = "leave"
	// StatusHalfDay marks a partially worked day.
	StatusHalfDay AttendanceStatus = "half-day"
)

// ParseAttendanceStatus validates a status string against the closed set.
func ParseAttendanceStatus(value string) (AttendanceStatus, bool) {
	switch AttendanceStatus(value) {
	case StatusPresent, StatusAbsent, StatusLeave, StatusHalfDay:
		return AttendanceStatus(value), true
	default:
		return "", false
	}
}

// AttendanceInput captures caller provided fields for marking attendance.
// Date may be any instant; the service collapses it to the canonical calendar
// day. A zero Date means the current day.
type AttendanceInput struct {
	SubjectID   string
	Status      AttendanceStatus
	CheckInTime *time.Time
	Date        time.Time
}

// MarkAttendanceParams wraps the data required to mark attendance.
type MarkAttendanceParams struct {
	Principal Principal
	Input     AttendanceInput
}

// AttendanceRecord represents a persisted daily attendance record.
// SubjectName is the display-name snapshot taken at marking time.
type AttendanceRecord struct {
	ID          string
	SubjectID   string
	SubjectName string
	Status      AttendanceStatus
	CheckInTime *time.Time
	MarkedBy    string
	Day         time.Time
	CreatedAt   time.Time
}

// AttendanceRecordView is an attendance record enriched with subject and
// marking-actor display fields so clients need no second round trip.
type AttendanceRecordView struct {
	Record  AttendanceRecord
	Subject UserSummary
	Marker  UserSummary
}

// MeetingStatus enumerates the meeting lifecycle states.
type MeetingStatus string

const (
	// MeetingScheduled is the initial state of every meeting.
	MeetingScheduled MeetingStatus = "scheduled"
	// MeetingCompleted is a terminal state.
	MeetingCompleted MeetingStatus = "completed"
	// MeetingCancelled is a terminal state.
	MeetingCancelled MeetingStatus = "cancelled"
)

// ParseMeetingStatus validates a status string against the closed set.
func ParseMeetingStatus(value string) (MeetingStatus, bool) {
	switch MeetingStatus(value) {
	case MeetingScheduled, MeetingCompleted, MeetingCancelled:
		return MeetingStatus(value), true
	default:
		return "", false
	}
}

// MeetingInput captures caller provided meeting fields. JoinURL is an opaque
// value produced by an external conferencing service.
type MeetingInput struct {
	Title           string
	Description     string
	Start           time.Time
	DurationMinutes int
	AttendeeIDs     []string
	JoinURL         string
}

// Meeting represents a persisted meeting.
type Meeting struct {
	ID              string
	Title           string
	Description     *string
	Start           time.Time
	DurationMinutes int
	OrganizerID     string
	AttendeeIDs     []string
	Status          MeetingStatus
	JoinURL         *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateMeetingParams wraps the data required to schedule a meeting.
type CreateMeetingParams struct {
	Principal Principal
	Input     MeetingInput
}

// UpdateMeetingStatusParams wraps the data required to transition a meeting.
type UpdateMeetingStatusParams struct {
	Principal Principal
	MeetingID string
	Status    MeetingStatus
}

// LeaveStatus enumerates the leave request lifecycle states.
type LeaveStatus string

const (
	// LeavePending is the initial state of every leave request.
	LeavePending LeaveStatus = "pending"
	// LeaveApproved is a terminal state.
	LeaveApproved LeaveStatus = "approved"
	// LeaveRejected is a terminal state.
	LeaveRejected LeaveStatus = "rejected"
)

// LeaveRequestInput captures caller provided leave request fields. From and
// To may be any instants; the service collapses them to calendar days.
type LeaveRequestInput struct {
	From   time.Time
	To     time.Time
	Reason string
}

// LeaveRequest represents a persisted leave request.
type LeaveRequest struct {
	ID        string
	SubjectID string
	FromDay   time.Time
	ToDay     time.Time
	Reason    string
	Status    LeaveStatus
	DecidedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubmitLeaveRequestParams wraps the data required to submit a leave request.
type SubmitLeaveRequestParams struct {
	Principal Principal
	Input     LeaveRequestInput
}

// DecideLeaveRequestParams wraps the data required to decide a pending leave
// request.
type DecideLeaveRequestParams struct {
	Principal Principal
	RequestID string
	Approve   bool
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}
