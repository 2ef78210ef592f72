package persistence

import "time"

// User represents an account in the provisioning hierarchy.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	CreatedBy    *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AttendanceRecord represents one subject's attendance for one calendar day.
// Day holds the normalized start of day; SubjectName is a snapshot of the
// subject's display name at marking time so later renames do not rewrite
// history.
type AttendanceRecord struct {
	ID          string
	SubjectID   string
	SubjectName string
	Status      string
	CheckInTime *time.Time
	MarkedBy    string
	Day         time.Time
	CreatedAt   time.Time
}

// Meeting represents a scheduled meeting with its attendee set.
type Meeting struct {
	ID              string
	Title           string
	Description     *string
	Start           time.Time
	DurationMinutes int
	OrganizerID     string
	AttendeeIDs     []string
	Status          string
	JoinURL         *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LeaveRequest represents an employee's request for a range of leave days.
type LeaveRequest struct {
	ID        string
	SubjectID string
	FromDay   time.Time
	ToDay     time.Time
	Reason    string
	Status    string
	DecidedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
