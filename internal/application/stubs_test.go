package application

import (
	"context"
	"testing"
	"time"

	"github.com/example/workforce-attendance/internal/period"
	"github.com/example/workforce-attendance/internal/persistence"
)

type directoryStub struct {
	users     map[string]User
	byCreator map[string][]User
	err       error
}

func (d *directoryStub) GetUser(ctx context.Context, id string) (User, error) {
	if d.err != nil {
		return User{}, d.err
	}
	user, ok := d.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (d *directoryStub) ListUsers(ctx context.Context) ([]User, error) {
	if d.err != nil {
		return nil, d.err
	}
	users := make([]User, 0, len(d.users))
	for _, user := range d.users {
		users = append(users, user)
	}
	return users, nil
}

func (d *directoryStub) ListUsersCreatedBy(ctx context.Context, creatorID string) ([]User, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.byCreator[creatorID], nil
}

type attendanceRepoStub struct {
	existing  map[string]AttendanceRecord
	created   []AttendanceRecord
	createErr error
	list      []AttendanceRecord
	listErr   error
	lastList  AttendanceFilter
}

func dayKey(subjectID string, day time.Time) string {
	return subjectID + "/" + period.Key(day)
}

func (a *attendanceRepoStub) CreateRecord(ctx context.Context, record AttendanceRecord) error {
	if a.createErr != nil {
		return a.createErr
	}
	a.created = append(a.created, record)
	return nil
}

func (a *attendanceRepoStub) GetRecordForDay(ctx context.Context, subjectID string, day time.Time) (AttendanceRecord, error) {
	record, ok := a.existing[dayKey(subjectID, day)]
	if !ok {
		return AttendanceRecord{}, persistence.ErrNotFound
	}
	return record, nil
}

func (a *attendanceRepoStub) ListRecords(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error) {
	a.lastList = filter
	if a.listErr != nil {
		return nil, a.listErr
	}
	return a.list, nil
}

type meetingRepoStub struct {
	meeting   Meeting
	created   Meeting
	createErr error
	updateErr error
	updatedTo MeetingStatus
	list      []Meeting
	lastList  MeetingFilter
}

func (m *meetingRepoStub) CreateMeeting(ctx context.Context, meeting Meeting) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = meeting
	return nil
}

func (m *meetingRepoStub) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	if m.meeting.ID == "" || m.meeting.ID != id {
		return Meeting{}, persistence.ErrNotFound
	}
	return m.meeting, nil
}

func (m *meetingRepoStub) UpdateMeetingStatus(ctx context.Context, id string, status MeetingStatus, updatedAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedTo = status
	return nil
}

func (m *meetingRepoStub) ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error) {
	m.lastList = filter
	return m.list, nil
}

type leaveRepoStub struct {
	request   LeaveRequest
	created   LeaveRequest
	createErr error
	updateErr error
	decided   LeaveStatus
	decidedBy string
	list      []LeaveRequest
	lastList  LeaveRequestFilter
}

func (l *leaveRepoStub) CreateLeaveRequest(ctx context.Context, request LeaveRequest) error {
	if l.createErr != nil {
		return l.createErr
	}
	l.created = request
	return nil
}

func (l *leaveRepoStub) GetLeaveRequest(ctx context.Context, id string) (LeaveRequest, error) {
	if l.request.ID == "" || l.request.ID != id {
		return LeaveRequest{}, persistence.ErrNotFound
	}
	return l.request, nil
}

func (l *leaveRepoStub) UpdateLeaveRequestDecision(ctx context.Context, id string, status LeaveStatus, decidedBy string, updatedAt time.Time) error {
	if l.updateErr != nil {
		return l.updateErr
	}
	l.decided = status
	l.decidedBy = decidedBy
	return nil
}

func (l *leaveRepoStub) ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, error) {
	l.lastList = filter
	return l.list, nil
}

type userRepoStub struct {
	users     map[string]User
	byCreator map[string][]User
	created   User
	createdPW string
	createErr error
}

func (u *userRepoStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if u.createErr != nil {
		return User{}, u.createErr
	}
	u.created = user
	u.createdPW = passwordHash
	return user, nil
}

func (u *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := u.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (u *userRepoStub) ListUsers(ctx context.Context) ([]User, error) {
	users := make([]User, 0, len(u.users))
	for _, user := range u.users {
		users = append(users, user)
	}
	return users, nil
}

func (u *userRepoStub) ListUsersCreatedBy(ctx context.Context, creatorID string) ([]User, error) {
	return u.byCreator[creatorID], nil
}

type credentialStoreStub struct {
	users  map[string]User
	hashes map[string]string
}

func (c *credentialStoreStub) GetUserByEmail(ctx context.Context, email string) (User, string, error) {
	for _, user := range c.users {
		if user.Email == email {
			return user, c.hashes[user.ID], nil
		}
	}
	return User{}, "", persistence.ErrNotFound
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := c.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

type sessionRepoStub struct {
	sessions  map[string]Session
	created   Session
	createErr error
	deleted   int64
}

func (s *sessionRepoStub) CreateSession(ctx context.Context, session Session) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = session
	if s.sessions == nil {
		s.sessions = make(map[string]Session)
	}
	s.sessions[session.Token] = session
	return nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, token string) (Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionRepoStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	session, ok := s.sessions[token]
	if !ok || session.RevokedAt != nil {
		return Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepoStub) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	for token, session := range s.sessions {
		if session.ExpiresAt.Before(before) {
			delete(s.sessions, token)
			s.deleted++
		}
	}
	return s.deleted, nil
}

func atJST(t *testing.T, day, hour int) time.Time {
	t.Helper()
	return time.Date(2026, 8, day, hour, 0, 0, 0, period.Location())
}

func fixedClock(instant time.Time) func() time.Time {
	return func() time.Time { return instant }
}
