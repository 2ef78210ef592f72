package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/workforce-attendance/internal/application"
	"github.com/example/workforce-attendance/internal/config"
	httptransport "github.com/example/workforce-attendance/internal/http"
	"github.com/example/workforce-attendance/internal/logging"
	"github.com/example/workforce-attendance/internal/persistence"
	"github.com/example/workforce-attendance/internal/persistence/sqlite"
	"github.com/example/workforce-attendance/internal/scoping"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse log level: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stdout, level, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	userStore := sqlite.NewUserRepository(pool)
	attendanceStore := sqlite.NewAttendanceRepository(pool)
	meetingStore := sqlite.NewMeetingRepository(pool)
	leaveStore := sqlite.NewLeaveRequestRepository(pool)
	sessionStore := sqlite.NewSessionRepository(pool)

	if err := seedRootAdmin(context.Background(), userStore, cfg); err != nil {
		logger.Error("failed to seed root admin", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	users := newUserRepositoryAdapter(userStore)
	records := newAttendanceRepositoryAdapter(attendanceStore)
	meetings := newMeetingRepositoryAdapter(meetingStore)
	requests := newLeaveRepositoryAdapter(leaveStore)
	sessions := newSessionRepositoryAdapter(sessionStore)
	credentials := newCredentialStoreAdapter(userStore)

	scopes := application.NewScopeResolver(users)

	directoryService := application.NewDirectoryService(users, scopes, nil, idGenerator, now, logger)
	attendanceService := application.NewAttendanceService(records, users, scopes, idGenerator, now, logger)
	meetingService := application.NewMeetingService(meetings, users, scopes, idGenerator, now, logger)
	leaveService := application.NewLeaveService(requests, scopes, idGenerator, now, logger)
	authService := application.NewAuthService(credentials, sessions, nil, idGenerator, tokenGenerator, cfg.SessionTTL, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Users:          httptransport.NewUserHandler(directoryService, logger),
		Attendance:     httptransport.NewAttendanceHandler(attendanceService, directoryService, logger),
		Meetings:       httptransport.NewMeetingHandler(meetingService, logger),
		Leave:          httptransport.NewLeaveHandler(leaveService, logger),
		RequireSession: httptransport.RequireSession(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("workforce API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		ticker := time.NewTicker(cfg.SessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				removed, err := authService.SweepExpiredSessions(groupCtx)
				if err != nil {
					logger.Error("failed to sweep expired sessions", "error", err)
					continue
				}
				if removed > 0 {
					logger.Info("swept expired sessions", "removed", removed)
				}
			}
		}
	})

	if err := group.Wait(); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// seedRootAdmin installs the configured admin account on first boot. The
// directory service refuses accounts without a provisioning principal, so the
// root admin is inserted at the persistence layer with a nil creator.
func seedRootAdmin(ctx context.Context, repo *sqlite.UserRepository, cfg config.Config) error {
	existing, err := repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	hash, err := application.HashPassword(cfg.RootAdminPassword, application.DefaultArgon2idParams)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return repo.CreateUser(ctx, persistence.User{
		ID:           uuid.NewString(),
		Email:        cfg.RootAdminEmail,
		DisplayName:  cfg.RootAdminName,
		Role:         string(scoping.RoleAdmin),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

type userRepositoryAdapter struct {
	repo *sqlite.UserRepository
}

func newUserRepositoryAdapter(repo *sqlite.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationUsers(models), nil
}

func (a *userRepositoryAdapter) ListUsersCreatedBy(ctx context.Context, creatorID string) ([]application.User, error) {
	models, err := a.repo.ListUsersCreatedBy(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return toApplicationUsers(models), nil
}

type credentialStoreAdapter struct {
	repo *sqlite.UserRepository
}

func newCredentialStoreAdapter(repo *sqlite.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, string, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, "", err
	}
	return toApplicationUser(stored), stored.PasswordHash, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type attendanceRepositoryAdapter struct {
	repo *sqlite.AttendanceRepository
}

func newAttendanceRepositoryAdapter(repo *sqlite.AttendanceRepository) *attendanceRepositoryAdapter {
	return &attendanceRepositoryAdapter{repo: repo}
}

func (a *attendanceRepositoryAdapter) CreateRecord(ctx context.Context, record application.AttendanceRecord) error {
	return a.repo.CreateRecord(ctx, persistence.AttendanceRecord{
		ID:          record.ID,
		SubjectID:   record.SubjectID,
		SubjectName: record.SubjectName,
		Status:      string(record.Status),
		CheckInTime: record.CheckInTime,
		MarkedBy:    record.MarkedBy,
		Day:         record.Day,
		CreatedAt:   record.CreatedAt,
	})
}

func (a *attendanceRepositoryAdapter) GetRecordForDay(ctx context.Context, subjectID string, day time.Time) (application.AttendanceRecord, error) {
	stored, err := a.repo.GetRecordForDay(ctx, subjectID, day)
	if err != nil {
		return application.AttendanceRecord{}, err
	}
	return toApplicationRecord(stored), nil
}

func (a *attendanceRepositoryAdapter) ListRecords(ctx context.Context, filter application.AttendanceFilter) ([]application.AttendanceRecord, error) {
	models, err := a.repo.ListRecords(ctx, persistence.AttendanceFilter{
		SubjectIDs: filter.SubjectIDs,
		Day:        filter.Day,
	})
	if err != nil {
		return nil, err
	}
	records := make([]application.AttendanceRecord, 0, len(models))
	for _, model := range models {
		records = append(records, toApplicationRecord(model))
	}
	return records, nil
}

type meetingRepositoryAdapter struct {
	repo *sqlite.MeetingRepository
}

func newMeetingRepositoryAdapter(repo *sqlite.MeetingRepository) *meetingRepositoryAdapter {
	return &meetingRepositoryAdapter{repo: repo}
}

func (a *meetingRepositoryAdapter) CreateMeeting(ctx context.Context, meeting application.Meeting) error {
	return a.repo.CreateMeeting(ctx, persistence.Meeting{
		ID:              meeting.ID,
		Title:           meeting.Title,
		Description:     meeting.Description,
		Start:           meeting.Start,
		DurationMinutes: meeting.DurationMinutes,
		OrganizerID:     meeting.OrganizerID,
		AttendeeIDs:     meeting.AttendeeIDs,
		Status:          string(meeting.Status),
		JoinURL:         meeting.JoinURL,
		CreatedAt:       meeting.CreatedAt,
		UpdatedAt:       meeting.UpdatedAt,
	})
}

func (a *meetingRepositoryAdapter) GetMeeting(ctx context.Context, id string) (application.Meeting, error) {
	stored, err := a.repo.GetMeeting(ctx, id)
	if err != nil {
		return application.Meeting{}, err
	}
	return toApplicationMeeting(stored), nil
}

func (a *meetingRepositoryAdapter) UpdateMeetingStatus(ctx context.Context, id string, status application.MeetingStatus, updatedAt time.Time) error {
	return a.repo.UpdateMeetingStatus(ctx, id, string(status), updatedAt)
}

func (a *meetingRepositoryAdapter) ListMeetings(ctx context.Context, filter application.MeetingFilter) ([]application.Meeting, error) {
	models, err := a.repo.ListMeetings(ctx, persistence.MeetingFilter{ParticipantID: filter.ParticipantID})
	if err != nil {
		return nil, err
	}
	meetings := make([]application.Meeting, 0, len(models))
	for _, model := range models {
		meetings = append(meetings, toApplicationMeeting(model))
	}
	return meetings, nil
}

type leaveRepositoryAdapter struct {
	repo *sqlite.LeaveRequestRepository
}

func newLeaveRepositoryAdapter(repo *sqlite.LeaveRequestRepository) *leaveRepositoryAdapter {
	return &leaveRepositoryAdapter{repo: repo}
}

func (a *leaveRepositoryAdapter) CreateLeaveRequest(ctx context.Context, request application.LeaveRequest) error {
	return a.repo.CreateLeaveRequest(ctx, persistence.LeaveRequest{
		ID:        request.ID,
		SubjectID: request.SubjectID,
		FromDay:   request.FromDay,
		ToDay:     request.ToDay,
		Reason:    request.Reason,
		Status:    string(request.Status),
		DecidedBy: request.DecidedBy,
		CreatedAt: request.CreatedAt,
		UpdatedAt: request.UpdatedAt,
	})
}

func (a *leaveRepositoryAdapter) GetLeaveRequest(ctx context.Context, id string) (application.LeaveRequest, error) {
	stored, err := a.repo.GetLeaveRequest(ctx, id)
	if err != nil {
		return application.LeaveRequest{}, err
	}
	return toApplicationLeaveRequest(stored), nil
}

func (a *leaveRepositoryAdapter) UpdateLeaveRequestDecision(ctx context.Context, id string, status application.LeaveStatus, decidedBy string, updatedAt time.Time) error {
	return a.repo.UpdateLeaveRequestDecision(ctx, id, string(status), decidedBy, updatedAt)
}

func (a *leaveRepositoryAdapter) ListLeaveRequests(ctx context.Context, filter application.LeaveRequestFilter) ([]application.LeaveRequest, error) {
	models, err := a.repo.ListLeaveRequests(ctx, persistence.LeaveRequestFilter{SubjectIDs: filter.SubjectIDs})
	if err != nil {
		return nil, err
	}
	requests := make([]application.LeaveRequest, 0, len(models))
	for _, model := range models {
		requests = append(requests, toApplicationLeaveRequest(model))
	}
	return requests, nil
}

type sessionRepositoryAdapter struct {
	repo *sqlite.SessionRepository
}

func newSessionRepositoryAdapter(repo *sqlite.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) error {
	_, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	return err
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return a.repo.DeleteExpiredSessions(ctx, before)
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         string(user.Role),
		CreatedBy:    user.CreatedBy,
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationUser(user persistence.User) application.User {
	return application.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        scoping.Role(user.Role),
		CreatedBy:   user.CreatedBy,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toApplicationUsers(models []persistence.User) []application.User {
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users
}

func toApplicationRecord(record persistence.AttendanceRecord) application.AttendanceRecord {
	return application.AttendanceRecord{
		ID:          record.ID,
		SubjectID:   record.SubjectID,
		SubjectName: record.SubjectName,
		Status:      application.AttendanceStatus(record.Status),
		CheckInTime: record.CheckInTime,
		MarkedBy:    record.MarkedBy,
		Day:         record.Day,
		CreatedAt:   record.CreatedAt,
	}
}

func toApplicationMeeting(meeting persistence.Meeting) application.Meeting {
	return application.Meeting{
		ID:              meeting.ID,
		Title:           meeting.Title,
		Description:     meeting.Description,
		Start:           meeting.Start,
		DurationMinutes: meeting.DurationMinutes,
		OrganizerID:     meeting.OrganizerID,
		AttendeeIDs:     meeting.AttendeeIDs,
		Status:          application.MeetingStatus(meeting.Status),
		JoinURL:         meeting.JoinURL,
		CreatedAt:       meeting.CreatedAt,
		UpdatedAt:       meeting.UpdatedAt,
	}
}

func toApplicationLeaveRequest(request persistence.LeaveRequest) application.LeaveRequest {
	return application.LeaveRequest{
		ID:        request.ID,
		SubjectID: request.SubjectID,
		FromDay:   request.FromDay,
		ToDay:     request.ToDay,
		Reason:    request.Reason,
		Status:    application.LeaveStatus(request.Status),
		DecidedBy: request.DecidedBy,
		CreatedAt: request.CreatedAt,
		UpdatedAt: request.UpdatedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: session.RevokedAt,
	}
}

func toApplicationSession(session persistence.Session) application.Session {
	return application.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: session.RevokedAt,
	}
}
