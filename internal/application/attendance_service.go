package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/workforce-attendance/internal/period"
	"github.com/example/workforce-attendance/internal/persistence"
	"github.com/example/workforce-attendance/internal/scoping"
)

// AttendanceFilter narrows attendance queries issued by the service.
type AttendanceFilter struct {
	SubjectIDs []string
	Day        *time.Time
}

// AttendanceRepository captures the persistence interactions needed by the
// attendance service. CreateRecord must reject a duplicate (subject, day)
// pair with persistence.ErrDuplicate; the storage constraint, not the
// service's pre-check, is what closes the check-then-act race.
type AttendanceRepository interface {
	CreateRecord(ctx context.Context, record AttendanceRecord) error
	GetRecordForDay(ctx context.Context, subjectID string, day time.Time) (AttendanceRecord, error)
	ListRecords(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error)
}

// AttendanceService orchestrates scope checks, uniqueness, validation, and
// persistence for daily attendance records. Records are immutable once
// persisted; no update or delete operation exists.
type AttendanceService struct {
	records     AttendanceRepository
	directory   UserDirectory
	scopes      *ScopeResolver
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttendanceService wires dependencies for attendance operations.
func NewAttendanceService(records AttendanceRepository, directory UserDirectory, scopes *ScopeResolver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AttendanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		records:     records,
		directory:   directory,
		scopes:      scopes,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AttendanceService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// Mark records attendance for one subject on one calendar day. The pipeline
// runs scope check, uniqueness check, validation, then persistence; the first
// failing stage short-circuits with its rejection and nothing is written.
func (s *AttendanceService) Mark(ctx context.Context, params MarkAttendanceParams) (AttendanceRecordView, error) {
	if s == nil {
		return AttendanceRecordView{}, fmt.Errorf("AttendanceService is nil")
	}
	if s.records == nil || s.directory == nil || s.scopes == nil {
		return AttendanceRecordView{}, fmt.Errorf("attendance service not fully configured")
	}

	principal := params.Principal
	input := params.Input
	logger := s.log(ctx, "Mark",
		"principal_id", principal.UserID,
		"subject_id", input.SubjectID,
	)

	if !principal.Role.Privileged() {
		logger.WarnContext(ctx, "mark attendance denied", "error_kind", "unauthorized")
		return AttendanceRecordView{}, ErrUnauthorized
	}

	subject, err := s.resolveSubject(ctx, principal, input.SubjectID)
	if err != nil {
		return AttendanceRecordView{}, err
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	day := period.Normalize(date)

	if existing, err := s.checkAvailable(ctx, subject.ID, day); err != nil {
		if existing != nil {
			logger.InfoContext(ctx, "duplicate attendance rejected", "day", period.Key(day))
		}
		return AttendanceRecordView{}, err
	}

	if vErr := validateAttendanceInput(input); vErr.HasErrors() {
		return AttendanceRecordView{}, vErr
	}

	checkIn := input.CheckInTime
	if input.Status != StatusPresent {
		// A non-present record must never carry a check-in time.
		checkIn = nil
	}

	record := AttendanceRecord{
		ID:          s.idGenerator(),
		SubjectID:   subject.ID,
		SubjectName: subject.DisplayName,
		Status:      input.Status,
		CheckInTime: checkIn,
		MarkedBy:    principal.UserID,
		Day:         day,
		CreatedAt:   s.now(),
	}

	if err := s.records.CreateRecord(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			// A concurrent writer won the storage race; surface the same
			// duplicate outcome the pre-check would have produced.
			dup := &DuplicateForPeriodError{}
			if existing, lookupErr := s.records.GetRecordForDay(ctx, subject.ID, day); lookupErr == nil {
				dup.Existing = existing
			}
			return AttendanceRecordView{}, dup
		}
		return AttendanceRecordView{}, err
	}

	logger.With("record_id", record.ID, "day", period.Key(day)).InfoContext(ctx, "attendance marked")

	marker, err := s.directory.GetUser(ctx, principal.UserID)
	if err != nil {
		marker = User{ID: principal.UserID, Role: principal.Role}
	}

	return AttendanceRecordView{
		Record:  record,
		Subject: summarize(subject),
		Marker:  summarize(marker),
	}, nil
}

// List enumerates the attendance records whose subjects lie in the caller's
// scope, newest day first, enriched with display fields. An empty scope
// yields an empty result without touching record storage.
func (s *AttendanceService) List(ctx context.Context, principal Principal) ([]AttendanceRecordView, error) {
	if s == nil {
		return nil, fmt.Errorf("AttendanceService is nil")
	}
	if s.records == nil || s.scopes == nil {
		return nil, fmt.Errorf("attendance service not fully configured")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if scope.IsEmpty() {
		return nil, nil
	}

	records, err := s.records.ListRecords(ctx, AttendanceFilter{SubjectIDs: scope.SubjectIDs()})
	if err != nil {
		return nil, err
	}

	return s.enrich(ctx, records)
}

// ListToday enumerates the current calendar day's records within the
// caller's scope. Restricted to HR and admin callers.
func (s *AttendanceService) ListToday(ctx context.Context, principal Principal) ([]AttendanceRecordView, error) {
	if s == nil {
		return nil, fmt.Errorf("AttendanceService is nil")
	}
	if s.records == nil || s.scopes == nil {
		return nil, fmt.Errorf("attendance service not fully configured")
	}

	if !principal.Role.Privileged() {
		return nil, ErrUnauthorized
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	if scope.IsEmpty() {
		return nil, nil
	}

	today := period.Normalize(s.now())
	records, err := s.records.ListRecords(ctx, AttendanceFilter{
		SubjectIDs: scope.SubjectIDs(),
		Day:        &today,
	})
	if err != nil {
		return nil, err
	}

	return s.enrich(ctx, records)
}

// resolveSubject verifies the subject exists, lies in the caller's scope, and
// holds the employee role. All three failures collapse into ErrNotFound so a
// caller cannot distinguish "missing" from "outside my scope".
func (s *AttendanceService) resolveSubject(ctx context.Context, principal Principal, subjectID string) (User, error) {
	if subjectID == "" {
		return User{}, ErrNotFound
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return User{}, err
	}
	if !scope.Contains(subjectID) {
		return User{}, ErrNotFound
	}

	subject, err := s.directory.GetUser(ctx, subjectID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	if subject.Role != scoping.RoleEmployee {
		return User{}, ErrNotFound
	}

	return subject, nil
}

// checkAvailable runs the application-level uniqueness pre-check for the
// (subject, day) pair. It exists for a fast, friendly rejection that carries
// the conflicting record; the storage constraint remains authoritative.
func (s *AttendanceService) checkAvailable(ctx context.Context, subjectID string, day time.Time) (*AttendanceRecord, error) {
	existing, err := s.records.GetRecordForDay(ctx, subjectID, day)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &existing, &DuplicateForPeriodError{Existing: existing}
}

func (s *AttendanceService) enrich(ctx context.Context, records []AttendanceRecord) ([]AttendanceRecordView, error) {
	if len(records) == 0 {
		return nil, nil
	}

	summaries := make(map[string]UserSummary)
	lookup := func(id, fallbackName string) UserSummary {
		if summary, ok := summaries[id]; ok {
			return summary
		}
		summary := UserSummary{ID: id, DisplayName: fallbackName}
		if s.directory != nil {
			if user, err := s.directory.GetUser(ctx, id); err == nil {
				summary = summarize(user)
			}
		}
		summaries[id] = summary
		return summary
	}

	views := make([]AttendanceRecordView, 0, len(records))
	for _, record := range records {
		views = append(views, AttendanceRecordView{
			Record:  record,
			Subject: lookup(record.SubjectID, record.SubjectName),
			Marker:  lookup(record.MarkedBy, ""),
		})
	}
	return views, nil
}

func validateAttendanceInput(input AttendanceInput) *ValidationError {
	vErr := &ValidationError{}

	if _, ok := ParseAttendanceStatus(string(input.Status)); !ok {
		vErr.add("status", "status is invalid")
		return vErr
	}

	if input.Status == StatusPresent && input.CheckInTime == nil {
		vErr.add("check_in_time", "check-in time is required for present status")
	}

	return vErr
}
