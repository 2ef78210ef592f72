package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/workforce-attendance/internal/persistence"
	"github.com/example/workforce-attendance/internal/scoping"
)

// MeetingFilter narrows meeting queries. A nil ParticipantID means no
// participant restriction.
type MeetingFilter struct {
	ParticipantID *string
}

// MeetingRepository captures the persistence interactions needed by the
// meeting service.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	UpdateMeetingStatus(ctx context.Context, id string, status MeetingStatus, updatedAt time.Time) error
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
}

// MeetingService manages meeting scheduling and lifecycle. Only HR and admin
// users organize meetings; employees participate read-only.
type MeetingService struct {
	meetings    MeetingRepository
	directory   UserDirectory
	scopes      *ScopeResolver
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMeetingService wires dependencies for meeting operations.
func NewMeetingService(meetings MeetingRepository, directory UserDirectory, scopes *ScopeResolver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:    meetings,
		directory:   directory,
		scopes:      scopes,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *MeetingService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MeetingService", operation, attrs...)
}

// Create schedules a meeting. Every attendee must resolve within the
// organizer's scope extended with the organizer themselves; unavailable
// attendees are reported in one aggregated validation error without
// revealing whether they are missing or merely out of scope.
func (s *MeetingService) Create(ctx context.Context, params CreateMeetingParams) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil || s.directory == nil || s.scopes == nil {
		return Meeting{}, fmt.Errorf("meeting service not fully configured")
	}

	principal := params.Principal
	input := params.Input
	logger := s.log(ctx, "Create", "principal_id", principal.UserID)

	if !principal.Role.Privileged() {
		logger.WarnContext(ctx, "meeting creation denied", "error_kind", "unauthorized")
		return Meeting{}, ErrUnauthorized
	}

	if vErr := validateMeetingInput(input); vErr.HasErrors() {
		return Meeting{}, vErr
	}

	attendeeIDs := dedupeIDs(input.AttendeeIDs)
	unavailable, err := s.unavailableAttendees(ctx, principal, attendeeIDs)
	if err != nil {
		return Meeting{}, err
	}
	if len(unavailable) > 0 {
		vErr := &ValidationError{}
		vErr.add("attendee_ids", fmt.Sprintf("attendees are not available: %s", strings.Join(unavailable, ", ")))
		return Meeting{}, vErr
	}

	now := s.now()
	meeting := Meeting{
		ID:              s.idGenerator(),
		Title:           strings.TrimSpace(input.Title),
		Description:     optionalString(input.Description),
		Start:           input.Start,
		DurationMinutes: input.DurationMinutes,
		OrganizerID:     principal.UserID,
		AttendeeIDs:     attendeeIDs,
		Status:          MeetingScheduled,
		JoinURL:         optionalString(input.JoinURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.meetings.CreateMeeting(ctx, meeting); err != nil {
		return Meeting{}, err
	}

	logger.With("meeting_id", meeting.ID).InfoContext(ctx, "meeting created")
	return meeting, nil
}

// UpdateStatus transitions a meeting out of the scheduled state. Only the
// organizer or an admin may transition it, and the transition is
// one-directional: scheduled to completed or cancelled, never back.
func (s *MeetingService) UpdateStatus(ctx context.Context, params UpdateMeetingStatusParams) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return Meeting{}, fmt.Errorf("meeting service not fully configured")
	}

	principal := params.Principal
	logger := s.log(ctx, "UpdateStatus",
		"principal_id", principal.UserID,
		"meeting_id", params.MeetingID,
	)

	meeting, err := s.meetings.GetMeeting(ctx, params.MeetingID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Meeting{}, ErrNotFound
		}
		return Meeting{}, err
	}

	if !s.canView(principal, meeting) {
		return Meeting{}, ErrNotFound
	}
	if meeting.OrganizerID != principal.UserID && principal.Role != scoping.RoleAdmin {
		return Meeting{}, ErrUnauthorized
	}

	status, ok := ParseMeetingStatus(string(params.Status))
	if !ok || status == MeetingScheduled {
		vErr := &ValidationError{}
		vErr.add("status", "status must be completed or cancelled")
		return Meeting{}, vErr
	}
	if meeting.Status != MeetingScheduled {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("meeting is already %s", meeting.Status))
		return Meeting{}, vErr
	}

	now := s.now()
	if err := s.meetings.UpdateMeetingStatus(ctx, meeting.ID, status, now); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Meeting{}, ErrNotFound
		}
		return Meeting{}, err
	}

	meeting.Status = status
	meeting.UpdatedAt = now
	logger.With("status", string(status)).InfoContext(ctx, "meeting status updated")
	return meeting, nil
}

// List enumerates meetings visible to the caller. Admins see every meeting;
// everyone else sees meetings they organize or attend.
func (s *MeetingService) List(ctx context.Context, principal Principal) ([]Meeting, error) {
	if s == nil {
		return nil, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return nil, fmt.Errorf("meeting service not fully configured")
	}

	filter := MeetingFilter{}
	if principal.Role != scoping.RoleAdmin {
		participantID := principal.UserID
		filter.ParticipantID = &participantID
	}

	meetings, err := s.meetings.ListMeetings(ctx, filter)
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

func (s *MeetingService) canView(principal Principal, meeting Meeting) bool {
	if principal.Role == scoping.RoleAdmin {
		return true
	}
	if meeting.OrganizerID == principal.UserID {
		return true
	}
	for _, id := range meeting.AttendeeIDs {
		if id == principal.UserID {
			return true
		}
	}
	return false
}

// unavailableAttendees returns the sorted attendee IDs that cannot be
// invited by the principal. An ID is unavailable when it is outside the
// organizer's scope or does not resolve to an existing user.
func (s *MeetingService) unavailableAttendees(ctx context.Context, principal Principal, attendeeIDs []string) ([]string, error) {
	if len(attendeeIDs) == 0 {
		return nil, nil
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	scope = scope.Including(principal.UserID)

	var unavailable []string
	for _, id := range attendeeIDs {
		if !scope.Contains(id) {
			unavailable = append(unavailable, id)
			continue
		}
		if _, err := s.directory.GetUser(ctx, id); err != nil {
			if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
				unavailable = append(unavailable, id)
				continue
			}
			return nil, err
		}
	}
	sort.Strings(unavailable)
	return unavailable, nil
}

func validateMeetingInput(input MeetingInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start time is required")
	}
	if input.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be a positive number of minutes")
	}
	if len(input.AttendeeIDs) == 0 {
		vErr.add("attendee_ids", "at least one attendee is required")
	}

	return vErr
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
