package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/workforce-attendance/internal/period"
	"github.com/example/workforce-attendance/internal/persistence"
)

// LeaveRequestFilter narrows leave request queries. A nil SubjectIDs means
// no subject restriction; an empty non-nil slice matches nothing.
type LeaveRequestFilter struct {
	SubjectIDs []string
}

// LeaveRequestRepository captures the persistence interactions needed by the
// leave service.
type LeaveRequestRepository interface {
	CreateLeaveRequest(ctx context.Context, request LeaveRequest) error
	GetLeaveRequest(ctx context.Context, id string) (LeaveRequest, error)
	UpdateLeaveRequestDecision(ctx context.Context, id string, status LeaveStatus, decidedBy string, updatedAt time.Time) error
	ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, error)
}

// LeaveService manages leave requests. Any user submits requests for
// themselves; HR and admin users decide requests for subjects in their scope.
type LeaveService struct {
	requests    LeaveRequestRepository
	scopes      *ScopeResolver
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewLeaveService wires dependencies for leave request operations.
func NewLeaveService(requests LeaveRequestRepository, scopes *ScopeResolver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LeaveService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LeaveService{
		requests:    requests,
		scopes:      scopes,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *LeaveService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LeaveService", operation, attrs...)
}

// Submit files a pending leave request for the caller. The requested range
// is collapsed to inclusive calendar days.
func (s *LeaveService) Submit(ctx context.Context, params SubmitLeaveRequestParams) (LeaveRequest, error) {
	if s == nil {
		return LeaveRequest{}, fmt.Errorf("LeaveService is nil")
	}
	if s.requests == nil {
		return LeaveRequest{}, fmt.Errorf("leave service not fully configured")
	}

	principal := params.Principal
	input := params.Input
	logger := s.log(ctx, "Submit", "principal_id", principal.UserID)

	if vErr := validateLeaveRequestInput(input); vErr.HasErrors() {
		return LeaveRequest{}, vErr
	}

	now := s.now()
	request := LeaveRequest{
		ID:        s.idGenerator(),
		SubjectID: principal.UserID,
		FromDay:   period.Normalize(input.From),
		ToDay:     period.Normalize(input.To),
		Reason:    strings.TrimSpace(input.Reason),
		Status:    LeavePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.requests.CreateLeaveRequest(ctx, request); err != nil {
		return LeaveRequest{}, err
	}

	logger.With("request_id", request.ID).InfoContext(ctx, "leave request submitted")
	return request, nil
}

// Decide approves or rejects a pending leave request. The decider must be
// HR or admin and the requesting subject must lie in the decider's scope;
// requests outside the scope are indistinguishable from missing ones.
func (s *LeaveService) Decide(ctx context.Context, params DecideLeaveRequestParams) (LeaveRequest, error) {
	if s == nil {
		return LeaveRequest{}, fmt.Errorf("LeaveService is nil")
	}
	if s.requests == nil || s.scopes == nil {
		return LeaveRequest{}, fmt.Errorf("leave service not fully configured")
	}

	principal := params.Principal
	logger := s.log(ctx, "Decide",
		"principal_id", principal.UserID,
		"request_id", params.RequestID,
	)

	if !principal.Role.Privileged() {
		logger.WarnContext(ctx, "leave decision denied", "error_kind", "unauthorized")
		return LeaveRequest{}, ErrUnauthorized
	}

	request, err := s.requests.GetLeaveRequest(ctx, params.RequestID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return LeaveRequest{}, ErrNotFound
		}
		return LeaveRequest{}, err
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return LeaveRequest{}, err
	}
	if !scope.Contains(request.SubjectID) {
		return LeaveRequest{}, ErrNotFound
	}

	if request.Status != LeavePending {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("leave request is already %s", request.Status))
		return LeaveRequest{}, vErr
	}

	status := LeaveRejected
	if params.Approve {
		status = LeaveApproved
	}

	now := s.now()
	if err := s.requests.UpdateLeaveRequestDecision(ctx, request.ID, status, principal.UserID, now); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return LeaveRequest{}, ErrNotFound
		}
		return LeaveRequest{}, err
	}

	deciderID := principal.UserID
	request.Status = status
	request.DecidedBy = &deciderID
	request.UpdatedAt = now
	logger.With("status", string(status)).InfoContext(ctx, "leave request decided")
	return request, nil
}

// List enumerates the leave requests whose subjects lie in the caller's
// scope. Employees see only their own requests.
func (s *LeaveService) List(ctx context.Context, principal Principal) ([]LeaveRequest, error) {
	if s == nil {
		return nil, fmt.Errorf("LeaveService is nil")
	}
	if s.requests == nil || s.scopes == nil {
		return nil, fmt.Errorf("leave service not fully configured")
	}

	scope, err := s.scopes.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	// HR scope always includes the HR user's own requests.
	scope = scope.Including(principal.UserID)
	if scope.IsEmpty() {
		return nil, nil
	}

	requests, err := s.requests.ListLeaveRequests(ctx, LeaveRequestFilter{SubjectIDs: scope.SubjectIDs()})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func validateLeaveRequestInput(input LeaveRequestInput) *ValidationError {
	vErr := &ValidationError{}

	if input.From.IsZero() {
		vErr.add("from", "start day is required")
	}
	if input.To.IsZero() {
		vErr.add("to", "end day is required")
	}
	if !input.From.IsZero() && !input.To.IsZero() && period.Normalize(input.To).Before(period.Normalize(input.From)) {
		vErr.add("to", "end day must not be before start day")
	}
	if strings.TrimSpace(input.Reason) == "" {
		vErr.add("reason", "reason is required")
	}

	return vErr
}
