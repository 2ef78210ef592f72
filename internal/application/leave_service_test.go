package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/workforce-attendance/internal/period"
	"github.com/example/workforce-attendance/internal/scoping"
)

func newLeaveService(repo *leaveRepoStub, directory *directoryStub, now time.Time) *LeaveService {
	return NewLeaveService(repo, NewScopeResolver(directory), func() string { return "leave-1" }, fixedClock(now), nil)
}

func TestLeaveService_Submit_PersistsPendingRequest(t *testing.T) {
	t.Parallel()

	now := atJST(t, 24, 9)
	repo := &leaveRepoStub{}
	svc := newLeaveService(repo, workforceDirectory(), now)

	request, err := svc.Submit(context.Background(), SubmitLeaveRequestParams{
		Principal: Principal{UserID: "emp-1", Role: scoping.RoleEmployee},
		Input: LeaveRequestInput{
			From:   atJST(t, 26, 13),
			To:     atJST(t, 28, 2),
			Reason: "私用のため",
		},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if request.Status != LeavePending {
		t.Fatalf("expected pending status, got %q", request.Status)
	}
	if request.SubjectID != "emp-1" {
		t.Fatalf("expected request filed for the caller, got %q", request.SubjectID)
	}
	if !repo.created.FromDay.Equal(period.Normalize(atJST(t, 26, 13))) {
		t.Fatalf("expected from day collapsed to calendar day, got %v", repo.created.FromDay)
	}
	if !repo.created.ToDay.Equal(period.Normalize(atJST(t, 28, 2))) {
		t.Fatalf("expected to day collapsed to calendar day, got %v", repo.created.ToDay)
	}
}

func TestLeaveService_Submit_ValidatesRange(t *testing.T) {
	t.Parallel()

	svc := newLeaveService(&leaveRepoStub{}, workforceDirectory(), atJST(t, 24, 9))

	_, err := svc.Submit(context.Background(), SubmitLeaveRequestParams{
		Principal: Principal{UserID: "emp-1", Role: scoping.RoleEmployee},
		Input: LeaveRequestInput{
			From:   atJST(t, 28, 9),
			To:     atJST(t, 26, 9),
			Reason: "私用のため",
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["to"]; !ok {
		t.Fatalf("expected to validation error, got %v", vErr.FieldErrors)
	}
}

func TestLeaveService_Submit_RequiresReason(t *testing.T) {
	t.Parallel()

	svc := newLeaveService(&leaveRepoStub{}, workforceDirectory(), atJST(t, 24, 9))

	_, err := svc.Submit(context.Background(), SubmitLeaveRequestParams{
		Principal: Principal{UserID: "emp-1", Role: scoping.RoleEmployee},
		Input: LeaveRequestInput{
			From:   atJST(t, 26, 9),
			To:     atJST(t, 26, 9),
			Reason: "   ",
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["reason"]; !ok {
		t.Fatalf("expected reason validation error, got %v", vErr.FieldErrors)
	}
}

func TestLeaveService_Decide_ApprovesPendingRequest(t *testing.T) {
	t.Parallel()

	repo := &leaveRepoStub{
		request: LeaveRequest{ID: "leave-1", SubjectID: "emp-1", Status: LeavePending},
	}
	svc := newLeaveService(repo, workforceDirectory(), atJST(t, 24, 9))

	request, err := svc.Decide(context.Background(), DecideLeaveRequestParams{
		Principal: Principal{UserID: "hr-1", Role: scoping.RoleHR},
		RequestID: "leave-1",
		Approve:   true,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if request.Status != LeaveApproved || repo.decided != LeaveApproved {
		t.Fatalf("expected approved transition, got %q / %q", request.Status, repo.decided)
	}
	if request.DecidedBy == nil || *request.DecidedBy != "hr-1" {
		t.Fatalf("expected decider hr-1, got %v", request.DecidedBy)
	}
}

func TestLeaveService_Decide_RejectsEmployeeDecider(t *testing.T) {
	t.Parallel()

	repo := &leaveRepoStub{
		request: LeaveRequest{ID: "leave-1", SubjectID: "emp-1", Status: LeavePending},
	}
	svc := newLeaveService(repo, workforceDirectory(), atJST(t, 24, 9))

	_, err := svc.Decide(context.Background(), DecideLeaveRequestParams{
		Principal: Principal{UserID: "emp-1", Role: scoping.RoleEmployee},
		RequestID: "leave-1",
		Approve:   true,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLeaveService_Decide_HidesRequestsOutsideScope(t *testing.T) {
	t.Parallel()

	repo := &leaveRepoStub{
		request: LeaveRequest{ID: "leave-1", SubjectID: "emp-2", Status: LeavePending},
	}
	svc := newLeaveService(repo, workforceDirectory(), atJST(t, 24, 9))

	_, err := svc.Decide(context.Background(), DecideLeaveRequestParams{
		Principal: Principal{UserID: "hr-1", Role: scoping.RoleHR},
		RequestID: "leave-1",
		Approve:   false,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for out-of-scope request, got %v", err)
	}
}

func TestLeaveService_Decide_RejectsSettledRequest(t *testing.T) {
	t.Parallel()

	repo := &leaveRepoStub{
		request: LeaveRequest{ID: "leave-1", SubjectID: "emp-1", Status: LeaveApproved},
	}
	svc := newLeaveService(repo, workforceDirectory(), atJST(t, 24, 9))

	_, err := svc.Decide(context.Background(), DecideLeaveRequestParams{
		Principal: Principal{UserID: "hr-1", Role: scoping.RoleHR},
		RequestID: "leave-1",
		Approve:   false,
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["status"]; !ok {
		t.Fatalf("expected status validation error, got %v", vErr.FieldErrors)
	}
}

func TestLeaveService_List_ScopesBySubjects(t *testing.T) {
	t.Parallel()

	repo := &leaveRepoStub{}
	svc := newLeaveService(repo, workforceDirectory(), atJST(t, 24, 9))

	if _, err := svc.List(context.Background(), Principal{UserID: "hr-1", Role: scoping.RoleHR}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	got := repo.lastList.SubjectIDs
	if len(got) != 2 || got[0] != "emp-1" || got[1] != "hr-1" {
		t.Fatalf("expected hr scope plus self, got %v", got)
	}

	if _, err := svc.List(context.Background(), Principal{UserID: "admin-1", Role: scoping.RoleAdmin}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if repo.lastList.SubjectIDs != nil {
		t.Fatalf("expected no subject filter for admin, got %v", repo.lastList.SubjectIDs)
	}
}
