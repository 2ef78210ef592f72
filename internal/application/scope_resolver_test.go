package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/workforce-attendance/internal/scoping"
)

func TestScopeResolver_Resolve_AdminIsUnrestricted(t *testing.T) {
	t.Parallel()

	resolver := NewScopeResolver(workforceDirectory())

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: "admin-1", Role: scoping.RoleAdmin})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !scope.IsUnrestricted() {
		t.Fatalf("expected unrestricted scope for admin")
	}
}

func TestScopeResolver_Resolve_HRCoversProvisionedUsers(t *testing.T) {
	t.Parallel()

	resolver := NewScopeResolver(workforceDirectory())

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: "hr-1", Role: scoping.RoleHR})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if scope.IsUnrestricted() {
		t.Fatalf("expected restricted scope for hr")
	}
	if !scope.Contains("emp-1") {
		t.Fatalf("expected provisioned employee in scope")
	}
	if scope.Contains("emp-2") {
		t.Fatalf("did not expect foreign employee in scope")
	}
}

func TestScopeResolver_Resolve_HRWithNoUsersIsEmpty(t *testing.T) {
	t.Parallel()

	directory := workforceDirectory()
	directory.byCreator = nil
	resolver := NewScopeResolver(directory)

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: "hr-1", Role: scoping.RoleHR})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !scope.IsEmpty() {
		t.Fatalf("expected empty scope, got %v", scope.SubjectIDs())
	}
}

func TestScopeResolver_Resolve_EmployeeSeesOnlySelf(t *testing.T) {
	t.Parallel()

	resolver := NewScopeResolver(workforceDirectory())

	scope, err := resolver.Resolve(context.Background(), Principal{UserID: "emp-1", Role: scoping.RoleEmployee})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !scope.Contains("emp-1") || scope.Contains("emp-2") {
		t.Fatalf("expected self-only scope, got %v", scope.SubjectIDs())
	}
}

func TestScopeResolver_Resolve_PropagatesDirectoryFailure(t *testing.T) {
	t.Parallel()

	failure := errors.New("directory unavailable")
	resolver := NewScopeResolver(&directoryStub{err: failure})

	_, err := resolver.Resolve(context.Background(), Principal{UserID: "hr-1", Role: scoping.RoleHR})
	if !errors.Is(err, failure) {
		t.Fatalf("expected directory failure to propagate, got %v", err)
	}
}
