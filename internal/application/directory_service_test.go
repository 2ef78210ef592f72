package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/workforce-attendance/internal/persistence"
	"github.com/example/workforce-attendance/internal/scoping"
)

func newDirectoryService(t *testing.T, repo *userRepoStub) *DirectoryService {
	t.Helper()
	hasher := func(password string) (string, error) { return "hashed:" + password, nil }
	return NewDirectoryService(repo, NewScopeResolver(repo), hasher, func() string { return "user-9" }, fixedClock(atJST(t, 24, 9)), nil)
}

func TestDirectoryService_CreateUser_RecordsCreator(t *testing.T) {
	t.Parallel()

	repo := &userRepoStub{}
	svc := newDirectoryService(t, repo)

	user, err := svc.CreateUser(context.Background(), CreateUserParams{
		Principal: Principal{UserID: "hr-1", Role: scoping.RoleHR},
		Input: UserInput{
			Email:       "Sato@Example.com",
			DisplayName: "佐藤 花子",
			Role:        scoping.RoleEmployee,
			Password:    "s3cret-pass",
		},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if user.CreatedBy == nil || *user.CreatedBy != "hr-1" {
		t.Fatalf("expected creator hr-1, got %v", user.CreatedBy)
	}
	if user.Email != "sato@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if repo.createdPW != "hashed:s3cret-pass" {
		t.Fatalf("expected hashed password to reach the repository, got %q", repo.createdPW)
	}
}

func TestDirectoryService_CreateUser_EnforcesProvisioningMatrix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		caller     scoping.Role
		target     scoping.Role
		authorized bool
	}{
		{name: "admin provisions hr", caller: scoping.RoleAdmin, target: scoping.RoleHR, authorized: true},
		{name: "admin provisions employee", caller: scoping.RoleAdmin, target: scoping.RoleEmployee, authorized: true},
		{name: "admin cannot provision admin", caller: scoping.RoleAdmin, target: scoping.RoleAdmin, authorized: false},
		{name: "hr provisions employee", caller: scoping.RoleHR, target: scoping.RoleEmployee, authorized: true},
		{name: "hr cannot provision hr", caller: scoping.RoleHR, target: scoping.RoleHR, authorized: false},
		{name: "employee cannot provision", caller: scoping.RoleEmployee, target: scoping.RoleEmployee, authorized: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newDirectoryService(t, &userRepoStub{})
			_, err := svc.CreateUser(context.Background(), CreateUserParams{
				Principal: Principal{UserID: "caller-1", Role: tc.caller},
				Input: UserInput{
					Email:       "new@example.com",
					DisplayName: "新人",
					Role:        tc.target,
					Password:    "s3cret-pass",
				},
			})

			if tc.authorized && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tc.authorized && !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestDirectoryService_CreateUser_AggregatesValidationErrors(t *testing.T) {
	t.Parallel()

	svc := newDirectoryService(t, &userRepoStub{})

	_, err := svc.CreateUser(context.Background(), CreateUserParams{
		Principal: Principal{UserID: "admin-1", Role: scoping.RoleAdmin},
		Input: UserInput{
			Email:    "not-an-email",
			Role:     scoping.RoleEmployee,
			Password: "short",
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "display_name", "password"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestDirectoryService_CreateUser_MapsDuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := &userRepoStub{createErr: persistence.ErrDuplicate}
	svc := newDirectoryService(t, repo)

	_, err := svc.CreateUser(context.Background(), CreateUserParams{
		Principal: Principal{UserID: "admin-1", Role: scoping.RoleAdmin},
		Input: UserInput{
			Email:       "taken@example.com",
			DisplayName: "新人",
			Role:        scoping.RoleEmployee,
			Password:    "s3cret-pass",
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["email"]; !ok {
		t.Fatalf("expected email validation error, got %v", vErr.FieldErrors)
	}
}

func TestDirectoryService_ListUsers_ScopesByRole(t *testing.T) {
	t.Parallel()

	hr := User{ID: "hr-1", Email: "tanaka@example.com", Role: scoping.RoleHR}
	emp := User{ID: "emp-1", Email: "sato@example.com", Role: scoping.RoleEmployee}
	other := User{ID: "emp-2", Email: "suzuki@example.com", Role: scoping.RoleEmployee}
	repo := &userRepoStub{
		users:     map[string]User{"hr-1": hr, "emp-1": emp, "emp-2": other},
		byCreator: map[string][]User{"hr-1": {emp}},
	}
	svc := newDirectoryService(t, repo)

	all, err := svc.ListUsers(context.Background(), Principal{UserID: "admin-1", Role: scoping.RoleAdmin})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected admin to see all users, got %d", len(all))
	}

	mine, err := svc.ListUsers(context.Background(), Principal{UserID: "hr-1", Role: scoping.RoleHR})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected hr to see self plus provisioned users, got %d", len(mine))
	}

	self, err := svc.ListUsers(context.Background(), Principal{UserID: "emp-1", Role: scoping.RoleEmployee})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(self) != 1 || self[0].ID != "emp-1" {
		t.Fatalf("expected employee to see only themselves, got %v", self)
	}
}

func TestDirectoryService_ListMarkableSubjects_FiltersToEmployees(t *testing.T) {
	t.Parallel()

	hr := User{ID: "hr-1", Email: "tanaka@example.com", Role: scoping.RoleHR}
	emp := User{ID: "emp-1", Email: "sato@example.com", Role: scoping.RoleEmployee}
	repo := &userRepoStub{
		users:     map[string]User{"hr-1": hr, "emp-1": emp},
		byCreator: map[string][]User{"admin-1": {hr}, "hr-1": {emp}},
	}
	svc := newDirectoryService(t, repo)

	subjects, err := svc.ListMarkableSubjects(context.Background(), Principal{UserID: "admin-1", Role: scoping.RoleAdmin})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(subjects) != 1 || subjects[0].ID != "emp-1" {
		t.Fatalf("expected only employee subjects, got %v", subjects)
	}
}

func TestDirectoryService_ListMarkableSubjects_EmptyForNewHR(t *testing.T) {
	t.Parallel()

	svc := newDirectoryService(t, &userRepoStub{})

	subjects, err := svc.ListMarkableSubjects(context.Background(), Principal{UserID: "hr-2", Role: scoping.RoleHR})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if subjects != nil {
		t.Fatalf("expected empty result for hr with no provisioned users, got %v", subjects)
	}
}

func TestDirectoryService_ListMarkableSubjects_RejectsEmployee(t *testing.T) {
	t.Parallel()

	svc := newDirectoryService(t, &userRepoStub{})

	_, err := svc.ListMarkableSubjects(context.Background(), Principal{UserID: "emp-1", Role: scoping.RoleEmployee})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDirectoryService_FindSubject_MapsMissingUser(t *testing.T) {
	t.Parallel()

	svc := newDirectoryService(t, &userRepoStub{})

	_, err := svc.FindSubject(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
