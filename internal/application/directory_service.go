package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/workforce-attendance/internal/persistence"
	"github.com/example/workforce-attendance/internal/scoping"
)

// UserRepository captures the persistence operations needed by the directory
// service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListUsersCreatedBy(ctx context.Context, creatorID string) ([]User, error)
}

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// DirectoryService owns the user directory: account provisioning, role
// resolution, and the ownership chain. Accounts are never self-registered;
// every employee account references the HR or admin account that provisioned
// it.
type DirectoryService struct {
	users        UserRepository
	scopes       *ScopeResolver
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewDirectoryService wires dependencies for the directory service.
func NewDirectoryService(users UserRepository, scopes *ScopeResolver, hashPassword PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DirectoryService {
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return HashPassword(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DirectoryService{
		users:        users,
		scopes:       scopes,
		hashPassword: hashPassword,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *DirectoryService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DirectoryService", operation, attrs...)
}

// CreateUser provisions a new account. Admins provision HR and employee
// accounts, HR provisions employee accounts; the provisioner is recorded as
// the new account's creator.
func (s *DirectoryService) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("DirectoryService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	principal := params.Principal
	logger := s.log(ctx, "CreateUser", "principal_id", principal.UserID, "target_role", string(params.Input.Role))

	if !principal.Role.CanProvision(params.Input.Role) {
		logger.WarnContext(ctx, "provisioning denied", "error_kind", "unauthorized")
		return User{}, ErrUnauthorized
	}

	normalized := normalizeUserInput(params.Input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := s.hashPassword(normalized.Password)
	if err != nil {
		return User{}, err
	}

	createdBy := principal.UserID
	createdAt := s.now()
	user := User{
		ID:          s.idGenerator(),
		Email:       normalized.Email,
		DisplayName: normalized.DisplayName,
		Role:        normalized.Role,
		CreatedBy:   &createdBy,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	persisted, err := s.users.CreateUser(ctx, user, hash)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			vErr := &ValidationError{}
			vErr.add("email", "email is already registered")
			return User{}, vErr
		}
		return User{}, err
	}

	logger.With("user_id", persisted.ID).InfoContext(ctx, "user provisioned")
	return persisted, nil
}

// FindSubject retrieves an account by identifier. A missing identifier is a
// caller error, never an internal fault.
func (s *DirectoryService) FindSubject(ctx context.Context, id string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("DirectoryService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// ResolveRole returns the role of the identified account.
func (s *DirectoryService) ResolveRole(ctx context.Context, id string) (scoping.Role, error) {
	user, err := s.FindSubject(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// ListUsersCreatedBy returns the accounts provisioned by the identified
// account.
func (s *DirectoryService) ListUsersCreatedBy(ctx context.Context, creatorID string) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("DirectoryService is nil")
	}
	if s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}
	return s.users.ListUsersCreatedBy(ctx, creatorID)
}

// ListUsers enumerates the accounts visible to the caller: every account for
// admins, the caller plus their provisioned employees for HR, the caller
// alone for employees.
func (s *DirectoryService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("DirectoryService is nil")
	}
	if s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}

	var users []User
	switch principal.Role {
	case scoping.RoleAdmin:
		all, err := s.users.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		users = all
	case scoping.RoleHR:
		self, err := s.FindSubject(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
		created, err := s.users.ListUsersCreatedBy(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
		users = append([]User{self}, created...)
	default:
		self, err := s.FindSubject(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
		users = []User{self}
	}

	sortUsersByEmail(users)
	return users, nil
}

// ListMarkableSubjects returns the employee accounts the caller may mark
// attendance for. An HR caller with no provisioned employees receives an
// empty result without any further query.
func (s *DirectoryService) ListMarkableSubjects(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("DirectoryService is nil")
	}
	if s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}

	if !principal.Role.Privileged() {
		return nil, ErrUnauthorized
	}

	var candidates []User
	switch principal.Role {
	case scoping.RoleAdmin:
		all, err := s.users.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		candidates = all
	default:
		created, err := s.users.ListUsersCreatedBy(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
		if len(created) == 0 {
			return nil, nil
		}
		candidates = created
	}

	employees := make([]User, 0, len(candidates))
	for _, user := range candidates {
		if user.Role == scoping.RoleEmployee {
			employees = append(employees, user)
		}
	}

	sortUsersByEmail(employees)
	return employees, nil
}

func sortUsersByEmail(users []User) {
	sort.Slice(users, func(i, j int) bool {
		if strings.EqualFold(users[i].Email, users[j].Email) {
			return users[i].ID < users[j].ID
		}
		return strings.ToLower(users[i].Email) < strings.ToLower(users[j].Email)
	})
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        input.Role,
		Password:    input.Password,
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	if _, ok := scoping.ParseRole(string(input.Role)); !ok {
		vErr.add("role", "role is invalid")
	}

	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}

	return vErr
}

func summarize(user User) UserSummary {
	return UserSummary{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Role:        user.Role,
	}
}
