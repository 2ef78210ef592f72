package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/workforce-attendance/internal/persistence"
)

// CredentialStore exposes the credential lookup the auth service needs.
// PasswordHash accompanies the user because the directory-facing User model
// deliberately omits it.
type CredentialStore interface {
	GetUserByEmail(ctx context.Context, email string) (User, string, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// SessionRepository captures the persistence interactions for session
// lifecycle management.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// PasswordVerifier reports whether a plaintext password matches a stored hash.
type PasswordVerifier func(password, hash string) (bool, error)

// AuthService authenticates users and manages their sessions.
type AuthService struct {
	credentials    CredentialStore
	sessions       SessionRepository
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	sessionTTL     time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// DefaultSessionTTL bounds a session's lifetime when no TTL is configured.
const DefaultSessionTTL = 12 * time.Hour

// NewAuthService wires dependencies for authentication operations.
func NewAuthService(credentials CredentialStore, sessions SessionRepository, verifyPassword PasswordVerifier, idGenerator, tokenGenerator func() string, sessionTTL time.Duration, now func() time.Time, logger *slog.Logger) *AuthService {
	if verifyPassword == nil {
		verifyPassword = VerifyPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		verifyPassword: verifyPassword,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		sessionTTL:     sessionTTL,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate verifies an email and password pair and issues a session.
// Unknown emails and wrong passwords produce the same ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (AuthenticateResult, error) {
	if s == nil {
		return AuthenticateResult{}, fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil || s.sessions == nil {
		return AuthenticateResult{}, fmt.Errorf("auth service not fully configured")
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	logger := s.log(ctx, "Authenticate", "email", email)

	user, passwordHash, err := s.credentials.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			logger.InfoContext(ctx, "authentication failed", "error_kind", "invalid_credentials")
			return AuthenticateResult{}, ErrInvalidCredentials
		}
		return AuthenticateResult{}, err
	}

	match, err := s.verifyPassword(params.Password, passwordHash)
	if err != nil {
		return AuthenticateResult{}, err
	}
	if !match {
		logger.InfoContext(ctx, "authentication failed", "error_kind", "invalid_credentials")
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	now := s.now()
	session := Session{
		ID:        s.idGenerator(),
		UserID:    user.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return AuthenticateResult{}, err
	}

	logger.With("user_id", user.ID).InfoContext(ctx, "session issued")
	return AuthenticateResult{User: user, Session: session}, nil
}

// ValidateSession resolves a bearer token into the calling principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil || s.sessions == nil {
		return Principal{}, fmt.Errorf("auth service not fully configured")
	}
	if token == "" {
		return Principal{}, ErrNotFound
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}
	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !s.now().Before(session.ExpiresAt) {
		return Principal{}, ErrSessionExpired
	}

	user, err := s.credentials.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}

	return Principal{UserID: user.ID, Role: user.Role}, nil
}

// RevokeSession invalidates a session token. Revoking an already revoked or
// unknown token yields ErrNotFound.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("auth service not fully configured")
	}

	if _, err := s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log(ctx, "RevokeSession").InfoContext(ctx, "session revoked")
	return nil
}

// SweepExpiredSessions deletes sessions that expired before the current
// instant and returns the number removed. Intended for a periodic janitor.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return 0, fmt.Errorf("auth service not fully configured")
	}
	return s.sessions.DeleteExpiredSessions(ctx, s.now())
}
