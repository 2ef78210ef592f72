package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/workforce-attendance/internal/application"
	"github.com/example/workforce-attendance/internal/scoping"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
}

func (f fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	return f.principal, f.err
}

func TestRequireSession_RejectsInvalidTokens(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		cookieToken *http.Cookie
		headerToken string
		lookupError error
	}{
		{name: "missing credentials"},
		{
			name:        "unknown token",
			headerToken: "Bearer unknown",
			lookupError: application.ErrNotFound,
		},
		{
			name:        "expired session",
			cookieToken: &http.Cookie{Name: "session_token", Value: "stale-token"},
			lookupError: application.ErrSessionExpired,
		},
		{
			name:        "revoked session",
			cookieToken: &http.Cookie{Name: "session_token", Value: "revoked-token"},
			lookupError: application.ErrSessionRevoked,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/attendance", nil)
			if tc.cookieToken != nil {
				req.AddCookie(tc.cookieToken)
			}
			if tc.headerToken != "" {
				req.Header.Set("Authorization", tc.headerToken)
			}
			recorder := httptest.NewRecorder()

			handler := RequireSession(fakeSessionValidator{err: tc.lookupError}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not be called when authentication fails")
			}))
			handler.ServeHTTP(recorder, req)

			if recorder.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d: %s", recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestRequireSession_AttachesPrincipal(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "hr-1", Role: scoping.RoleHR}

	req := httptest.NewRequest(http.MethodGet, "/attendance", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "valid-token"})
	recorder := httptest.NewRecorder()

	var captured application.Principal
	handler := RequireSession(fakeSessionValidator{principal: principal}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("expected principal in request context")
		}
		captured = got
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if captured != principal {
		t.Fatalf("expected principal %+v, got %+v", principal, captured)
	}
}

func TestRequireSession_MapsRepositoryFailuresTo500(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/attendance", nil)
	req.Header.Set("Authorization", "Bearer transient")
	recorder := httptest.NewRecorder()

	handler := RequireSession(fakeSessionValidator{err: errors.New("sqlite locked")}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called on validator failure")
	}))
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
}

func TestExtractTokenFromRequest_PrefersBearerHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/attendance", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})

	if got := extractTokenFromRequest(req); got != "header-token" {
		t.Fatalf("expected header token, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/attendance", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
	if got := extractTokenFromRequest(req); got != "cookie-token" {
		t.Fatalf("expected cookie token, got %q", got)
	}
}
