package application

import (
	"context"
	"fmt"

	"github.com/example/workforce-attendance/internal/scoping"
)

// UserDirectory exposes the lookups the scope resolver and the record
// services need. Implementations are pure reads; resolving a scope never
// mutates the directory.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListUsersCreatedBy(ctx context.Context, creatorID string) ([]User, error)
}

// ScopeResolver computes the authorized subject set for a caller. Every
// caller resolves to a valid scope, possibly empty; resolution only fails
// when the directory itself is unavailable.
type ScopeResolver struct {
	directory UserDirectory
}

// NewScopeResolver wires the directory dependency.
func NewScopeResolver(directory UserDirectory) *ScopeResolver {
	return &ScopeResolver{directory: directory}
}

// Resolve returns the caller's scope. The directory is only consulted for HR
// callers, whose scope is the set of users they provisioned.
func (r *ScopeResolver) Resolve(ctx context.Context, principal Principal) (scoping.Scope, error) {
	if r == nil {
		return scoping.Scope{}, fmt.Errorf("ScopeResolver is nil")
	}

	if principal.Role != scoping.RoleHR {
		return scoping.Resolve(principal.Role, principal.UserID, nil), nil
	}

	if r.directory == nil {
		return scoping.Scope{}, fmt.Errorf("user directory not configured")
	}

	created, err := r.directory.ListUsersCreatedBy(ctx, principal.UserID)
	if err != nil {
		return scoping.Scope{}, err
	}

	ids := make([]string, 0, len(created))
	for _, user := range created {
		ids = append(ids, user.ID)
	}

	return scoping.Resolve(principal.Role, principal.UserID, ids), nil
}
