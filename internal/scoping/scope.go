package scoping

import "sort"

// Role identifies the position of an account in the provisioning hierarchy.
// The set is closed: every caller holds exactly one of these values.
type Role string

const (
	// RoleAdmin is the root tier. Admins see and act on every subject.
	RoleAdmin Role = "admin"
	// RoleHR is the middle tier. HR accounts act on the employees they provisioned.
	RoleHR Role = "hr"
	// RoleEmployee is the leaf tier. Employees see only themselves.
	RoleEmployee Role = "employee"
)

// ParseRole validates a stored role string against the closed set.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleAdmin, RoleHR, RoleEmployee:
		return Role(value), true
	default:
		return "", false
	}
}

// CanProvision reports whether an account with the receiver role may create
// an account with the target role. Admins provision HR and employees, HR
// provisions employees, employees provision nobody. Because employees can
// never create accounts the provisioning chain is a two-level tree with no
// cycles.
func (r Role) CanProvision(target Role) bool {
	switch r {
	case RoleAdmin:
		return target == RoleHR || target == RoleEmployee
	case RoleHR:
		return target == RoleEmployee
	default:
		return false
	}
}

// Privileged reports whether the role may invoke HR/admin operations such as
// marking attendance or scheduling meetings.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleHR
}

// Scope is the set of subject identifiers a caller is authorized to read or
// write. It takes one of three shapes: unrestricted (admin), a finite subject
// set (HR descendants), or a single self identifier (employee).
type Scope struct {
	unrestricted bool
	subjects     map[string]struct{}
}

// Unrestricted returns the scope that contains every subject.
func Unrestricted() Scope {
	return Scope{unrestricted: true}
}

// Subjects returns a scope containing exactly the provided identifiers.
func Subjects(ids ...string) Scope {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return Scope{subjects: set}
}

// Resolve computes the authorized subject set for a caller. createdIDs is the
// set of users provisioned by the caller and is only consulted for HR
// callers. Resolution never fails: every caller has a valid scope, possibly
// empty.
func Resolve(role Role, callerID string, createdIDs []string) Scope {
	switch role {
	case RoleAdmin:
		return Unrestricted()
	case RoleHR:
		return Subjects(createdIDs...)
	default:
		return Subjects(callerID)
	}
}

// IsUnrestricted reports whether the scope covers all subjects.
func (s Scope) IsUnrestricted() bool {
	return s.unrestricted
}

// IsEmpty reports whether no subject lies in the scope. Reads against an
// empty scope short-circuit to an empty result before any storage query.
func (s Scope) IsEmpty() bool {
	return !s.unrestricted && len(s.subjects) == 0
}

// Contains reports whether the identifier lies in the scope.
func (s Scope) Contains(id string) bool {
	if s.unrestricted {
		return true
	}
	_, ok := s.subjects[id]
	return ok
}

// SubjectIDs returns the finite subject set in sorted order. It returns nil
// for an unrestricted scope, which repositories interpret as "no filter".
func (s Scope) SubjectIDs() []string {
	if s.unrestricted {
		return nil
	}
	ids := make([]string, 0, len(s.subjects))
	for id := range s.subjects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Including returns a copy of the scope extended with the provided
// identifiers. An unrestricted scope is returned unchanged.
func (s Scope) Including(ids ...string) Scope {
	if s.unrestricted {
		return s
	}
	combined := make([]string, 0, len(s.subjects)+len(ids))
	combined = append(combined, s.SubjectIDs()...)
	combined = append(combined, ids...)
	return Subjects(combined...)
}
