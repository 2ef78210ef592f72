package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal's role forbids an
	// operation outright.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist or
	// lies outside the caller's scope. The two cases are deliberately merged
	// so callers cannot probe the organizational structure.
	ErrNotFound = errors.New("application: not found")
	// ErrDuplicateForPeriod is the sentinel matched by duplicate attendance
	// rejections.
	ErrDuplicateForPeriod = errors.New("application: duplicate record for period")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its TTL.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// DuplicateForPeriodError reports that an attendance record already exists
// for the (subject, day) pair. It carries the conflicting record so clients
// can display it.
type DuplicateForPeriodError struct {
	Existing AttendanceRecord
}

// Error implements the error interface.
func (e *DuplicateForPeriodError) Error() string {
	return "attendance already recorded for this subject and day"
}

// Is lets errors.Is match the ErrDuplicateForPeriod sentinel.
func (e *DuplicateForPeriodError) Is(target error) bool {
	return target == ErrDuplicateForPeriod
}

// ValidationError captures field level validation issues that callers can
// surface to users. Violations are aggregated rather than failing fast so a
// caller can correct every problem at once.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
