package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestDuplicateForPeriodError_MatchesSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("mark attendance: %w", &DuplicateForPeriodError{
		Existing: AttendanceRecord{ID: "record-1"},
	})

	if !errors.Is(err, ErrDuplicateForPeriod) {
		t.Fatalf("expected wrapped duplicate to match sentinel")
	}

	var dup *DuplicateForPeriodError
	if !errors.As(err, &dup) {
		t.Fatalf("expected errors.As to recover the typed error")
	}
	if dup.Existing.ID != "record-1" {
		t.Fatalf("expected conflicting record to survive wrapping, got %q", dup.Existing.ID)
	}
}

func TestValidationError_AggregatesFields(t *testing.T) {
	t.Parallel()

	vErr := &ValidationError{}
	if vErr.HasErrors() {
		t.Fatalf("expected fresh validation error to be empty")
	}

	vErr.add("status", "status is invalid")
	vErr.add("check_in_time", "check-in time is required for present status")

	if !vErr.HasErrors() {
		t.Fatalf("expected errors after adding fields")
	}
	if len(vErr.FieldErrors) != 2 {
		t.Fatalf("expected two field errors, got %d", len(vErr.FieldErrors))
	}
}
