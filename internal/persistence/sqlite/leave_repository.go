package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/workforce-attendance/internal/period"
	"github.com/example/workforce-attendance/internal/persistence"
)

// LeaveRequestRepository implements persistence.LeaveRequestRepository using
// SQLite. Day bounds are stored as canonical period keys.
type LeaveRequestRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewLeaveRequestRepository creates a new SQLite leave request repository.
func NewLeaveRequestRepository(pool *ConnectionPool) *LeaveRequestRepository {
	return &LeaveRequestRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const leaveColumns = `id, subject_id, from_day, to_day, reason, status, decided_by, created_at, updated_at`

// CreateLeaveRequest inserts a new leave request.
func (r *LeaveRequestRepository) CreateLeaveRequest(ctx context.Context, request persistence.LeaveRequest) error {
	if request.ID == "" || request.SubjectID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	if request.UpdatedAt.IsZero() {
		request.UpdatedAt = request.CreatedAt
	}

	query := `
		INSERT INTO leave_requests (` + leaveColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		request.ID,
		request.SubjectID,
		period.Key(request.FromDay),
		period.Key(request.ToDay),
		request.Reason,
		request.Status,
		nullableString(request.DecidedBy),
		formatTime(request.CreatedAt),
		formatTime(request.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetLeaveRequest retrieves a leave request by ID.
func (r *LeaveRequestRepository) GetLeaveRequest(ctx context.Context, id string) (persistence.LeaveRequest, error) {
	if id == "" {
		return persistence.LeaveRequest{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = ?`, id)
	return r.scanRequest(row)
}

// UpdateLeaveRequestDecision records the decision on a pending request.
func (r *LeaveRequestRepository) UpdateLeaveRequestDecision(ctx context.Context, id, status, decidedBy string, updatedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE leave_requests SET status = ?, decided_by = ?, updated_at = ? WHERE id = ?`,
		status, decidedBy, formatTime(updatedAt), id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// ListLeaveRequests returns requests matching the filter, newest first.
func (r *LeaveRequestRepository) ListLeaveRequests(ctx context.Context, filter persistence.LeaveRequestFilter) ([]persistence.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests`
	args := make([]any, 0, len(filter.SubjectIDs))

	if filter.SubjectIDs != nil {
		if len(filter.SubjectIDs) == 0 {
			return []persistence.LeaveRequest{}, nil
		}
		placeholders := strings.Repeat("?, ", len(filter.SubjectIDs))
		query += fmt.Sprintf(" WHERE subject_id IN (%s)", strings.TrimSuffix(placeholders, ", "))
		for _, id := range filter.SubjectIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	requests := make([]persistence.LeaveRequest, 0)
	for rows.Next() {
		request, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return requests, nil
}

func (r *LeaveRequestRepository) scanRequest(row rowScanner) (persistence.LeaveRequest, error) {
	var (
		request   persistence.LeaveRequest
		fromDay   string
		toDay     string
		decidedBy sql.NullString
		createdAt string
		updatedAt string
	)

	err := row.Scan(
		&request.ID,
		&request.SubjectID,
		&fromDay,
		&toDay,
		&request.Reason,
		&request.Status,
		&decidedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.LeaveRequest{}, persistence.ErrNotFound
		}
		return persistence.LeaveRequest{}, r.mapper.MapError(err)
	}

	request.DecidedBy = stringPointer(decidedBy)

	if request.FromDay, err = period.ParseKey(fromDay); err != nil {
		return persistence.LeaveRequest{}, fmt.Errorf("failed to parse from_day: %w", err)
	}
	if request.ToDay, err = period.ParseKey(toDay); err != nil {
		return persistence.LeaveRequest{}, fmt.Errorf("failed to parse to_day: %w", err)
	}
	if request.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.LeaveRequest{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if request.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.LeaveRequest{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return request, nil
}
