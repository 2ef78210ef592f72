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

// AttendanceRepository implements persistence.AttendanceRepository using
// SQLite. The day column stores the canonical period key, so the UNIQUE
// (subject_id, day) index enforces the one-record-per-subject-per-day
// invariant even under concurrent writers.
type AttendanceRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAttendanceRepository creates a new SQLite attendance repository.
func NewAttendanceRepository(pool *ConnectionPool) *AttendanceRepository {
	return &AttendanceRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const attendanceColumns = `id, subject_id, subject_name, status, check_in_time, marked_by, day, created_at`

// CreateRecord inserts an attendance record. A second record for the same
// (subject, day) pair is rejected with persistence.ErrDuplicate by the unique
// index.
func (r *AttendanceRepository) CreateRecord(ctx context.Context, record persistence.AttendanceRecord) error {
	if record.ID == "" || record.SubjectID == "" {
		return persistence.ErrConstraintViolation
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO attendance_records (` + attendanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		record.ID,
		record.SubjectID,
		record.SubjectName,
		record.Status,
		formatNullableTime(record.CheckInTime),
		record.MarkedBy,
		period.Key(record.Day),
		formatTime(record.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetRecordForDay retrieves the record for a subject on the calendar day
// containing the supplied instant.
func (r *AttendanceRepository) GetRecordForDay(ctx context.Context, subjectID string, day time.Time) (persistence.AttendanceRecord, error) {
	row := r.helper.QueryRow(ctx,
		`SELECT `+attendanceColumns+` FROM attendance_records WHERE subject_id = ? AND day = ?`,
		subjectID, period.Key(day),
	)
	return r.scanRecord(row)
}

// ListRecords returns records matching the filter, newest day first.
func (r *AttendanceRepository) ListRecords(ctx context.Context, filter persistence.AttendanceFilter) ([]persistence.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, len(filter.SubjectIDs)+1)

	if filter.SubjectIDs != nil {
		if len(filter.SubjectIDs) == 0 {
			return []persistence.AttendanceRecord{}, nil
		}
		placeholders := strings.Repeat("?, ", len(filter.SubjectIDs))
		clauses = append(clauses, fmt.Sprintf("subject_id IN (%s)", strings.TrimSuffix(placeholders, ", ")))
		for _, id := range filter.SubjectIDs {
			args = append(args, id)
		}
	}
	if filter.Day != nil {
		clauses = append(clauses, "day = ?")
		args = append(args, period.Key(*filter.Day))
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY day DESC, subject_name, id"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	records := make([]persistence.AttendanceRecord, 0)
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return records, nil
}

func (r *AttendanceRepository) scanRecord(row rowScanner) (persistence.AttendanceRecord, error) {
	var (
		record    persistence.AttendanceRecord
		checkIn   sql.NullString
		dayKey    string
		createdAt string
	)

	err := row.Scan(
		&record.ID,
		&record.SubjectID,
		&record.SubjectName,
		&record.Status,
		&checkIn,
		&record.MarkedBy,
		&dayKey,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AttendanceRecord{}, persistence.ErrNotFound
		}
		return persistence.AttendanceRecord{}, r.mapper.MapError(err)
	}

	if record.CheckInTime, err = parseNullableTime(checkIn); err != nil {
		return persistence.AttendanceRecord{}, fmt.Errorf("failed to parse check_in_time: %w", err)
	}
	if record.Day, err = period.ParseKey(dayKey); err != nil {
		return persistence.AttendanceRecord{}, fmt.Errorf("failed to parse day: %w", err)
	}
	if record.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.AttendanceRecord{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return record, nil
}
