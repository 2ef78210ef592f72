package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/workforce-attendance/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository using SQLite.
// Attendees live in a join table so participant filters stay index-backed.
type MeetingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewMeetingRepository creates a new SQLite meeting repository.
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const meetingColumns = `id, title, description, start_at, duration_minutes, organizer_id, status, join_url, created_at, updated_at`

// CreateMeeting inserts a meeting and its attendee set atomically.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" || meeting.OrganizerID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	if meeting.UpdatedAt.IsZero() {
		meeting.UpdatedAt = meeting.CreatedAt
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meetings (`+meetingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			meeting.ID,
			meeting.Title,
			nullableString(meeting.Description),
			formatTime(meeting.Start),
			meeting.DurationMinutes,
			meeting.OrganizerID,
			meeting.Status,
			nullableString(meeting.JoinURL),
			formatTime(meeting.CreatedAt),
			formatTime(meeting.UpdatedAt),
		)
		if err != nil {
			return err
		}

		for _, attendeeID := range meeting.AttendeeIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO meeting_attendees (meeting_id, user_id) VALUES (?, ?)`,
				meeting.ID, attendeeID,
			); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetMeeting retrieves a meeting with its attendee set.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	meeting, err := r.scanMeeting(row)
	if err != nil {
		return persistence.Meeting{}, err
	}

	if meeting.AttendeeIDs, err = r.loadAttendees(ctx, meeting.ID); err != nil {
		return persistence.Meeting{}, err
	}

	return meeting, nil
}

// UpdateMeetingStatus updates the status column only. Callers enforce the
// one-directional transition rule before delegating here.
func (r *MeetingRepository) UpdateMeetingStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE meetings SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(updatedAt), id,
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

// ListMeetings returns meetings matching the filter ordered by start time
// descending.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings`
	args := make([]any, 0, 2)

	if filter.ParticipantID != nil {
		query += `
			WHERE organizer_id = ?
			   OR id IN (SELECT meeting_id FROM meeting_attendees WHERE user_id = ?)
		`
		args = append(args, *filter.ParticipantID, *filter.ParticipantID)
	}
	query += " ORDER BY start_at DESC, id"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	meetings := make([]persistence.Meeting, 0)
	for rows.Next() {
		meeting, err := r.scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range meetings {
		if meetings[i].AttendeeIDs, err = r.loadAttendees(ctx, meetings[i].ID); err != nil {
			return nil, err
		}
	}

	return meetings, nil
}

func (r *MeetingRepository) loadAttendees(ctx context.Context, meetingID string) ([]string, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT user_id FROM meeting_attendees WHERE meeting_id = ? ORDER BY user_id`, meetingID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	attendees := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapper.MapError(err)
		}
		attendees = append(attendees, id)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return attendees, nil
}

func (r *MeetingRepository) scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var (
		meeting     persistence.Meeting
		description sql.NullString
		joinURL     sql.NullString
		startAt     string
		createdAt   string
		updatedAt   string
	)

	err := row.Scan(
		&meeting.ID,
		&meeting.Title,
		&description,
		&startAt,
		&meeting.DurationMinutes,
		&meeting.OrganizerID,
		&meeting.Status,
		&joinURL,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Meeting{}, persistence.ErrNotFound
		}
		return persistence.Meeting{}, r.mapper.MapError(err)
	}

	meeting.Description = stringPointer(description)
	meeting.JoinURL = stringPointer(joinURL)

	if meeting.Start, err = parseTime(startAt); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse start_at: %w", err)
	}
	if meeting.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if meeting.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Meeting{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return meeting, nil
}
