package postgres

import (
	"context"
	"database/sql"
	"errors"

	"interviewdesk/internal/domain"
)

const meetingColumns = `id, owner_id, title, description, duration_minutes, timezone, status, start_date, end_date,
		buffer_before_minutes, buffer_after_minutes, max_participants, visibility, approval_required,
		allow_cancellation, public_token, cancel_reason, created_at, updated_at`

type meetingRepository struct {
	DB *sql.DB
}

func NewMeetingRepository(db *sql.DB) domain.MeetingRepository {
	return &meetingRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*domain.Meeting, error) {
	m := &domain.Meeting{}
	var publicToken, cancelReason sql.NullString
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Title, &m.Description, &m.DurationMinutes, &m.Timezone, &m.Status,
		&m.StartDate, &m.EndDate, &m.BufferBeforeMinutes, &m.BufferAfterMinutes, &m.MaxParticipants,
		&m.Visibility, &m.ApprovalRequired, &m.AllowCancellation, &publicToken, &cancelReason,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.PublicToken = publicToken.String
	m.CancelReason = cancelReason.String
	return m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *meetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	query := `
		INSERT INTO meetings (owner_id, title, description, duration_minutes, timezone, status, start_date, end_date,
			buffer_before_minutes, buffer_after_minutes, max_participants, visibility, approval_required,
			allow_cancellation, public_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		m.OwnerID, m.Title, m.Description, m.DurationMinutes, m.Timezone, m.Status, m.StartDate, m.EndDate,
		m.BufferBeforeMinutes, m.BufferAfterMinutes, m.MaxParticipants, m.Visibility, m.ApprovalRequired,
		m.AllowCancellation, nullString(m.PublicToken), m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
}

func (r *meetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`
	m, err := scanMeeting(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *meetingRepository) GetByPublicToken(ctx context.Context, token string) (*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE public_token = $1`
	m, err := scanMeeting(r.DB.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *meetingRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	meetings := make([]*domain.Meeting, 0)
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// Update writes the mutable attributes, guarded on the status the caller read.
func (r *meetingRepository) Update(ctx context.Context, m *domain.Meeting) error {
	query := `
		UPDATE meetings
		SET title = $2, description = $3, duration_minutes = $4, timezone = $5, start_date = $6, end_date = $7,
			buffer_before_minutes = $8, buffer_after_minutes = $9, max_participants = $10, visibility = $11,
			approval_required = $12, allow_cancellation = $13, public_token = $14, updated_at = $15
		WHERE id = $1 AND status = $16
	`
	result, err := r.DB.ExecContext(ctx, query,
		m.ID, m.Title, m.Description, m.DurationMinutes, m.Timezone, m.StartDate, m.EndDate,
		m.BufferBeforeMinutes, m.BufferAfterMinutes, m.MaxParticipants, m.Visibility,
		m.ApprovalRequired, m.AllowCancellation, nullString(m.PublicToken), m.UpdatedAt, m.Status,
	)
	if err != nil {
		return err
	}
	return r.checkGuarded(ctx, result, m.ID)
}

func (r *meetingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.MeetingStatus, reason string) error {
	query := `
		UPDATE meetings
		SET status = $3, cancel_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	result, err := r.DB.ExecContext(ctx, query, id, from, to, nullString(reason))
	if err != nil {
		return err
	}
	return r.checkGuarded(ctx, result, id)
}

// checkGuarded turns a zero-row conditional update into ErrNotFound or ErrConflict.
func (r *meetingRepository) checkGuarded(ctx context.Context, result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM meetings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

// Delete removes the meeting; slots and bookings go with it through ON DELETE CASCADE.
func (r *meetingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
