package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"interviewdesk/internal/domain"
)

const bookingColumns = `id, meeting_id, slot_id, participant_name, participant_email, participant_phone, notes,
		status, token, status_reason, created_at, updated_at`

type bookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) domain.BookingRepository {
	return &bookingRepository{DB: db}
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var phone, notes, reason sql.NullString
	err := row.Scan(&b.ID, &b.MeetingID, &b.SlotID, &b.ParticipantName, &b.ParticipantEmail, &phone, &notes,
		&b.Status, &b.Token, &reason, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.ParticipantPhone = phone.String
	b.Notes = notes.String
	b.StatusReason = reason.String
	return b, nil
}

func activeStatuses() []string {
	out := make([]string, len(domain.ActiveBookingStatuses))
	for i, s := range domain.ActiveBookingStatuses {
		out[i] = string(s)
	}
	return out
}

// Create inserts a booking with a caller-assigned id; the slot claim already references it.
func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, meeting_id, slot_id, participant_name, participant_email, participant_phone, notes,
			status, token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query,
		b.ID, b.MeetingID, b.SlotID, b.ParticipantName, b.ParticipantEmail,
		nullString(b.ParticipantPhone), nullString(b.Notes), b.Status, b.Token, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (r *bookingRepository) getOne(ctx context.Context, query string, arg string) (*domain.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *bookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE token = $1`, token)
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ListByMeetingID returns a page of bookings (newest first) and the total matching the filter.
func (r *bookingRepository) ListByMeetingID(ctx context.Context, meetingID string, filter domain.BookingFilter, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	var total int
	countQuery := `SELECT COUNT(*) FROM bookings WHERE meeting_id = $1 AND ($2 = '' OR status = $2)`
	if err := r.DB.QueryRowContext(ctx, countQuery, meetingID, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE meeting_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`
	bookings, err := r.list(ctx, query, meetingID, status, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepository) ListActiveByMeetingID(ctx context.Context, meetingID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE meeting_id = $1 AND status = ANY($2) ORDER BY created_at`
	return r.list(ctx, query, meetingID, pq.Array(activeStatuses()))
}

func (r *bookingRepository) CountActiveByMeetingID(ctx context.Context, meetingID string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM bookings WHERE meeting_id = $1 AND status = ANY($2)`
	err := r.DB.QueryRowContext(ctx, query, meetingID, pq.Array(activeStatuses())).Scan(&n)
	return n, err
}

// UpdateStatus is a compare-and-set on status; a concurrent change yields ErrConflict.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus, reason string) error {
	query := `
		UPDATE bookings
		SET status = $3, status_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	result, err := r.DB.ExecContext(ctx, query, id, from, to, nullString(reason))
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}
