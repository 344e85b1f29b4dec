package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"interviewdesk/internal/domain"
)

const slotColumns = `id, meeting_id, start_time, end_time, is_booked, booking_id, created_at`

type slotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(db *sql.DB) domain.SlotRepository {
	return &slotRepository{DB: db}
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	s := &domain.Slot{}
	var bookingID sql.NullString
	if err := row.Scan(&s.ID, &s.MeetingID, &s.StartTime, &s.EndTime, &s.IsBooked, &bookingID, &s.CreatedAt); err != nil {
		return nil, err
	}
	if bookingID.Valid {
		s.BookingID = &bookingID.String
	}
	return s, nil
}

// CreateMany inserts all slots in one statement. Rows colliding on (meeting_id, start_time) or
// overlapping an existing slot of the meeting are skipped.
func (r *slotRepository) CreateMany(ctx context.Context, slots []*domain.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	ids := make([]string, len(slots))
	meetingIDs := make([]string, len(slots))
	starts := make([]string, len(slots))
	ends := make([]string, len(slots))
	created := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
		meetingIDs[i] = s.MeetingID
		starts[i] = s.StartTime.UTC().Format(time.RFC3339Nano)
		ends[i] = s.EndTime.UTC().Format(time.RFC3339Nano)
		created[i] = s.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	query := `
		INSERT INTO slots (id, meeting_id, start_time, end_time, created_at)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::timestamptz[], $4::timestamptz[], $5::timestamptz[])
		ON CONFLICT DO NOTHING
	`
	result, err := r.DB.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(meetingIDs), pq.Array(starts), pq.Array(ends), pq.Array(created))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *slotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`
	s, err := scanSlot(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *slotRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Slot, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *slotRepository) ListByMeetingID(ctx context.Context, meetingID string) ([]*domain.Slot, error) {
	return r.list(ctx, `SELECT `+slotColumns+` FROM slots WHERE meeting_id = $1 ORDER BY start_time`, meetingID)
}

func (r *slotRepository) ListAvailableByMeetingID(ctx context.Context, meetingID string) ([]*domain.Slot, error) {
	return r.list(ctx, `SELECT `+slotColumns+` FROM slots WHERE meeting_id = $1 AND is_booked = FALSE ORDER BY start_time`, meetingID)
}

func (r *slotRepository) CountByMeetingID(ctx context.Context, meetingID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots WHERE meeting_id = $1`, meetingID).Scan(&n)
	return n, err
}

// DeleteFreeByMeetingID removes the meeting's unbooked slots.
func (r *slotRepository) DeleteFreeByMeetingID(ctx context.Context, meetingID string) (int, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM slots WHERE meeting_id = $1 AND is_booked = FALSE`, meetingID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Claim is the single conditional write that decides who gets a slot.
func (r *slotRepository) Claim(ctx context.Context, slotID, bookingID string) error {
	query := `
		UPDATE slots
		SET is_booked = TRUE, booking_id = $2
		WHERE id = $1 AND is_booked = FALSE
	`
	result, err := r.DB.ExecContext(ctx, query, slotID, bookingID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSlotUnavailable
	}
	return nil
}

func (r *slotRepository) Release(ctx context.Context, slotID, bookingID string) (bool, error) {
	query := `
		UPDATE slots
		SET is_booked = FALSE, booking_id = NULL
		WHERE id = $1 AND booking_id = $2
	`
	result, err := r.DB.ExecContext(ctx, query, slotID, bookingID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
