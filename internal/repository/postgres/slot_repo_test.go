package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"interviewdesk/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotRepository_Claim(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "free slot is claimed",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE slots\s+SET is_booked = TRUE, booking_id = \$2\s+WHERE id = \$1 AND is_booked = FALSE`).
					WithArgs("slot-1", "booking-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "already booked slot is unavailable",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE slots`).
					WithArgs("slot-1", "booking-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrSlotUnavailable,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE slots`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			err = NewSlotRepository(db).Claim(ctx, "slot-1", "booking-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSlotRepository_Release(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE slots\s+SET is_booked = FALSE, booking_id = NULL\s+WHERE id = \$1 AND booking_id = \$2`).
		WithArgs("slot-1", "booking-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE slots`).
		WithArgs("slot-1", "stale-booking").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSlotRepository(db)
	released, err := repo.Release(ctx, "slot-1", "booking-1")
	require.NoError(t, err)
	assert.True(t, released)
	released, err = repo.Release(ctx, "slot-1", "stale-booking")
	require.NoError(t, err)
	assert.False(t, released, "a slot held by another booking is left alone")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_CreateMany(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	slots := []*domain.Slot{
		{ID: "s-1", MeetingID: "m-1", StartTime: start, EndTime: start.Add(30 * time.Minute), CreatedAt: start},
		{ID: "s-2", MeetingID: "m-1", StartTime: start.Add(time.Hour), EndTime: start.Add(90 * time.Minute), CreatedAt: start},
	}
	mock.ExpectExec(`INSERT INTO slots .* unnest.* ON CONFLICT DO NOTHING`).
		WithArgs(
			pq.Array([]string{"s-1", "s-2"}),
			pq.Array([]string{"m-1", "m-1"}),
			pq.Array([]string{"2026-03-02T09:00:00Z", "2026-03-02T10:00:00Z"}),
			pq.Array([]string{"2026-03-02T09:30:00Z", "2026-03-02T10:30:00Z"}),
			pq.Array([]string{"2026-03-02T09:00:00Z", "2026-03-02T09:00:00Z"}),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSlotRepository(db)
	created, err := repo.CreateMany(ctx, slots)
	require.NoError(t, err)
	assert.Equal(t, 1, created, "one row already existed")

	created, err = repo.CreateMany(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_DeleteFreeByMeetingID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM slots WHERE meeting_id = \$1 AND is_booked = FALSE`).
		WithArgs("m-1").
		WillReturnResult(sqlmock.NewResult(0, 16))
	mock.ExpectExec(`DELETE FROM slots`).
		WithArgs("m-2").
		WillReturnError(errors.New("connection reset"))

	repo := NewSlotRepository(db)
	n, err := repo.DeleteFreeByMeetingID(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	_, err = repo.DeleteFreeByMeetingID(ctx, "m-2")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_ListAvailableByMeetingID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, meeting_id, start_time, end_time, is_booked, booking_id, created_at FROM slots WHERE meeting_id = \$1 AND is_booked = FALSE`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "meeting_id", "start_time", "end_time", "is_booked", "booking_id", "created_at"}).
			AddRow("s-1", "m-1", start, start.Add(30*time.Minute), false, nil, start))

	slots, err := NewSlotRepository(db).ListAvailableByMeetingID(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "s-1", slots[0].ID)
	assert.Nil(t, slots[0].BookingID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM slots WHERE id = \$1`).WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "meeting_id", "start_time", "end_time", "is_booked", "booking_id", "created_at"}).
			AddRow("s-1", "m-1", start, start.Add(30*time.Minute), true, "b-1", start))
	mock.ExpectQuery(`SELECT .* FROM slots WHERE id = \$1`).WithArgs("s-2").WillReturnError(sql.ErrNoRows)

	repo := NewSlotRepository(db)
	s, err := repo.GetByID(ctx, "s-1")
	require.NoError(t, err)
	require.NotNil(t, s.BookingID)
	assert.Equal(t, "b-1", *s.BookingID)
	assert.True(t, s.IsBooked)

	_, err = repo.GetByID(ctx, "s-2")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
