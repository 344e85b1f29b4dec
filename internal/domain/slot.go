package domain

import (
	"context"
	"time"
)

// Slot is one discrete bookable interval belonging to exactly one Meeting.
// swagger:model Slot
type Slot struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsBooked  bool      `json:"is_booked"`
	BookingID *string   `json:"booking_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAvailable is the organizer-view flag: the slot can currently be claimed.
func (s *Slot) IsAvailable() bool {
	return !s.IsBooked
}

// Overlaps reports whether the half-open ranges [start,end) of s and o intersect.
func (s *Slot) Overlaps(o *Slot) bool {
	return s.StartTime.Before(o.EndTime) && o.StartTime.Before(s.EndTime)
}

// SlotRepository persists slots. Claim and Release are the only writes to occupancy and each
// must be a single atomic conditional update.
type SlotRepository interface {
	// CreateMany inserts slots, skipping any whose (meeting_id, start_time) already exists or that
	// overlaps a stored slot of the same meeting. It returns how many rows were inserted.
	CreateMany(ctx context.Context, slots []*Slot) (int, error)
	GetByID(ctx context.Context, id string) (*Slot, error)
	ListByMeetingID(ctx context.Context, meetingID string) ([]*Slot, error)
	ListAvailableByMeetingID(ctx context.Context, meetingID string) ([]*Slot, error)
	CountByMeetingID(ctx context.Context, meetingID string) (int, error)
	// DeleteFreeByMeetingID removes every unbooked slot of the meeting and returns how many went.
	DeleteFreeByMeetingID(ctx context.Context, meetingID string) (int, error)
	// Claim marks the slot booked by bookingID only if it is currently free.
	// Returns ErrSlotUnavailable when the condition did not hold.
	Claim(ctx context.Context, slotID, bookingID string) error
	// Release frees the slot only if it is still held by bookingID. Returns whether a row changed.
	Release(ctx context.Context, slotID, bookingID string) (bool, error)
}
