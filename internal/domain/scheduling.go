package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SlotPolicy is the business-hours template slots are cut from.
type SlotPolicy struct {
	StartHour           int            `json:"start_hour"`
	EndHour             int            `json:"end_hour"`
	IntervalMinutes     int            `json:"interval_minutes"`
	AllowedWeekdays     []time.Weekday `json:"allowed_weekdays"`
	BufferBeforeMinutes int            `json:"buffer_before_minutes"`
	BufferAfterMinutes  int            `json:"buffer_after_minutes"`
}

// DefaultSlotPolicy is 09:00-17:00, hourly, Monday to Friday.
func DefaultSlotPolicy() SlotPolicy {
	return SlotPolicy{
		StartHour:       9,
		EndHour:         17,
		IntervalMinutes: 60,
		AllowedWeekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	}
}

// Allows reports whether d is in the allowed weekday set.
func (p SlotPolicy) Allows(d time.Weekday) bool {
	for _, w := range p.AllowedWeekdays {
		if w == d {
			return true
		}
	}
	return false
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekday accepts full or three-letter English weekday names in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if len(key) > 3 {
		key = key[:3]
	}
	d, ok := weekdayNames[key]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, name)
	}
	return d, nil
}

// EditPolicy decides which meeting attributes may change after a meeting leaves draft.
type EditPolicy struct {
	// AllowEditAfterOpen permits non-window edits (title, description, flags, visibility) while open.
	AllowEditAfterOpen bool
}

// MeetingWithSlots bundles a meeting with slots for the public booking page.
type MeetingWithSlots struct {
	Meeting *Meeting `json:"meeting"`
	Slots   []*Slot  `json:"slots"`
}

// SchedulingService is the meeting scheduling and slot-booking engine.
type SchedulingService interface {
	CreateMeeting(ctx context.Context, ownerID string, cfg MeetingConfig) (*Meeting, error)
	GetMeeting(ctx context.Context, ownerID, meetingID string) (*Meeting, error)
	ListMeetings(ctx context.Context, ownerID string) ([]*Meeting, error)
	UpdateMeeting(ctx context.Context, ownerID, meetingID string, patch MeetingPatch) (*Meeting, error)
	OpenMeeting(ctx context.Context, ownerID, meetingID string, policy *SlotPolicy) (*Meeting, error)
	CloseMeeting(ctx context.Context, ownerID, meetingID string) (*Meeting, error)
	CancelMeeting(ctx context.Context, ownerID, meetingID, reason string) (*Meeting, error)
	DeleteMeeting(ctx context.Context, ownerID, meetingID string) error
	GenerateSlots(ctx context.Context, ownerID, meetingID string, policy *SlotPolicy) (created int, err error)
	ListSlots(ctx context.Context, ownerID, meetingID string) ([]*Slot, error)
	ListBookings(ctx context.Context, ownerID, meetingID string, filter BookingFilter, params PaginationParams) ([]*Booking, int, error)

	GetMeetingByPublicLink(ctx context.Context, token string) (*MeetingWithSlots, error)
	ListAvailableSlots(ctx context.Context, meetingID string) ([]*Slot, error)
	BookSlot(ctx context.Context, slotID string, p Participant) (*BookingWithToken, error)
	GetBookingByToken(ctx context.Context, token string) (*Booking, error)
	CancelBooking(ctx context.Context, token string) (*Booking, error)

	ApproveBooking(ctx context.Context, ownerID, bookingID string) (*Booking, error)
	RejectBooking(ctx context.Context, ownerID, bookingID, reason string) (*Booking, error)
	ScheduleBooking(ctx context.Context, ownerID, bookingID string) (*Booking, error)
	CancelBookingByOrganizer(ctx context.Context, ownerID, bookingID, reason string) (*Booking, error)
	MarkNoShow(ctx context.Context, ownerID, bookingID string) (*Booking, error)
	CompleteBooking(ctx context.Context, ownerID, bookingID string) (*Booking, error)
}
