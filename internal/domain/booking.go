package domain

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// ActiveBookingStatuses are the statuses that hold a slot.
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusApproved, BookingStatusScheduled}

// bookingTransitions lists the legal moves out of each state. Missing keys are terminal.
// completed is reachable from approved only, while no_show needs scheduled.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusApproved:  {BookingStatusScheduled, BookingStatusCompleted, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusScheduled: {BookingStatusNoShow, BookingStatusCancelled},
}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusScheduled, BookingStatusCompleted,
		BookingStatusRejected, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// IsActive reports whether a booking in this status occupies its slot.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusApproved || s == BookingStatusScheduled
}

// IsTerminal reports whether no transition leaves s.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Participant identifies who is claiming a slot.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

var participantEmailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate trims and checks participant fields.
func (p *Participant) Validate() error {
	verr := NewValidationError()
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Notes = strings.TrimSpace(p.Notes)
	if p.Name == "" {
		verr.Add("name", "is required")
	}
	if p.Email == "" {
		verr.Add("email", "is required")
	} else if !participantEmailRegexp.MatchString(p.Email) {
		verr.Add("email", "invalid email format")
	}
	return verr.OrNil()
}

// Booking is a participant's claim on exactly one Slot.
// swagger:model Booking
type Booking struct {
	ID               string        `json:"id"`
	MeetingID        string        `json:"meeting_id"`
	SlotID           string        `json:"slot_id"`
	ParticipantName  string        `json:"participant_name"`
	ParticipantEmail string        `json:"participant_email"`
	ParticipantPhone string        `json:"participant_phone"`
	Notes            string        `json:"notes"`
	Status           BookingStatus `json:"status"`
	Token            string        `json:"-"`
	StatusReason     string        `json:"status_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewBooking returns a Booking for the given slot and participant. ID and Token are set by the caller.
func NewBooking(meetingID, slotID string, p Participant, status BookingStatus, createdAt time.Time) *Booking {
	return &Booking{
		MeetingID:        meetingID,
		SlotID:           slotID,
		ParticipantName:  p.Name,
		ParticipantEmail: p.Email,
		ParticipantPhone: p.Phone,
		Notes:            p.Notes,
		Status:           status,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

// CheckTransition returns ErrIllegalStateTransition if the booking cannot move to next.
func (b *Booking) CheckTransition(next BookingStatus) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: booking %s -> %s", ErrIllegalStateTransition, b.Status, next)
	}
	return nil
}

// BookingWithToken is returned to the participant right after a successful claim; it is the
// only response that exposes the self-service cancellation token.
type BookingWithToken struct {
	*Booking
	CancelToken string `json:"cancel_token"`
}

// BookingFilter narrows ListByMeetingID.
type BookingFilter struct {
	Status *BookingStatus
}

// BookingRepository persists bookings keyed by id with the random token as an alternate key.
type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByToken(ctx context.Context, token string) (*Booking, error)
	ListByMeetingID(ctx context.Context, meetingID string, filter BookingFilter, params PaginationParams) ([]*Booking, int, error)
	ListActiveByMeetingID(ctx context.Context, meetingID string) ([]*Booking, error)
	CountActiveByMeetingID(ctx context.Context, meetingID string) (int, error)
	// UpdateStatus sets status only if the stored status still equals from; ErrConflict otherwise.
	UpdateStatus(ctx context.Context, id string, from, to BookingStatus, reason string) error
}
