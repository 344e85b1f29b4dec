package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"interviewdesk/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory implementation of the meeting, slot and booking repositories. A single
// mutex makes every method atomic, which is what the conditional writes of the SQL store provide.
// Reads return copies so services cannot mutate stored rows without going through a write.
type memStore struct {
	mu       sync.Mutex
	meetings map[string]*domain.Meeting
	slots    map[string]*domain.Slot
	bookings map[string]*domain.Booking
	nextID   int

	createBookingErr error
	releaseErr       error
	claimHook        func()
}

func newMemStore() *memStore {
	return &memStore{
		meetings: make(map[string]*domain.Meeting),
		slots:    make(map[string]*domain.Slot),
		bookings: make(map[string]*domain.Booking),
	}
}

func (s *memStore) meetingRepo() domain.MeetingRepository { return (*memMeetings)(s) }
func (s *memStore) slotRepo() domain.SlotRepository       { return (*memSlots)(s) }
func (s *memStore) bookingRepo() domain.BookingRepository { return (*memBookings)(s) }

// snapshot returns copies of all slots and bookings for invariant checks.
func (s *memStore) snapshot() ([]domain.Slot, []domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := make([]domain.Slot, 0, len(s.slots))
	for _, sl := range s.slots {
		slots = append(slots, *sl)
	}
	bookings := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		bookings = append(bookings, *b)
	}
	return slots, bookings
}

// checkOccupancy verifies that a slot is booked exactly when one active booking references it.
func checkOccupancy(s *memStore) error {
	slots, bookings := s.snapshot()
	active := make(map[string][]string)
	for _, b := range bookings {
		if b.Status.IsActive() {
			active[b.SlotID] = append(active[b.SlotID], b.ID)
		}
	}
	for _, sl := range slots {
		holders := active[sl.ID]
		switch {
		case len(holders) > 1:
			return fmt.Errorf("slot %s has %d active bookings", sl.ID, len(holders))
		case len(holders) == 1 && !sl.IsBooked:
			return fmt.Errorf("slot %s is free but booking %s is active", sl.ID, holders[0])
		case len(holders) == 1 && (sl.BookingID == nil || *sl.BookingID != holders[0]):
			return fmt.Errorf("slot %s is not held by its active booking %s", sl.ID, holders[0])
		case len(holders) == 0 && sl.IsBooked:
			return fmt.Errorf("slot %s is booked without an active booking", sl.ID)
		}
	}
	return nil
}

type memMeetings memStore

func (r *memMeetings) Create(ctx context.Context, m *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = fmt.Sprintf("m-%d", r.nextID)
	cp := *m
	r.meetings[m.ID] = &cp
	return nil
}

func (r *memMeetings) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMeetings) GetByPublicToken(ctx context.Context, token string) (*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.meetings {
		if m.PublicToken != "" && m.PublicToken == token {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memMeetings) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Meeting
	for _, m := range r.meetings {
		if m.OwnerID == ownerID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memMeetings) Update(ctx context.Context, m *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.meetings[m.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != m.Status {
		return domain.ErrConflict
	}
	cp := *m
	r.meetings[m.ID] = &cp
	return nil
}

func (r *memMeetings) UpdateStatus(ctx context.Context, id string, from, to domain.MeetingStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.meetings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != from {
		return domain.ErrConflict
	}
	cur.Status = to
	cur.CancelReason = reason
	return nil
}

func (r *memMeetings) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.meetings, id)
	for sid, sl := range r.slots {
		if sl.MeetingID == id {
			delete(r.slots, sid)
		}
	}
	for bid, b := range r.bookings {
		if b.MeetingID == id {
			delete(r.bookings, bid)
		}
	}
	return nil
}

type memSlots memStore

func copySlot(sl *domain.Slot) *domain.Slot {
	cp := *sl
	if sl.BookingID != nil {
		id := *sl.BookingID
		cp.BookingID = &id
	}
	return &cp
}

func (r *memSlots) sorted(keep func(*domain.Slot) bool) []*domain.Slot {
	var out []*domain.Slot
	for _, sl := range r.slots {
		if keep(sl) {
			out = append(out, copySlot(sl))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *memSlots) CreateMany(ctx context.Context, slots []*domain.Slot) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := 0
	for _, sl := range slots {
		dup := false
		for _, existing := range r.slots {
			if existing.MeetingID == sl.MeetingID && (existing.StartTime.Equal(sl.StartTime) || existing.Overlaps(sl)) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		r.slots[sl.ID] = copySlot(sl)
		created++
	}
	return created, nil
}

func (r *memSlots) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, ok := r.slots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copySlot(sl), nil
}

func (r *memSlots) ListByMeetingID(ctx context.Context, meetingID string) ([]*domain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(sl *domain.Slot) bool { return sl.MeetingID == meetingID }), nil
}

func (r *memSlots) ListAvailableByMeetingID(ctx context.Context, meetingID string) ([]*domain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(sl *domain.Slot) bool { return sl.MeetingID == meetingID && !sl.IsBooked }), nil
}

func (r *memSlots) CountByMeetingID(ctx context.Context, meetingID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, sl := range r.slots {
		if sl.MeetingID == meetingID {
			n++
		}
	}
	return n, nil
}

func (r *memSlots) DeleteFreeByMeetingID(ctx context.Context, meetingID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, sl := range r.slots {
		if sl.MeetingID == meetingID && !sl.IsBooked {
			delete(r.slots, id)
			n++
		}
	}
	return n, nil
}

func (r *memSlots) Claim(ctx context.Context, slotID, bookingID string) error {
	if r.claimHook != nil {
		r.claimHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, ok := r.slots[slotID]
	if !ok || sl.IsBooked {
		return domain.ErrSlotUnavailable
	}
	sl.IsBooked = true
	id := bookingID
	sl.BookingID = &id
	return nil
}

func (r *memSlots) Release(ctx context.Context, slotID, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.releaseErr != nil {
		return false, r.releaseErr
	}
	sl, ok := r.slots[slotID]
	if !ok || sl.BookingID == nil || *sl.BookingID != bookingID {
		return false, nil
	}
	sl.IsBooked = false
	sl.BookingID = nil
	return true, nil
}

type memBookings memStore

func (r *memBookings) Create(ctx context.Context, b *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createBookingErr != nil {
		return r.createBookingErr
	}
	if _, ok := r.bookings[b.ID]; ok {
		return errors.New("duplicate booking id")
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memBookings) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBookings) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.Token == token {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memBookings) list(keep func(*domain.Booking) bool) []*domain.Booking {
	var out []*domain.Booking
	for _, b := range r.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].ID, out[j].ID) < 0 })
	return out
}

func (r *memBookings) ListByMeetingID(ctx context.Context, meetingID string, filter domain.BookingFilter, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.list(func(b *domain.Booking) bool {
		return b.MeetingID == meetingID && (filter.Status == nil || b.Status == *filter.Status)
	})
	total := len(all)
	if params.PageSize > 0 {
		start := min(params.Offset(), total)
		end := min(start+params.PageSize, total)
		all = all[start:end]
	}
	return all, total, nil
}

func (r *memBookings) ListActiveByMeetingID(ctx context.Context, meetingID string) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(b *domain.Booking) bool { return b.MeetingID == meetingID && b.Status.IsActive() }), nil
}

func (r *memBookings) CountActiveByMeetingID(ctx context.Context, meetingID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.list(func(b *domain.Booking) bool { return b.MeetingID == meetingID && b.Status.IsActive() })), nil
}

func (r *memBookings) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Status != from {
		return domain.ErrConflict
	}
	b.Status = to
	b.StatusReason = reason
	b.UpdatedAt = time.Now()
	return nil
}

// recordingEmailService captures sent emails and can be told to fail.
type recordingEmailService struct {
	mu          sync.Mutex
	received    []*domain.BookingEmailData
	changed     []*domain.BookingEmailData
	invitations []*domain.MeetingInvitationEmailData
	err         error
}

func (e *recordingEmailService) SendBookingReceived(ctx context.Context, data *domain.BookingEmailData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.received = append(e.received, data)
	return nil
}

func (e *recordingEmailService) SendBookingStatusChanged(ctx context.Context, data *domain.BookingEmailData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.changed = append(e.changed, data)
	return nil
}

func (e *recordingEmailService) SendMeetingInvitation(ctx context.Context, data *domain.MeetingInvitationEmailData) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.invitations = append(e.invitations, data)
	return nil
}
