package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"interviewdesk/internal/domain"
)

// BookSlot runs the claim protocol: the slot is reserved with a single conditional write, then the
// booking row is created. If the booking write fails the reservation is rolled back before the
// error is returned. Losing callers get ErrSlotUnavailable and are never retried here.
func (s *schedulingService) BookSlot(ctx context.Context, slotID string, p domain.Participant) (*domain.BookingWithToken, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get slot", err)
	}
	m, err := s.meetingRepo.GetByID(ctx, slot.MeetingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get meeting", err)
	}
	if m.Status != domain.MeetingStatusOpen {
		return nil, domain.ErrMeetingNotOpen
	}
	if slot.IsBooked {
		return nil, domain.ErrSlotUnavailable
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate booking token: %w", err)
	}
	bookingID := s.newID()

	if err := s.slotRepo.Claim(ctx, slot.ID, bookingID); err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) || errors.Is(err, domain.ErrNotFound) {
			s.logger.DebugContext(ctx, "slot claim lost", "slot_id", slot.ID)
			return nil, domain.ErrSlotUnavailable
		}
		return nil, storeErr("claim slot", err)
	}

	status := domain.BookingStatusScheduled
	if m.ApprovalRequired {
		status = domain.BookingStatusPending
	}
	b := domain.NewBooking(m.ID, slot.ID, p, status, s.now())
	b.ID = bookingID
	b.Token = token

	if err := s.bookingRepo.Create(ctx, b); err != nil {
		s.compensateClaim(ctx, slot.ID, bookingID)
		return nil, storeErr("create booking", err)
	}

	// The meeting may have been closed or cancelled between the status check and the claim;
	// a cancel cascade that already ran would not see this booking.
	current, err := s.meetingRepo.GetByID(ctx, m.ID)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "could not re-check meeting status after claim", "meeting_id", m.ID, "booking_id", b.ID, "err", err)
	case current.Status != domain.MeetingStatusOpen:
		if _, cerr := s.cancel(ctx, current, b, "meeting no longer open"); cerr != nil {
			s.logger.ErrorContext(ctx, "failed to withdraw booking on closed meeting", "booking_id", b.ID, "err", cerr)
			return nil, cerr
		}
		return nil, domain.ErrMeetingNotOpen
	}

	s.logger.InfoContext(ctx, "slot booked", "meeting_id", m.ID, "slot_id", slot.ID, "booking_id", b.ID, "status", b.Status)
	s.notifyBookingReceived(ctx, m, slot, b)
	return &domain.BookingWithToken{Booking: b, CancelToken: token}, nil
}

// compensateClaim releases a reservation whose booking row could not be written. It runs on a
// context detached from the caller's deadline so an expired request still rolls back.
func (s *schedulingService) compensateClaim(ctx context.Context, slotID, bookingID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if _, err := s.slotRepo.Release(cctx, slotID, bookingID); err != nil {
		s.logger.ErrorContext(ctx, "claim compensation failed; slot left occupied", "slot_id", slotID, "booking_id", bookingID, "err", err)
		return
	}
	s.logger.WarnContext(ctx, "claim rolled back after booking write failure", "slot_id", slotID, "booking_id", bookingID)
}

// releaseSlot frees the booking's slot if the booking still holds it.
func (s *schedulingService) releaseSlot(ctx context.Context, b *domain.Booking) error {
	if _, err := s.slotRepo.Release(ctx, b.SlotID, b.ID); err != nil {
		s.logger.ErrorContext(ctx, "slot release failed", "slot_id", b.SlotID, "booking_id", b.ID, "err", err)
		return storeErr("release slot", err)
	}
	return nil
}

// transition moves b to the given status with a compare-and-set on its current status, then frees
// the slot when b leaves the active set. Status is written first so that a failed release can only
// leave a slot held by an inactive booking (repaired by a repeat cancel), never two active claims.
func (s *schedulingService) transition(ctx context.Context, b *domain.Booking, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	if err := b.CheckTransition(to); err != nil {
		// An inactive booking can still hold its slot when an earlier release failed.
		if !b.Status.IsActive() {
			if rerr := s.releaseSlot(ctx, b); rerr != nil {
				return nil, rerr
			}
		}
		return nil, err
	}
	from := b.Status
	if err := s.bookingRepo.UpdateStatus(ctx, b.ID, from, to, reason); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: booking %s changed concurrently", domain.ErrIllegalStateTransition, b.ID)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("update booking status", err)
	}
	b.Status = to
	b.StatusReason = reason
	b.UpdatedAt = s.now()
	if from.IsActive() && !to.IsActive() {
		if err := s.releaseSlot(ctx, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// cancel is the idempotent cancellation shared by every cancel path. An already cancelled booking
// is a successful no-op apart from re-attempting the conditional release.
func (s *schedulingService) cancel(ctx context.Context, m *domain.Meeting, b *domain.Booking, reason string) (*domain.Booking, error) {
	if b.Status == domain.BookingStatusCancelled {
		if err := s.releaseSlot(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	}
	updated, err := s.transition(ctx, b, domain.BookingStatusCancelled, reason)
	if err != nil {
		return nil, err
	}
	s.notifyStatusChanged(ctx, m, updated)
	return updated, nil
}

func (s *schedulingService) GetBookingByToken(ctx context.Context, token string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNotFound
	}
	b, err := s.bookingRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get booking by token", err)
	}
	return b, nil
}

func (s *schedulingService) CancelBooking(ctx context.Context, token string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNotFound
	}
	b, err := s.bookingRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get booking by token", err)
	}
	m, err := s.meetingRepo.GetByID(ctx, b.MeetingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get meeting", err)
	}
	if !m.AllowCancellation && b.Status != domain.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: this meeting does not allow self-service cancellation", domain.ErrForbidden)
	}
	updated, err := s.cancel(ctx, m, b, "cancelled by participant")
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "booking cancelled by participant", "booking_id", b.ID)
	return updated, nil
}

// loadOwnedBooking fetches a booking and its meeting, checking that ownerID organizes the meeting.
func (s *schedulingService) loadOwnedBooking(ctx context.Context, ownerID, bookingID string) (*domain.Meeting, *domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, storeErr("get booking", err)
	}
	m, err := s.loadOwnedMeeting(ctx, ownerID, b.MeetingID)
	if err != nil {
		return nil, nil, err
	}
	return m, b, nil
}

// organizerTransition is the common path for organizer-driven booking status changes.
func (s *schedulingService) organizerTransition(ctx context.Context, ownerID, bookingID string, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, b, err := s.loadOwnedBooking(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	// Repeating a finished action retries the release that may have failed the first time.
	if b.Status == to && !to.IsActive() {
		if err := s.releaseSlot(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	}
	updated, err := s.transition(ctx, b, to, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "booking status changed", "booking_id", b.ID, "status", to)
	s.notifyStatusChanged(ctx, m, updated)
	return updated, nil
}

// ApproveBooking moves a pending booking to approved. Meeting status is not affected.
func (s *schedulingService) ApproveBooking(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	return s.organizerTransition(ctx, ownerID, bookingID, domain.BookingStatusApproved, "")
}

// RejectBooking rejects a pending or approved booking and frees its slot.
func (s *schedulingService) RejectBooking(ctx context.Context, ownerID, bookingID, reason string) (*domain.Booking, error) {
	return s.organizerTransition(ctx, ownerID, bookingID, domain.BookingStatusRejected, reason)
}

// ScheduleBooking confirms an approved booking.
func (s *schedulingService) ScheduleBooking(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	return s.organizerTransition(ctx, ownerID, bookingID, domain.BookingStatusScheduled, "")
}

// MarkNoShow records that the participant of a scheduled booking did not attend.
func (s *schedulingService) MarkNoShow(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	return s.organizerTransition(ctx, ownerID, bookingID, domain.BookingStatusNoShow, "")
}

// CompleteBooking closes an approved booking as completed.
func (s *schedulingService) CompleteBooking(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	return s.organizerTransition(ctx, ownerID, bookingID, domain.BookingStatusCompleted, "")
}

func (s *schedulingService) CancelBookingByOrganizer(ctx context.Context, ownerID, bookingID, reason string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, b, err := s.loadOwnedBooking(ctx, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "cancelled by organizer"
	}
	updated, err := s.cancel(ctx, m, b, reason)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "booking cancelled by organizer", "booking_id", b.ID)
	return updated, nil
}
