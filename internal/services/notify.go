package services

import (
	"context"

	"interviewdesk/internal/domain"
)

// Mail is best-effort: a delivery failure is logged and never undoes a booking change.

func (s *schedulingService) cancelURL(token string) string {
	if s.publicBaseURL == "" || token == "" {
		return ""
	}
	return s.publicBaseURL + "/public/bookings/" + token
}

func (s *schedulingService) bookingEmail(ctx context.Context, m *domain.Meeting, slot *domain.Slot, b *domain.Booking) *domain.BookingEmailData {
	data := &domain.BookingEmailData{
		Email:           b.ParticipantEmail,
		ParticipantName: b.ParticipantName,
		MeetingTitle:    m.Title,
		Status:          b.Status,
		Timezone:        m.Timezone,
		Reason:          b.StatusReason,
	}
	if m.AllowCancellation && b.Status.IsActive() {
		data.CancelURL = s.cancelURL(b.Token)
	}
	if slot == nil {
		var err error
		if slot, err = s.slotRepo.GetByID(ctx, b.SlotID); err != nil {
			s.logger.WarnContext(ctx, "slot lookup for email failed", "slot_id", b.SlotID, "err", err)
			return data
		}
	}
	loc, err := m.Location()
	if err != nil {
		loc = nil
	}
	if loc != nil {
		data.StartTime = slot.StartTime.In(loc)
		data.EndTime = slot.EndTime.In(loc)
	} else {
		data.StartTime = slot.StartTime
		data.EndTime = slot.EndTime
	}
	return data
}

func (s *schedulingService) notifyBookingReceived(ctx context.Context, m *domain.Meeting, slot *domain.Slot, b *domain.Booking) {
	if s.emailService == nil {
		return
	}
	if err := s.emailService.SendBookingReceived(ctx, s.bookingEmail(ctx, m, slot, b)); err != nil {
		s.logger.WarnContext(ctx, "booking confirmation email failed", "booking_id", b.ID, "err", err)
	}
}

func (s *schedulingService) notifyStatusChanged(ctx context.Context, m *domain.Meeting, b *domain.Booking) {
	if s.emailService == nil {
		return
	}
	if err := s.emailService.SendBookingStatusChanged(ctx, s.bookingEmail(ctx, m, nil, b)); err != nil {
		s.logger.WarnContext(ctx, "booking status email failed", "booking_id", b.ID, "status", b.Status, "err", err)
	}
}
