package services

import (
	"context"
	"fmt"
	"log/slog"

	"interviewdesk/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", template, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", template, "to", to)
	return nil
}

// SendBookingReceived confirms a new booking using the "booking_received" template.
func (s *emailService) SendBookingReceived(ctx context.Context, data *domain.BookingEmailData) error {
	if data == nil {
		return fmt.Errorf("booking email data is nil")
	}
	return s.send(ctx, "booking_received", data.Email, data)
}

// SendBookingStatusChanged tells the participant about approval, rejection, cancellation and the like.
func (s *emailService) SendBookingStatusChanged(ctx context.Context, data *domain.BookingEmailData) error {
	if data == nil {
		return fmt.Errorf("booking email data is nil")
	}
	return s.send(ctx, "booking_status", data.Email, data)
}

// SendMeetingInvitation sends the public booking link using the "meeting_invitation" template.
func (s *emailService) SendMeetingInvitation(ctx context.Context, data *domain.MeetingInvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("meeting invitation data is nil")
	}
	return s.send(ctx, "meeting_invitation", data.Email, data)
}
