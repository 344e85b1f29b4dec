package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// BookingEmailData holds data for booking confirmation and status emails.
type BookingEmailData struct {
	Email           string
	ParticipantName string
	MeetingTitle    string
	Status          BookingStatus
	StartTime       time.Time
	EndTime         time.Time
	Timezone        string
	Reason          string
	CancelURL       string
}

// MeetingInvitationEmailData holds data for the meeting invitation email.
type MeetingInvitationEmailData struct {
	Email          string
	OrganizerName  string
	MeetingTitle   string
	BookingURL     string
	DurationMinute int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendBookingReceived(ctx context.Context, data *BookingEmailData) error
	SendBookingStatusChanged(ctx context.Context, data *BookingEmailData) error
	SendMeetingInvitation(ctx context.Context, data *MeetingInvitationEmailData) error
}
