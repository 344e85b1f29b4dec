package domain

import (
	"context"
	"time"
)

// MeetingInvitation records an email invited to book a slot through the meeting's public link.
// swagger:model MeetingInvitation
type MeetingInvitation struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	Email     string    `json:"email"`
	SentAt    time.Time `json:"sent_at"`
}

// MeetingInvitationRepository defines storage operations for meeting invitations.
type MeetingInvitationRepository interface {
	Create(ctx context.Context, inv *MeetingInvitation) error
	ListByMeetingID(ctx context.Context, meetingID, search string, params PaginationParams) ([]*MeetingInvitation, int, error)
}

// InvitationService sends candidates the public booking link of a meeting.
type InvitationService interface {
	SendInvitations(ctx context.Context, ownerID, meetingID string, emails []string) (sent int, failed []string, err error)
	ListInvitations(ctx context.Context, ownerID, meetingID, search string, params PaginationParams) ([]*MeetingInvitation, int, error)
}
