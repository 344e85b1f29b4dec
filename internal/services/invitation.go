package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"interviewdesk/internal/domain"
)

const maxInvitationsPerRequest = 100

type invitationService struct {
	meetingRepo    domain.MeetingRepository
	invitationRepo domain.MeetingInvitationRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	publicBaseURL  string
	contextTimeout time.Duration
}

// NewInvitationService creates an InvitationService that mails a meeting's public booking link.
func NewInvitationService(
	meetingRepo domain.MeetingRepository,
	invitationRepo domain.MeetingInvitationRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	publicBaseURL string,
) domain.InvitationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &invitationService{
		meetingRepo:    meetingRepo,
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		logger:         logger,
		publicBaseURL:  strings.TrimSuffix(publicBaseURL, "/"),
		contextTimeout: defaultContextTimeout,
	}
}

func (s *invitationService) ownedMeeting(ctx context.Context, ownerID, meetingID string) (*domain.Meeting, error) {
	m, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if m.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return m, nil
}

// SendInvitations records and mails one invitation per distinct address. Addresses that fail
// validation, storage, or delivery are returned in failed; the call itself only errors when the
// meeting cannot be invited to.
func (s *invitationService) SendInvitations(ctx context.Context, ownerID, meetingID string, emails []string) (sent int, failed []string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.ownedMeeting(ctx, ownerID, meetingID)
	if err != nil {
		return 0, nil, err
	}
	if m.Visibility != domain.VisibilityPublic || m.PublicToken == "" {
		return 0, nil, fmt.Errorf("%w: only public meetings have a booking link to share", domain.ErrInvalidInput)
	}
	if m.Status != domain.MeetingStatusOpen {
		return 0, nil, domain.ErrMeetingNotOpen
	}
	if len(emails) == 0 {
		return 0, nil, fmt.Errorf("%w: at least one email is required", domain.ErrInvalidInput)
	}
	if len(emails) > maxInvitationsPerRequest {
		return 0, nil, fmt.Errorf("%w: at most %d emails per request", domain.ErrInvalidInput, maxInvitationsPerRequest)
	}

	organizer := "The hiring team"
	if owner, err := s.userRepo.GetByID(ctx, ownerID); err == nil && owner != nil {
		if name := strings.TrimSpace(owner.Name); name != "" {
			organizer = name
		} else if owner.Email != "" {
			organizer = owner.Email
		}
	}
	bookingURL := s.publicBaseURL + "/public/meetings/" + m.PublicToken

	seen := make(map[string]bool, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(strings.ToLower(email))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		if !emailRegexp.MatchString(email) {
			failed = append(failed, email)
			continue
		}
		inv := &domain.MeetingInvitation{
			MeetingID: m.ID,
			Email:     email,
			SentAt:    time.Now(),
		}
		if err := s.invitationRepo.Create(ctx, inv); err != nil {
			s.logger.WarnContext(ctx, "failed to store invitation", "meeting_id", m.ID, "email", email, "err", err)
			failed = append(failed, email)
			continue
		}
		if s.emailService != nil {
			data := &domain.MeetingInvitationEmailData{
				Email:          email,
				OrganizerName:  organizer,
				MeetingTitle:   m.Title,
				BookingURL:     bookingURL,
				DurationMinute: m.DurationMinutes,
			}
			if err := s.emailService.SendMeetingInvitation(ctx, data); err != nil {
				s.logger.WarnContext(ctx, "failed to send invitation", "meeting_id", m.ID, "email", email, "err", err)
				failed = append(failed, email)
				continue
			}
		}
		sent++
	}
	s.logger.InfoContext(ctx, "invitations sent", "meeting_id", m.ID, "sent", sent, "failed", len(failed))
	return sent, failed, nil
}

func (s *invitationService) ListInvitations(ctx context.Context, ownerID, meetingID, search string, params domain.PaginationParams) ([]*domain.MeetingInvitation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.ownedMeeting(ctx, ownerID, meetingID); err != nil {
		return nil, 0, err
	}
	invs, total, err := s.invitationRepo.ListByMeetingID(ctx, meetingID, strings.TrimSpace(search), params)
	if err != nil {
		return nil, 0, fmt.Errorf("list meeting invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.MeetingInvitation{}
	}
	return invs, total, nil
}
