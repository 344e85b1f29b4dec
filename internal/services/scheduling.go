package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"interviewdesk/internal/domain"
)

const (
	defaultContextTimeout = 10 * time.Second
	compensationTimeout   = 5 * time.Second
	cascadeConcurrency    = 4
	cascadeRetries        = 3
)

// SchedulingOptions carries the policies and knobs of the scheduling service.
type SchedulingOptions struct {
	SlotPolicy     domain.SlotPolicy
	EditPolicy     domain.EditPolicy
	PublicBaseURL  string
	ContextTimeout time.Duration
}

type schedulingService struct {
	meetingRepo    domain.MeetingRepository
	slotRepo       domain.SlotRepository
	bookingRepo    domain.BookingRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	slotPolicy     domain.SlotPolicy
	editPolicy     domain.EditPolicy
	publicBaseURL  string
	contextTimeout time.Duration
	now            func() time.Time
	newID          func() string
	newToken       func() (string, error)
}

// NewSchedulingService creates the scheduling engine. emailService may be nil to disable mail.
func NewSchedulingService(
	meetingRepo domain.MeetingRepository,
	slotRepo domain.SlotRepository,
	bookingRepo domain.BookingRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	opts SchedulingOptions,
) domain.SchedulingService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ContextTimeout <= 0 {
		opts.ContextTimeout = defaultContextTimeout
	}
	if len(opts.SlotPolicy.AllowedWeekdays) == 0 {
		opts.SlotPolicy = domain.DefaultSlotPolicy()
	}
	return &schedulingService{
		meetingRepo:    meetingRepo,
		slotRepo:       slotRepo,
		bookingRepo:    bookingRepo,
		emailService:   emailService,
		logger:         logger,
		slotPolicy:     opts.SlotPolicy,
		editPolicy:     opts.EditPolicy,
		publicBaseURL:  strings.TrimSuffix(opts.PublicBaseURL, "/"),
		contextTimeout: opts.ContextTimeout,
		now:            time.Now,
		newID:          uuid.NewString,
		newToken:       generateToken,
	}
}

func storeErr(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}

func (s *schedulingService) CreateMeeting(ctx context.Context, ownerID string, cfg domain.MeetingConfig) (*domain.Meeting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if ownerID == "" {
		return nil, fmt.Errorf("%w: meeting owner is required", domain.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	m := &domain.Meeting{
		OwnerID:             ownerID,
		Title:               cfg.Title,
		Description:         strings.TrimSpace(cfg.Description),
		DurationMinutes:     cfg.DurationMinutes,
		Timezone:            cfg.Timezone,
		Status:              domain.MeetingStatusDraft,
		StartDate:           cfg.StartDate,
		EndDate:             cfg.EndDate,
		BufferBeforeMinutes: cfg.BufferBeforeMinutes,
		BufferAfterMinutes:  cfg.BufferAfterMinutes,
		MaxParticipants:     cfg.MaxParticipants,
		Visibility:          cfg.Visibility,
		ApprovalRequired:    cfg.ApprovalRequired,
		AllowCancellation:   cfg.AllowCancellation,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.syncPublicToken(m); err != nil {
		return nil, err
	}
	if err := s.meetingRepo.Create(ctx, m); err != nil {
		return nil, storeErr("create meeting", err)
	}
	s.logger.InfoContext(ctx, "meeting created", "meeting_id", m.ID, "owner_id", ownerID, "visibility", m.Visibility)
	return m, nil
}

// syncPublicToken makes sure a public meeting carries a link token and a private one does not.
func (s *schedulingService) syncPublicToken(m *domain.Meeting) error {
	if m.Visibility != domain.VisibilityPublic {
		m.PublicToken = ""
		return nil
	}
	if m.PublicToken != "" {
		return nil
	}
	token, err := s.newToken()
	if err != nil {
		return fmt.Errorf("generate public token: %w", err)
	}
	m.PublicToken = token
	return nil
}

// loadOwnedMeeting fetches a meeting and checks that ownerID owns it.
func (s *schedulingService) loadOwnedMeeting(ctx context.Context, ownerID, meetingID string) (*domain.Meeting, error) {
	m, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get meeting", err)
	}
	if m.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return m, nil
}

func (s *schedulingService) GetMeeting(ctx context.Context, ownerID, meetingID string) (*domain.Meeting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.loadOwnedMeeting(ctx, ownerID, meetingID)
}

func (s *schedulingService) ListMeetings(ctx context.Context, ownerID string) ([]*domain.Meeting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	meetings, err := s.meetingRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list meetings", err)
	}
	if meetings == nil {
		meetings = []*domain.Meeting{}
	}
	return meetings, nil
}

func (s *schedulingService) UpdateMeeting(ctx context.Context, ownerID, meetingID string, patch domain.MeetingPatch) (*domain.Meeting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.loadOwnedMeeting(ctx, ownerID, meetingID)
	if err != nil {
		return nil, err
	}
	switch m.Status {
	case domain.MeetingStatusDraft:
	case domain.MeetingStatusOpen:
		if !s.editPolicy.AllowEditAfterOpen {
			return nil, fmt.Errorf("%w: meeting can only be edited in draft", domain.ErrIllegalStateTransition)
		}
		if patch.TouchesWindow() {
			return nil, fmt.Errorf("%w: duration and availability window are fixed once open", domain.ErrIllegalStateTransition)
		}
	default:
		return nil, fmt.Errorf("%w: meeting is %s", domain.ErrIllegalStateTransition, m.Status)
	}

	if err := patch.Apply(m); err != nil {
		return nil, err
	}
	if err := s.syncPublicToken(m); err != nil {
		return nil, err
	}
	m.UpdatedAt = s.now()
	if err := s.meetingRepo.Update(ctx, m); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: meeting status changed concurrently", domain.ErrIllegalStateTransition)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("update meeting", err)
	}
	// Slots generated for the old window or duration are dropped; opening regenerates them.
	if m.Status == domain.MeetingStatusDraft && patch.TouchesWindow() {
		removed, err := s.slotRepo.DeleteFreeByMeetingID(ctx, m.ID)
		if err != nil {
			return nil, storeErr("delete stale slots", err)
		}
		if removed > 0 {
			s.logger.InfoContext(ctx, "stale slots removed", "meeting_id", m.ID, "removed", removed)
		}
	}
	return m, nil
}

// effectivePolicy picks the request policy or the configured template, widened by the meeting's buffers.
func (s *schedulingService) effectivePolicy(m *domain.Meeting, override *domain.SlotPolicy) domain.SlotPolicy {
	policy := s.slotPolicy
	if override != nil {
		policy = *override
	}
	policy.BufferBeforeMinutes = max(policy.BufferBeforeMinutes, m.BufferBeforeMinutes)
	policy.BufferAfterMinutes = max(policy.BufferAfterMinutes, m.BufferAfterMinutes)
	return policy
}

// generateAndStore runs the generator for m and persists the result idempotently.
func (s *schedulingService) generateAndStore(ctx context.Context, m *domain.Meeting, override *domain.SlotPolicy) (int, error) {
	loc, err := m.Location()
	if err != nil {
		return 0, fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidInput, m.Timezone)
	}
	slots, err := GenerateSlots(m.ID, m.StartDate, m.EndDate, m.DurationMinutes, s.effectivePolicy(m, override), loc)
	if err != nil {
		return 0, err
	}
	existing, err := s.slotRepo.ListByMeetingID(ctx, m.ID)
	if err != nil {
		return 0, storeErr("list slots", err)
	}
	slots = withoutOverlaps(slots, existing)
	if len(slots) == 0 {
		return 0, nil
	}
	now := s.now()
	for _, sl := range slots {
		sl.ID = s.newID()
		sl.CreatedAt = now
	}
	created, err := s.slotRepo.CreateMany(ctx, slots)
	if err != nil {
		return 0, storeErr("create slots", err)
	}
	return created, nil
}

// withoutOverlaps drops candidates that intersect a stored slot, so a regeneration under a different
// policy only fills the gaps.
func withoutOverlaps(candidates, existing []*domain.Slot) []*domain.Slot {
	if len(existing) == 0 {
		return candidates
	}
	kept := candidates[:0]
	for _, c := range candidates {
		clash := false
		for _, e := range existing {
			if c.Overlaps(e) {
				clash = true
				break
			}
		}
		if !clash {
			kept = append(kept, c)
		}
	}
	return kept
}

func (s *schedulingService) GenerateSlots(ctx context.Context, ownerID, meetingID string, policy *domain.SlotPolicy) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.loadOwnedMeeting(ctx, ownerID, meetingID)
	if err != nil {
		return 0, err
	}
	if !m.Status.CanGenerateSlots() {
		return 0, fmt.Errorf("%w: cannot generate slots while meeting is %s", domain.ErrIllegalStateTransition, m.Status)
	}
	created, err := s.generateAndStore(ctx, m, policy)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "slots generated", "meeting_id", m.ID, "created", created)
	return created, nil
}

// moveMeeting performs a guarded status change; a lost compare-and-set reports the transition as illegal.
func (s *schedulingService) moveMeeting(ctx context.Context, m *domain.Meeting, to domain.MeetingStatus, reason string) error {
	from := m.Status
	if err := m.Transition(to); err != nil {
		return err
	}
	if err := s.meetingRepo.UpdateStatus(ctx, m.ID, from, to, reason); err != nil {
		m.Status = from
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("%w: meeting status changed concurrently", domain.ErrIllegalStateTransition)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return storeErr("update meeting status", err)
	}
	m.CancelReason = reason
	m.UpdatedAt = s.now()
	return nil
}

func (s *schedulingService) OpenMeeting(ctx context.Context, ownerID, meetingID string, policy *domain.SlotPolicy) (*domain.Meeting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.loadOwnedMeeting(ctx, ownerID, meetingID)
	if err != nil {
		return nil, err
	}
	if !m.Status.CanTransitionTo(domain.MeetingStatusOpen) {
		return nil, fmt.Errorf("%w: meeting %s -> %s", domain.ErrIllegalStateTransition, m.Status, domain.MeetingStatusOpen)
	}

	count, err := s.slotRepo.CountByMeetingID(ctx, m.ID)
	if err != nil {
		return nil, storeErr("count slots", err)
	}
	if count == 0 {
		created, err := s.generateAndStore(ctx, m, policy)
		if err != nil {
			return nil, err
		}
		if created == 0 {
			verr := domain.NewValidationError()
			verr.Add("availability", "window produces no bookable slots")
			return nil, verr
		}
	}

	if err := s.moveMeeting(ctx, m, domain.MeetingStatusOpen, ""); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "meeting opened", "meeting_id", m.ID)
	return m, nil
}

func (s *schedulingService) CloseMeeting(ctx context.Context, ownerID, meetingID string) (*domain.Meeting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.loadOwnedMeeting(ctx, ownerID, meetingID)
	if err != nil {
		return nil, err
	}
	if err := s.moveMeeting(ctx, m, domain.MeetingStatusClosed, ""); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "meeting closed", "meeting_id", m.ID)
	return m, nil
}

func (s *schedulingService) CancelMeeting(ctx context.Context, ownerID, meetingID, reason string) (*domain.Meeting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.loadOwnedMeeting(ctx, ownerID, meetingID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if err := s.moveMeeting(ctx, m, domain.MeetingStatusCancelled, reason); err != nil {
		return nil, err
	}
	if err := s.cancelActiveBookings(ctx, m, reason); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "meeting cancelled", "meeting_id", m.ID)
	return m, nil
}

// cancelActiveBookings forces every active booking of m to cancelled, freeing its slot.
func (s *schedulingService) cancelActiveBookings(ctx context.Context, m *domain.Meeting, reason string) error {
	bookings, err := s.bookingRepo.ListActiveByMeetingID(ctx, m.ID)
	if err != nil {
		return storeErr("list active bookings", err)
	}
	if reason == "" {
		reason = "meeting cancelled"
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cascadeConcurrency)
	for _, b := range bookings {
		g.Go(func() error {
			if err := s.forceCancel(gctx, m, b, reason); err != nil {
				s.logger.ErrorContext(gctx, "cascade cancel failed", "meeting_id", m.ID, "booking_id", b.ID, "err", err)
				return fmt.Errorf("cancel booking %s: %w", b.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// forceCancel cancels b, re-reading it after a lost compare-and-set until it is cancelled or has
// reached another inactive status.
func (s *schedulingService) forceCancel(ctx context.Context, m *domain.Meeting, b *domain.Booking, reason string) error {
	for attempt := 0; ; attempt++ {
		_, err := s.cancel(ctx, m, b, reason)
		if err == nil || !errors.Is(err, domain.ErrIllegalStateTransition) {
			return err
		}
		if !b.Status.IsActive() {
			return nil
		}
		if attempt == cascadeRetries {
			return err
		}
		current, gerr := s.bookingRepo.GetByID(ctx, b.ID)
		if gerr != nil {
			if errors.Is(gerr, domain.ErrNotFound) {
				return nil
			}
			return storeErr("get booking", gerr)
		}
		b = current
	}
}

func (s *schedulingService) DeleteMeeting(ctx context.Context, ownerID, meetingID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.loadOwnedMeeting(ctx, ownerID, meetingID)
	if err != nil {
		return err
	}
	active, err := s.bookingRepo.CountActiveByMeetingID(ctx, m.ID)
	if err != nil {
		return storeErr("count active bookings", err)
	}
	if active > 0 {
		return fmt.Errorf("%w: meeting has %d active bookings; cancel it first", domain.ErrIllegalStateTransition, active)
	}
	if err := s.meetingRepo.Delete(ctx, m.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return storeErr("delete meeting", err)
	}
	s.logger.InfoContext(ctx, "meeting deleted", "meeting_id", m.ID)
	return nil
}

func (s *schedulingService) ListSlots(ctx context.Context, ownerID, meetingID string) ([]*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.loadOwnedMeeting(ctx, ownerID, meetingID); err != nil {
		return nil, err
	}
	slots, err := s.slotRepo.ListByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, storeErr("list slots", err)
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}
	return slots, nil
}

func (s *schedulingService) ListBookings(ctx context.Context, ownerID, meetingID string, filter domain.BookingFilter, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.loadOwnedMeeting(ctx, ownerID, meetingID); err != nil {
		return nil, 0, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown booking status %q", domain.ErrInvalidInput, *filter.Status)
	}
	bookings, total, err := s.bookingRepo.ListByMeetingID(ctx, meetingID, filter, params)
	if err != nil {
		return nil, 0, storeErr("list bookings", err)
	}
	if bookings == nil {
		bookings = []*domain.Booking{}
	}
	return bookings, total, nil
}

func (s *schedulingService) ListAvailableSlots(ctx context.Context, meetingID string) ([]*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	m, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get meeting", err)
	}
	if m.Status != domain.MeetingStatusOpen {
		return nil, domain.ErrMeetingNotOpen
	}
	return s.availableSlots(ctx, meetingID)
}

func (s *schedulingService) availableSlots(ctx context.Context, meetingID string) ([]*domain.Slot, error) {
	slots, err := s.slotRepo.ListAvailableByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, storeErr("list available slots", err)
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}
	return slots, nil
}

func (s *schedulingService) GetMeetingByPublicLink(ctx context.Context, token string) (*domain.MeetingWithSlots, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNotFound
	}
	m, err := s.meetingRepo.GetByPublicToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get meeting by public token", err)
	}
	if m.Visibility != domain.VisibilityPublic {
		return nil, domain.ErrNotFound
	}
	slots := []*domain.Slot{}
	if m.Status == domain.MeetingStatusOpen {
		if slots, err = s.availableSlots(ctx, m.ID); err != nil {
			return nil, err
		}
	}
	return &domain.MeetingWithSlots{Meeting: m, Slots: slots}, nil
}
