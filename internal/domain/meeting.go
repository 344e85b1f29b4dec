package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MeetingStatus is the lifecycle state of a Meeting.
type MeetingStatus string

const (
	MeetingStatusDraft     MeetingStatus = "draft"
	MeetingStatusOpen      MeetingStatus = "open"
	MeetingStatusClosed    MeetingStatus = "closed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// meetingTransitions lists the legal moves out of each state. Missing keys are terminal.
var meetingTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusDraft:  {MeetingStatusOpen, MeetingStatusCancelled},
	MeetingStatusOpen:   {MeetingStatusClosed, MeetingStatusCancelled},
	MeetingStatusClosed: {MeetingStatusCancelled},
}

// Valid reports whether s is a known meeting status.
func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingStatusDraft, MeetingStatusOpen, MeetingStatusClosed, MeetingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s MeetingStatus) CanTransitionTo(next MeetingStatus) bool {
	for _, t := range meetingTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// CanGenerateSlots reports whether slots may be (re)generated in this state.
func (s MeetingStatus) CanGenerateSlots() bool {
	return s == MeetingStatusDraft || s == MeetingStatusOpen
}

// Visibility controls whether a meeting can be reached through its public link.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Meeting is an organizer's bookable activity template with an availability window.
// swagger:model Meeting
type Meeting struct {
	ID                  string        `json:"id"`
	OwnerID             string        `json:"owner_id"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	DurationMinutes     int           `json:"duration_minutes"`
	Timezone            string        `json:"timezone"`
	Status              MeetingStatus `json:"status"`
	StartDate           time.Time     `json:"start_date"`
	EndDate             time.Time     `json:"end_date"`
	BufferBeforeMinutes int           `json:"buffer_before_minutes"`
	BufferAfterMinutes  int           `json:"buffer_after_minutes"`
	MaxParticipants     int           `json:"max_participants"`
	Visibility          Visibility    `json:"visibility"`
	ApprovalRequired    bool          `json:"approval_required"`
	AllowCancellation   bool          `json:"allow_cancellation"`
	PublicToken         string        `json:"public_token,omitempty"`
	CancelReason        string        `json:"cancel_reason,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Transition moves the meeting to next or returns ErrIllegalStateTransition.
func (m *Meeting) Transition(next MeetingStatus) error {
	if !m.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: meeting %s -> %s", ErrIllegalStateTransition, m.Status, next)
	}
	m.Status = next
	return nil
}

// Location resolves the meeting's timezone label. Empty means UTC.
func (m *Meeting) Location() (*time.Location, error) {
	if strings.TrimSpace(m.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(m.Timezone)
}

// MeetingConfig is the organizer-supplied input for creating a meeting.
type MeetingConfig struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	DurationMinutes     int        `json:"duration_minutes"`
	Timezone            string     `json:"timezone"`
	StartDate           time.Time  `json:"start_date"`
	EndDate             time.Time  `json:"end_date"`
	BufferBeforeMinutes int        `json:"buffer_before_minutes"`
	BufferAfterMinutes  int        `json:"buffer_after_minutes"`
	MaxParticipants     int        `json:"max_participants"`
	Visibility          Visibility `json:"visibility"`
	ApprovalRequired    bool       `json:"approval_required"`
	AllowCancellation   bool       `json:"allow_cancellation"`
}

// Validate checks the config and normalizes defaults (visibility, timezone).
func (c *MeetingConfig) Validate() error {
	verr := NewValidationError()
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		verr.Add("title", "is required")
	}
	if c.DurationMinutes <= 0 {
		verr.Add("duration_minutes", "must be positive")
	}
	if c.StartDate.IsZero() {
		verr.Add("start_date", "is required")
	}
	if c.EndDate.IsZero() {
		verr.Add("end_date", "is required")
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		verr.Add("end_date", "must not be before start_date")
	}
	if c.BufferBeforeMinutes < 0 {
		verr.Add("buffer_before_minutes", "must not be negative")
	}
	if c.BufferAfterMinutes < 0 {
		verr.Add("buffer_after_minutes", "must not be negative")
	}
	if c.MaxParticipants < 0 {
		verr.Add("max_participants", "must not be negative")
	}
	switch c.Visibility {
	case "":
		c.Visibility = VisibilityPrivate
	case VisibilityPublic, VisibilityPrivate:
	default:
		verr.Add("visibility", "must be public or private")
	}
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" {
		c.Timezone = "UTC"
	} else if _, err := time.LoadLocation(c.Timezone); err != nil {
		verr.Add("timezone", "unknown timezone")
	}
	return verr.OrNil()
}

// MeetingPatch holds optional attribute edits. Nil fields are unchanged.
type MeetingPatch struct {
	Title               *string     `json:"title"`
	Description         *string     `json:"description"`
	DurationMinutes     *int        `json:"duration_minutes"`
	Timezone            *string     `json:"timezone"`
	StartDate           *time.Time  `json:"start_date"`
	EndDate             *time.Time  `json:"end_date"`
	BufferBeforeMinutes *int        `json:"buffer_before_minutes"`
	BufferAfterMinutes  *int        `json:"buffer_after_minutes"`
	MaxParticipants     *int        `json:"max_participants"`
	Visibility          *Visibility `json:"visibility"`
	ApprovalRequired    *bool       `json:"approval_required"`
	AllowCancellation   *bool       `json:"allow_cancellation"`
}

// TouchesWindow reports whether the patch edits anything slots were generated from.
func (p MeetingPatch) TouchesWindow() bool {
	return p.DurationMinutes != nil || p.Timezone != nil || p.StartDate != nil || p.EndDate != nil ||
		p.BufferBeforeMinutes != nil || p.BufferAfterMinutes != nil
}

// Apply copies the set fields onto m and validates the result.
func (p MeetingPatch) Apply(m *Meeting) error {
	cfg := MeetingConfig{
		Title:               m.Title,
		Description:         m.Description,
		DurationMinutes:     m.DurationMinutes,
		Timezone:            m.Timezone,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		BufferBeforeMinutes: m.BufferBeforeMinutes,
		BufferAfterMinutes:  m.BufferAfterMinutes,
		MaxParticipants:     m.MaxParticipants,
		Visibility:          m.Visibility,
		ApprovalRequired:    m.ApprovalRequired,
		AllowCancellation:   m.AllowCancellation,
	}
	if p.Title != nil {
		cfg.Title = *p.Title
	}
	if p.Description != nil {
		cfg.Description = *p.Description
	}
	if p.DurationMinutes != nil {
		cfg.DurationMinutes = *p.DurationMinutes
	}
	if p.Timezone != nil {
		cfg.Timezone = *p.Timezone
	}
	if p.StartDate != nil {
		cfg.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		cfg.EndDate = *p.EndDate
	}
	if p.BufferBeforeMinutes != nil {
		cfg.BufferBeforeMinutes = *p.BufferBeforeMinutes
	}
	if p.BufferAfterMinutes != nil {
		cfg.BufferAfterMinutes = *p.BufferAfterMinutes
	}
	if p.MaxParticipants != nil {
		cfg.MaxParticipants = *p.MaxParticipants
	}
	if p.Visibility != nil {
		cfg.Visibility = *p.Visibility
	}
	if p.ApprovalRequired != nil {
		cfg.ApprovalRequired = *p.ApprovalRequired
	}
	if p.AllowCancellation != nil {
		cfg.AllowCancellation = *p.AllowCancellation
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.Title = cfg.Title
	m.Description = cfg.Description
	m.DurationMinutes = cfg.DurationMinutes
	m.Timezone = cfg.Timezone
	m.StartDate = cfg.StartDate
	m.EndDate = cfg.EndDate
	m.BufferBeforeMinutes = cfg.BufferBeforeMinutes
	m.BufferAfterMinutes = cfg.BufferAfterMinutes
	m.MaxParticipants = cfg.MaxParticipants
	m.Visibility = cfg.Visibility
	m.ApprovalRequired = cfg.ApprovalRequired
	m.AllowCancellation = cfg.AllowCancellation
	return nil
}

// MeetingRepository defines the interface for meeting storage.
type MeetingRepository interface {
	Create(ctx context.Context, m *Meeting) error
	GetByID(ctx context.Context, id string) (*Meeting, error)
	GetByPublicToken(ctx context.Context, token string) (*Meeting, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Meeting, error)
	// Update writes every mutable attribute of m.
	Update(ctx context.Context, m *Meeting) error
	// UpdateStatus sets status only if the stored status still equals from; ErrConflict otherwise.
	UpdateStatus(ctx context.Context, id string, from, to MeetingStatus, reason string) error
	// Delete removes the meeting together with its slots and bookings.
	Delete(ctx context.Context, id string) error
}
