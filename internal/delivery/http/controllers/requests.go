package controllers

import (
	"fmt"
	"strings"
	"time"

	"interviewdesk/internal/domain"
)

// dateLayout is the wire format of availability window dates. Dates are calendar labels in the
// meeting's timezone and carry no clock time.
const dateLayout = time.DateOnly

func parseDate(field, v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

// CreateMeetingRequest is the request body for POST /meetings.
type CreateMeetingRequest struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	DurationMinutes     int    `json:"duration_minutes"`
	Timezone            string `json:"timezone"`
	StartDate           string `json:"start_date" example:"2026-03-02"`
	EndDate             string `json:"end_date" example:"2026-03-06"`
	BufferBeforeMinutes int    `json:"buffer_before_minutes"`
	BufferAfterMinutes  int    `json:"buffer_after_minutes"`
	MaxParticipants     int    `json:"max_participants"`
	Visibility          string `json:"visibility" enums:"public,private"`
	ApprovalRequired    bool   `json:"approval_required"`
	AllowCancellation   bool   `json:"allow_cancellation"`
}

// Validate implements Validator. Field rules beyond date syntax are enforced by the service.
func (c CreateMeetingRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if _, err := parseDate("start_date", c.StartDate); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := parseDate("end_date", c.EndDate); err != nil {
		errs = append(errs, err.Error())
	}
	return errs
}

func (c CreateMeetingRequest) toConfig() domain.MeetingConfig {
	start, _ := parseDate("start_date", c.StartDate)
	end, _ := parseDate("end_date", c.EndDate)
	return domain.MeetingConfig{
		Title:               c.Title,
		Description:         c.Description,
		DurationMinutes:     c.DurationMinutes,
		Timezone:            c.Timezone,
		StartDate:           start,
		EndDate:             end,
		BufferBeforeMinutes: c.BufferBeforeMinutes,
		BufferAfterMinutes:  c.BufferAfterMinutes,
		MaxParticipants:     c.MaxParticipants,
		Visibility:          domain.Visibility(strings.ToLower(strings.TrimSpace(c.Visibility))),
		ApprovalRequired:    c.ApprovalRequired,
		AllowCancellation:   c.AllowCancellation,
	}
}

// UpdateMeetingRequest is the request body for PATCH /meetings/{meetingID}. Omitted fields are unchanged.
type UpdateMeetingRequest struct {
	Title               *string `json:"title"`
	Description         *string `json:"description"`
	DurationMinutes     *int    `json:"duration_minutes"`
	Timezone            *string `json:"timezone"`
	StartDate           *string `json:"start_date"`
	EndDate             *string `json:"end_date"`
	BufferBeforeMinutes *int    `json:"buffer_before_minutes"`
	BufferAfterMinutes  *int    `json:"buffer_after_minutes"`
	MaxParticipants     *int    `json:"max_participants"`
	Visibility          *string `json:"visibility"`
	ApprovalRequired    *bool   `json:"approval_required"`
	AllowCancellation   *bool   `json:"allow_cancellation"`
}

// Validate implements Validator.
func (u UpdateMeetingRequest) Validate() []string {
	var errs []string
	if u.StartDate != nil {
		if _, err := parseDate("start_date", *u.StartDate); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if u.EndDate != nil {
		if _, err := parseDate("end_date", *u.EndDate); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func (u UpdateMeetingRequest) toPatch() domain.MeetingPatch {
	patch := domain.MeetingPatch{
		Title:               u.Title,
		Description:         u.Description,
		DurationMinutes:     u.DurationMinutes,
		Timezone:            u.Timezone,
		BufferBeforeMinutes: u.BufferBeforeMinutes,
		BufferAfterMinutes:  u.BufferAfterMinutes,
		MaxParticipants:     u.MaxParticipants,
		ApprovalRequired:    u.ApprovalRequired,
		AllowCancellation:   u.AllowCancellation,
	}
	if u.StartDate != nil {
		t, _ := parseDate("start_date", *u.StartDate)
		patch.StartDate = &t
	}
	if u.EndDate != nil {
		t, _ := parseDate("end_date", *u.EndDate)
		patch.EndDate = &t
	}
	if u.Visibility != nil {
		v := domain.Visibility(strings.ToLower(strings.TrimSpace(*u.Visibility)))
		patch.Visibility = &v
	}
	return patch
}

// SlotPolicyRequest overrides the server's business-hours template for one generation run.
// Omitted fields keep the server default. An entirely empty request means no override.
type SlotPolicyRequest struct {
	StartHour           *int     `json:"start_hour"`
	EndHour             *int     `json:"end_hour"`
	IntervalMinutes     *int     `json:"interval_minutes"`
	Weekdays            []string `json:"weekdays" example:"mon,tue,wed"`
	BufferBeforeMinutes *int     `json:"buffer_before_minutes"`
	BufferAfterMinutes  *int     `json:"buffer_after_minutes"`
}

// Validate implements Validator.
func (p SlotPolicyRequest) Validate() []string {
	var errs []string
	for _, d := range p.Weekdays {
		if _, err := domain.ParseWeekday(d); err != nil {
			errs = append(errs, fmt.Sprintf("unknown weekday %q", d))
		}
	}
	return errs
}

func (p SlotPolicyRequest) empty() bool {
	return p.StartHour == nil && p.EndHour == nil && p.IntervalMinutes == nil && p.Weekdays == nil &&
		p.BufferBeforeMinutes == nil && p.BufferAfterMinutes == nil
}

// toPolicy merges the request onto base. It returns nil when nothing was overridden.
func (p SlotPolicyRequest) toPolicy(base domain.SlotPolicy) *domain.SlotPolicy {
	if p.empty() {
		return nil
	}
	policy := base
	policy.AllowedWeekdays = append([]time.Weekday(nil), base.AllowedWeekdays...)
	if p.StartHour != nil {
		policy.StartHour = *p.StartHour
	}
	if p.EndHour != nil {
		policy.EndHour = *p.EndHour
	}
	if p.IntervalMinutes != nil {
		policy.IntervalMinutes = *p.IntervalMinutes
	}
	if p.BufferBeforeMinutes != nil {
		policy.BufferBeforeMinutes = *p.BufferBeforeMinutes
	}
	if p.BufferAfterMinutes != nil {
		policy.BufferAfterMinutes = *p.BufferAfterMinutes
	}
	if p.Weekdays != nil {
		policy.AllowedWeekdays = make([]time.Weekday, 0, len(p.Weekdays))
		for _, name := range p.Weekdays {
			d, _ := domain.ParseWeekday(name)
			policy.AllowedWeekdays = append(policy.AllowedWeekdays, d)
		}
	}
	return &policy
}

// ReasonRequest is the optional body of cancel and reject actions.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// Validate implements Validator.
func (r ReasonRequest) Validate() []string {
	if len(r.Reason) > 500 {
		return []string{"reason must be at most 500 characters"}
	}
	return nil
}

// BookSlotRequest is the request body for POST /public/slots/{slotID}/book.
type BookSlotRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

// Validate implements Validator.
func (b BookSlotRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(b.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(b.Email) == "" {
		errs = append(errs, "email is required")
	}
	if len(b.Notes) > 2000 {
		errs = append(errs, "notes must be at most 2000 characters")
	}
	return errs
}

func (b BookSlotRequest) participant() domain.Participant {
	return domain.Participant{Name: b.Name, Email: b.Email, Phone: b.Phone, Notes: b.Notes}
}
