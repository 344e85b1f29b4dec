package services

import (
	"time"

	"interviewdesk/internal/domain"
)

// GenerateSlots expands a meeting's availability window into candidate slots.
//
// Every calendar date in [startDate, endDate] whose weekday is allowed gets slots
// starting at policy.StartHour and stepping by max(interval, bufferBefore+duration+bufferAfter)
// minutes; a slot is kept only if it ends by policy.EndHour. Output is ordered by start time and
// never overlaps. The function is pure: it does not touch any store and slot IDs are left empty.
func GenerateSlots(meetingID string, startDate, endDate time.Time, durationMinutes int, policy domain.SlotPolicy, loc *time.Location) ([]*domain.Slot, error) {
	if loc == nil {
		loc = time.UTC
	}
	if err := validateSlotInput(startDate, endDate, durationMinutes, policy); err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	stepMinutes := policy.IntervalMinutes
	if occupied := policy.BufferBeforeMinutes + durationMinutes + policy.BufferAfterMinutes; occupied > stepMinutes {
		stepMinutes = occupied
	}
	step := time.Duration(stepMinutes) * time.Minute

	first := calendarDate(startDate, loc)
	last := calendarDate(endDate, loc)

	var slots []*domain.Slot
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !policy.Allows(day.Weekday()) {
			continue
		}
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), policy.StartHour, 0, 0, 0, loc)
		dayEnd := time.Date(day.Year(), day.Month(), day.Day(), policy.EndHour, 0, 0, 0, loc)
		for start := dayStart; !start.Add(duration).After(dayEnd); start = start.Add(step) {
			slots = append(slots, &domain.Slot{
				MeetingID: meetingID,
				StartTime: start,
				EndTime:   start.Add(duration),
			})
		}
	}
	return slots, nil
}

func validateSlotInput(startDate, endDate time.Time, durationMinutes int, policy domain.SlotPolicy) error {
	verr := domain.NewValidationError()
	if durationMinutes <= 0 {
		verr.Add("duration_minutes", "must be positive")
	}
	if endDate.Before(startDate) {
		verr.Add("end_date", "must not be before start_date")
	}
	if policy.StartHour < 0 || policy.StartHour > 23 {
		verr.Add("start_hour", "must be between 0 and 23")
	}
	if policy.EndHour < 1 || policy.EndHour > 24 {
		verr.Add("end_hour", "must be between 1 and 24")
	}
	if policy.EndHour <= policy.StartHour {
		verr.Add("end_hour", "must be after start_hour")
	}
	if policy.IntervalMinutes <= 0 {
		verr.Add("interval_minutes", "must be positive")
	}
	if policy.BufferBeforeMinutes < 0 {
		verr.Add("buffer_before_minutes", "must not be negative")
	}
	if policy.BufferAfterMinutes < 0 {
		verr.Add("buffer_after_minutes", "must not be negative")
	}
	if len(policy.AllowedWeekdays) == 0 {
		verr.Add("allowed_weekdays", "must not be empty")
	}
	return verr.OrNil()
}

// calendarDate keeps t's own year/month/day and pins it to midnight in loc. Window dates are
// calendar labels, so they are not converted between zones.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
