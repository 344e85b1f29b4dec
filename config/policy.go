package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"interviewdesk/internal/domain"
)

type policyFile struct {
	BusinessHours businessHours `toml:"business_hours"`
}

type businessHours struct {
	StartHour           *int     `toml:"start_hour"`
	EndHour             *int     `toml:"end_hour"`
	IntervalMinutes     *int     `toml:"interval_minutes"`
	Weekdays            []string `toml:"weekdays"`
	BufferBeforeMinutes int      `toml:"buffer_before_minutes"`
	BufferAfterMinutes  int      `toml:"buffer_after_minutes"`
}

// LoadSlotPolicy reads the business-hours template from a TOML file. An empty path returns the
// default policy. Keys missing from the file keep their defaults.
func LoadSlotPolicy(path string) (domain.SlotPolicy, error) {
	policy := domain.DefaultSlotPolicy()
	if path == "" {
		return policy, nil
	}
	var f policyFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return policy, fmt.Errorf("read slot policy %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return policy, fmt.Errorf("slot policy %s: unknown keys %v", path, undecoded)
	}
	return f.BusinessHours.apply(policy)
}

// ParseSlotPolicy decodes a TOML document; used by tests and tools that embed the template.
func ParseSlotPolicy(data string) (domain.SlotPolicy, error) {
	var f policyFile
	if _, err := toml.Decode(data, &f); err != nil {
		return domain.DefaultSlotPolicy(), fmt.Errorf("parse slot policy: %w", err)
	}
	return f.BusinessHours.apply(domain.DefaultSlotPolicy())
}

func (b businessHours) apply(policy domain.SlotPolicy) (domain.SlotPolicy, error) {
	if b.StartHour != nil {
		policy.StartHour = *b.StartHour
	}
	if b.EndHour != nil {
		policy.EndHour = *b.EndHour
	}
	if b.IntervalMinutes != nil {
		policy.IntervalMinutes = *b.IntervalMinutes
	}
	policy.BufferBeforeMinutes = b.BufferBeforeMinutes
	policy.BufferAfterMinutes = b.BufferAfterMinutes
	if b.Weekdays != nil {
		days := make([]time.Weekday, 0, len(b.Weekdays))
		for _, name := range b.Weekdays {
			d, err := domain.ParseWeekday(name)
			if err != nil {
				return policy, fmt.Errorf("slot policy: %w", err)
			}
			days = append(days, d)
		}
		policy.AllowedWeekdays = days
	}

	verr := domain.NewValidationError()
	if policy.StartHour < 0 || policy.StartHour > 23 {
		verr.Add("start_hour", "must be between 0 and 23")
	}
	if policy.EndHour <= policy.StartHour || policy.EndHour > 24 {
		verr.Add("end_hour", "must be after start_hour and at most 24")
	}
	if policy.IntervalMinutes <= 0 {
		verr.Add("interval_minutes", "must be positive")
	}
	if policy.BufferBeforeMinutes < 0 || policy.BufferAfterMinutes < 0 {
		verr.Add("buffers", "must not be negative")
	}
	if len(policy.AllowedWeekdays) == 0 {
		verr.Add("weekdays", "must not be empty")
	}
	if err := verr.OrNil(); err != nil {
		return policy, err
	}
	return policy, nil
}
