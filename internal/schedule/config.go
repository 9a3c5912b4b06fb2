// Package schedule holds a clinic's agenda configuration and the pure rules
// built on it: time-slot generation, appointment date validation and
// configuration diffing.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("schedule: invalid config")

// Field names a configurable agenda key. The string value is the key used by
// the clinic-settings store.
type Field string

const (
	FieldWorkStartTime Field = "workStartTime"
	FieldWorkEndTime   Field = "workEndTime"
	FieldInterval      Field = "appointmentIntervalMinutes"
	FieldLunchStart    Field = "lunchStartTime"
	FieldLunchEnd      Field = "lunchEndTime"
	FieldActiveDays    Field = "activeDays"
)

var allFields = []Field{
	FieldWorkStartTime,
	FieldWorkEndTime,
	FieldInterval,
	FieldLunchStart,
	FieldLunchEnd,
	FieldActiveDays,
}

// AllFields returns every configurable field in canonical order.
func AllFields() []Field {
	return slices.Clone(allFields)
}

// ParseField maps a settings key to its Field.
func ParseField(key string) (Field, bool) {
	for _, f := range allFields {
		if string(f) == key {
			return f, true
		}
	}
	return "", false
}

// Config is a clinic's agenda configuration.
type Config struct {
	ClinicID                   string `json:"clinic_id"`
	WorkStartTime              string `json:"work_start_time"` // "08:00"
	WorkEndTime                string `json:"work_end_time"`   // "18:30"
	AppointmentIntervalMinutes int    `json:"appointment_interval_minutes"`
	// Lunch bounds are optional; both empty means no lunch break.
	LunchStartTime string `json:"lunch_start_time,omitempty"`
	LunchEndTime   string `json:"lunch_end_time,omitempty"`
	// ActiveDays holds weekday indices, 0 = Sunday ... 6 = Saturday.
	ActiveDays []int `json:"active_days"`
}

// Default values applied when a clinic has no stored configuration.
const (
	DefaultWorkStartTime   = "08:00"
	DefaultWorkEndTime     = "18:30"
	DefaultIntervalMinutes = 40
	DefaultLunchStartTime  = "12:00"
	DefaultLunchEndTime    = "13:00"
)

// DefaultActiveDays returns the default open weekdays.
func DefaultActiveDays() []int {
	return []int{0, 1, 2, 3, 4}
}

// DefaultConfig returns the hard-coded fallback configuration for a clinic.
func DefaultConfig(clinicID string) Config {
	return Config{
		ClinicID:                   clinicID,
		WorkStartTime:              DefaultWorkStartTime,
		WorkEndTime:                DefaultWorkEndTime,
		AppointmentIntervalMinutes: DefaultIntervalMinutes,
		LunchStartTime:             DefaultLunchStartTime,
		LunchEndTime:               DefaultLunchEndTime,
		ActiveDays:                 DefaultActiveDays(),
	}
}

// Clone returns a deep copy so callers can mutate ActiveDays freely.
func (c Config) Clone() Config {
	c.ActiveDays = slices.Clone(c.ActiveDays)
	return c
}

// HasLunch reports whether both lunch bounds are set.
func (c Config) HasLunch() bool {
	return c.LunchStartTime != "" && c.LunchEndTime != ""
}

// IsActiveDay reports whether the clinic schedules on the given weekday.
func (c Config) IsActiveDay(day time.Weekday) bool {
	return slices.Contains(c.ActiveDays, int(day))
}

// window is the parsed, validated form of a Config.
type window struct {
	start, end           Clock
	interval             int
	lunchStart, lunchEnd Clock
	hasLunch             bool
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	_, err := c.parse()
	return err
}

func (c Config) parse() (window, error) {
	var w window
	if c.AppointmentIntervalMinutes <= 0 {
		return w, fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidConfig, c.AppointmentIntervalMinutes)
	}
	w.interval = c.AppointmentIntervalMinutes

	var err error
	if w.start, err = ParseClock(c.WorkStartTime); err != nil {
		return w, fmt.Errorf("%w: work start: %v", ErrInvalidConfig, err)
	}
	if w.end, err = ParseClock(c.WorkEndTime); err != nil {
		return w, fmt.Errorf("%w: work end: %v", ErrInvalidConfig, err)
	}
	if w.start >= w.end {
		return w, fmt.Errorf("%w: work start %s must be before end %s", ErrInvalidConfig, w.start, w.end)
	}

	switch {
	case c.LunchStartTime == "" && c.LunchEndTime == "":
	case c.LunchStartTime == "" || c.LunchEndTime == "":
		return w, fmt.Errorf("%w: lunch start and end must be set together", ErrInvalidConfig)
	default:
		if w.lunchStart, err = ParseClock(c.LunchStartTime); err != nil {
			return w, fmt.Errorf("%w: lunch start: %v", ErrInvalidConfig, err)
		}
		if w.lunchEnd, err = ParseClock(c.LunchEndTime); err != nil {
			return w, fmt.Errorf("%w: lunch end: %v", ErrInvalidConfig, err)
		}
		if w.lunchStart >= w.lunchEnd {
			return w, fmt.Errorf("%w: lunch start %s must be before end %s", ErrInvalidConfig, w.lunchStart, w.lunchEnd)
		}
		if w.lunchStart < w.start || w.lunchEnd > w.end {
			return w, fmt.Errorf("%w: lunch %s-%s outside work window %s-%s", ErrInvalidConfig, w.lunchStart, w.lunchEnd, w.start, w.end)
		}
		w.hasLunch = true
	}

	for _, d := range c.ActiveDays {
		if d < 0 || d > 6 {
			return w, fmt.Errorf("%w: active day %d out of range", ErrInvalidConfig, d)
		}
	}
	return w, nil
}

// NormalizeActiveDays returns the weekdays sorted and de-duplicated.
func NormalizeActiveDays(days []int) []int {
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}
