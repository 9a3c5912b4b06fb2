package schedule

import "time"

// LunchLabel is the display label of the lunch placeholder slot.
const LunchLabel = "ALMOÇO"

// TimeSlot is one candidate appointment start time within a day.
type TimeSlot struct {
	Time    string `json:"time"` // "HH:MM", canonical equality key
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	IsLunch bool   `json:"is_lunch"`
	Label   string `json:"label,omitempty"`
}

// Minutes returns the slot start as minutes since midnight.
func (s TimeSlot) Minutes() int {
	return s.Hour*60 + s.Minute
}

// GenerateOptions controls optional generator output.
type GenerateOptions struct {
	// IncludeLunchPlaceholder emits one non-bookable slot at the lunch start
	// instead of silently skipping the break.
	IncludeLunchPlaceholder bool

	// SkipInactiveDays makes SlotsForDate return no slots for weekdays
	// missing from the config's ActiveDays.
	SkipInactiveDays bool
}

func newSlot(c Clock) TimeSlot {
	return TimeSlot{Time: c.String(), Hour: c.Hour(), Minute: c.Minute()}
}

// GenerateTimeSlots returns the day's slots for cfg in increasing order.
//
// Slots start at the work start time and advance by the appointment interval
// while the start is before the work end time. A cursor landing inside
// [lunchStart, lunchEnd) jumps straight to lunchEnd.
func GenerateTimeSlots(cfg Config, opts GenerateOptions) ([]TimeSlot, error) {
	w, err := cfg.parse()
	if err != nil {
		return nil, err
	}

	slots := make([]TimeSlot, 0, int(w.end-w.start)/w.interval+2)
	lunchEmitted := false
	for cursor := w.start; cursor < w.end; {
		if w.hasLunch && cursor >= w.lunchStart && cursor < w.lunchEnd {
			if opts.IncludeLunchPlaceholder && !lunchEmitted {
				lunch := newSlot(w.lunchStart)
				lunch.IsLunch = true
				lunch.Label = LunchLabel
				slots = append(slots, lunch)
				lunchEmitted = true
			}
			cursor = w.lunchEnd
			continue
		}
		slots = append(slots, newSlot(cursor))
		cursor += Clock(w.interval)
	}
	return slots, nil
}

// SlotsForDate generates slots for a specific calendar date. With
// SkipInactiveDays, weekdays the clinic does not schedule on yield no slots.
func SlotsForDate(cfg Config, date time.Time, opts GenerateOptions) ([]TimeSlot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.SkipInactiveDays && !cfg.IsActiveDay(date.Weekday()) {
		return []TimeSlot{}, nil
	}
	return GenerateTimeSlots(cfg, opts)
}

// Bookable drops lunch placeholders.
func Bookable(slots []TimeSlot) []TimeSlot {
	out := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		if !s.IsLunch {
			out = append(out, s)
		}
	}
	return out
}
