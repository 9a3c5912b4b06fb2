package schedule

import "time"

// DateRejection names why a candidate appointment date was refused.
type DateRejection string

const (
	PastDate    DateRejection = "past_date"
	Weekend     DateRejection = "weekend"
	InactiveDay DateRejection = "inactive_day"
)

// Message returns a short user-facing explanation.
func (r DateRejection) Message() string {
	switch r {
	case PastDate:
		return "Appointments cannot be booked on past dates."
	case Weekend:
		return "Appointments cannot be booked on weekends."
	case InactiveDay:
		return "The clinic does not schedule appointments on this weekday."
	default:
		return ""
	}
}

// DateValidation is the result of validating an appointment date.
type DateValidation struct {
	Valid  bool          `json:"valid"`
	Reason DateRejection `json:"reason,omitempty"`
}

func rejected(r DateRejection) DateValidation {
	return DateValidation{Valid: false, Reason: r}
}

// ValidateAppointmentDate rejects dates before today's calendar day and
// Saturdays or Sundays. Calendar days are compared in candidate's location.
func ValidateAppointmentDate(candidate, now time.Time) DateValidation {
	if startOfDay(candidate).Before(startOfDay(now.In(candidate.Location()))) {
		return rejected(PastDate)
	}
	switch candidate.Weekday() {
	case time.Saturday, time.Sunday:
		return rejected(Weekend)
	}
	return DateValidation{Valid: true}
}

// ValidateAppointmentDate applies the generic date rules and then rejects
// weekdays missing from ActiveDays.
func (c Config) ValidateAppointmentDate(candidate, now time.Time) DateValidation {
	if res := ValidateAppointmentDate(candidate, now); !res.Valid {
		return res
	}
	if !c.IsActiveDay(candidate.Weekday()) {
		return rejected(InactiveDay)
	}
	return DateValidation{Valid: true}
}

// MinimumBookableDate returns local midnight of the day after now. Booking
// forms use it as the earliest selectable date.
func MinimumBookableDate(now time.Time) time.Time {
	return startOfDay(now).AddDate(0, 0, 1)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
