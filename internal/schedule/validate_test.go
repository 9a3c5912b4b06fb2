package schedule

import (
	"testing"
	"time"
)

func TestValidateAppointmentDate(t *testing.T) {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	if loc == nil {
		loc = time.UTC
	}
	// Monday 19 Oct 2026, mid-afternoon
	now := time.Date(2026, 10, 19, 15, 30, 0, 0, loc)

	tests := []struct {
		name      string
		candidate time.Time
		want      DateValidation
	}{
		{"today is allowed", time.Date(2026, 10, 19, 0, 0, 0, 0, loc), DateValidation{Valid: true}},
		{"tomorrow", time.Date(2026, 10, 20, 9, 0, 0, 0, loc), DateValidation{Valid: true}},
		{"yesterday", time.Date(2026, 10, 18, 23, 59, 0, 0, loc), DateValidation{Reason: PastDate}},
		{"last year weekday", time.Date(2025, 10, 20, 10, 0, 0, 0, loc), DateValidation{Reason: PastDate}},
		{"saturday", time.Date(2026, 10, 24, 10, 0, 0, 0, loc), DateValidation{Reason: Weekend}},
		{"sunday", time.Date(2026, 10, 25, 10, 0, 0, 0, loc), DateValidation{Reason: Weekend}},
		{"past saturday is past", time.Date(2026, 10, 17, 10, 0, 0, 0, loc), DateValidation{Reason: PastDate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateAppointmentDate(tt.candidate, now)
			if got != tt.want {
				t.Errorf("ValidateAppointmentDate(%s) = %+v, want %+v", tt.candidate.Format(time.DateOnly), got, tt.want)
			}
		})
	}
}

func TestValidateAppointmentDate_EveryWeekendRejected(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 365; i++ {
		d := day.AddDate(0, 0, i)
		res := ValidateAppointmentDate(d, now)
		isWeekend := d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
		if isWeekend && res.Reason != Weekend {
			t.Fatalf("%s: expected weekend rejection, got %+v", d.Format(time.DateOnly), res)
		}
		if !isWeekend && !res.Valid {
			t.Fatalf("%s: expected valid weekday, got %+v", d.Format(time.DateOnly), res)
		}
	}
}

func TestConfigValidateAppointmentDate_InactiveDay(t *testing.T) {
	cfg := DefaultConfig("c1")
	cfg.ActiveDays = []int{1, 2, 4, 5} // closed Wednesdays
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	wed := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	if got := cfg.ValidateAppointmentDate(wed, now); got.Reason != InactiveDay {
		t.Fatalf("expected inactive day rejection, got %+v", got)
	}
	thu := time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC)
	if got := cfg.ValidateAppointmentDate(thu, now); !got.Valid {
		t.Fatalf("expected thursday valid, got %+v", got)
	}
	sat := time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC)
	if got := cfg.ValidateAppointmentDate(sat, now); got.Reason != Weekend {
		t.Fatalf("expected weekend rejection before active-day check, got %+v", got)
	}
}

func TestMinimumBookableDate(t *testing.T) {
	now := time.Date(2026, 12, 31, 22, 15, 0, 0, time.UTC)
	got := MinimumBookableDate(now)
	want := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("MinimumBookableDate = %s, want %s", got, want)
	}
}

func TestDateRejectionMessage(t *testing.T) {
	for _, r := range []DateRejection{PastDate, Weekend, InactiveDay} {
		if r.Message() == "" {
			t.Errorf("expected message for %s", r)
		}
	}
	if DateRejection("other").Message() != "" {
		t.Error("expected empty message for unknown reason")
	}
}
