package agenda

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/clinic-agenda/internal/schedule"
)

// ErrNothingToSave is returned by UpdateConfig when no field changed.
var ErrNothingToSave = errors.New("agenda: nothing to save")

// Service answers booking and settings questions for a clinic.
type Service struct {
	cache *Cache
	loc   *time.Location
	now   func() time.Time

	enforceActiveDays bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithActiveDayGating rejects dates on weekdays missing from the clinic's
// active days. Off by default: only past dates and weekends are refused, so
// a clinic still on the default active days keeps its Friday slots.
func WithActiveDayGating(enabled bool) ServiceOption {
	return func(s *Service) {
		s.enforceActiveDays = enabled
	}
}

// NewService creates a Service. Calendar dates are interpreted in loc
// (UTC when nil).
func NewService(cache *Cache, loc *time.Location, opts ...ServiceOption) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{cache: cache, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone calendar dates are interpreted in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Config returns the clinic's agenda config.
func (s *Service) Config(ctx context.Context, clinicID string) schedule.Config {
	return s.cache.Get(ctx, clinicID)
}

// ValidateDate checks a candidate appointment date against the generic rules
// and, with active-day gating, the clinic's active days.
func (s *Service) ValidateDate(ctx context.Context, clinicID string, date time.Time) schedule.DateValidation {
	return s.validateDate(s.cache.Get(ctx, clinicID), date.In(s.loc))
}

func (s *Service) validateDate(cfg schedule.Config, local time.Time) schedule.DateValidation {
	now := s.now().In(s.loc)
	if s.enforceActiveDays {
		return cfg.ValidateAppointmentDate(local, now)
	}
	return schedule.ValidateAppointmentDate(local, now)
}

// Slots returns the date's slots. A date that fails validation yields no
// slots along with the rejection.
func (s *Service) Slots(ctx context.Context, clinicID string, date time.Time, opts schedule.GenerateOptions) ([]schedule.TimeSlot, schedule.DateValidation, error) {
	cfg := s.cache.Get(ctx, clinicID)
	local := date.In(s.loc)
	res := s.validateDate(cfg, local)
	if !res.Valid {
		return []schedule.TimeSlot{}, res, nil
	}
	opts.SkipInactiveDays = s.enforceActiveDays
	slots, err := schedule.SlotsForDate(cfg, local, opts)
	if err != nil {
		return nil, res, err
	}
	return slots, res, nil
}

// UpdateConfig persists the fields of edited that differ from the clinic's
// current config and returns them. ErrNothingToSave means no field changed.
func (s *Service) UpdateConfig(ctx context.Context, edited schedule.Config) ([]schedule.Field, error) {
	edited = edited.Clone()
	edited.ActiveDays = schedule.NormalizeActiveDays(edited.ActiveDays)
	if err := edited.Validate(); err != nil {
		return nil, err
	}

	current := s.cache.Get(ctx, edited.ClinicID)
	changed := schedule.DiffChangedFields(&current, edited)
	if len(changed) == 0 {
		return nil, ErrNothingToSave
	}
	if err := s.cache.Save(ctx, edited, changed); err != nil {
		return nil, err
	}
	return changed, nil
}
