package agenda

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/wolfman30/clinic-agenda/internal/schedule"
	"github.com/wolfman30/clinic-agenda/internal/settings"
)

var fieldDescriptions = map[schedule.Field]string{
	schedule.FieldWorkStartTime: "Agenda: work day start (HH:MM)",
	schedule.FieldWorkEndTime:   "Agenda: work day end (HH:MM)",
	schedule.FieldInterval:      "Agenda: appointment interval in minutes",
	schedule.FieldLunchStart:    "Agenda: lunch break start (HH:MM)",
	schedule.FieldLunchEnd:      "Agenda: lunch break end (HH:MM)",
	schedule.FieldActiveDays:    "Agenda: active weekdays (0=Sunday..6=Saturday)",
}

// RemoteIDs maps each stored field to its setting record id.
type RemoteIDs map[schedule.Field]string

// FromSettings builds a clinic's config from its setting records. Unknown
// keys are ignored and values that fail to parse keep the field's default.
// A lunch break that does not fit the resulting work window is dropped;
// only a work window that is itself invalid (start not before end) yields
// the default config. The record ids are returned either way.
func FromSettings(clinicID string, records []settings.Setting) (schedule.Config, RemoteIDs, bool) {
	cfg := schedule.DefaultConfig(clinicID)
	ids := RemoteIDs{}
	clean := true
	lunchStored := false
	for _, rec := range records {
		field, ok := schedule.ParseField(rec.Key)
		if !ok {
			continue
		}
		if rec.ID != "" {
			ids[field] = rec.ID
		}
		if field == schedule.FieldLunchStart || field == schedule.FieldLunchEnd {
			lunchStored = true
		}
		if !applyField(&cfg, field, rec.Value) {
			clean = false
		}
	}
	if cfg.Validate() == nil {
		return cfg, ids, clean
	}

	noLunch := cfg
	noLunch.LunchStartTime, noLunch.LunchEndTime = "", ""
	if noLunch.Validate() == nil {
		// Defaults that merely miss the stored window are not bad data.
		return noLunch, ids, clean && !lunchStored
	}
	return schedule.DefaultConfig(clinicID), ids, false
}

func applyField(cfg *schedule.Config, field schedule.Field, raw string) bool {
	raw = strings.TrimSpace(raw)
	switch field {
	case schedule.FieldWorkStartTime:
		return applyClock(&cfg.WorkStartTime, raw, false)
	case schedule.FieldWorkEndTime:
		return applyClock(&cfg.WorkEndTime, raw, false)
	case schedule.FieldLunchStart:
		return applyClock(&cfg.LunchStartTime, raw, true)
	case schedule.FieldLunchEnd:
		return applyClock(&cfg.LunchEndTime, raw, true)
	case schedule.FieldInterval:
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return false
		}
		cfg.AppointmentIntervalMinutes = n
		return true
	case schedule.FieldActiveDays:
		var days []int
		if err := json.Unmarshal([]byte(raw), &days); err != nil {
			return false
		}
		for _, d := range days {
			if d < 0 || d > 6 {
				return false
			}
		}
		cfg.ActiveDays = schedule.NormalizeActiveDays(days)
		return true
	}
	return false
}

// applyClock stores the canonical HH:MM form of raw. Optional fields accept
// an empty value meaning "unset".
func applyClock(dst *string, raw string, optional bool) bool {
	if raw == "" && optional {
		*dst = ""
		return true
	}
	c, err := schedule.ParseClock(raw)
	if err != nil {
		return false
	}
	*dst = c.String()
	return true
}

// EncodeField renders one field of cfg as a setting value and type.
func EncodeField(cfg schedule.Config, field schedule.Field) (string, settings.ValueType) {
	switch field {
	case schedule.FieldWorkStartTime:
		return cfg.WorkStartTime, settings.TypeString
	case schedule.FieldWorkEndTime:
		return cfg.WorkEndTime, settings.TypeString
	case schedule.FieldLunchStart:
		return cfg.LunchStartTime, settings.TypeString
	case schedule.FieldLunchEnd:
		return cfg.LunchEndTime, settings.TypeString
	case schedule.FieldInterval:
		return strconv.Itoa(cfg.AppointmentIntervalMinutes), settings.TypeInt
	case schedule.FieldActiveDays:
		days := schedule.NormalizeActiveDays(cfg.ActiveDays)
		if days == nil {
			days = []int{}
		}
		data, _ := json.Marshal(days)
		return string(data), settings.TypeJSON
	}
	return "", settings.TypeString
}

func settingFor(cfg schedule.Config, field schedule.Field) settings.Setting {
	value, typ := EncodeField(cfg, field)
	return settings.Setting{
		ClinicID:    cfg.ClinicID,
		Key:         string(field),
		Value:       value,
		Type:        typ,
		Description: fieldDescriptions[field],
	}
}
