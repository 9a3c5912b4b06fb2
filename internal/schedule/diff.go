package schedule

// DiffChangedFields lists the fields whose values differ between original and
// updated, in canonical order. A nil original means no snapshot exists, so
// every field is reported. ActiveDays is compared as a set.
func DiffChangedFields(original *Config, updated Config) []Field {
	if original == nil {
		return AllFields()
	}
	changed := make([]Field, 0, len(allFields))
	for _, f := range allFields {
		if !fieldEqual(f, *original, updated) {
			changed = append(changed, f)
		}
	}
	return changed
}

func fieldEqual(f Field, a, b Config) bool {
	switch f {
	case FieldWorkStartTime:
		return a.WorkStartTime == b.WorkStartTime
	case FieldWorkEndTime:
		return a.WorkEndTime == b.WorkEndTime
	case FieldInterval:
		return a.AppointmentIntervalMinutes == b.AppointmentIntervalMinutes
	case FieldLunchStart:
		return a.LunchStartTime == b.LunchStartTime
	case FieldLunchEnd:
		return a.LunchEndTime == b.LunchEndTime
	case FieldActiveDays:
		return sameDaySet(a.ActiveDays, b.ActiveDays)
	default:
		return true
	}
}

func sameDaySet(a, b []int) bool {
	sa := daySet(a)
	sb := daySet(b)
	if len(sa) != len(sb) {
		return false
	}
	for d := range sa {
		if _, ok := sb[d]; !ok {
			return false
		}
	}
	return true
}

func daySet(days []int) map[int]struct{} {
	set := make(map[int]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}
