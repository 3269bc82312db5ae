package habit

import (
	"fmt"
	"time"
)

// NormalizeDate validates a completed-date input and returns it in
// DateLayout. Timestamps are reduced to their calendar day in loc.
func NormalizeDate(s string, loc *time.Location) (string, error) {
	d, ok := ParseDate(s, loc)
	if !ok {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return FormatDate(d), nil
}

// ToggleDate adds date to the set if absent and removes every entry falling
// on the same day in loc if present. date must already be normalized.
func ToggleDate(dates []string, date string, loc *time.Location) (out []string, added bool) {
	target, ok := ParseDate(date, loc)
	if !ok {
		return dates, false
	}

	out = make([]string, 0, len(dates)+1)
	for _, d := range dates {
		if parsed, ok := ParseDate(d, loc); ok && parsed.Equal(target) {
			continue
		}
		out = append(out, d)
	}
	if len(out) == len(dates) {
		return append(out, date), true
	}
	return out, false
}

// IsCompletedOn reports whether day, in its own location, is among dates.
func IsCompletedOn(dates []string, day time.Time) bool {
	_, ok := daySet(dates, day.Location())[civil(day)]
	return ok
}

// IsWeekComplete reports whether a weekly habit has been done at least once
// in the Monday-start week containing now. Other frequencies never complete
// a week.
func IsWeekComplete(h Habit, now time.Time) bool {
	if h.Frequency.Kind != FrequencyWeekly {
		return false
	}
	done := daySet(h.CompletedDates, now.Location())
	for _, d := range WeekOf(now) {
		if _, ok := done[d]; ok {
			return true
		}
	}
	return false
}

// Strip marks which of days are completed, resolving timestamps in loc.
func Strip(dates []string, days []time.Time, loc *time.Location) []DayCell {
	done := daySet(dates, loc)
	out := make([]DayCell, len(days))
	for i, d := range days {
		_, ok := done[civil(d)]
		out[i] = DayCell{Date: FormatDate(d), Completed: ok}
	}
	return out
}
