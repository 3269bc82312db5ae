package habit

import (
	"slices"
	"time"
)

// ParseDate normalizes a completed-date entry to midnight UTC of its calendar
// day. Plain dates are taken as-is; timestamps are first moved into loc so
// the calendar day is the one the user saw.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, true
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	if loc != nil {
		ts = ts.In(loc)
	}
	return civil(ts), true
}

// civil drops time of day and location, keeping the calendar date.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(a.Sub(b).Hours() / 24)
}

// uniqueDays parses and deduplicates dates, dropping malformed entries.
// The result is sorted ascending.
func uniqueDays(dates []string, loc *time.Location) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, s := range dates {
		d, ok := ParseDate(s, loc)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}

func daySet(dates []string, loc *time.Location) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(dates))
	for _, d := range uniqueDays(dates, loc) {
		set[d] = struct{}{}
	}
	return set
}

// LastNDays returns the n calendar days ending with now's day, oldest first.
func LastNDays(now time.Time, n int) []time.Time {
	today := civil(now)
	out := make([]time.Time, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, today.AddDate(0, 0, -i))
	}
	return out
}

// WeekOf returns the Monday-to-Sunday week containing now.
func WeekOf(now time.Time) []time.Time {
	today := civil(now)
	offset := (int(today.Weekday()) + 6) % 7
	start := today.AddDate(0, 0, -offset)
	out := make([]time.Time, 7)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// DaysOfYear returns every calendar day of year.
func DaysOfYear(year int) []time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	out := make([]time.Time, 0, 366)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// FormatDate renders a civil date in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
