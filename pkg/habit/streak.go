package habit

import (
	"slices"
	"time"
)

// ComputeStreak returns the number of consecutive completed days ending with
// the most recent completion. The streak is broken (0) unless today or
// yesterday, relative to now, is among the completions. Malformed entries
// are ignored.
func ComputeStreak(dates []string, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	days := uniqueDays(dates, now.Location())
	if len(days) == 0 {
		return 0
	}

	today := civil(now)
	yesterday := today.AddDate(0, 0, -1)
	if !slices.ContainsFunc(days, func(d time.Time) bool {
		return d.Equal(today) || d.Equal(yesterday)
	}) {
		return 0
	}

	slices.Reverse(days)
	streak := 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) > 1 {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive completed days.
// Timestamp entries are resolved to calendar days in loc.
func LongestStreak(dates []string, loc *time.Location) int {
	days := uniqueDays(dates, loc)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i], days[i-1]) == 1 {
			run++
			longest = max(longest, run)
		} else {
			run = 1
		}
	}
	return longest
}
