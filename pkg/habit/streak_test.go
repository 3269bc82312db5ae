package habit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func daysAgo(now time.Time, n int) string {
	return FormatDate(now.AddDate(0, 0, -n))
}

func TestComputeStreak_Empty(t *testing.T) {
	require.Equal(t, 0, ComputeStreak(nil, time.Now()))
}

func TestComputeStreak_TodayOnly(t *testing.T) {
	now := mustDate("2026-02-26")
	require.Equal(t, 1, ComputeStreak([]string{"2026-02-26"}, now))
}

func TestComputeStreak_YesterdayOnly(t *testing.T) {
	now := mustDate("2026-02-26")
	require.Equal(t, 1, ComputeStreak([]string{"2026-02-25"}, now))
}

func TestComputeStreak_ThreeConsecutive(t *testing.T) {
	now := mustDate("2026-02-26")
	dates := []string{daysAgo(now, 2), daysAgo(now, 0), daysAgo(now, 1)}
	require.Equal(t, 3, ComputeStreak(dates, now))
}

func TestComputeStreak_GapAfterToday(t *testing.T) {
	now := mustDate("2026-02-26")
	dates := []string{daysAgo(now, 0), daysAgo(now, 3)}
	require.Equal(t, 1, ComputeStreak(dates, now))
}

func TestComputeStreak_Broken(t *testing.T) {
	now := mustDate("2026-02-26")
	require.Equal(t, 0, ComputeStreak([]string{daysAgo(now, 2)}, now))
}

func TestComputeStreak_IgnoresMalformed(t *testing.T) {
	now := mustDate("2026-02-26")
	dates := []string{"not-a-date", "2026-02-26", "", "2026-13-40", "2026-02-25"}
	require.Equal(t, 2, ComputeStreak(dates, now))
}

func TestComputeStreak_OnlyMalformed(t *testing.T) {
	require.Equal(t, 0, ComputeStreak([]string{"garbage"}, time.Now()))
}

func TestComputeStreak_DuplicatesCountOnce(t *testing.T) {
	now := mustDate("2026-02-26")
	dates := []string{"2026-02-26", "2026-02-26", "2026-02-26T08:00:00Z"}
	require.Equal(t, 1, ComputeStreak(dates, now))
}

func TestComputeStreak_TimestampsUseCalendarDay(t *testing.T) {
	now := time.Date(2026, 2, 26, 21, 0, 0, 0, time.UTC)
	dates := []string{"2026-02-26T06:30:00Z", "2026-02-25T23:59:00Z"}
	require.Equal(t, 2, ComputeStreak(dates, now))
}

func TestComputeStreak_FutureDatesStillCount(t *testing.T) {
	now := mustDate("2026-02-26")
	dates := []string{"2026-02-27", "2026-02-26", "2026-02-25"}
	require.Equal(t, 3, ComputeStreak(dates, now))
}

func TestLongestStreak(t *testing.T) {
	dates := []string{
		"2026-01-01", "2026-01-02",
		"2026-01-10", "2026-01-11", "2026-01-12", "2026-01-13",
		"2026-02-01",
	}
	require.Equal(t, 4, LongestStreak(dates, time.UTC))
	require.Equal(t, 0, LongestStreak(nil, time.UTC))
	require.Equal(t, 1, LongestStreak([]string{"2026-05-05"}, time.UTC))
}
