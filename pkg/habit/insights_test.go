package habit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want Frequency
	}{
		{"daily", Daily},
		{"Weekly", Weekly},
		{"3 days per week", DaysPerWeek(3)},
		{" 10  days per  month ", DaysPerMonth(10)},
		{"1 day per week", DaysPerWeek(1)},
	}
	for _, tc := range cases {
		got, err := ParseFrequency(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "hourly", "0 days per week", "-2 days per month", "3 days per year", "x days per week"} {
		_, err := ParseFrequency(bad)
		require.Error(t, err, bad)
	}
}

func TestFrequencyJSON_UnknownStillDecodes(t *testing.T) {
	var h Habit
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","frequency":"every full moon"}`), &h))
	require.Equal(t, FrequencyUnknown, h.Frequency.Kind)
	require.False(t, h.Frequency.Valid())
	require.Equal(t, "every full moon", h.Frequency.String())
	require.Zero(t, h.Frequency.TargetRate())

	out, err := json.Marshal(h.Frequency)
	require.NoError(t, err)
	require.JSONEq(t, `"every full moon"`, string(out))
}

func TestTargetRate(t *testing.T) {
	require.InDelta(t, 100, Daily.TargetRate(), 1e-9)
	require.InDelta(t, 14.2857, Weekly.TargetRate(), 1e-3)
	require.InDelta(t, 42.857, DaysPerWeek(3).TargetRate(), 1e-3)
	require.InDelta(t, 33.333, DaysPerMonth(10).TargetRate(), 1e-3)
}

func TestComputeInsights_DailyAllDone(t *testing.T) {
	window := LastNDays(mustDate("2026-03-10"), 7)
	var dates []string
	for _, d := range window {
		dates = append(dates, FormatDate(d))
	}

	got := ComputeInsights(Daily, dates, window, time.UTC)
	require.InDelta(t, 100, got.CompletionRate, 1e-9)
	require.InDelta(t, 100, got.TargetRate, 1e-9)
	require.InDelta(t, 100, got.Performance, 1e-9)
	require.Equal(t, msgExceeding, got.Message)
}

func TestComputeInsights_ThreePerWeekOnTarget(t *testing.T) {
	window := LastNDays(mustDate("2026-03-10"), 7)
	dates := []string{FormatDate(window[0]), FormatDate(window[3]), FormatDate(window[6]), "2025-01-01"}

	got := ComputeInsights(DaysPerWeek(3), dates, window, time.UTC)
	require.InDelta(t, 42.86, got.CompletionRate, 0.01)
	require.InDelta(t, 42.86, got.TargetRate, 0.01)
	require.InDelta(t, 100, got.Performance, 1e-9)

	rounded := got.Round()
	require.Equal(t, 43.0, rounded.CompletionRate)
	require.Equal(t, 43.0, rounded.TargetRate)
}

func TestComputeInsights_UnknownFrequency(t *testing.T) {
	window := LastNDays(mustDate("2026-03-10"), 7)
	got := ComputeInsights(Frequency{}, []string{"2026-03-10"}, window, time.UTC)
	require.Zero(t, got.TargetRate)
	require.Zero(t, got.Performance)
	require.Equal(t, msgLow, got.Message)
}

func TestComputeInsights_EmptyWindow(t *testing.T) {
	got := ComputeInsights(Daily, []string{"2026-03-10"}, nil, time.UTC)
	require.Zero(t, got.CompletionRate)
	require.Zero(t, got.Performance)
}

func TestPerformanceMessageThresholds(t *testing.T) {
	require.Equal(t, msgExceeding, performanceMessage(100))
	require.Equal(t, msgClose, performanceMessage(99.9))
	require.Equal(t, msgClose, performanceMessage(80))
	require.Equal(t, msgProgress, performanceMessage(79.99))
	require.Equal(t, msgProgress, performanceMessage(50))
	require.Equal(t, msgLow, performanceMessage(49.99))
	require.Equal(t, msgLow, performanceMessage(0))
}

func TestDaysOfYear(t *testing.T) {
	require.Len(t, DaysOfYear(2024), 366)
	require.Len(t, DaysOfYear(2026), 365)
	require.Equal(t, time.January, DaysOfYear(2026)[0].Month())
}
