package habit

import "time"

// Summarize computes the detail view of h as of now. Insights cover the whole
// of now's calendar year.
func Summarize(h Habit, now time.Time) HabitSummary {
	loc := now.Location()
	days := uniqueDays(h.CompletedDates, loc)

	s := HabitSummary{
		Name:          h.Name,
		Frequency:     h.Frequency.String(),
		CurrentStreak: ComputeStreak(h.CompletedDates, now),
		LongestStreak: LongestStreak(h.CompletedDates, loc),
		TotalDaysDone: len(days),
		WeekComplete:  IsWeekComplete(h, now),
		LastSevenDays: Strip(h.CompletedDates, LastNDays(now, 7), loc),
		Insights:      ComputeInsights(h.Frequency, h.CompletedDates, DaysOfYear(now.Year()), loc).Round(),
	}
	if len(days) > 0 {
		s.FirstCompleted = FormatDate(days[0])
	}

	type month struct {
		year int
		mon  time.Month
	}
	perMonth := make(map[month]int)
	for _, d := range days {
		perMonth[month{d.Year(), d.Month()}]++
	}
	for _, n := range perMonth {
		s.BestMonth = max(s.BestMonth, n)
	}
	s.ThisMonth = perMonth[month{now.Year(), now.Month()}]

	return s
}

// YearOverview lays out every day of year by month with its completion flag.
func YearOverview(dates []string, year int, loc *time.Location) []MonthOverview {
	done := daySet(dates, loc)
	months := make([]MonthOverview, 12)
	for i := range months {
		months[i].Month = time.Month(i + 1)
	}
	for _, d := range DaysOfYear(year) {
		_, ok := done[d]
		m := &months[d.Month()-1]
		m.Days = append(m.Days, DayCell{Date: FormatDate(d), Completed: ok})
	}
	return months
}
