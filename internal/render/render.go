// Package render draws habits for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/brk3/habitboard/pkg/habit"
	"github.com/charmbracelet/lipgloss"
)

const (
	glyphDone    = "■"
	glyphMissed  = "·"
	glyphPadding = " "
)

var (
	green = lipgloss.Color("#50C878")
	amber = lipgloss.Color("#FFBF00")
	ruby  = lipgloss.Color("#E0115F")
	dim   = lipgloss.Color("#666666")

	Title  = lipgloss.NewStyle().Bold(true)
	Muted  = lipgloss.NewStyle().Foreground(dim)
	Done   = lipgloss.NewStyle().Foreground(green)
	Streak = lipgloss.NewStyle().Foreground(amber).Bold(true)
	Error  = lipgloss.NewStyle().Foreground(ruby)

	header = lipgloss.NewStyle().Bold(true).Underline(true)
	cell   = lipgloss.NewStyle().PaddingRight(2)
)

// Strip renders a row of day cells, one glyph per day.
func Strip(cells []habit.DayCell) string {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString(" ")
		}
		if c.Completed {
			b.WriteString(Done.Render(glyphDone))
		} else {
			b.WriteString(Muted.Render(glyphMissed))
		}
	}
	return b.String()
}

// HabitTable lists habits with their last seven days and current streak.
func HabitTable(habits []habit.Habit, now time.Time) string {
	if len(habits) == 0 {
		return Muted.Render("No habits yet. Create one with: habits add NAME --frequency daily")
	}

	days := habit.LastNDays(now, 7)
	rows := [][]string{{"ID", "NAME", "FREQUENCY", "LAST 7 DAYS", "STREAK"}}
	for _, h := range habits {
		streak := habit.ComputeStreak(h.CompletedDates, now)
		rows = append(rows, []string{
			h.ID,
			h.Name,
			h.Frequency.String(),
			Strip(habit.Strip(h.CompletedDates, days, now.Location())),
			streakLabel(streak),
		})
	}
	return table(rows)
}

func streakLabel(n int) string {
	if n == 0 {
		return Muted.Render("0")
	}
	return Streak.Render(fmt.Sprintf("%d", n))
}

func table(rows [][]string) string {
	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	lines := make([]string, 0, len(rows))
	for ri, r := range rows {
		cols := make([]string, len(r))
		for i, c := range r {
			st := cell.Width(widths[i] + 2)
			if ri == 0 {
				c = header.Render(c)
			}
			cols[i] = st.Render(c)
		}
		lines = append(lines, strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cols...), " "))
	}
	return strings.Join(lines, "\n")
}

// Summary renders a habit's detail view: streaks, totals and insights.
func Summary(s habit.HabitSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", Title.Render(s.Name), Muted.Render(s.Frequency))
	fmt.Fprintf(&b, "Last 7 days    %s\n", Strip(s.LastSevenDays))
	fmt.Fprintf(&b, "Current streak %s\n", streakLabel(s.CurrentStreak))
	fmt.Fprintf(&b, "Longest streak %d\n", s.LongestStreak)
	fmt.Fprintf(&b, "Total days     %d\n", s.TotalDaysDone)
	fmt.Fprintf(&b, "This month     %d (best %d)\n", s.ThisMonth, s.BestMonth)
	if s.FirstCompleted != "" {
		fmt.Fprintf(&b, "First done     %s\n", s.FirstCompleted)
	}
	if s.WeekComplete {
		fmt.Fprintf(&b, "This week      %s\n", Done.Render("complete"))
	}
	b.WriteString("\n")
	b.WriteString(Insights(s.Insights))
	return b.String()
}

// Insights renders the completion/target comparison and its message.
func Insights(in habit.Insights) string {
	style := Done
	switch {
	case in.Performance < 50:
		style = Error
	case in.Performance < 100:
		style = Streak
	}
	return fmt.Sprintf("Completion %.1f%% of target %.1f%% (%s)\n%s\n",
		in.CompletionRate, in.TargetRate,
		style.Render(fmt.Sprintf("%.1f%%", in.Performance)),
		in.Message)
}

// Overview renders a year as one row per month.
func Overview(year int, months []habit.MonthOverview) string {
	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("%d", year)))
	b.WriteString("\n")
	for _, m := range months {
		done := 0
		cells := make([]string, 31)
		for i := range cells {
			cells[i] = glyphPadding
		}
		for i, d := range m.Days {
			if d.Completed {
				done++
				cells[i] = Done.Render(glyphDone)
			} else {
				cells[i] = Muted.Render(glyphMissed)
			}
		}
		fmt.Fprintf(&b, "%s %s %s\n", m.Month.String()[:3], strings.Join(cells, ""), Muted.Render(fmt.Sprintf("%2d", done)))
	}
	return b.String()
}
