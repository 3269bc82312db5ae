// Package nudge sends reminder emails for habits whose reminder time has
// just passed and which have not been completed today.
package nudge

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/brk3/habitboard/internal/logger"
	"github.com/brk3/habitboard/pkg/habit"
)

const reminderTimeLayout = "15:04"

type Reminder struct {
	HabitID       string
	Name          string
	ReminderTime  string
	CurrentStreak int
}

// DueReminders returns the habits whose reminder is on, whose latest
// reminder occurrence falls within [now-window, now], and which are not yet
// completed on that occurrence's day. A window reaching past midnight picks up
// reminders set late on the previous day. Results are ordered by occurrence.
func DueReminders(ctx context.Context, q Querier, now time.Time, window time.Duration) ([]Reminder, error) {
	habits, err := q.ListHabits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	type dueAt struct {
		at time.Time
		r  Reminder
	}
	var due []dueAt
	for _, h := range habits {
		at, ok := reminderAt(h, now)
		if !ok || at.Before(now.Add(-window)) {
			continue
		}
		if habit.IsCompletedOn(h.CompletedDates, at) {
			continue
		}
		due = append(due, dueAt{at: at, r: Reminder{
			HabitID:       h.ID,
			Name:          h.Name,
			ReminderTime:  h.ReminderTime,
			CurrentStreak: habit.ComputeStreak(h.CompletedDates, now),
		}})
	}
	slices.SortStableFunc(due, func(a, b dueAt) int {
		return a.at.Compare(b.at)
	})

	out := make([]Reminder, len(due))
	for i, d := range due {
		out[i] = d.r
	}
	return out, nil
}

// reminderAt returns the latest occurrence of h's reminder time at or before
// now: today's if it has passed, otherwise yesterday's.
func reminderAt(h habit.Habit, now time.Time) (time.Time, bool) {
	if !h.Reminder || h.ReminderTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(reminderTimeLayout, h.ReminderTime)
	if err != nil {
		logger.Warn("Skipping habit with malformed reminder time", "habit_id", h.ID, "reminder_time", h.ReminderTime)
		return time.Time{}, false
	}
	y, m, d := now.Date()
	at := time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, now.Location())
	if at.After(now) {
		at = time.Date(y, m, d-1, t.Hour(), t.Minute(), 0, 0, now.Location())
	}
	return at, true
}

// Nudge sends a single notification for every due reminder. It returns the
// number of reminders sent; nothing is sent when none are due.
func Nudge(ctx context.Context, q Querier, n Notifier, now time.Time, window time.Duration) (int, error) {
	due, err := DueReminders(ctx, q, now, window)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		logger.Info("No reminders due", "window", window)
		return 0, nil
	}
	if err := n.SendNudge(ctx, due); err != nil {
		return 0, fmt.Errorf("send nudge: %w", err)
	}
	logger.Info("Sent reminder", "count", len(due))
	return len(due), nil
}
