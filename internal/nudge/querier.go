package nudge

import (
	"context"

	"github.com/brk3/habitboard/pkg/habit"
)

// Querier lists the caller's habits. apiclient.Client satisfies it.
type Querier interface {
	ListHabits(ctx context.Context) ([]habit.Habit, error)
}

// Notifier delivers one message covering every due reminder.
type Notifier interface {
	SendNudge(ctx context.Context, reminders []Reminder) error
}
