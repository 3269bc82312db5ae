package nudge

import (
	"context"

	"github.com/brk3/habitboard/pkg/habit"
)

type mockClient struct {
	habits []habit.Habit
	err    error
}

func (f *mockClient) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	return f.habits, f.err
}

type mockNotifier struct {
	called    bool
	reminders []Reminder
	err       error
}

func (m *mockNotifier) SendNudge(ctx context.Context, reminders []Reminder) error {
	m.called = true
	m.reminders = reminders
	return m.err
}
