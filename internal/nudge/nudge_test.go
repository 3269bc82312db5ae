package nudge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brk3/habitboard/pkg/habit"
)

var now = time.Date(2026, 10, 16, 8, 15, 0, 0, time.UTC)

func testHabits() []habit.Habit {
	return []habit.Habit{
		{ID: "a", Name: "guitar", Reminder: true, ReminderTime: "08:00", CompletedDates: []string{"2026-10-14", "2026-10-15"}},
		{ID: "b", Name: "run", Reminder: true, ReminderTime: "07:30"},
		{ID: "c", Name: "read", Reminder: true, ReminderTime: "08:00", CompletedDates: []string{"2026-10-16"}},
		{ID: "d", Name: "stretch", Reminder: false, ReminderTime: "08:00"},
		{ID: "e", Name: "journal", Reminder: true, ReminderTime: "21:00"},
		{ID: "f", Name: "water", Reminder: true, ReminderTime: "06:00"},
		{ID: "g", Name: "meditate", Reminder: true},
		{ID: "h", Name: "broken", Reminder: true, ReminderTime: "8am"},
	}
}

func TestDueReminders(t *testing.T) {
	got, err := DueReminders(context.Background(), &mockClient{habits: testHabits()}, now, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d reminders, want 2: %+v", len(got), got)
	}
	if got[0].HabitID != "b" || got[1].HabitID != "a" {
		t.Fatalf("got %s, %s; want b, a ordered by reminder time", got[0].HabitID, got[1].HabitID)
	}
	if got[1].CurrentStreak != 2 {
		t.Fatalf("guitar streak %d, want 2", got[1].CurrentStreak)
	}
}

func TestDueReminders_WindowEdges(t *testing.T) {
	habits := []habit.Habit{{ID: "x", Reminder: true, ReminderTime: "07:15"}}
	got, _ := DueReminders(context.Background(), &mockClient{habits: habits}, now, time.Hour)
	if len(got) != 1 {
		t.Fatal("reminder exactly at the window start should be due")
	}
	got, _ = DueReminders(context.Background(), &mockClient{habits: habits}, now, 59*time.Minute)
	if len(got) != 0 {
		t.Fatal("reminder before the window should not be due")
	}
}

func TestDueReminders_AcrossMidnight(t *testing.T) {
	justAfterMidnight := time.Date(2026, 10, 17, 0, 10, 0, 0, time.UTC)
	habits := []habit.Habit{
		{ID: "early", Reminder: true, ReminderTime: "00:05"},
		{ID: "late", Reminder: true, ReminderTime: "23:50"},
		{ID: "late-done", Reminder: true, ReminderTime: "23:50", CompletedDates: []string{"2026-10-16"}},
		{ID: "late-done-today", Reminder: true, ReminderTime: "23:50", CompletedDates: []string{"2026-10-17"}},
		{ID: "evening", Reminder: true, ReminderTime: "21:00"},
	}
	got, err := DueReminders(context.Background(), &mockClient{habits: habits}, justAfterMidnight, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.HabitID)
	}
	want := []string{"late", "late-done-today", "early"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}

func TestNudge_SendsOnce(t *testing.T) {
	n := &mockNotifier{}
	sent, err := Nudge(context.Background(), &mockClient{habits: testHabits()}, n, now, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if sent != 2 || !n.called || len(n.reminders) != 2 {
		t.Fatalf("sent=%d called=%v reminders=%v", sent, n.called, n.reminders)
	}
}

func TestNudge_NothingDue(t *testing.T) {
	n := &mockNotifier{}
	sent, err := Nudge(context.Background(), &mockClient{}, n, now, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if sent != 0 || n.called {
		t.Fatal("notifier should not be called when nothing is due")
	}
}

func TestNudge_Errors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := Nudge(context.Background(), &mockClient{err: boom}, &mockNotifier{}, now, time.Hour); !errors.Is(err, boom) {
		t.Fatalf("got %v, want query error", err)
	}
	n := &mockNotifier{err: boom}
	if _, err := Nudge(context.Background(), &mockClient{habits: testHabits()}, n, now, time.Hour); !errors.Is(err, boom) {
		t.Fatalf("got %v, want send error", err)
	}
}
