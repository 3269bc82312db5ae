package habit

import "time"

// DateLayout is the on-disk and wire format of a completed date.
const DateLayout = "2006-01-02"

// Habit is a single tracked activity. A user's habits are stored and
// rewritten as one collection.
type Habit struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Frequency      Frequency `json:"frequency"`
	Reminder       bool      `json:"reminder"`
	ReminderTime   string    `json:"reminderTime,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt,omitzero"`
	CompletedDates []string  `json:"completedDates"`
}

// NewHabit is the create payload.
type NewHabit struct {
	Name         string  `json:"name"`
	Frequency    string  `json:"frequency"`
	Reminder     bool    `json:"reminder"`
	ReminderTime *string `json:"reminderTime"`
	Description  string  `json:"description"`
}

// HabitSummary is the computed view of a habit shown on its detail page.
type HabitSummary struct {
	Name           string    `json:"name"`
	Frequency      string    `json:"frequency"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
	FirstCompleted string    `json:"first_completed,omitempty"`
	TotalDaysDone  int       `json:"total_days_done"`
	BestMonth      int       `json:"best_month"`
	ThisMonth      int       `json:"this_month"`
	WeekComplete   bool      `json:"week_complete"`
	LastSevenDays  []DayCell `json:"last_seven_days"`
	Insights       Insights  `json:"insights"`
}

// DayCell is one calendar day in a strip or overview grid.
type DayCell struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// MonthOverview is one column of the yearly overview.
type MonthOverview struct {
	Month time.Month `json:"month"`
	Days  []DayCell  `json:"days"`
}
