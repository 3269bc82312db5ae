package server

import (
	"encoding/json"
	"net/http"

	"github.com/brk3/habitboard/pkg/habit"
)

type HabitListResponse struct {
	Habits []habit.Habit `json:"habits"`
}

// RestoreRequest carries a full collection, in the shape GET /habits/
// returns it.
type RestoreRequest struct {
	Habits []habit.Habit `json:"habits"`
}

type HabitSummaryResponse struct {
	HabitID      string             `json:"habit_id"`
	HabitSummary habit.HabitSummary `json:"habit_summary"`
}

type HabitOverviewResponse struct {
	HabitID string                `json:"habit_id"`
	Year    int                   `json:"year"`
	Months  []habit.MonthOverview `json:"months"`
}

type ToggleRequest struct {
	Date string `json:"date"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	_ = writeJSON(w, code, ErrorResponse{Error: msg})
}
