package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/brk3/habitboard/internal/logger"
	"github.com/brk3/habitboard/internal/tracker"
	"github.com/brk3/habitboard/pkg/habit"
	"github.com/brk3/habitboard/pkg/versioninfo"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func (s *Server) getVersionInfo(w http.ResponseWriter, _ *http.Request) {
	if err := writeJSON(w, http.StatusOK, versioninfo.Current()); err != nil {
		logger.Error("Failed to serialize version info response", "error", err)
	}
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habits, err := s.habits.List(userID)
	if err != nil {
		s.writeTrackerError(w, err, "user_id", userID)
		return
	}
	logger.Debug("Listed habits", "user_id", userID, "count", len(habits))
	UpdateActiveHabitsForUser(userID, len(habits))
	if err := writeJSON(w, http.StatusOK, HabitListResponse{Habits: habits}); err != nil {
		logger.Error("Failed to serialize habit list response", "user_id", userID, "error", err)
	}
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in habit.NewHabit
	if err := decodeBody(w, r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	h, err := s.habits.Create(userID, in)
	if err != nil {
		s.writeTrackerError(w, err, "user_id", userID)
		return
	}
	s.refreshActiveHabits(userID)
	if err := writeJSON(w, http.StatusCreated, h); err != nil {
		logger.Error("Failed to serialize created habit", "user_id", userID, "habit_id", h.ID, "error", err)
	}
}

func (s *Server) restoreHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req RestoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	habits, err := s.habits.Restore(userID, req.Habits)
	if err != nil {
		s.writeTrackerError(w, err, "user_id", userID)
		return
	}
	UpdateActiveHabitsForUser(userID, len(habits))
	if err := writeJSON(w, http.StatusOK, HabitListResponse{Habits: habits}); err != nil {
		logger.Error("Failed to serialize restored habits", "user_id", userID, "error", err)
	}
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	h, err := s.habits.Get(userID, habitID)
	if err != nil {
		s.writeTrackerError(w, err, "user_id", userID, "habit_id", habitID)
		return
	}
	if err := writeJSON(w, http.StatusOK, h); err != nil {
		logger.Error("Failed to serialize habit", "user_id", userID, "habit_id", habitID, "error", err)
	}
}

func (s *Server) updateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	var p tracker.Patch
	if err := decodeBody(w, r, &p); err != nil {
		writeDecodeError(w, err)
		return
	}
	h, err := s.habits.Update(userID, habitID, p)
	if err != nil {
		s.writeTrackerError(w, err, "user_id", userID, "habit_id", habitID)
		return
	}
	logger.Info("Habit updated", "user_id", userID, "habit_id", habitID)
	if err := writeJSON(w, http.StatusOK, h); err != nil {
		logger.Error("Failed to serialize updated habit", "user_id", userID, "habit_id", habitID, "error", err)
	}
}

func (s *Server) toggleHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	var req ToggleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "bad habit date: required")
		return
	}
	h, added, err := s.habits.Toggle(userID, habitID, req.Date)
	if err != nil {
		s.writeTrackerError(w, err, "user_id", userID, "habit_id", habitID)
		return
	}
	recordToggle(added)
	if err := writeJSON(w, http.StatusOK, h); err != nil {
		logger.Error("Failed to serialize toggled habit", "user_id", userID, "habit_id", habitID, "error", err)
	}
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	if err := s.habits.Delete(userID, habitID); err != nil {
		s.writeTrackerError(w, err, "user_id", userID, "habit_id", habitID)
		return
	}
	s.refreshActiveHabits(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getHabitSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	h, err := s.habits.Get(userID, habitID)
	if err != nil {
		s.writeTrackerError(w, err, "user_id", userID, "habit_id", habitID)
		return
	}
	resp := HabitSummaryResponse{
		HabitID:      habitID,
		HabitSummary: habit.Summarize(h, s.habits.Now()),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize habit summary response", "user_id", userID, "habit_id", habitID, "error", err)
	}
}

func (s *Server) getHabitOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")

	year := s.habits.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, "bad habit year: must be a number between 1 and 9999")
			return
		}
		year = y
	}

	h, err := s.habits.Get(userID, habitID)
	if err != nil {
		s.writeTrackerError(w, err, "user_id", userID, "habit_id", habitID)
		return
	}
	resp := HabitOverviewResponse{
		HabitID: habitID,
		Year:    year,
		Months:  habit.YearOverview(h.CompletedDates, year, s.habits.Now().Location()),
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize habit overview response", "user_id", userID, "habit_id", habitID, "error", err)
	}
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		logger.Warn("Missing user ID", "path", r.URL.Path)
		writeError(w, http.StatusBadRequest, "user id is required")
		return "", false
	}
	return userID, true
}

func (s *Server) refreshActiveHabits(userID string) {
	habits, err := s.habits.List(userID)
	if err != nil {
		logger.Warn("Failed to update active habits metric", "user_id", userID, "error", err)
		return
	}
	UpdateActiveHabitsForUser(userID, len(habits))
}

// writeTrackerError maps tracker errors onto status codes. Storage failures
// are logged with their detail and reported generically.
func (s *Server) writeTrackerError(w http.ResponseWriter, err error, logArgs ...any) {
	var verr *tracker.ValidationError
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	default:
		logger.Error("Storage error", append(logArgs, "error", err)...)
		writeError(w, http.StatusInternalServerError, "storage error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	var verr *tracker.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &typeErr):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad habit %s: wrong type", typeErr.Field))
	default:
		logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON")
	}
}
