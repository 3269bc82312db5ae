// Package tracker applies create, update, toggle and delete operations to a
// user's habit collection. Each mutation is one read-modify-write of the whole
// collection through storage.Store.UpdateHabits.
package tracker

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brk3/habitboard/internal/logger"
	"github.com/brk3/habitboard/internal/storage"
	"github.com/brk3/habitboard/pkg/habit"
	"github.com/google/uuid"
)

const (
	maxNameLength        = 64
	maxDescriptionLength = 1024
	reminderTimeLayout   = "15:04"
)

type Service struct {
	store storage.Store
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) List(userID string) ([]habit.Habit, error) {
	habits, err := s.store.ListHabits(userID)
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	return habits, nil
}

func (s *Service) Get(userID, id string) (habit.Habit, error) {
	habits, err := s.List(userID)
	if err != nil {
		return habit.Habit{}, err
	}
	i := indexOf(habits, id)
	if i < 0 {
		return habit.Habit{}, ErrNotFound
	}
	return habits[i], nil
}

func (s *Service) Create(userID string, in habit.NewHabit) (habit.Habit, error) {
	name := strings.TrimSpace(in.Name)
	if err := validateName(name); err != nil {
		return habit.Habit{}, err
	}
	freq, err := parseFrequency(in.Frequency)
	if err != nil {
		return habit.Habit{}, err
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		return habit.Habit{}, invalid("description", "must be 0-%d characters", maxDescriptionLength)
	}
	var reminderTime string
	if in.ReminderTime != nil {
		reminderTime = *in.ReminderTime
	}
	if err := validateReminderTime(reminderTime); err != nil {
		return habit.Habit{}, err
	}

	h := habit.Habit{
		ID:             s.newID(),
		Name:           name,
		Description:    in.Description,
		Frequency:      freq,
		Reminder:       in.Reminder,
		ReminderTime:   reminderTime,
		CreatedAt:      s.now().UTC(),
		CompletedDates: []string{},
	}

	err = s.store.UpdateHabits(userID, func(habits []habit.Habit) ([]habit.Habit, error) {
		return append(habits, h), nil
	})
	if err != nil {
		return habit.Habit{}, fmt.Errorf("save habits: %w", err)
	}
	logger.Info("Habit created", "user_id", userID, "habit_id", h.ID, "frequency", h.Frequency.String())
	return h, nil
}

// Update shallow-merges p onto the habit with the given id.
func (s *Service) Update(userID, id string, p Patch) (habit.Habit, error) {
	merged, err := s.validatePatch(p)
	if err != nil {
		return habit.Habit{}, err
	}

	return s.mutate(userID, id, func(h *habit.Habit) error {
		merged(h)
		return nil
	})
}

// Toggle adds date to the habit's completed set, or removes it if present.
// added reports which of the two happened.
func (s *Service) Toggle(userID, id, date string) (h habit.Habit, added bool, err error) {
	day, err := habit.NormalizeDate(strings.TrimSpace(date), s.now().Location())
	if err != nil {
		return habit.Habit{}, false, invalid("date", "%v", err)
	}

	h, err = s.mutate(userID, id, func(h *habit.Habit) error {
		h.CompletedDates, added = habit.ToggleDate(h.CompletedDates, day, s.now().Location())
		return nil
	})
	if err != nil {
		return habit.Habit{}, false, err
	}
	logger.Debug("Completion toggled", "user_id", userID, "habit_id", id, "date", day, "added", added)
	return h, added, nil
}

func (s *Service) Delete(userID, id string) error {
	err := s.store.UpdateHabits(userID, func(habits []habit.Habit) ([]habit.Habit, error) {
		i := indexOf(habits, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		return slices.Delete(habits, i, i+1), nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("save habits: %w", err)
	}
	logger.Info("Habit deleted", "user_id", userID, "habit_id", id)
	return nil
}

// Restore replaces the user's whole collection with habits, as when
// importing an export. Every record is validated and its completed dates
// normalized before anything is written; records without an id get one and
// records without a creation time are stamped now.
func (s *Service) Restore(userID string, habits []habit.Habit) ([]habit.Habit, error) {
	out := make([]habit.Habit, 0, len(habits))
	seen := make(map[string]struct{}, len(habits))
	for _, h := range habits {
		if h.ID == "" {
			h.ID = s.newID()
		}
		if _, dup := seen[h.ID]; dup {
			return nil, invalid("id", "duplicate id %q", h.ID)
		}
		seen[h.ID] = struct{}{}

		h.Name = strings.TrimSpace(h.Name)
		if err := validateName(h.Name); err != nil {
			return nil, err
		}
		if h.Frequency.Kind == habit.FrequencyUnknown {
			return nil, invalid("frequency", "unsupported frequency for habit %q", h.ID)
		}
		if utf8.RuneCountInString(h.Description) > maxDescriptionLength {
			return nil, invalid("description", "must be 0-%d characters", maxDescriptionLength)
		}
		if err := validateReminderTime(h.ReminderTime); err != nil {
			return nil, err
		}
		dates, err := s.normalizeDates(h.CompletedDates)
		if err != nil {
			return nil, err
		}
		h.CompletedDates = dates
		if h.CreatedAt.IsZero() {
			h.CreatedAt = s.now().UTC()
		}
		out = append(out, h)
	}

	if err := s.store.ReplaceHabits(userID, out); err != nil {
		return nil, fmt.Errorf("save habits: %w", err)
	}
	logger.Info("Habits restored", "user_id", userID, "count", len(out))
	return out, nil
}

func (s *Service) mutate(userID, id string, fn func(h *habit.Habit) error) (habit.Habit, error) {
	var out habit.Habit
	err := s.store.UpdateHabits(userID, func(habits []habit.Habit) ([]habit.Habit, error) {
		i := indexOf(habits, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		h := habits[i]
		if err := fn(&h); err != nil {
			return nil, err
		}
		h.UpdatedAt = s.now().UTC()
		habits[i] = h
		out = h
		return habits, nil
	})
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound), errors.As(err, &verr):
		return habit.Habit{}, err
	case err != nil:
		return habit.Habit{}, fmt.Errorf("save habits: %w", err)
	}
	return out, nil
}

// validatePatch checks every supplied field up front and returns the merge to
// apply, so a bad field never reaches storage.
func (s *Service) validatePatch(p Patch) (func(h *habit.Habit), error) {
	var name string
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
	}
	var freq habit.Frequency
	if p.Frequency != nil {
		f, err := parseFrequency(*p.Frequency)
		if err != nil {
			return nil, err
		}
		freq = f
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > maxDescriptionLength {
		return nil, invalid("description", "must be 0-%d characters", maxDescriptionLength)
	}
	if p.ReminderTime != nil {
		if err := validateReminderTime(*p.ReminderTime); err != nil {
			return nil, err
		}
	}
	var dates []string
	if p.CompletedDates != nil {
		d, err := s.normalizeDates(*p.CompletedDates)
		if err != nil {
			return nil, err
		}
		dates = d
	}

	return func(h *habit.Habit) {
		if p.Name != nil {
			h.Name = name
		}
		if p.Description != nil {
			h.Description = *p.Description
		}
		if p.Frequency != nil {
			h.Frequency = freq
		}
		if p.Reminder != nil {
			h.Reminder = *p.Reminder
		}
		if p.ReminderTime != nil {
			h.ReminderTime = *p.ReminderTime
		}
		if p.CompletedDates != nil {
			h.CompletedDates = dates
		}
	}, nil
}

// normalizeDates validates dates and returns them as deduplicated
// YYYY-MM-DD days in their original order.
func (s *Service) normalizeDates(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, d := range in {
		day, err := habit.NormalizeDate(d, s.now().Location())
		if err != nil {
			return nil, invalid("completedDates", "%v", err)
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	return out, nil
}

func indexOf(habits []habit.Habit, id string) int {
	return slices.IndexFunc(habits, func(h habit.Habit) bool { return h.ID == id })
}

func validateName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return invalid("name", "must be 1-%d characters", maxNameLength)
	}
	return nil
}

func parseFrequency(s string) (habit.Frequency, error) {
	f, err := habit.ParseFrequency(s)
	if err != nil {
		return habit.Frequency{}, invalid("frequency", "%v", err)
	}
	return f, nil
}

func validateReminderTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(reminderTimeLayout, s); err != nil {
		return invalid("reminderTime", "must be HH:MM")
	}
	return nil
}
