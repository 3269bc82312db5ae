package tracker

import (
	"bytes"
	"encoding/json"
)

// Patch holds the fields supplied to a merge-update. Nil means "leave as is".
type Patch struct {
	Name           *string   `json:"name,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Frequency      *string   `json:"frequency,omitempty"`
	Reminder       *bool     `json:"reminder,omitempty"`
	ReminderTime   *string   `json:"reminderTime,omitempty"`
	CompletedDates *[]string `json:"completedDates,omitempty"`
}

var jsonNull = []byte("null")

// UnmarshalJSON decodes a partial habit. A null reminderTime clears it; other
// nulls are ignored, as are id, createdAt and unknown keys.
func (p *Patch) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	fields := []struct {
		key string
		dst any
	}{
		{"name", &p.Name},
		{"description", &p.Description},
		{"frequency", &p.Frequency},
		{"reminder", &p.Reminder},
		{"reminderTime", &p.ReminderTime},
		{"completedDates", &p.CompletedDates},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(v), jsonNull) {
			if f.key == "reminderTime" {
				empty := ""
				p.ReminderTime = &empty
			}
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return &ValidationError{Field: f.key, Msg: "wrong type"}
		}
	}
	return nil
}
