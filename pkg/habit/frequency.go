package habit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type FrequencyKind int

const (
	FrequencyUnknown FrequencyKind = iota
	FrequencyDaily
	FrequencyWeekly
	FrequencyDaysPerWeek
	FrequencyDaysPerMonth
)

// Frequency is the recurrence target of a habit. It travels as a string
// ("daily", "weekly", "3 days per week", "10 days per month").
type Frequency struct {
	Kind FrequencyKind
	Days int

	// raw keeps an unrecognised stored value so it round-trips unchanged.
	raw string
}

var (
	Daily  = Frequency{Kind: FrequencyDaily}
	Weekly = Frequency{Kind: FrequencyWeekly}
)

func DaysPerWeek(n int) Frequency  { return Frequency{Kind: FrequencyDaysPerWeek, Days: n} }
func DaysPerMonth(n int) Frequency { return Frequency{Kind: FrequencyDaysPerMonth, Days: n} }

// ParseFrequency parses the string form of a frequency.
func ParseFrequency(s string) (Frequency, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), " "))
	switch norm {
	case "":
		return Frequency{}, fmt.Errorf("frequency is required")
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	}

	parts := strings.Split(norm, " ")
	if len(parts) != 4 || (parts[1] != "days" && parts[1] != "day") || parts[2] != "per" {
		return Frequency{}, fmt.Errorf("unrecognised frequency %q", s)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n < 1 {
		return Frequency{}, fmt.Errorf("frequency %q: day count must be a positive integer", s)
	}
	switch parts[3] {
	case "week":
		return DaysPerWeek(n), nil
	case "month":
		return DaysPerMonth(n), nil
	}
	return Frequency{}, fmt.Errorf("frequency %q: period must be week or month", s)
}

func (f Frequency) Valid() bool {
	switch f.Kind {
	case FrequencyDaily, FrequencyWeekly:
		return true
	case FrequencyDaysPerWeek, FrequencyDaysPerMonth:
		return f.Days > 0
	}
	return false
}

func (f Frequency) String() string {
	switch f.Kind {
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyDaysPerWeek:
		return fmt.Sprintf("%d days per week", f.Days)
	case FrequencyDaysPerMonth:
		return fmt.Sprintf("%d days per month", f.Days)
	}
	return f.raw
}

// TargetRate is the completion percentage the frequency asks for.
func (f Frequency) TargetRate() float64 {
	switch f.Kind {
	case FrequencyDaily:
		return 100
	case FrequencyWeekly:
		return 100.0 / 7
	case FrequencyDaysPerWeek:
		return float64(f.Days) / 7 * 100
	case FrequencyDaysPerMonth:
		return float64(f.Days) / 30 * 100
	}
	return 0
}

func (f Frequency) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON never fails on an unrecognised pattern; such values decode
// to FrequencyUnknown so existing collections keep loading.
func (f *Frequency) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseFrequency(s)
	if err != nil {
		*f = Frequency{Kind: FrequencyUnknown, raw: s}
		return nil
	}
	*f = parsed
	return nil
}
