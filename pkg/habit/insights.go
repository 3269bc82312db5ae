package habit

import (
	"math"
	"time"
)

const (
	msgExceeding = "Excellent! You're exceeding your goals. Keep up the great work!"
	msgClose     = "Good progress! You're close to your target. Keep pushing!"
	msgProgress  = "You're making progress, but there's room for improvement. Stay focused!"
	msgLow       = "You might need to adjust your goals or find ways to build this habit more consistently. Don't give up!"
)

// Insights compares how often a habit was done in a window against what its
// frequency asks for. Rates are percentages.
type Insights struct {
	CompletionRate float64 `json:"completion_rate"`
	TargetRate     float64 `json:"target_rate"`
	Performance    float64 `json:"performance"`
	Message        string  `json:"message"`
}

// ComputeInsights scores the completions falling on windowDays against f.
// Timestamp entries are resolved to calendar days in loc.
func ComputeInsights(f Frequency, dates []string, windowDays []time.Time, loc *time.Location) Insights {
	var completionRate float64
	if len(windowDays) > 0 {
		done := daySet(dates, loc)
		matched := 0
		for _, d := range windowDays {
			if _, ok := done[civil(d)]; ok {
				matched++
			}
		}
		completionRate = float64(matched) / float64(len(windowDays)) * 100
	}

	target := f.TargetRate()
	var performance float64
	if target != 0 {
		performance = math.Min(100, completionRate/target*100)
	}

	return Insights{
		CompletionRate: completionRate,
		TargetRate:     target,
		Performance:    performance,
		Message:        performanceMessage(performance),
	}
}

func performanceMessage(performance float64) string {
	switch {
	case performance >= 100:
		return msgExceeding
	case performance >= 80:
		return msgClose
	case performance >= 50:
		return msgProgress
	default:
		return msgLow
	}
}

// Round returns a copy with every rate rounded to the nearest integer.
func (i Insights) Round() Insights {
	i.CompletionRate = math.Round(i.CompletionRate)
	i.TargetRate = math.Round(i.TargetRate)
	i.Performance = math.Round(i.Performance)
	return i
}
