package progress

import (
	"math"
	"time"
)

// Summary is the folded completion state of a collection of portions.
type Summary struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
	Percentage int `json:"percentage"`
}

// Pending is the number of portions not yet completed, overdue ones included.
func (s Summary) Pending() int {
	return s.Total - s.Completed
}

// Aggregate folds a portion collection into counts and a rounded completion
// percentage. It does not group; callers partition with GroupBy first.
func Aggregate[T Trackable](items []T, today time.Time) Summary {
	summary := Summary{Total: len(items)}
	for _, item := range items {
		if item.Completed() {
			summary.Completed++
			continue
		}
		if Classify(item, today) == StatusOverdue {
			summary.Overdue++
		}
	}
	summary.Percentage = Percentage(summary.Completed, summary.Total)
	return summary
}

// Percentage returns part/whole as a whole-number percentage, rounded to the
// nearest integer. A zero whole yields 0.
func Percentage(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
