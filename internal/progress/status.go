// Package progress turns raw portion and submission records into completion
// figures, deadline lists and leaderboard standings. Every function is pure:
// the reference day is always passed in by the caller.
package progress

import (
	"math"
	"time"
)

// Status is the classification of a portion relative to a reference day.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusDueToday  Status = "due-today"
	StatusPending   Status = "pending"
)

// Trackable is a curriculum unit tracked against a planned date.
// PlannedOn reports false when the record carries no usable planned date.
type Trackable interface {
	Completed() bool
	PlannedOn() (time.Time, bool)
}

// Midnight returns the start of the calendar day of t, expressed in loc.
// The calendar date is read in t's own location so that a stored DATE value
// keeps its day regardless of the caller's timezone.
func Midnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Classify assigns a portion its status for the given day. Completion always
// wins; undated portions are pending.
func Classify(item Trackable, today time.Time) Status {
	if item.Completed() {
		return StatusCompleted
	}

	planned, ok := item.PlannedOn()
	if !ok {
		return StatusPending
	}

	day := Midnight(today, today.Location())
	due := Midnight(planned, today.Location())

	switch {
	case due.Before(day):
		return StatusOverdue
	case due.Equal(day):
		return StatusDueToday
	default:
		return StatusPending
	}
}

// Undated returns the open items whose planned date is missing or unusable.
// Completed items are skipped since Classify never consults their date.
func Undated[T Trackable](items []T) []T {
	result := make([]T, 0)
	for _, item := range items {
		if item.Completed() {
			continue
		}
		if _, ok := item.PlannedOn(); !ok {
			result = append(result, item)
		}
	}
	return result
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}
