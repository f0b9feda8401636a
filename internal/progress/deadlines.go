package progress

import (
	"sort"
	"strconv"
	"time"
)

// DefaultUpcomingWindowDays is the look-ahead used for upcoming deadlines.
const DefaultUpcomingWindowDays = 7

// Deadline is an uncompleted portion falling inside the upcoming window.
type Deadline[T Trackable] struct {
	Item        T
	PlannedDate time.Time
	DaysUntil   int
}

// Lapse is an overdue portion with the number of days it has slipped.
type Lapse[T Trackable] struct {
	Item        T
	PlannedDate time.Time
	DaysOverdue int
}

// Upcoming extracts uncompleted portions planned between today and
// today+windowDays, both ends inclusive, ordered by DaysUntil.
//
// DaysUntil is derived from the raw distance between the two normalized
// days and is independent of Classify, so the two may disagree around a
// daylight saving transition.
func Upcoming[T Trackable](items []T, today time.Time, windowDays int) []Deadline[T] {
	if windowDays < 0 {
		windowDays = 0
	}

	start := Midnight(today, today.Location())
	end := start.AddDate(0, 0, windowDays)

	result := make([]Deadline[T], 0)
	for _, item := range items {
		if item.Completed() {
			continue
		}
		planned, ok := item.PlannedOn()
		if !ok {
			continue
		}
		due := Midnight(planned, today.Location())
		if due.Before(start) || due.After(end) {
			continue
		}
		result = append(result, Deadline[T]{
			Item:        item,
			PlannedDate: due,
			DaysUntil:   ceilDays(due.Sub(start)),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DaysUntil < result[j].DaysUntil
	})
	return result
}

// Overdue lists the portions classified overdue, most slipped first.
func Overdue[T Trackable](items []T, today time.Time) []Lapse[T] {
	start := Midnight(today, today.Location())

	result := make([]Lapse[T], 0)
	for _, item := range items {
		if Classify(item, today) != StatusOverdue {
			continue
		}
		planned, _ := item.PlannedOn()
		due := Midnight(planned, today.Location())
		result = append(result, Lapse[T]{
			Item:        item,
			PlannedDate: due,
			DaysOverdue: ceilDays(start.Sub(due)),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DaysOverdue > result[j].DaysOverdue
	})
	return result
}

// DeadlineLabel renders the display bucket for a DaysUntil value.
func DeadlineLabel(daysUntil int) string {
	switch daysUntil {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return strconv.Itoa(daysUntil) + " days"
	}
}
