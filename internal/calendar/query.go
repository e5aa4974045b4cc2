package calendar

import (
	"slices"
	"time"
)

// WeekLength is the number of days shown in the week strip.
const WeekLength = 7

// WeeklyPlan keeps entries dated from start through start plus seven days,
// both ends inclusive, ordered by date. Entries sharing a date keep their
// input order.
//
// The window spans eight calendar days when start is midnight. The stored
// data has always been read this way, so the bound stays as it is.
func WeeklyPlan(entries []MealPlanEntry, start time.Time) []MealPlanEntry {
	end := start.AddDate(0, 0, WeekLength)

	plan := make([]MealPlanEntry, 0, len(entries))
	for _, e := range entries {
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		plan = append(plan, e)
	}
	slices.SortStableFunc(plan, func(a, b MealPlanEntry) int {
		return a.Date.Compare(b.Date)
	})
	return plan
}

// DayPlan keeps entries falling on the same calendar day as day. Both sides
// are compared in day's location with the time of day discarded.
func DayPlan(entries []MealPlanEntry, day time.Time) []MealPlanEntry {
	want := StartOfDay(day)

	var out []MealPlanEntry
	for _, e := range entries {
		if StartOfDay(e.Date.In(day.Location())).Equal(want) {
			out = append(out, e)
		}
	}
	return out
}

// WeekDays returns the strip of days starting at today.
func WeekDays(today time.Time) []time.Time {
	first := StartOfDay(today)
	days := make([]time.Time, WeekLength)
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b.In(a.Location())))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
