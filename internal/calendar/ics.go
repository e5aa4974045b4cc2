package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
)

const icsProductID = "-//Shared Kitchen//Meal Calendar//EN"

// ExportICS writes entries as all-day events. Cooked meals are marked in the
// description so calendar apps show progress through the week.
func ExportICS(w io.Writer, entries []MealPlanEntry, stamp time.Time) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, e := range entries {
		event := cal.AddEvent(e.ID + "@shared-kitchen")
		event.SetDtStampTime(stamp)
		if !e.CreatedAt.IsZero() {
			event.SetCreatedTime(e.CreatedAt)
		}
		if !e.UpdatedAt.IsZero() {
			event.SetModifiedAt(e.UpdatedAt)
		}
		day := StartOfDay(e.Date)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("%s: %s", e.MealType, e.Title))
		if e.WasCooked {
			event.SetDescription("Cooked")
		} else {
			event.SetDescription("Planned")
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}
