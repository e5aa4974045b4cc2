// Package mutation applies user actions to the local working set and the
// remote store. Toggles are applied locally first; the caller reloads from
// the store when an outcome is RolledBack.
package mutation

import (
	"context"
	"errors"
	"log"
	"time"

	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/metrics"
	"shared-kitchen/internal/recipe"
)

// Status is the terminal state of one mutation attempt.
type Status int

const (
	Committed Status = iota
	RolledBack
)

func (s Status) String() string {
	if s == Committed {
		return "committed"
	}
	return "rolled_back"
}

// Mutation kinds, used as metric labels.
const (
	KindToggle   = "toggle"
	KindSchedule = "schedule"
	KindSave     = "save"
)

// ErrUnknownEntry is returned when a toggle targets an entry that is not in
// the working set.
var ErrUnknownEntry = errors.New("meal is not in the current plan")

// Outcome is the tagged result of a mutation. Reason is set when RolledBack.
type Outcome struct {
	Status Status
	Reason error
}

// Committed reports whether the remote write succeeded.
func (o Outcome) Committed() bool {
	return o.Status == Committed
}

// MealWriter is the calendar side of the document store adapter.
type MealWriter interface {
	UpdateMealStatus(ctx context.Context, mealID string, cooked bool) error
	AddMealToPlan(ctx context.Context, meal calendar.NewMeal) (string, error)
}

// RecipeWriter is the recipe side of the document store adapter.
type RecipeWriter interface {
	AddRecipe(ctx context.Context, d recipe.Draft) (string, error)
}

// Coordinator runs mutations. It never touches UI state beyond the working
// set it is handed.
type Coordinator struct {
	meals   MealWriter
	recipes RecipeWriter
	metrics *metrics.Recorder

	// OnApplying, when set, is called with the optimistic entry after the
	// local flip and before the remote write.
	OnApplying func(entry calendar.MealPlanEntry)
}

// NewCoordinator creates a Coordinator. rec may be nil.
func NewCoordinator(meals MealWriter, recipes RecipeWriter, rec *metrics.Recorder) *Coordinator {
	return &Coordinator{meals: meals, recipes: recipes, metrics: rec}
}

// ToggleCooked flips WasCooked for mealID in entries, then writes the new
// value. On failure the local guess is left for the caller to discard by
// reloading; it is not inverted here because the store may have moved on.
func (c *Coordinator) ToggleCooked(ctx context.Context, entries []calendar.MealPlanEntry, mealID string) Outcome {
	idx := -1
	for i := range entries {
		if entries[i].ID == mealID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c.finish(KindToggle, ErrUnknownEntry)
	}

	target := !entries[idx].WasCooked
	entries[idx].WasCooked = target
	if c.OnApplying != nil {
		c.OnApplying(entries[idx])
	}

	err := c.meals.UpdateMealStatus(ctx, mealID, target)
	if err != nil {
		log.Printf("Update failed: %v", err)
	}
	return c.finish(KindToggle, err)
}

// ScheduleMeal adds rec to the calendar on date. The working set only grows
// once the store has assigned an id.
func (c *Coordinator) ScheduleMeal(ctx context.Context, entries *[]calendar.MealPlanEntry, rec recipe.Recipe, date time.Time) (calendar.MealPlanEntry, Outcome) {
	meal := calendar.NewMeal{
		Title:    rec.Title,
		RecipeID: rec.ID,
		Date:     date,
		MealType: calendar.DefaultMealType,
	}
	id, err := c.meals.AddMealToPlan(ctx, meal)
	if err != nil {
		// TODO: surface schedule failures to the user instead of only logging them.
		log.Printf("Failed to add meal: %v", err)
		return calendar.MealPlanEntry{}, c.finish(KindSchedule, err)
	}

	entry := calendar.MealPlanEntry{
		ID:       id,
		Title:    meal.Title,
		RecipeID: meal.RecipeID,
		Date:     meal.Date,
		MealType: meal.MealType,
	}
	*entries = append(*entries, entry)
	return entry, c.finish(KindSchedule, nil)
}

// SaveRecipe stores a draft. There is no optimistic phase: the caller
// reloads favorites on success so the listing carries store-assigned fields.
func (c *Coordinator) SaveRecipe(ctx context.Context, d recipe.Draft) (string, Outcome) {
	id, err := c.recipes.AddRecipe(ctx, d)
	if err != nil {
		log.Printf("Failed to save recipe: %v", err)
	}
	return id, c.finish(KindSave, err)
}

func (c *Coordinator) finish(kind string, err error) Outcome {
	o := Outcome{Status: Committed}
	if err != nil {
		o = Outcome{Status: RolledBack, Reason: err}
	}
	c.metrics.RecordMutation(kind, o.Status.String())
	return o
}
