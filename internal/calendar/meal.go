package calendar

import (
	"fmt"
	"time"

	"shared-kitchen/internal/docstore"
)

// DefaultMealType is used when a meal is scheduled without a type.
const DefaultMealType = "Dinner"

// MealPlanEntry is one scheduled meal on the calendar.
type MealPlanEntry struct {
	ID       string
	Title    string // copied from the recipe when scheduled
	RecipeID string // empty when the meal has no recipe to open
	Date     time.Time
	MealType string
	// WasCooked is toggled by the household; it is the only mutable field.
	WasCooked bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRecipe reports whether the entry can be opened in the detail view.
func (e MealPlanEntry) HasRecipe() bool {
	return e.RecipeID != ""
}

// NewMeal holds the fields a caller supplies when scheduling a meal.
type NewMeal struct {
	Title    string
	RecipeID string
	Date     time.Time
	MealType string
}

func (m NewMeal) record() docstore.Record {
	mealType := m.MealType
	if mealType == "" {
		mealType = DefaultMealType
	}
	rec := docstore.Record{
		"title":     m.Title,
		"date":      m.Date.Format(time.RFC3339Nano),
		"mealType":  mealType,
		"wasCooked": false,
	}
	if m.RecipeID != "" {
		rec["recipeId"] = m.RecipeID
	}
	return rec
}

// entryFromDocument decodes a calendar document. Documents without a
// readable date cannot be placed on the calendar and are rejected.
func entryFromDocument(doc docstore.Document) (MealPlanEntry, error) {
	rawDate, _ := doc.Data["date"].(string)
	date, err := time.Parse(time.RFC3339Nano, rawDate)
	if err != nil {
		return MealPlanEntry{}, fmt.Errorf("invalid date %q: %w", rawDate, err)
	}

	entry := MealPlanEntry{
		ID:        doc.ID,
		Date:      date,
		MealType:  DefaultMealType,
		CreatedAt: docstore.ParseTimestamp(doc.Data, docstore.FieldCreatedAt),
		UpdatedAt: docstore.ParseTimestamp(doc.Data, docstore.FieldUpdatedAt),
	}
	entry.Title, _ = doc.Data["title"].(string)
	entry.RecipeID, _ = doc.Data["recipeId"].(string)
	entry.WasCooked, _ = doc.Data["wasCooked"].(bool)
	if mt, ok := doc.Data["mealType"].(string); ok && mt != "" {
		entry.MealType = mt
	}
	return entry, nil
}
