// Package shopping derives a shopping list from the meals still to be
// cooked this week.
package shopping

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/recipe"
)

// Item is one ingredient and the meals that need it.
type Item struct {
	Name  string
	Meals []string
}

// List is the shopping list for a week.
type List struct {
	WeekStart time.Time
	Items     []Item
	// Unlinked counts planned meals that have no recipe to shop for.
	Unlinked int
}

// Build merges the ingredients of every uncooked meal in plan. Ingredients
// are matched on their name with quantities stripped, ignoring case.
func Build(weekStart time.Time, plan []calendar.MealPlanEntry, recipes map[string]recipe.Recipe) List {
	list := List{WeekStart: weekStart}
	index := make(map[string]int)

	for _, e := range plan {
		if e.WasCooked {
			continue
		}
		rec, ok := recipes[e.RecipeID]
		if !e.HasRecipe() || !ok {
			list.Unlinked++
			continue
		}
		for _, ing := range recipe.ParseIngredients(strings.Join(rec.Ingredients, "\n")) {
			key := strings.ToLower(ing.Item)
			i, seen := index[key]
			if !seen {
				i = len(list.Items)
				index[key] = i
				list.Items = append(list.Items, Item{Name: ing.Item})
			}
			if !slices.Contains(list.Items[i].Meals, e.Title) {
				list.Items[i].Meals = append(list.Items[i].Meals, e.Title)
			}
		}
	}

	slices.SortStableFunc(list.Items, func(a, b Item) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return list
}

// MealReader loads the calendar.
type MealReader interface {
	GetWeeklyPlan(ctx context.Context, start time.Time) ([]calendar.MealPlanEntry, error)
}

// RecipeReader resolves recipe references.
type RecipeReader interface {
	GetRecipe(ctx context.Context, id string) (*recipe.Recipe, error)
}

// Service builds lists from the store.
type Service struct {
	meals   MealReader
	recipes RecipeReader
}

// NewService creates a shopping list service.
func NewService(meals MealReader, recipes RecipeReader) *Service {
	return &Service{meals: meals, recipes: recipes}
}

// ForWeek builds the list for the week starting at start. Recipes that
// fail to load are left out and logged.
func (s *Service) ForWeek(ctx context.Context, start time.Time) (List, error) {
	plan, err := s.meals.GetWeeklyPlan(ctx, start)
	if err != nil {
		return List{}, fmt.Errorf("failed to load weekly plan: %w", err)
	}

	recipes := make(map[string]recipe.Recipe)
	for _, e := range plan {
		if !e.HasRecipe() || e.WasCooked {
			continue
		}
		if _, done := recipes[e.RecipeID]; done {
			continue
		}
		rec, err := s.recipes.GetRecipe(ctx, e.RecipeID)
		if err != nil {
			log.Printf("Warning: failed to load recipe %s for shopping list: %v", e.RecipeID, err)
			continue
		}
		if rec != nil {
			recipes[e.RecipeID] = *rec
		}
	}
	return Build(start, plan, recipes), nil
}
