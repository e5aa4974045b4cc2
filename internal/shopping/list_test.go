package shopping

import (
	"context"
	"testing"
	"time"

	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/docstore"
	"shared-kitchen/internal/recipe"

	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestBuild(t *testing.T) {
	recipes := map[string]recipe.Recipe{
		"r1": {ID: "r1", Title: "Tacos", Ingredients: []string{"1 lb beef", "8 tortillas", "200 g Cheese"}},
		"r2": {ID: "r2", Title: "Quesadillas", Ingredients: []string{"4 tortillas", "1 cup cheese"}},
	}
	plan := []calendar.MealPlanEntry{
		{ID: "m1", Title: "Tacos", RecipeID: "r1", Date: monday},
		{ID: "m2", Title: "Quesadillas", RecipeID: "r2", Date: monday.AddDate(0, 0, 1)},
		{ID: "m3", Title: "Tacos", RecipeID: "r1", Date: monday.AddDate(0, 0, 2)},
		{ID: "m4", Title: "Leftovers", Date: monday.AddDate(0, 0, 3)},
		{ID: "m5", Title: "Soup", RecipeID: "gone", Date: monday.AddDate(0, 0, 4)},
		{ID: "m6", Title: "Done", RecipeID: "r2", Date: monday, WasCooked: true},
	}

	list := Build(monday, plan, recipes)

	require.Equal(t, 2, list.Unlinked)
	require.Equal(t, []Item{
		{Name: "beef", Meals: []string{"Tacos"}},
		{Name: "Cheese", Meals: []string{"Tacos", "Quesadillas"}},
		{Name: "tortillas", Meals: []string{"Tacos", "Quesadillas"}},
	}, list.Items)
}

func TestServiceForWeek(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	meals := calendar.NewService(store)
	recipes := recipe.NewService(store)

	d := recipe.Draft{Title: "Pancakes"}
	d.SmartPaste("250 g flour\n2 eggs\n1 cup milk")
	id, err := recipes.AddRecipe(ctx, d)
	require.NoError(t, err)
	_, err = meals.AddMealToPlan(ctx, calendar.NewMeal{Title: "Pancakes", RecipeID: id, Date: monday.Add(9 * time.Hour)})
	require.NoError(t, err)

	list, err := NewService(meals, recipes).ForWeek(ctx, monday)
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	require.Equal(t, "eggs", list.Items[0].Name)

	store.FailOn(docstore.OpFetchAll, docstore.ErrStoreUnavailable)
	_, err = NewService(meals, recipes).ForWeek(ctx, monday)
	require.ErrorIs(t, err, docstore.ErrStoreUnavailable)
}
