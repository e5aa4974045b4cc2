package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"shared-kitchen/internal/docstore"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	start := day(2024, time.January, 1, 0)

	t.Run("AddMealToPlanDefaults", func(t *testing.T) {
		store := docstore.NewMemoryStore()
		svc := NewService(store)

		id, err := svc.AddMealToPlan(ctx, NewMeal{Title: "Curry", RecipeID: "r1", Date: day(2024, time.January, 2, 18)})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		doc, _ := store.FetchOne(ctx, docstore.CalendarCollection, id)
		if doc == nil {
			t.Fatal("Expected the meal to be stored")
		}
		if doc.Data["mealType"] != DefaultMealType {
			t.Errorf("Expected mealType %q, got %v", DefaultMealType, doc.Data["mealType"])
		}
		if doc.Data["wasCooked"] != false {
			t.Errorf("Expected wasCooked false, got %v", doc.Data["wasCooked"])
		}
		if _, ok := doc.Data[docstore.FieldCreatedAt]; !ok {
			t.Error("Expected the store to stamp createdAt")
		}
	})

	t.Run("GetWeeklyPlanFiltersAndDecodes", func(t *testing.T) {
		store := docstore.NewMemoryStore()
		svc := NewService(store)

		for _, m := range []NewMeal{
			{Title: "Later", Date: day(2024, time.January, 5, 0), MealType: "Lunch"},
			{Title: "Too late", Date: day(2024, time.January, 20, 0)},
			{Title: "First", RecipeID: "r1", Date: day(2024, time.January, 1, 0)},
		} {
			if _, err := svc.AddMealToPlan(ctx, m); err != nil {
				t.Fatalf("Failed to seed meal: %v", err)
			}
		}
		// A document nobody can place on the calendar.
		store.Insert(ctx, docstore.CalendarCollection, docstore.Record{"title": "No date"})

		plan, err := svc.GetWeeklyPlan(ctx, start)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(plan) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(plan))
		}
		if plan[0].Title != "First" || !plan[0].HasRecipe() {
			t.Errorf("Expected First with a recipe, got %+v", plan[0])
		}
		if plan[1].MealType != "Lunch" {
			t.Errorf("Expected Lunch, got %s", plan[1].MealType)
		}
		if plan[0].CreatedAt.IsZero() {
			t.Error("Expected CreatedAt to be decoded")
		}
	})

	t.Run("UpdateMealStatus", func(t *testing.T) {
		store := docstore.NewMemoryStore()
		svc := NewService(store)
		id, _ := svc.AddMealToPlan(ctx, NewMeal{Title: "Soup", Date: start})

		if err := svc.UpdateMealStatus(ctx, id, true); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		plan, _ := svc.GetWeeklyPlan(ctx, start)
		if !plan[0].WasCooked {
			t.Error("Expected the meal to be cooked")
		}
		if plan[0].UpdatedAt.IsZero() {
			t.Error("Expected the store to stamp updatedAt")
		}

		err := svc.UpdateMealStatus(ctx, "missing", true)
		if !errors.Is(err, docstore.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("StoreUnavailable", func(t *testing.T) {
		store := docstore.NewMemoryStore()
		store.FailOn(docstore.OpFetchAll, docstore.ErrStoreUnavailable)
		svc := NewService(store)

		_, err := svc.GetWeeklyPlan(ctx, start)
		if !errors.Is(err, docstore.ErrStoreUnavailable) {
			t.Errorf("Expected ErrStoreUnavailable, got %v", err)
		}
	})
}
