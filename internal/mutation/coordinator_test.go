package mutation

import (
	"context"
	"testing"
	"time"

	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/docstore"
	"shared-kitchen/internal/metrics"
	"shared-kitchen/internal/recipe"

	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store   *docstore.MemoryStore
	meals   *calendar.Service
	recipes *recipe.Service
	metrics *metrics.Recorder
	coord   *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	f := &fixture{
		store:   store,
		meals:   calendar.NewService(store),
		recipes: recipe.NewService(store),
		metrics: metrics.NewRecorder(),
	}
	f.coord = NewCoordinator(f.meals, f.recipes, f.metrics)
	return f
}

func (f *fixture) seedMeal(t *testing.T, title string) []calendar.MealPlanEntry {
	t.Helper()
	_, err := f.meals.AddMealToPlan(context.Background(), calendar.NewMeal{Title: title, Date: monday})
	require.NoError(t, err)
	return f.reload(t)
}

func (f *fixture) reload(t *testing.T) []calendar.MealPlanEntry {
	t.Helper()
	plan, err := f.meals.GetWeeklyPlan(context.Background(), monday)
	require.NoError(t, err)
	return plan
}

func TestToggleCooked(t *testing.T) {
	ctx := context.Background()

	t.Run("OptimisticBeforeRemoteResolves", func(t *testing.T) {
		f := newFixture(t)
		entries := f.seedMeal(t, "Tacos")
		require.Len(t, entries, 1)
		require.False(t, entries[0].WasCooked)

		var seenDuringWrite *bool
		f.store.BeforeWrite = func(op docstore.Op, collection, id string) {
			v := entries[0].WasCooked
			seenDuringWrite = &v
		}
		var applying calendar.MealPlanEntry
		f.coord.OnApplying = func(e calendar.MealPlanEntry) { applying = e }

		out := f.coord.ToggleCooked(ctx, entries, entries[0].ID)

		require.True(t, out.Committed())
		require.NotNil(t, seenDuringWrite)
		require.True(t, *seenDuringWrite, "local state must show cooked before the store write")
		require.True(t, applying.WasCooked)
		require.True(t, entries[0].WasCooked)
		require.True(t, f.reload(t)[0].WasCooked)
	})

	t.Run("TwiceRestoresOriginal", func(t *testing.T) {
		f := newFixture(t)
		entries := f.seedMeal(t, "Soup")

		require.True(t, f.coord.ToggleCooked(ctx, entries, entries[0].ID).Committed())
		require.True(t, f.coord.ToggleCooked(ctx, entries, entries[0].ID).Committed())

		require.False(t, entries[0].WasCooked)
		require.False(t, f.reload(t)[0].WasCooked)
	})

	t.Run("FailureRollsBackToServerValueAfterReload", func(t *testing.T) {
		f := newFixture(t)
		entries := f.seedMeal(t, "Curry")
		f.store.FailOn(docstore.OpPatch, docstore.ErrStoreUnavailable)

		out := f.coord.ToggleCooked(ctx, entries, entries[0].ID)

		require.Equal(t, RolledBack, out.Status)
		require.ErrorIs(t, out.Reason, docstore.ErrStoreUnavailable)
		// The guess is still in the working set until the caller reloads.
		require.True(t, entries[0].WasCooked)
		entries = f.reload(t)
		require.False(t, entries[0].WasCooked)
	})

	t.Run("ReloadPicksUpConcurrentChange", func(t *testing.T) {
		f := newFixture(t)
		entries := f.seedMeal(t, "Pasta")
		// Another device marks it cooked, then our toggle to cooked fails.
		require.NoError(t, f.meals.UpdateMealStatus(ctx, entries[0].ID, true))
		f.store.FailOn(docstore.OpPatch, docstore.ErrStoreUnavailable)

		out := f.coord.ToggleCooked(ctx, entries, entries[0].ID)
		require.False(t, out.Committed())
		require.True(t, f.reload(t)[0].WasCooked)
	})

	t.Run("UnknownEntry", func(t *testing.T) {
		f := newFixture(t)
		var writes int
		f.store.BeforeWrite = func(docstore.Op, string, string) { writes++ }

		out := f.coord.ToggleCooked(ctx, nil, "missing")
		require.ErrorIs(t, out.Reason, ErrUnknownEntry)
		require.Zero(t, writes)
	})
}

func TestScheduleMeal(t *testing.T) {
	ctx := context.Background()
	rec := recipe.Recipe{ID: "r1", Title: "Lasagna"}

	t.Run("AppendsWithStoreID", func(t *testing.T) {
		f := newFixture(t)
		var entries []calendar.MealPlanEntry

		entry, out := f.coord.ScheduleMeal(ctx, &entries, rec, monday.Add(18*time.Hour))

		require.True(t, out.Committed())
		require.Len(t, entries, 1)
		require.NotEmpty(t, entry.ID)
		require.Equal(t, entry, entries[0])
		require.Equal(t, "Lasagna", entry.Title)
		require.Equal(t, calendar.DefaultMealType, entry.MealType)
		require.False(t, entry.WasCooked)

		stored := f.reload(t)
		require.Len(t, stored, 1)
		require.Equal(t, entry.ID, stored[0].ID)
	})

	t.Run("FailureLeavesWorkingSetUnchanged", func(t *testing.T) {
		f := newFixture(t)
		f.store.FailOn(docstore.OpInsert, docstore.ErrWriteRejected)
		entries := []calendar.MealPlanEntry{{ID: "existing"}}

		_, out := f.coord.ScheduleMeal(ctx, &entries, rec, monday)

		require.Equal(t, RolledBack, out.Status)
		require.Len(t, entries, 1)
	})
}

func TestSaveRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		id, out := f.coord.SaveRecipe(ctx, recipe.Draft{Title: "Pho"})
		require.True(t, out.Committed())
		require.NotEmpty(t, id)

		favs, err := f.recipes.GetFavoriteRecipes(ctx)
		require.NoError(t, err)
		require.Len(t, favs, 1)
		require.Equal(t, id, favs[0].ID)
	})

	t.Run("BlankTitle", func(t *testing.T) {
		f := newFixture(t)
		_, out := f.coord.SaveRecipe(ctx, recipe.Draft{})
		require.ErrorIs(t, out.Reason, recipe.ErrTitleRequired)
	})

	t.Run("OutcomesAreCounted", func(t *testing.T) {
		f := newFixture(t)
		f.coord.SaveRecipe(ctx, recipe.Draft{Title: "A"})
		f.coord.SaveRecipe(ctx, recipe.Draft{})

		summary, err := f.metrics.MutationSummary()
		require.NoError(t, err)
		require.Equal(t, []metrics.MutationCount{
			{Kind: KindSave, Outcome: "committed", Count: 1},
			{Kind: KindSave, Outcome: "rolled_back", Count: 1},
		}, summary)
	})
}
