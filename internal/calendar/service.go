package calendar

import (
	"context"
	"fmt"
	"log"
	"time"

	"shared-kitchen/internal/docstore"
)

// Service translates calendar operations into document store calls.
type Service struct {
	store docstore.Store
}

// NewService creates a calendar Service.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// GetWeeklyPlan reads the whole calendar collection and keeps the week
// starting at start. The store offers no query the app can rely on, so the
// filtering happens here.
func (s *Service) GetWeeklyPlan(ctx context.Context, start time.Time) ([]MealPlanEntry, error) {
	entries, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return WeeklyPlan(entries, start), nil
}

// ListAll decodes every calendar document in store order.
func (s *Service) ListAll(ctx context.Context) ([]MealPlanEntry, error) {
	docs, err := s.store.FetchAll(ctx, docstore.CalendarCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}

	entries := make([]MealPlanEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := entryFromDocument(doc)
		if err != nil {
			log.Printf("Warning: skipping calendar entry %s: %v", doc.ID, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// UpdateMealStatus records whether a meal was cooked.
func (s *Service) UpdateMealStatus(ctx context.Context, mealID string, cooked bool) error {
	if err := s.store.Patch(ctx, docstore.CalendarCollection, mealID, docstore.Record{
		"wasCooked": cooked,
	}); err != nil {
		return fmt.Errorf("failed to update meal %s: %w", mealID, err)
	}
	return nil
}

// AddMealToPlan schedules a meal and returns the id the store assigned.
func (s *Service) AddMealToPlan(ctx context.Context, meal NewMeal) (string, error) {
	id, err := s.store.Insert(ctx, docstore.CalendarCollection, meal.record())
	if err != nil {
		return "", fmt.Errorf("failed to add meal %q: %w", meal.Title, err)
	}
	return id, nil
}
