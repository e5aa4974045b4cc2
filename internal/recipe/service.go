package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shared-kitchen/internal/docstore"
)

// ErrTitleRequired is returned when saving a draft without a title.
var ErrTitleRequired = errors.New("please enter a title")

// Service translates recipe box operations into document store calls.
type Service struct {
	store docstore.Store
}

// NewService creates a recipe Service.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// GetRecipe returns nil, nil when the recipe does not exist.
func (s *Service) GetRecipe(ctx context.Context, id string) (*Recipe, error) {
	doc, err := s.store.FetchOne(ctx, docstore.RecipesCollection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	rec := recipeFromDocument(*doc)
	return &rec, nil
}

// GetFavoriteRecipes reads the whole collection and keeps the favorites.
func (s *Service) GetFavoriteRecipes(ctx context.Context) ([]Recipe, error) {
	docs, err := s.store.FetchAll(ctx, docstore.RecipesCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipes: %w", err)
	}
	recipes := make([]Recipe, 0, len(docs))
	for _, doc := range docs {
		recipes = append(recipes, recipeFromDocument(doc))
	}
	return FavoriteRecipes(recipes), nil
}

// AddRecipe saves a draft as a new favorite and returns its id.
func (s *Service) AddRecipe(ctx context.Context, d Draft) (string, error) {
	if strings.TrimSpace(d.Title) == "" {
		return "", ErrTitleRequired
	}
	id, err := s.store.Insert(ctx, docstore.RecipesCollection, d.record())
	if err != nil {
		return "", fmt.Errorf("failed to add recipe %q: %w", d.Title, err)
	}
	return id, nil
}
