package recipe

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FavoriteRecipes keeps favorites ordered by title, compared the way an
// English reader expects and without regard to case.
func FavoriteRecipes(recipes []Recipe) []Recipe {
	favorites := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.IsFavorite {
			favorites = append(favorites, r)
		}
	}

	c := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(favorites, func(a, b Recipe) int {
		return c.CompareString(a.Title, b.Title)
	})
	return favorites
}

// SearchTitles keeps recipes whose title contains query, ignoring case.
func SearchTitles(recipes []Recipe, query string) []Recipe {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return recipes
	}
	var out []Recipe
	for _, r := range recipes {
		if strings.Contains(strings.ToLower(r.Title), q) {
			out = append(out, r)
		}
	}
	return out
}
