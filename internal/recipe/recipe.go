package recipe

import (
	"time"

	"shared-kitchen/internal/docstore"
)

const (
	// DefaultTime is the cooking time in minutes given to new recipes.
	DefaultTime = 30
	// fallbackDisplayTime is shown for stored recipes that carry no time.
	fallbackDisplayTime = 20
	// NoInstructions is shown for recipes saved without instructions.
	NoInstructions = "No instructions provided yet."
)

// Recipe is an entry in the household recipe box.
type Recipe struct {
	ID           string
	Title        string
	Ingredients  []string // raw lines as pasted
	Instructions string
	// IsFavorite gates visibility: only favorites are ever listed.
	IsFavorite bool
	Time       int // minutes
	SourceURL  string
	CreatedAt  time.Time
}

// DisplayTime returns the cooking time to show, falling back for old records.
func (r Recipe) DisplayTime() int {
	if r.Time <= 0 {
		return fallbackDisplayTime
	}
	return r.Time
}

// DisplayInstructions returns the instructions or a placeholder.
func (r Recipe) DisplayInstructions() string {
	if r.Instructions == "" {
		return NoInstructions
	}
	return r.Instructions
}

func recipeFromDocument(doc docstore.Document) Recipe {
	rec := Recipe{
		ID:        doc.ID,
		CreatedAt: docstore.ParseTimestamp(doc.Data, docstore.FieldCreatedAt),
	}
	rec.Title, _ = doc.Data["title"].(string)
	rec.Instructions, _ = doc.Data["instructions"].(string)
	rec.IsFavorite, _ = doc.Data["isFavorite"].(bool)
	rec.SourceURL, _ = doc.Data["sourceUrl"].(string)
	switch v := doc.Data["time"].(type) {
	case float64:
		rec.Time = int(v)
	case int:
		rec.Time = v
	}
	switch v := doc.Data["ingredients"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				rec.Ingredients = append(rec.Ingredients, s)
			}
		}
	case []string:
		rec.Ingredients = append(rec.Ingredients, v...)
	}
	return rec
}
