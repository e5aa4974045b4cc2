package recipe

import (
	"regexp"
	"strings"

	"shared-kitchen/internal/docstore"
)

// leadingQuantity matches "2 ", "1/2 cup ", "1.5 tbsp " at the start of a line.
var leadingQuantity = regexp.MustCompile(`(?i)^[0-9./\s]+(cup|tsp|tbsp|oz|lb|g|kg|ml|l)?\s+`)

// Ingredient is one pasted line. Raw is what gets saved; Item is the line
// without its leading quantity, used for display while authoring.
type Ingredient struct {
	Raw  string
	Item string
}

// ParseIngredients splits pasted text into ingredients, one per non-blank line.
func ParseIngredients(text string) []Ingredient {
	var out []Ingredient
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, Ingredient{
			Raw:  line,
			Item: strings.TrimSpace(leadingQuantity.ReplaceAllString(line, "")),
		})
	}
	return out
}

// Draft is a recipe being authored in the studio.
type Draft struct {
	Title        string
	SmartText    string
	Ingredients  []Ingredient
	Instructions string
	SourceURL    string
}

// SmartPaste replaces the draft ingredients with those parsed from text.
func (d *Draft) SmartPaste(text string) {
	d.SmartText = text
	d.Ingredients = ParseIngredients(text)
}

// Empty reports whether nothing has been entered yet.
func (d Draft) Empty() bool {
	return d.Title == "" && d.SmartText == "" && len(d.Ingredients) == 0 && d.Instructions == ""
}

// record builds the stored form of a new favorite.
func (d Draft) record() docstore.Record {
	raw := make([]string, 0, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		raw = append(raw, ing.Raw)
	}
	rec := docstore.Record{
		"title":        d.Title,
		"ingredients":  raw,
		"instructions": d.Instructions,
		"isFavorite":   true,
		"time":         DefaultTime,
	}
	if d.SourceURL != "" {
		rec["sourceUrl"] = d.SourceURL
	}
	return rec
}
