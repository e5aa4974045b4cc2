package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Importer fills a studio draft from a recipe web page.
type Importer struct {
	httpClient *http.Client
}

// NewImporter creates an Importer with the given client, or a default one
// with a 15 second timeout.
func NewImporter(client *http.Client) *Importer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Importer{httpClient: client}
}

// Import fetches url and extracts a draft. Structured recipe data
// (schema.org JSON-LD) is preferred; otherwise the page markup is scraped.
func (i *Importer) Import(ctx context.Context, url string) (Draft, error) {
	doc, err := i.fetch(ctx, url)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	draft, ok := fromJSONLD(doc)
	if !ok {
		draft = fromMarkup(doc)
	}
	if draft.Title == "" {
		return Draft{}, fmt.Errorf("no recipe found at %s", url)
	}
	draft.SourceURL = url
	return draft, nil
}

func (i *Importer) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

type ldRecipe struct {
	Type         any             `json:"@type"`
	Name         string          `json:"name"`
	Ingredients  []string        `json:"recipeIngredient"`
	Instructions json.RawMessage `json:"recipeInstructions"`
	Graph        []ldRecipe      `json:"@graph"`
}

func (r ldRecipe) isRecipe() bool {
	switch t := r.Type.(type) {
	case string:
		return t == "Recipe"
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func fromJSONLD(doc *goquery.Document) (Draft, bool) {
	var found *ldRecipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = findLDRecipe([]byte(s.Text()))
		return found == nil
	})
	if found == nil {
		return Draft{}, false
	}

	d := Draft{
		Title:        strings.TrimSpace(found.Name),
		Instructions: ldInstructions(found.Instructions),
	}
	d.SmartPaste(strings.Join(found.Ingredients, "\n"))
	return d, true
}

func findLDRecipe(data []byte) *ldRecipe {
	var candidates []ldRecipe
	var single ldRecipe
	if err := json.Unmarshal(data, &single); err == nil {
		candidates = append(candidates, single)
		candidates = append(candidates, single.Graph...)
	} else if err := json.Unmarshal(data, &candidates); err != nil {
		return nil
	}
	for i := range candidates {
		if candidates[i].isRecipe() {
			return &candidates[i]
		}
	}
	return nil
}

// ldInstructions accepts a plain string, a list of strings, or a list of
// HowToStep objects.
func ldInstructions(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	var steps []string
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			steps = append(steps, strings.TrimSpace(s))
			continue
		}
		var step struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(item, &step); err == nil && step.Text != "" {
			steps = append(steps, strings.TrimSpace(step.Text))
		}
	}
	return numberSteps(steps)
}

func fromMarkup(doc *goquery.Document) Draft {
	// Remove noise before reading text.
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	d := Draft{Title: strings.TrimSpace(doc.Find("h1").First().Text())}
	if d.Title == "" {
		d.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	var ingredients []string
	doc.Find(`[itemprop="recipeIngredient"], .ingredients li, .ingredient`).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			ingredients = append(ingredients, text)
		}
	})
	d.SmartPaste(strings.Join(ingredients, "\n"))

	var steps []string
	doc.Find(`[itemprop="recipeInstructions"], .instructions li`).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			steps = append(steps, text)
		}
	})
	d.Instructions = numberSteps(steps)
	return d
}

func numberSteps(steps []string) string {
	switch len(steps) {
	case 0:
		return ""
	case 1:
		return steps[0]
	}
	var sb strings.Builder
	for i, s := range steps {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Step %d: %s", i+1, s)
	}
	return sb.String()
}
