package recipe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, status int, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestImporter(t *testing.T) {
	ctx := context.Background()
	imp := NewImporter(nil)

	t.Run("JSONLDGraph", func(t *testing.T) {
		ts := serve(t, http.StatusOK, `
		<html><head>
			<script type="application/ld+json">
			{"@context": "https://schema.org", "@graph": [
				{"@type": "WebPage", "name": "Blog"},
				{"@type": ["Recipe"], "name": "Shakshuka",
				 "recipeIngredient": ["4 eggs", "1 can tomatoes"],
				 "recipeInstructions": [{"@type": "HowToStep", "text": "Simmer sauce."}, {"@type": "HowToStep", "text": "Poach eggs."}]}
			]}
			</script>
		</head><body><h1>Something else</h1></body></html>`)

		d, err := imp.Import(ctx, ts.URL)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if d.Title != "Shakshuka" {
			t.Errorf("Expected title 'Shakshuka', got '%s'", d.Title)
		}
		if len(d.Ingredients) != 2 || d.Ingredients[1].Raw != "1 can tomatoes" {
			t.Errorf("Unexpected ingredients: %+v", d.Ingredients)
		}
		if d.Instructions != "Step 1: Simmer sauce.\nStep 2: Poach eggs." {
			t.Errorf("Unexpected instructions: %q", d.Instructions)
		}
		if d.SourceURL != ts.URL {
			t.Errorf("Expected SourceURL to be recorded, got %q", d.SourceURL)
		}
	})

	t.Run("MarkupFallback", func(t *testing.T) {
		ts := serve(t, http.StatusOK, `
		<html><head><script>alert('bad');</script></head>
		<body>
			<h1>Tasty Pancakes</h1>
			<div class="ads">Buy stuff!</div>
			<ul class="ingredients"><li>2 cups flour</li><li>1 egg</li></ul>
			<ol class="instructions"><li>Whisk.</li></ol>
			<footer>Copyright 2024</footer>
		</body></html>`)

		d, err := imp.Import(ctx, ts.URL)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if d.Title != "Tasty Pancakes" {
			t.Errorf("Expected title 'Tasty Pancakes', got '%s'", d.Title)
		}
		if len(d.Ingredients) != 2 {
			t.Errorf("Expected 2 ingredients, got %d", len(d.Ingredients))
		}
		if d.Instructions != "Whisk." {
			t.Errorf("Expected 'Whisk.', got %q", d.Instructions)
		}
		if strings.Contains(d.Instructions, "Buy stuff") {
			t.Error("Expected ads to be removed")
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		ts := serve(t, http.StatusInternalServerError, "")
		if _, err := imp.Import(ctx, ts.URL); err == nil {
			t.Fatal("Expected an error for non-200 status code, got nil")
		}
	})

	t.Run("NoRecipe", func(t *testing.T) {
		ts := serve(t, http.StatusOK, `<html><body><p>Nothing here</p></body></html>`)
		if _, err := imp.Import(ctx, ts.URL); err == nil {
			t.Fatal("Expected an error for a page without a recipe, got nil")
		}
	})
}
