package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/config"
	"shared-kitchen/internal/database"
	"shared-kitchen/internal/docstore"
	"shared-kitchen/internal/recipe"
	"shared-kitchen/internal/shopping"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store := docstore.NewSQLiteStore(db.SQL)
	meals := calendar.NewService(store)
	recipes := recipe.NewService(store)
	today := calendar.StartOfDay(time.Now().In(cfg.Location))

	switch os.Args[1] {
	case "week":
		plan, err := meals.GetWeeklyPlan(ctx, today)
		if err != nil {
			log.Fatalf("Failed to load weekly plan: %v", err)
		}
		printWeek(os.Stdout, plan, cfg.Location)
	case "favorites":
		favs, err := recipes.GetFavoriteRecipes(ctx)
		if err != nil {
			log.Fatalf("Failed to load recipes: %v", err)
		}
		for _, r := range favs {
			fmt.Printf("%s  %s (%d min)\n", r.ID, r.Title, r.DisplayTime())
		}
	case "shopping":
		list, err := shopping.NewService(meals, recipes).ForWeek(ctx, today)
		if err != nil {
			log.Fatalf("Failed to build shopping list: %v", err)
		}
		for _, item := range list.Items {
			fmt.Printf("- %s (%s)\n", item.Name, strings.Join(item.Meals, ", "))
		}
		if list.Unlinked > 0 {
			fmt.Printf("%d planned meals have no recipe.\n", list.Unlinked)
		}
	case "add-recipe":
		addCmd := flag.NewFlagSet("add-recipe", flag.ExitOnError)
		title := addCmd.String("title", "", "Recipe title")
		ingredients := addCmd.String("ingredients", "", "Ingredient lines, separated by newlines or ';'")
		instructions := addCmd.String("instructions", "", "Cooking instructions")
		addCmd.Parse(os.Args[2:])

		d := recipe.Draft{Title: strings.TrimSpace(*title), Instructions: *instructions}
		d.SmartPaste(strings.ReplaceAll(*ingredients, ";", "\n"))
		id, err := recipes.AddRecipe(ctx, d)
		if err != nil {
			log.Fatalf("Failed to add recipe: %v", err)
		}
		fmt.Printf("Saved %q as %s\n", d.Title, id)
	case "import":
		if len(os.Args) < 3 {
			log.Fatalf("Usage: kitchen import <url>")
		}
		d, err := recipe.NewImporter(nil).Import(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		id, err := recipes.AddRecipe(ctx, d)
		if err != nil {
			log.Fatalf("Failed to add recipe: %v", err)
		}
		fmt.Printf("Imported %q (%d ingredients) as %s\n", d.Title, len(d.Ingredients), id)
	case "export-ics":
		exportCmd := flag.NewFlagSet("export-ics", flag.ExitOnError)
		out := exportCmd.String("o", "", "Output file (default stdout)")
		exportCmd.Parse(os.Args[2:])

		plan, err := meals.GetWeeklyPlan(ctx, today)
		if err != nil {
			log.Fatalf("Failed to load weekly plan: %v", err)
		}
		var w io.Writer = os.Stdout
		if *out != "" {
			f, err := os.Create(*out)
			if err != nil {
				log.Fatalf("Failed to create %s: %v", *out, err)
			}
			defer f.Close()
			w = f
		}
		if err := calendar.ExportICS(w, plan, time.Now()); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printWeek(w io.Writer, plan []calendar.MealPlanEntry, loc *time.Location) {
	if len(plan) == 0 {
		fmt.Fprintln(w, "Nothing planned this week.")
		return
	}
	for _, e := range plan {
		mark := "[ ]"
		if e.WasCooked {
			mark = "[x]"
		}
		fmt.Fprintf(w, "%s  %s %s: %s\n", e.Date.In(loc).Format("Mon Jan 2"), mark, e.MealType, e.Title)
	}
}

func printUsage() {
	fmt.Println("Usage: kitchen <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  week               Show meals planned from today through the next week")
	fmt.Println("  favorites          List favorite recipes")
	fmt.Println("  shopping           Shopping list for meals not yet cooked this week")
	fmt.Println("  add-recipe         Save a recipe (-title, -ingredients, -instructions)")
	fmt.Println("  import <url>       Import a recipe from a web page")
	fmt.Println("  export-ics         Write this week's plan as iCalendar (-o file)")
}
