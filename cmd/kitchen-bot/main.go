package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shared-kitchen/internal/auth"
	"shared-kitchen/internal/calendar"
	"shared-kitchen/internal/config"
	"shared-kitchen/internal/database"
	"shared-kitchen/internal/docstore"
	"shared-kitchen/internal/metrics"
	"shared-kitchen/internal/mutation"
	"shared-kitchen/internal/recipe"
	"shared-kitchen/internal/shopping"
	"shared-kitchen/internal/telegram"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Open the document store
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store := docstore.NewSQLiteStore(db.SQL)
	recorder := metrics.NewRecorder()

	// 3. Initialize Services
	meals := calendar.NewService(store)
	recipes := recipe.NewService(store)
	gate := auth.NewGate(
		auth.NewAllowList(cfg.Household.Emails()...),
		auth.NewTokenIssuer(cfg.SessionSecret, auth.DefaultSessionTTL),
	)

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, telegram.Services{
		Gate:        gate,
		Meals:       meals,
		Recipes:     recipes,
		Coordinator: mutation.NewCoordinator(meals, recipes, recorder),
		Importer:    recipe.NewImporter(nil),
		Shopping:    shopping.NewService(meals, recipes),
		Metrics:     recorder,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 5. Start Server with Graceful Shutdown
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Printf("Kitchen Bot Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
