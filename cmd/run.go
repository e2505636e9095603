package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"pairline/api"
	"pairline/config"
	"pairline/database"
	"pairline/events"
	"pairline/realtime"
	"pairline/repository"
	"pairline/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting pairline...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	log.Println("Initializing event bus...")
	eventBus := events.NewBus()
	log.Println("Event bus initialized successfully")

	// Initialize unit of work factory
	log.Println("Initializing unit of work factory...")
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	log.Println("Unit of work factory initialized successfully")

	// Initialize services
	log.Println("Initializing services...")
	matchmakerService := service.NewMatchmakerService(uowFactory)
	presenceService := service.NewPresenceService(uowFactory)
	moderationService := service.NewModerationService(uowFactory)
	log.Println("Services initialized successfully")

	// Initialize realtime mirror
	log.Println("Initializing realtime hub...")
	hub := realtime.NewHub(eventBus, presenceService)
	log.Println("Realtime hub initialized successfully")

	// Initialize HTTP server
	server := api.NewServer(cfg, matchmakerService, presenceService, moderationService, hub)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Printf("Pairline is running in %s mode...", cfg.Environment)
	select {
	case err := <-serverErr:
		db.Close()
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
