// cmd/real-intent-rest-api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	v1 "github.com/Standard-Labs/real-intent/internal/api/rest/v1"
	"github.com/Standard-Labs/real-intent/internal/app"
	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/eventgen"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/eventstore"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/intentapi"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/persistence"
	"github.com/Standard-Labs/real-intent/internal/pkg/config"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "../../configs/rest-app.yaml"
	}

	restConfig, err := config.InitializeRestConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	// Initialize logger
	if err := logger.InitLogger(&restConfig.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log, err := logger.GetLogger()
	if err != nil {
		return fmt.Errorf("failed to get logger: %w", err)
	}

	// Initialize application dependencies
	deps, err := initializeDependencies(restConfig, log)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	// Setup and start server with graceful shutdown
	return startServerWithGracefulShutdown(restConfig, deps, log)
}

// appDependencies holds all initialized application components
type appDependencies struct {
	intentClient  *intentapi.Client
	journal       leads.Journal
	eventsService *app.EventsService
}

// initializeDependencies sets up all application components
func initializeDependencies(cfg *config.RestConfig, log logger.Logger) (*appDependencies, error) {
	// Initialize the intent API client
	intentClient, err := intentapi.NewClient(&cfg.IntentAPI, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create intent client: %w", err)
	}

	// Initialize the delivery journal
	db, err := persistence.NewDBConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create db connection: %w", err)
	}

	journal, err := persistence.NewGormJournalRepository(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal repository: %w", err)
	}
	log.Info("Delivery journal initialized successfully")

	// Initialize the events service when configured
	eventsService, err := initializeEventsService(cfg, log)
	if err != nil {
		return nil, err
	}

	return &appDependencies{
		intentClient:  intentClient,
		journal:       journal,
		eventsService: eventsService,
	}, nil
}

// initializeEventsService wires the event generator and cache. Returns nil
// when no event source is configured.
func initializeEventsService(cfg *config.RestConfig, log logger.Logger) (*app.EventsService, error) {
	perplexityKey := os.Getenv("PERPLEXITY_API_KEY")
	if perplexityKey == "" {
		log.Warn("PERPLEXITY_API_KEY not set, event routes are disabled")
		return nil, nil
	}
	generator := eventgen.NewPerplexityGenerator(perplexityKey, log)

	var store *eventstore.MongoStore
	if cfg.EventStore.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var err error
		store, err = eventstore.NewMongoStore(ctx, cfg.EventStore, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create event store: %w", err)
		}
		log.Info("Event store initialized successfully")
	}

	if store == nil {
		return app.NewEventsService(generator, nil, log), nil
	}
	return app.NewEventsService(generator, store, log), nil
}

// startServerWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func startServerWithGracefulShutdown(cfg *config.RestConfig, deps *appDependencies, log logger.Logger) error {
	// Setup router
	r := gin.Default()

	// Configure CORS
	if cfg.Server.EnableCORS {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Setup API routes
	var eventsProvider v1.EventsProvider
	if deps.eventsService != nil {
		eventsProvider = deps.eventsService
	}
	v1.SetupRoutes(r, deps.intentClient, deps.journal, eventsProvider, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attack
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting server on port ", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		return err
	case sig := <-quit:
		log.Info("Received signal ", sig, ", initiating graceful shutdown")
	}

	// Graceful shutdown with timeout
	shutdownSeconds := cfg.Server.ShutdownSeconds
	if shutdownSeconds <= 0 {
		shutdownSeconds = 15
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(shutdownSeconds)*time.Second)
	defer cancel()

	log.Info("Shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}
