/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave planner server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and environment
  2. Load the policy table
  3. Initialize SQLite store
  4. Create API handler with dependencies
  5. Start the baby price refresher (when search credentials are set)
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port         HTTP server port (default: 8080)
  -db           SQLite database path (default: leave.db)
                Use ":memory:" for in-memory database
  -policies     YAML policy table (default: built-in table)
  -origins      Comma-separated CORS origins
  -price-check  Stale price check interval (default: 24h)

ENVIRONMENT:
  NARRATION_API_KEY       Bearer token for the chat completions API
  NARRATION_MODEL         Model name (default: mistralai/Mistral-7B-Instruct-v0.3)
  NARRATION_BASE_URL      API base URL (default: https://router.huggingface.co/v1)
  NARRATION_ENABLED       Set to false to turn narration off with a key present
  PRICE_SEARCH_KEY        Custom search API key for baby product prices
  PRICE_SEARCH_ENGINE_ID  Custom search engine ID

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the price refresher
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with in-memory database and narration
  NARRATION_API_KEY=hf_xxx ./server -db=":memory:"

  # Run with a custom policy table
  ./server -policies=./policies.yaml -port=3000

SEE ALSO:
  - config.go: Flag and environment parsing
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/leave-planner/api"
	"github.com/warp/leave-planner/babycost"
	"github.com/warp/leave-planner/narration"
	"github.com/warp/leave-planner/policy"
	"github.com/warp/leave-planner/store/sqlite"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Policy table
	policies := policy.Default()
	if cfg.PoliciesPath != "" {
		if policies, err = policy.LoadFile(cfg.PoliciesPath); err != nil {
			log.Fatalf("Failed to load policies: %v", err)
		}
	}
	log.Printf("Loaded %d jurisdiction policies", len(policies.List()))

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, policies)
	chat := narration.NewChatClient(cfg.Narration)
	handler.Narration = &narration.Enhancer{Rewriter: chat, Enabled: cfg.NarrationEnabled}
	if cfg.NarrationEnabled {
		log.Printf("[Narration] Enabled with model %s", chat.Model())
	} else {
		log.Println("[Narration] Disabled (set NARRATION_API_KEY to enable)")
	}

	// Price refresher
	refresher := babycost.NewRefresher(store, babycost.NewSearchFetcher(cfg.PriceSearchKey, cfg.PriceSearchEngine))
	refresher.CheckInterval = cfg.PriceCheckEvery
	refresher.Enabled = cfg.priceRefreshEnabled()
	refresher.Start()

	// Create router
	router := api.NewRouter(handler, cfg.Origins...)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	refresher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
