package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	twitchauth "github.com/pysugar/twitch-nexus/internal/auth/twitch"
	"github.com/pysugar/twitch-nexus/internal/config"
	"github.com/pysugar/twitch-nexus/internal/db"
	"github.com/pysugar/twitch-nexus/internal/entries"
	"github.com/pysugar/twitch-nexus/internal/flow"
	"github.com/pysugar/twitch-nexus/internal/handlers"
	"github.com/pysugar/twitch-nexus/internal/helix"
	"github.com/pysugar/twitch-nexus/internal/issues"
	"github.com/pysugar/twitch-nexus/internal/version"
	"golang.org/x/oauth2"
)

func main() {
	dbPath := os.Getenv("NEXUS_DB")
	if dbPath == "" {
		dbPath = "twitch-nexus.db"
	}
	database, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	host := os.Getenv("HOST")
	if host == "" {
		host = "127.0.0.1" // Default to localhost, set HOST=0.0.0.0 for LAN access
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8087"
	}
	externalURL := os.Getenv("EXTERNAL_URL")
	if externalURL == "" {
		externalURL = "http://localhost:" + port
	}

	store := entries.NewStore(database)
	registry := issues.NewRegistry(database)
	client := helix.NewClient(os.Getenv("TWITCH_CLIENT_ID"))
	manager := flow.NewManager(store, registry, client, func(redirectURL string) *oauth2.Config {
		return twitchauth.ConfigFromEnv(redirectURL)
	}, externalURL)

	// Import legacy YAML configuration before serving anything.
	legacyPath := os.Getenv("LEGACY_CONFIG")
	if legacyPath != "" {
		importLegacy(manager, legacyPath)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get(flow.CallbackPath, flow.HandleCallback(manager))

	r.Route("/api", func(r chi.Router) {
		r.Post("/flows", handlers.StartFlowHandler(manager))
		r.Post("/flows/{flowID}", handlers.ConfigureFlowHandler(manager))
		r.Get("/entries", handlers.EntriesHandler(store))
		r.Get("/issues", handlers.IssuesHandler(registry))
		r.Get("/version", handlers.VersionHandler())
	})

	addr := host + ":" + port
	log.Printf("[main] twitch-nexus %s starting on http://%s", version.Version, addr)
	log.Printf("[main] OAuth callback: http://%s%s", addr, flow.CallbackPath)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// importLegacy runs the import flow for every Twitch block in the legacy
// configuration file. Aborts are reported as issues by the flow itself and
// must not prevent startup.
func importLegacy(manager *flow.Manager, path string) {
	blocks, err := config.LoadLegacy(path)
	if err != nil {
		log.Printf("[main] skipping legacy import: %v", err)
		return
	}
	for _, block := range blocks {
		result, err := manager.StartImport(context.Background(), block)
		if err != nil {
			log.Printf("[main] legacy import failed: %v", err)
			continue
		}
		if result.Type == flow.TypeAbort {
			log.Printf("[main] legacy import aborted: %s", result.Reason)
		}
	}
}
