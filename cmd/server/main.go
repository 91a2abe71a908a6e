package main

import (
	"fmt"
	"os"

	"github.com/glowcart-dev/glowcart/internal/config"
	"github.com/glowcart-dev/glowcart/internal/logger"
	"github.com/glowcart-dev/glowcart/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	// Create server
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Seed the catalog on an empty database
	seedFile := os.Getenv("SEED_FILE")
	if seedFile == "" {
		seedFile = "seed/items.yaml"
	}
	if err := srv.SeedCatalog(seedFile); err != nil {
		log.Fatal().Err(err).Str("file", seedFile).Msg("Failed to seed catalog")
	}

	log.Info().Str("version", version).Msg("Starting Glowcart server...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
