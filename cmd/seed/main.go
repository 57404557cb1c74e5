package main

import (
	"log"

	"github.com/doemee-app/match-engine/internal/config"
	"github.com/doemee-app/match-engine/internal/db"
)

func main() {
	// Load configuration
	cfg := config.New()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := db.SeedTestData(database, cfg.Matching.EmbeddingDim); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}
}
