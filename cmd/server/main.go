package main

import (
	"context"

	"github.com/doemee-app/match-engine/internal/app"
	"github.com/doemee-app/match-engine/internal/cache"
	"github.com/doemee-app/match-engine/internal/config"
	"github.com/doemee-app/match-engine/internal/db"
	"github.com/doemee-app/match-engine/internal/logger"
	"github.com/doemee-app/match-engine/internal/server"
	"github.com/doemee-app/match-engine/internal/service/admin"
	"github.com/doemee-app/match-engine/internal/service/match"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(cfg, database, redisCache, log)

	registrars := []server.Registrar{
		match.NewRegistrar(appCtx),
		admin.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, cfg.Matching.EmbeddingDim); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
