package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/doemee-app/match-engine/internal/cache"
	"github.com/doemee-app/match-engine/internal/config"
	"github.com/doemee-app/match-engine/internal/embedding"
	"github.com/doemee-app/match-engine/internal/notify"
	"github.com/doemee-app/match-engine/internal/weights"
)

// AppContext holds shared dependencies (DB, Redis, Logger, stores)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Weights    *weights.Store
	Embeddings *embedding.Store
	Notifier   notify.Dispatcher
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Weights:    weights.NewStore(db),
		Embeddings: embedding.NewStore(db, cfg.Matching.EmbeddingDim),
		Notifier:   notify.NewLogDispatcher(logger),
	}
}
