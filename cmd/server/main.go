package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nbelova/order-matching/internal/adapter/cache"
	"github.com/nbelova/order-matching/internal/adapter/pg"
	"github.com/nbelova/order-matching/internal/api/http"
	"github.com/nbelova/order-matching/internal/config"
	"github.com/nbelova/order-matching/internal/core"
	"github.com/nbelova/order-matching/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadFromEnv("")

	logger, err := logging.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	dbpool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("failed to connect to Postgres", zap.Error(err))
	}
	defer dbpool.Close()

	repo := pg.NewRepository(dbpool)

	redisCache := cache.NewRedisCache(
		cfg.RedisAddr,
		"",
		cfg.RedisDB,
		cfg.CacheTTL,
	)
	engine := core.NewEngine(repo, redisCache, logger)

	server := http.NewHTTPServer(engine, logger)

	logger.Info("starting HTTP server", zap.String("addr", cfg.HTTPAddr))
	if err := server.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
