package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sweetshop/sweetshop-api/internal/api"
	mongodb "github.com/sweetshop/sweetshop-api/internal/infrastructure/db/mongo"
	redisdb "github.com/sweetshop/sweetshop-api/internal/infrastructure/db/redis"
	"github.com/sweetshop/sweetshop-api/internal/pkg/config"
	"github.com/sweetshop/sweetshop-api/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// Prices render as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connect failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	defer rdb.Close()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	if cfg.SeedAdmin {
		if err := mongodb.SeedDevAdmin(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("admin seeding failed")
		}
		log.Warn().Msg("development admin account seeded")
	}

	e, err := api.NewRouter(db, rdb, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
