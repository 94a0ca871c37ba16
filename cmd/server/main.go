// Package main is the entry point for the foodchain API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodchain/internal/app"
	"foodchain/internal/core/lock"
	"foodchain/internal/domain/auth"
	v1 "foodchain/internal/infrastructure/http/v1"
	"foodchain/internal/infrastructure/cache"
	"foodchain/internal/infrastructure/storage/memory"
	"foodchain/internal/infrastructure/storage/pgstore"
	"foodchain/internal/infrastructure/storage/postgres"
	"foodchain/pkg/logger"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting foodchain server", "storage", cfg.Storage, "env", cfg.Env)

	// --- Storage ---
	var (
		repos app.Repositories
		pool  *postgres.Pool
	)
	switch cfg.Storage {
	case "postgres":
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
		poolCfg.StatementTimeout = cfg.DBTimeout
		store, err := pgstore.Open(ctx, pgstore.Config{Pool: poolCfg, Migrate: cfg.Migrate, Audit: cfg.Audit})
		if err != nil {
			log.Fatalw("failed to open postgres storage", "error", err)
		}
		defer store.Close()
		repos, pool = store.Repositories(), store.Pool
	default:
		repos = memory.New().Repositories()
		log.Warn("using in-memory storage; data is lost on restart")
	}

	// --- Locks ---
	var locker lock.Locker
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer rdb.Close()

		lockCfg := cache.DefaultLockerConfig()
		lockCfg.TTL = cfg.LockTTL
		lockCfg.Wait = cfg.LockWait
		locker = cache.NewRedisLocker(rdb, lockCfg)
		log.Infow("redis locker enabled", "addr", cfg.RedisAddr, "ttl", cfg.LockTTL)
	}

	services := app.New(repos, locker, nil)

	// --- Router ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))
	router, err := v1.NewRouter(v1.RouterConfig{
		Services:     services,
		Pool:         pool,
		Storage:      cfg.Storage,
		Logger:       log,
		JWTValidator: jwtService,
		Debug:        cfg.Env == "development",
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
