package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is read from the environment.
type Config struct {
	Env      string
	LogLevel string
	Port     string

	// Storage is "memory" or "postgres"
	Storage     string
	DatabaseURL string
	DBMaxConns  int
	DBTimeout   time.Duration
	Migrate     bool
	Audit       bool

	JWTSecret string

	// RedisAddr enables the distributed locker; empty keeps locks in-process
	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration
	LockWait      time.Duration
}

func loadConfig() (Config, error) {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Env:           getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnv("APP_PORT", "8080"),
		Storage:       getEnv("STORAGE", "memory"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBMaxConns:    getEnvInt("DB_MAX_CONNS", 25),
		DBTimeout:     getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		Migrate:       getEnvBool("MIGRATE", true),
		Audit:         getEnvBool("AUDIT_ENABLED", true),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LockTTL:       getEnvDuration("LOCK_TTL", 30*time.Second),
		LockWait:      getEnvDuration("LOCK_WAIT", 10*time.Second),
	}

	switch cfg.Storage {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	default:
		return cfg, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}
	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			return cfg, fmt.Errorf("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
