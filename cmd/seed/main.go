// Package main seeds a database with demo materials and a retailer to
// manufacturer assignment, and prints bearer tokens for the demo principals.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"foodchain/internal/app"
	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/domain/auth"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/infrastructure/storage/pgstore"
	"foodchain/internal/infrastructure/storage/postgres"
	"foodchain/pkg/logger"
)

type principal struct {
	name string
	role string
	id   id.ID
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	store, err := pgstore.Open(ctx, pgstore.Config{
		Pool:    postgres.DefaultPoolConfig(dbURL),
		Migrate: true,
		Audit:   true,
	})
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer store.Close()

	services := app.New(store.Repositories(), nil, nil)

	people := []principal{
		{name: "admin", role: appctx.RoleAdmin, id: envID("SEED_ADMIN_ID")},
		{name: "manufacturer", role: appctx.RoleManufacturer, id: envID("SEED_MANUFACTURER_ID")},
		{name: "retailer", role: appctx.RoleRetailer, id: envID("SEED_RETAILER_ID")},
	}
	adminCtx := appctx.WithUser(ctx, &appctx.UserContext{UserID: people[0].id, Role: appctx.RoleAdmin})

	if err := seedMaterials(adminCtx, services, log); err != nil {
		log.Fatalw("failed to seed materials", "error", err)
	}
	if _, err := services.Assignments.Assign(adminCtx, people[2].id, people[1].id); err != nil &&
		!apperror.Is(err, apperror.CodeDuplicateReference) {
		log.Fatalw("failed to assign retailer", "error", err)
	}
	log.Infow("retailer assigned", "retailer_id", people[2].id, "manufacturer_id", people[1].id)

	cfg := auth.DefaultJWTConfig(secret)
	cfg.AccessTokenTTL = 24 * time.Hour
	jwt := auth.NewJWTService(cfg)
	for _, p := range people {
		token, exp, err := jwt.GenerateAccessToken(p.id, p.name+"@foodchain.local", p.role)
		if err != nil {
			log.Fatalw("failed to issue token", "error", err)
		}
		fmt.Printf("%-13s id=%s expires=%s\n  %s\n", p.name, p.id, exp.Format(time.RFC3339), token)
	}
}

func seedMaterials(ctx context.Context, services *app.Services, log *logger.Logger) error {
	demo := []material.CreateCommand{
		{
			Code: "MLK-500", Name: "Toned milk 500ml", UnitsPerPacket: 12, HSNCode: "04012000",
			GSTRate: decimal.NewFromInt(5), MRPPerPacket: decimal.RequireFromString("336.00"),
			CommissionType: material.CommissionPercentage, CommissionValue: decimal.NewFromInt(4),
		},
		{
			Code: "GHE-1L", Name: "Cow ghee 1L", UnitsPerPacket: 6, HSNCode: "04059020",
			GSTRate: decimal.NewFromInt(12), MRPPerPacket: decimal.RequireFromString("3540.00"),
			CommissionType: material.CommissionFlatPerUnit, CommissionValue: decimal.NewFromInt(15),
		},
		{
			Code: "PNR-200", Name: "Paneer 200g", UnitsPerPacket: 10, HSNCode: "04061000",
			GSTRate: decimal.NewFromInt(5), MRPPerPacket: decimal.RequireFromString("900.00"),
			CommissionType: material.CommissionPercentage, CommissionValue: decimal.RequireFromString("3.5"),
		},
	}
	for _, cmd := range demo {
		m, err := services.Materials.Create(ctx, cmd)
		if apperror.Is(err, apperror.CodeDuplicateReference) {
			log.Infow("material already present", "code", cmd.Code)
			continue
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", cmd.Code, err)
		}
		log.Infow("material created", "code", m.Code, "id", m.ID)
	}
	return nil
}

func envID(key string) id.ID {
	if v := os.Getenv(key); v != "" {
		if parsed, err := id.Parse(v); err == nil {
			return parsed
		}
	}
	return id.New()
}
