// Package pgstore assembles the PostgreSQL repositories into app.Repositories.
package pgstore

import (
	"context"
	"fmt"

	"foodchain/internal/app"
	"foodchain/internal/infrastructure/numerator"
	"foodchain/internal/infrastructure/storage/postgres"
	"foodchain/internal/infrastructure/storage/postgres/catalog_repo"
	"foodchain/internal/infrastructure/storage/postgres/document_repo"
	"foodchain/internal/infrastructure/storage/postgres/register_repo"
	"foodchain/migrations"
	"foodchain/pkg/logger"
)

// Config selects the database and optional features.
type Config struct {
	Pool    postgres.PoolConfig
	Migrate bool
	Audit   bool
}

// Store owns the pool and the repositories built on it.
type Store struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	repos     app.Repositories
}

// Open connects, optionally migrates, and builds the repositories.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	pool, err := postgres.NewPool(ctx, cfg.Pool)
	if err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if err := migrations.Up(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	txm := postgres.NewTxManager(pool)
	repos := app.Repositories{
		TxManager:   txm,
		Numerator:   numerator.NewWithTxManager(txm),
		Materials:   catalog_repo.NewMaterialRepo(txm),
		Assignments: catalog_repo.NewAssignmentRepo(txm),
		Inventory:   register_repo.NewInventoryRepo(txm),
		Production:  register_repo.NewProductionRepo(txm),
		Commissions: register_repo.NewCommissionRepo(txm),
		SRNs:        document_repo.NewSRNRepo(txm),
		Dispatches:  document_repo.NewDispatchRepo(txm),
		GRNs:        document_repo.NewGRNRepo(txm),
		Invoices:    document_repo.NewInvoiceRepo(txm),
		Returns:     document_repo.NewReturnRepo(txm),
		Sales:       document_repo.NewSaleRepo(txm),
	}
	if cfg.Audit {
		rec, err := postgres.NewAuditRecorder(txm)
		if err != nil {
			pool.Close()
			return nil, err
		}
		repos.Audit = rec
	}

	stats := pool.Stats()
	logger.Info(ctx, "postgres storage ready",
		"migrated", cfg.Migrate,
		"audit", cfg.Audit,
		"max_conns", stats.MaxConns,
		"total_conns", stats.TotalConns)
	return &Store{Pool: pool, TxManager: txm, repos: repos}, nil
}

// Repositories returns the repositories for app.New.
func (s *Store) Repositories() app.Repositories {
	return s.repos
}

// Close releases the pool.
func (s *Store) Close() {
	s.Pool.Close()
}
