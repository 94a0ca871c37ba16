package production

import (
	"context"
	"fmt"

	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/core/lock"
	"foodchain/internal/core/security"
	"foodchain/internal/core/tx"
	"foodchain/internal/domain"
	"foodchain/internal/domain/audit"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/pkg/logger"
)

const entityName = "production_batch"

// Service records production batches.
type Service struct {
	repo      Repository
	materials *material.Service
	ledger    *inventory.Service
	txm       tx.Manager
	locker    lock.Locker
	policy    *security.Policy
	audit     audit.Recorder
}

// NewService creates a new production service. recorder may be nil.
func NewService(
	repo Repository,
	materials *material.Service,
	ledger *inventory.Service,
	txm tx.Manager,
	locker lock.Locker,
	policy *security.Policy,
	recorder audit.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		materials: materials,
		ledger:    ledger,
		txm:       txm,
		locker:    locker,
		policy:    policy,
		audit:     recorder,
	}
}

// Record stores a batch for the calling manufacturer and credits its inventory.
// Batch insert, inventory credit and the material production flag commit together.
func (s *Service) Record(ctx context.Context, cmd RecordCommand) (*Batch, error) {
	user, err := s.policy.Authorize(ctx, security.ActionProductionRecord, security.Resource{})
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(ctx); err != nil {
		return nil, err
	}

	mat, err := s.materials.Resolve(ctx, cmd.Material)
	if err != nil {
		return nil, err
	}
	if err := mat.EnsureActive(); err != nil {
		return nil, err
	}

	var batch *Batch
	keys := []string{lock.InventoryKey(mat.ID, user.UserID)}
	err = lock.With(ctx, s.locker, keys, func(ctx context.Context) error {
		return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			exists, err := s.repo.ExistsByNumber(ctx, user.UserID, cmd.BatchNumber)
			if err != nil {
				return fmt.Errorf("check batch number: %w", err)
			}
			if exists {
				return apperror.NewDuplicate(entityName, "batchNumber", cmd.BatchNumber)
			}

			locked, err := s.materials.LockForProduction(ctx, mat.ID)
			if err != nil {
				return err
			}

			batch = newBatch(cmd, locked, user.UserID)
			if err := s.repo.Create(ctx, batch); err != nil {
				return err
			}

			_, err = s.ledger.AddProduction(ctx, inventory.Movement{
				MaterialID:    batch.MaterialID,
				OwnerID:       batch.ManufacturerID,
				Quantity:      inventory.Quantity{Packets: batch.Packets, LooseUnits: batch.LooseUnits},
				ActorID:       user.UserID,
				ReferenceType: inventory.RefProductionBatch,
				ReferenceID:   batch.ID,
				Note:          batch.BatchNumber,
			})
			if err != nil {
				return err
			}

			return audit.Record(ctx, s.audit, audit.Created(entityName, batch.ID, "", map[string]any{
				"batchNumber": batch.BatchNumber,
				"materialId":  batch.MaterialID,
				"packets":     batch.Packets,
				"looseUnits":  batch.LooseUnits,
			}))
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "production batch recorded",
		"id", batch.ID,
		"batch_number", batch.BatchNumber,
		"material_id", batch.MaterialID,
		"packets", batch.Packets,
		"loose_units", batch.LooseUnits)
	return batch, nil
}

// GetByID retrieves a batch. Manufacturers only see their own batches.
func (s *Service) GetByID(ctx context.Context, batchID id.ID) (*Batch, error) {
	b, err := s.repo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, security.ActionDocumentRead,
		security.Resource{ManufacturerID: b.ManufacturerID}); err != nil {
		return nil, err
	}
	return b, nil
}

// List retrieves batches. Non-admin callers are scoped to their own batches.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Batch], error) {
	user, err := security.Principal(ctx)
	if err != nil {
		return domain.ListResult[*Batch]{}, err
	}
	if !user.IsAdmin() {
		if user.Role != appctx.RoleManufacturer {
			return domain.ListResult[*Batch]{}, apperror.NewForbidden("only manufacturers can list batches")
		}
		filter.ManufacturerID = &user.UserID
	}
	return s.repo.List(ctx, filter)
}
