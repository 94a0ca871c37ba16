package material

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/core/security"
	"foodchain/internal/core/tx"
	"foodchain/internal/domain"
	"foodchain/pkg/logger"
)

// Service provides business logic for the Material catalog.
type Service struct {
	repo   Repository
	txm    tx.Manager
	policy *security.Policy
}

// NewService creates a new Material service.
func NewService(repo Repository, txm tx.Manager, policy *security.Policy) *Service {
	return &Service{
		repo:   repo,
		txm:    txm,
		policy: policy,
	}
}

// CreateCommand carries the fields of a new material.
type CreateCommand struct {
	Code            string
	Name            string
	UnitsPerPacket  int64
	HSNCode         string
	GSTRate         decimal.Decimal
	MRPPerPacket    decimal.Decimal
	CommissionType  CommissionType
	CommissionValue decimal.Decimal
}

// UpdateCommand is a partial update; nil fields are left unchanged.
type UpdateCommand struct {
	Name            *string
	UnitsPerPacket  *int64
	HSNCode         *string
	GSTRate         *decimal.Decimal
	MRPPerPacket    *decimal.Decimal
	CommissionType  *CommissionType
	CommissionValue *decimal.Decimal

	// ExpectedVersion enables optimistic locking when non-zero.
	ExpectedVersion int
}

// Create registers a new material. Codes are unique.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Material, error) {
	user, err := s.policy.Authorize(ctx, security.ActionMaterialWrite, security.Resource{})
	if err != nil {
		return nil, err
	}

	m := NewMaterial(cmd.Code, cmd.Name, cmd.UnitsPerPacket, user.UserID)
	m.HSNCode = strings.TrimSpace(cmd.HSNCode)
	m.GSTRate = cmd.GSTRate
	m.MRPPerPacket = cmd.MRPPerPacket
	m.CommissionValue = cmd.CommissionValue
	if cmd.CommissionType != "" {
		m.CommissionType = cmd.CommissionType
	}
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByCode(ctx, m.Code)
		if err != nil && !apperror.IsNotFound(err) {
			return fmt.Errorf("check code: %w", err)
		}
		if existing != nil {
			return apperror.NewDuplicate("material", "code", m.Code)
		}
		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material created", "id", m.ID, "code", m.Code)
	return m, nil
}

// Update applies cmd. unitsPerPacket can never change; hsnCode and gstRate
// are frozen once the material has been produced.
func (s *Service) Update(ctx context.Context, materialID id.ID, cmd UpdateCommand) (*Material, error) {
	user, err := s.policy.Authorize(ctx, security.ActionMaterialWrite, security.Resource{})
	if err != nil {
		return nil, err
	}

	var updated *Material
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetForUpdate(ctx, materialID)
		if err != nil {
			return err
		}
		if cmd.ExpectedVersion != 0 && cmd.ExpectedVersion != m.Version {
			return apperror.NewConcurrentModification("material", materialID)
		}
		if err := applyUpdate(m, cmd); err != nil {
			return err
		}
		if err := m.Validate(ctx); err != nil {
			return err
		}
		m.Stamp(user.UserID)
		m.Touch()
		if err := s.repo.Update(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material updated", "id", updated.ID, "version", updated.Version)
	return updated, nil
}

func applyUpdate(m *Material, cmd UpdateCommand) error {
	if cmd.UnitsPerPacket != nil && *cmd.UnitsPerPacket != m.UnitsPerPacket {
		return apperror.NewImmutableField("material", "unitsPerPacket")
	}
	if cmd.HSNCode != nil && strings.TrimSpace(*cmd.HSNCode) != m.HSNCode {
		if m.HasProduction {
			return apperror.NewImmutableField("material", "hsnCode")
		}
		m.HSNCode = strings.TrimSpace(*cmd.HSNCode)
	}
	if cmd.GSTRate != nil && !cmd.GSTRate.Equal(m.GSTRate) {
		if m.HasProduction {
			return apperror.NewImmutableField("material", "gstRate")
		}
		m.GSTRate = *cmd.GSTRate
	}
	if cmd.Name != nil {
		m.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.MRPPerPacket != nil {
		m.MRPPerPacket = *cmd.MRPPerPacket
	}
	if cmd.CommissionType != nil {
		m.CommissionType = *cmd.CommissionType
	}
	if cmd.CommissionValue != nil {
		m.CommissionValue = *cmd.CommissionValue
	}
	return nil
}

// Deactivate soft-deletes a material. Existing stock is kept.
func (s *Service) Deactivate(ctx context.Context, materialID id.ID) error {
	return s.setActive(ctx, materialID, false)
}

// Activate restores a deactivated material.
func (s *Service) Activate(ctx context.Context, materialID id.ID) error {
	return s.setActive(ctx, materialID, true)
}

func (s *Service) setActive(ctx context.Context, materialID id.ID, active bool) error {
	user, err := s.policy.Authorize(ctx, security.ActionMaterialWrite, security.Resource{})
	if err != nil {
		return err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetForUpdate(ctx, materialID)
		if err != nil {
			return err
		}
		if m.IsActive == active {
			return nil
		}
		m.IsActive = active
		m.Stamp(user.UserID)
		m.Touch()
		return s.repo.Update(ctx, m)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "material activation changed", "id", materialID, "active", active)
	return nil
}

// LockForProduction locks the material row inside the caller's transaction,
// checks that it is active and sets HasProduction on first use. The returned
// material carries the tax fields valid for the batch being recorded.
func (s *Service) LockForProduction(ctx context.Context, materialID id.ID) (*Material, error) {
	if err := tx.Require(ctx, s.txm); err != nil {
		return nil, err
	}

	m, err := s.repo.GetForUpdate(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if err := m.EnsureActive(); err != nil {
		return nil, err
	}
	if m.HasProduction {
		return m, nil
	}

	m.HasProduction = true
	m.Touch()
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("mark material produced: %w", err)
	}
	logger.Info(ctx, "material tax fields locked", "id", m.ID, "hsn_code", m.HSNCode)
	return m, nil
}

// GetByID retrieves a material.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*Material, error) {
	return s.repo.GetByID(ctx, materialID)
}

// Resolve finds a material by id or code.
func (s *Service) Resolve(ctx context.Context, ref Ref) (*Material, error) {
	switch {
	case ref.ID != nil && !id.IsNil(*ref.ID):
		return s.repo.GetByID(ctx, *ref.ID)
	case strings.TrimSpace(ref.Code) != "":
		return s.repo.GetByCode(ctx, strings.TrimSpace(ref.Code))
	default:
		return nil, apperror.NewValidation("material id or code is required").
			WithDetail("field", "material")
	}
}

// List retrieves materials with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Material], error) {
	return s.repo.List(ctx, filter)
}
