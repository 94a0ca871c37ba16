package sales

import (
	"context"
	"fmt"
	"strings"

	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/core/lock"
	"foodchain/internal/core/numerator"
	"foodchain/internal/core/security"
	"foodchain/internal/core/tx"
	"foodchain/internal/core/types"
	"foodchain/internal/domain"
	"foodchain/internal/domain/audit"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/commission"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/pkg/logger"
)

// NumeratorStrategy for sale numbers.
const NumeratorStrategy = numerator.StrategyCached

// Deps groups the collaborators of Service.
type Deps struct {
	Repo        Repository
	Materials   *material.Service
	Ledger      *inventory.Service
	Commissions *commission.Service
	Numerator   numerator.Generator
	TxManager   tx.Manager
	Locker      lock.Locker
	Policy      *security.Policy
	Audit       audit.Recorder
}

// Service records sales.
type Service struct {
	repo        Repository
	materials   *material.Service
	ledger      *inventory.Service
	commissions *commission.Service
	numerator   numerator.Generator
	txm         tx.Manager
	locker      lock.Locker
	policy      *security.Policy
	audit       audit.Recorder
}

// NewService creates a new sales service.
func NewService(d Deps) *Service {
	return &Service{
		repo:        d.Repo,
		materials:   d.Materials,
		ledger:      d.Ledger,
		commissions: d.Commissions,
		numerator:   d.Numerator,
		txm:         d.TxManager,
		locker:      d.Locker,
		policy:      d.Policy,
		audit:       d.Audit,
	}
}

// Record debits the calling retailer's stock and accrues the commission in one
// transaction.
func (s *Service) Record(ctx context.Context, cmd RecordCommand) (*Result, error) {
	user, err := s.policy.Authorize(ctx, security.ActionSaleRecord, security.Resource{})
	if err != nil {
		return nil, err
	}
	if cmd.SaleAmount != nil && cmd.SaleAmount.IsNegative() {
		return nil, apperror.NewValidation("saleAmount must not be negative").
			WithDetail("field", "saleAmount")
	}

	mat, err := s.materials.Resolve(ctx, cmd.Material)
	if err != nil {
		return nil, err
	}

	var result Result
	keys := []string{lock.InventoryKey(mat.ID, user.UserID)}
	err = lock.With(ctx, s.locker, keys, func(ctx context.Context) error {
		return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			// Re-read so the commission uses the rule in force at commit time.
			m, err := s.materials.GetByID(ctx, mat.ID)
			if err != nil {
				return err
			}

			sale := &Sale{
				Document:   entity.NewDocument(user.UserID),
				RetailerID: user.UserID,
				MaterialID: m.ID,
				Packets:    cmd.Packets,
				LooseUnits: cmd.LooseUnits,
				Note:       strings.TrimSpace(cmd.Note),
			}

			debit, err := s.ledger.RecordSale(ctx, inventory.Movement{
				MaterialID:    m.ID,
				OwnerID:       user.UserID,
				Quantity:      inventory.Quantity{Packets: cmd.Packets, LooseUnits: cmd.LooseUnits},
				ActorID:       user.UserID,
				ReferenceType: inventory.RefSale,
				ReferenceID:   sale.ID,
			}, m.UnitsPerPacket)
			if err != nil {
				return err
			}
			sale.UnitsSold = debit.UnitsSold
			sale.PacketsOpened = debit.PacketsOpened

			if cmd.SaleAmount != nil {
				sale.SaleAmount = types.Round(*cmd.SaleAmount)
			} else {
				sale.SaleAmount = MRPValue(m, cmd.Packets, cmd.LooseUnits)
			}

			sale.Number, err = numerator.Next(ctx, s.numerator, numerator.PrefixSale, NumeratorStrategy)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			if err := s.repo.Create(ctx, sale); err != nil {
				return fmt.Errorf("create sale: %w", err)
			}

			c, err := s.commissions.Accrue(ctx, commission.AccrueCommand{
				SaleID:     sale.ID,
				RetailerID: sale.RetailerID,
				Material:   m,
				UnitsSold:  sale.UnitsSold,
				SaleAmount: sale.SaleAmount,
				ActorID:    user.UserID,
			})
			if err != nil {
				return err
			}

			result = Result{Sale: sale, Commission: c}
			return audit.Record(ctx, s.audit, audit.Created(entityName, sale.ID, "", map[string]any{
				"number":        sale.Number,
				"unitsSold":     sale.UnitsSold,
				"packetsOpened": sale.PacketsOpened,
				"commissionId":  c.ID,
			}))
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale recorded",
		"id", result.Sale.ID,
		"number", result.Sale.Number,
		"units_sold", result.Sale.UnitsSold,
		"packets_opened", result.Sale.PacketsOpened)
	return &result, nil
}

// GetByID retrieves a sale visible to the caller.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, security.ActionDocumentRead,
		security.Resource{RetailerID: sale.RetailerID}); err != nil {
		return nil, err
	}
	return sale, nil
}

// List retrieves sales; retailers only see their own.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	user, err := security.Principal(ctx)
	if err != nil {
		return domain.ListResult[*Sale]{}, err
	}
	switch user.Role {
	case appctx.RoleAdmin:
	case appctx.RoleRetailer:
		filter.RetailerID = &user.UserID
	default:
		return domain.ListResult[*Sale]{}, apperror.NewForbidden("sales are visible to admins and retailers")
	}
	return s.repo.List(ctx, filter)
}
