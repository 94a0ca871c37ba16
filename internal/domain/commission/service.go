package commission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/core/security"
	"foodchain/internal/core/tx"
	"foodchain/internal/core/types"
	"foodchain/internal/domain"
	"foodchain/internal/domain/audit"
	"foodchain/pkg/logger"
)

// Service provides the commission ledger.
type Service struct {
	repo   Repository
	txm    tx.Manager
	policy *security.Policy
	audit  audit.Recorder
}

// NewService creates a new commission service.
func NewService(repo Repository, txm tx.Manager, policy *security.Policy, recorder audit.Recorder) *Service {
	return &Service{repo: repo, txm: txm, policy: policy, audit: recorder}
}

// Accrue inserts a PENDING commission for a sale using the material's current
// rule. It joins the sale's transaction.
func (s *Service) Accrue(ctx context.Context, cmd AccrueCommand) (*Commission, error) {
	if err := tx.Require(ctx, s.txm); err != nil {
		return nil, err
	}
	if cmd.Material == nil {
		return nil, apperror.NewValidation("material is required")
	}

	m := cmd.Material
	c := &Commission{
		BaseEntity: entity.NewBaseEntity(),
		Timestamps: entity.NewTimestamps(cmd.ActorID),
		SaleID:     cmd.SaleID,
		RetailerID: cmd.RetailerID,
		MaterialID: m.ID,
		RuleType:   m.CommissionType,
		RuleValue:  m.CommissionValue,
		UnitsSold:  cmd.UnitsSold,
		SaleAmount: cmd.SaleAmount,
		Amount:     Compute(m.CommissionType, m.CommissionValue, cmd.UnitsSold, cmd.SaleAmount),
		Status:     StatusPending,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create commission: %w", err)
	}

	logger.Debug(ctx, "commission accrued",
		"id", c.ID,
		"sale_id", c.SaleID,
		"amount", c.Amount.StringFixed(types.MoneyScale))
	return c, nil
}

// MarkPaid settles one PENDING commission.
func (s *Service) MarkPaid(ctx context.Context, commissionID id.ID, reference string) (*Commission, error) {
	user, err := s.policy.Authorize(ctx, security.ActionCommissionPay, security.Resource{})
	if err != nil {
		return nil, err
	}

	var c *Commission
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err = s.repo.GetForUpdate(ctx, commissionID)
		if err != nil {
			return err
		}
		if c.Status != StatusPending {
			return apperror.NewInvalidState(entityName, string(c.Status), "pay")
		}
		return s.pay(ctx, c, strings.TrimSpace(reference), user.UserID, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "commission paid", "id", c.ID, "amount", c.Amount.StringFixed(types.MoneyScale))
	return c, nil
}

// MarkAllPaid settles every PENDING commission of a retailer and returns how many were paid.
func (s *Service) MarkAllPaid(ctx context.Context, retailerID id.ID, reference string) (int, error) {
	user, err := s.policy.Authorize(ctx, security.ActionCommissionPay, security.Resource{})
	if err != nil {
		return 0, err
	}

	var count int
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		pending, err := s.repo.ListPendingForUpdate(ctx, retailerID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, c := range pending {
			if err := s.pay(ctx, c, strings.TrimSpace(reference), user.UserID, now); err != nil {
				return err
			}
		}
		count = len(pending)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "commissions paid in bulk", "retailer_id", retailerID, "count", count)
	return count, nil
}

func (s *Service) pay(ctx context.Context, c *Commission, reference string, actor id.ID, at time.Time) error {
	c.Status = StatusPaid
	c.PaidAt = &at
	c.PaymentReference = reference
	c.Stamp(actor)
	c.Touch()
	if err := s.repo.Update(ctx, c); err != nil {
		return fmt.Errorf("update commission: %w", err)
	}
	return audit.Record(ctx, s.audit, audit.Transition(entityName, c.ID,
		string(StatusPending), string(StatusPaid), map[string]any{"reference": reference}))
}

// Summary returns pending and paid totals for a retailer.
// Retailers may only read their own summary.
func (s *Service) Summary(ctx context.Context, retailerID id.ID) (Summary, error) {
	if _, err := s.policy.Authorize(ctx, security.ActionDocumentRead, security.Resource{RetailerID: retailerID}); err != nil {
		return Summary{}, err
	}
	sum, err := s.repo.Summary(ctx, retailerID)
	if err != nil {
		return Summary{}, err
	}
	sum.RetailerID = retailerID
	return sum, nil
}

// GetByID retrieves a commission visible to the caller.
func (s *Service) GetByID(ctx context.Context, commissionID id.ID) (*Commission, error) {
	c, err := s.repo.GetByID(ctx, commissionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, security.ActionDocumentRead, security.Resource{RetailerID: c.RetailerID}); err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves commissions; retailers only see their own.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Commission], error) {
	user, err := security.Principal(ctx)
	if err != nil {
		return domain.ListResult[*Commission]{}, err
	}
	switch user.Role {
	case appctx.RoleAdmin:
	case appctx.RoleRetailer:
		filter.RetailerID = &user.UserID
	default:
		return domain.ListResult[*Commission]{}, apperror.NewForbidden("commissions are visible to admins and retailers")
	}
	return s.repo.List(ctx, filter)
}
