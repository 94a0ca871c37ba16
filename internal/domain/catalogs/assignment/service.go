package assignment

import (
	"context"
	"fmt"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/core/security"
	"foodchain/internal/core/tx"
	"foodchain/pkg/logger"
)

// Service manages retailer to manufacturer links.
type Service struct {
	repo   Repository
	txm    tx.Manager
	policy *security.Policy
}

// NewService creates a new Assignment service.
func NewService(repo Repository, txm tx.Manager, policy *security.Policy) *Service {
	return &Service{repo: repo, txm: txm, policy: policy}
}

// Assign activates the pair, reusing an inactive row when one exists.
// Assigning an already active pair fails with DUPLICATE_REFERENCE.
func (s *Service) Assign(ctx context.Context, retailerID, manufacturerID id.ID) (*Assignment, error) {
	user, err := s.policy.Authorize(ctx, security.ActionAssignmentWrite, security.Resource{})
	if err != nil {
		return nil, err
	}

	var result *Assignment
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByPair(ctx, retailerID, manufacturerID)
		switch {
		case err == nil:
			if existing.IsActive {
				return apperror.NewDuplicate("assignment", "retailer_manufacturer",
					fmt.Sprintf("%s/%s", retailerID, manufacturerID))
			}
			existing.IsActive = true
			existing.Stamp(user.UserID)
			existing.Touch()
			if err := s.repo.Update(ctx, existing); err != nil {
				return err
			}
			result = existing
			return nil
		case apperror.IsNotFound(err):
			a := NewAssignment(retailerID, manufacturerID, user.UserID)
			if err := a.Validate(ctx); err != nil {
				return err
			}
			if err := s.repo.Create(ctx, a); err != nil {
				return err
			}
			result = a
			return nil
		default:
			return fmt.Errorf("get assignment: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "assignment activated",
		"retailer_id", retailerID,
		"manufacturer_id", manufacturerID)
	return result, nil
}

// Unassign deactivates the pair. Documents already in flight are unaffected.
func (s *Service) Unassign(ctx context.Context, retailerID, manufacturerID id.ID) error {
	user, err := s.policy.Authorize(ctx, security.ActionAssignmentWrite, security.Resource{})
	if err != nil {
		return err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByPair(ctx, retailerID, manufacturerID)
		if err != nil {
			return err
		}
		if !a.IsActive {
			return nil
		}
		a.IsActive = false
		a.Stamp(user.UserID)
		a.Touch()
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "assignment deactivated",
		"retailer_id", retailerID,
		"manufacturer_id", manufacturerID)
	return nil
}

// IsActive reports whether the pair is currently assigned.
func (s *Service) IsActive(ctx context.Context, retailerID, manufacturerID id.ID) (bool, error) {
	a, err := s.repo.GetByPair(ctx, retailerID, manufacturerID)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.IsActive, nil
}

// RequireActive returns NO_ACTIVE_ASSIGNMENT unless the pair is active.
func (s *Service) RequireActive(ctx context.Context, retailerID, manufacturerID id.ID) error {
	ok, err := s.IsActive(ctx, retailerID, manufacturerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewBusinessRule(apperror.CodeNoActiveAssignment,
			"retailer is not assigned to this manufacturer").
			WithDetail("retailer_id", retailerID).
			WithDetail("manufacturer_id", manufacturerID)
	}
	return nil
}

// ListForRetailer returns the manufacturers a retailer is linked to.
func (s *Service) ListForRetailer(ctx context.Context, retailerID id.ID, activeOnly bool) ([]*Assignment, error) {
	return s.repo.ListByRetailer(ctx, retailerID, activeOnly)
}

// ListForManufacturer returns the retailers linked to a manufacturer.
func (s *Service) ListForManufacturer(ctx context.Context, manufacturerID id.ID, activeOnly bool) ([]*Assignment, error) {
	return s.repo.ListByManufacturer(ctx, manufacturerID, activeOnly)
}
