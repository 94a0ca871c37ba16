package grn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/core/lock"
	"foodchain/internal/core/numerator"
	"foodchain/internal/core/security"
	"foodchain/internal/core/tx"
	"foodchain/internal/domain"
	"foodchain/internal/domain/audit"
	"foodchain/internal/domain/documents/dispatch"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/pkg/logger"
)

// NumeratorStrategy for GRN numbers.
const NumeratorStrategy = numerator.StrategyStrict

// Deps groups the collaborators of Service.
type Deps struct {
	Repo       Repository
	Dispatches *dispatch.Service
	Ledger     *inventory.Service
	Numerator  numerator.Generator
	TxManager  tx.Manager
	Locker     lock.Locker
	Policy     *security.Policy
	Audit      audit.Recorder
}

// Service provides the GRN state machine.
type Service struct {
	repo       Repository
	dispatches *dispatch.Service
	ledger     *inventory.Service
	numerator  numerator.Generator
	txm        tx.Manager
	locker     lock.Locker
	policy     *security.Policy
	audit      audit.Recorder
}

// NewService creates a new GRN service and subscribes it to dispatch
// transitions so that executing a dispatch opens its GRN.
func NewService(d Deps) *Service {
	s := &Service{
		repo:       d.Repo,
		dispatches: d.Dispatches,
		ledger:     d.Ledger,
		numerator:  d.Numerator,
		txm:        d.TxManager,
		locker:     d.Locker,
		policy:     d.Policy,
		audit:      d.Audit,
	}
	d.Dispatches.Hooks().OnAfterTransition(s.OpenForDispatch)
	return s
}

// OpenForDispatch creates the PENDING GRN of a dispatch that just went
// IN_TRANSIT. Other transitions are ignored. Runs inside the dispatch transaction.
func (s *Service) OpenForDispatch(ctx context.Context, d *dispatch.Dispatch) error {
	if d.Status != dispatch.StatusInTransit {
		return nil
	}

	doc := FromDispatch(d)
	number, err := numerator.Next(ctx, s.numerator, numerator.PrefixGRN, NumeratorStrategy)
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	doc.Number = number

	if err := s.repo.Create(ctx, doc); err != nil {
		return fmt.Errorf("create grn: %w", err)
	}
	if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
		return fmt.Errorf("save lines: %w", err)
	}
	if err := audit.Record(ctx, s.audit, audit.Created(entityName, doc.ID, string(doc.Status), map[string]any{
		"number":     doc.Number,
		"dispatchId": doc.DispatchID,
	})); err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	logger.Info(ctx, "grn opened",
		"id", doc.ID,
		"number", doc.Number,
		"dispatch_id", d.ID)
	return nil
}

// Confirm records what the retailer received. Retailer stock is credited with
// received quantities and the dispatch becomes DELIVERED in one transaction.
// Short deliveries are returned as discrepancies and otherwise left to returns.
func (s *Service) Confirm(ctx context.Context, docID id.ID, cmd ConfirmCommand) (*ConfirmResult, error) {
	current, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(current.Lines))
	for _, l := range current.Lines {
		keys = append(keys, lock.InventoryKey(l.MaterialID, current.RetailerID))
	}

	var result ConfirmResult
	err = lock.With(ctx, s.locker, lock.Normalize(keys), func(ctx context.Context) error {
		return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			doc, err := s.repo.GetForUpdate(ctx, docID)
			if err != nil {
				return err
			}
			user, err := s.policy.Authorize(ctx, security.ActionGRNConfirm, security.Resource{
				RetailerID:     doc.RetailerID,
				ManufacturerID: doc.ManufacturerID,
			})
			if err != nil {
				return err
			}
			if doc.Status != StatusPending {
				return apperror.NewInvalidState(entityName, string(doc.Status), "confirm")
			}

			discrepancies, err := applyReceipts(doc.Lines, cmd.Receipts)
			if err != nil {
				return err
			}

			for _, l := range doc.Lines {
				q := l.Received()
				if q.IsZero() {
					continue
				}
				_, err := s.ledger.ReceiveGoods(ctx, inventory.Movement{
					MaterialID:    l.MaterialID,
					OwnerID:       doc.RetailerID,
					Quantity:      q,
					ActorID:       user.UserID,
					ReferenceType: inventory.RefGRN,
					ReferenceID:   doc.ID,
					Note:          doc.Number,
				})
				if err != nil {
					return err
				}
			}

			if _, err := s.dispatches.MarkDelivered(ctx, doc.DispatchID); err != nil {
				return fmt.Errorf("deliver dispatch: %w", err)
			}

			now := time.Now().UTC()
			doc.Status = StatusConfirmed
			doc.ConfirmedAt = &now
			doc.Note = strings.TrimSpace(cmd.Note)
			doc.Touch(user.UserID)
			if err := s.repo.Update(ctx, doc); err != nil {
				return fmt.Errorf("update document: %w", err)
			}
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			if err := audit.Record(ctx, s.audit, audit.Transition(entityName, doc.ID,
				string(StatusPending), string(doc.Status), map[string]any{"discrepancies": len(discrepancies)})); err != nil {
				return fmt.Errorf("audit: %w", err)
			}

			result = ConfirmResult{GRN: doc, Discrepancies: discrepancies}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "grn confirmed",
		"id", result.GRN.ID,
		"number", result.GRN.Number,
		"discrepancies", len(result.Discrepancies))
	return &result, nil
}

// Load returns a GRN without access checks for use by other services.
func (s *Service) Load(ctx context.Context, docID id.ID) (*GRN, error) {
	return s.repo.GetByID(ctx, docID)
}

// LockForReturn returns the GRN locked inside the caller's transaction, so
// returns raised against it are checked one at a time.
func (s *Service) LockForReturn(ctx context.Context, docID id.ID) (*GRN, error) {
	if err := tx.Require(ctx, s.txm); err != nil {
		return nil, err
	}
	return s.repo.GetForUpdate(ctx, docID)
}

// GetByID retrieves a GRN visible to the caller.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*GRN, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, security.ActionDocumentRead, security.Resource{
		RetailerID:     doc.RetailerID,
		ManufacturerID: doc.ManufacturerID,
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByDispatch retrieves the GRN opened for a dispatch.
func (s *Service) GetByDispatch(ctx context.Context, dispatchID id.ID) (*GRN, error) {
	doc, err := s.repo.GetByDispatch(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, security.ActionDocumentRead, security.Resource{
		RetailerID:     doc.RetailerID,
		ManufacturerID: doc.ManufacturerID,
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

// List retrieves GRNs the caller is a party to.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*GRN], error) {
	user, err := security.Principal(ctx)
	if err != nil {
		return domain.ListResult[*GRN]{}, err
	}
	if r, m := security.PartyScope(user); r != nil || m != nil {
		filter.RetailerID, filter.ManufacturerID = r, m
	}
	return s.repo.List(ctx, filter)
}
