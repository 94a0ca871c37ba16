package dispatch

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
	"foodchain/internal/domain/documents/srn"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/pkg/logger"
)

// NumeratorStrategy for dispatch numbers. Shipping documents are gapless.
const NumeratorStrategy = numerator.StrategyStrict

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	SRNs      *srn.Service
	Ledger    *inventory.Service
	Numerator numerator.Generator
	TxManager tx.Manager
	Locker    lock.Locker
	Policy    *security.Policy
	Audit     audit.Recorder
}

// Service provides the dispatch state machine.
type Service struct {
	repo      Repository
	srns      *srn.Service
	ledger    *inventory.Service
	numerator numerator.Generator
	txm       tx.Manager
	locker    lock.Locker
	policy    *security.Policy
	audit     audit.Recorder
	hooks     *domain.HookRegistry[*Dispatch]
}

// NewService creates a new dispatch service.
func NewService(d Deps) *Service {
	return &Service{
		repo:      d.Repo,
		srns:      d.SRNs,
		ledger:    d.Ledger,
		numerator: d.Numerator,
		txm:       d.TxManager,
		locker:    d.Locker,
		policy:    d.Policy,
		audit:     d.Audit,
		hooks:     domain.NewHookRegistry[*Dispatch](),
	}
}

// Hooks returns the hook registry. AfterTransition hooks run inside the
// transition's transaction; a failing hook rolls the transition back.
func (s *Service) Hooks() *domain.HookRegistry[*Dispatch] {
	return s.hooks
}

// CreateFromSRN creates the dispatch for an APPROVED or PARTIAL SRN owned by
// the calling manufacturer. Each SRN yields at most one dispatch.
func (s *Service) CreateFromSRN(ctx context.Context, srnID id.ID) (*Dispatch, error) {
	var doc *Dispatch
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		source, err := s.srns.LockForDispatch(ctx, srnID)
		if err != nil {
			return err
		}
		user, err := s.policy.Authorize(ctx, security.ActionDispatchCreate, security.Resource{
			RetailerID:     source.RetailerID,
			ManufacturerID: source.ManufacturerID,
		})
		if err != nil {
			return err
		}

		exists, err := s.repo.ExistsForSRN(ctx, source.ID)
		if err != nil {
			return fmt.Errorf("check existing dispatch: %w", err)
		}
		if exists {
			return invalidSRNState(source).WithDetail("reason", "already dispatched")
		}

		doc, err = FromSRN(source, user.UserID)
		if err != nil {
			return err
		}
		doc.Number, err = numerator.Next(ctx, s.numerator, numerator.PrefixDispatch, NumeratorStrategy)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return audit.Record(ctx, s.audit, audit.Created(entityName, doc.ID, string(doc.Status), map[string]any{
			"number": doc.Number,
			"srnId":  doc.SRNID,
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "dispatch created",
		"id", doc.ID,
		"number", doc.Number,
		"srn_id", doc.SRNID)
	return doc, nil
}

// Execute ships a PENDING dispatch: blocked and on-hand stock are debited for
// every line and the status becomes IN_TRANSIT. Registered AfterTransition
// hooks (GRN creation) run in the same transaction.
func (s *Service) Execute(ctx context.Context, docID id.ID) (*Dispatch, error) {
	return s.transitionWithStock(ctx, docID, transition{
		action:   security.ActionDispatchExecute,
		verb:     "execute",
		to:       StatusInTransit,
		ledgerOp: s.ledger.ExecuteDispatch,
	})
}

// Cancel aborts a PENDING dispatch and releases the reserved stock.
// The SRN cannot be dispatched again.
func (s *Service) Cancel(ctx context.Context, docID id.ID, reason string) (*Dispatch, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.NewValidation("cancel reason is required").
			WithDetail("field", "reason")
	}
	return s.transitionWithStock(ctx, docID, transition{
		action:   security.ActionDispatchCancel,
		verb:     "cancel",
		to:       StatusCancelled,
		reason:   reason,
		ledgerOp: s.ledger.UnblockInventory,
	})
}

type transition struct {
	action   security.Action
	verb     string
	to       Status
	reason   string
	ledgerOp func(context.Context, inventory.Movement) (inventory.Balance, error)
}

func (s *Service) transitionWithStock(ctx context.Context, docID id.ID, t transition) (*Dispatch, error) {
	current, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(current.Lines))
	for _, l := range current.Lines {
		keys = append(keys, lock.InventoryKey(l.MaterialID, current.ManufacturerID))
	}

	var doc *Dispatch
	err = lock.With(ctx, s.locker, lock.Normalize(keys), func(ctx context.Context) error {
		return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			doc, err = s.repo.GetForUpdate(ctx, docID)
			if err != nil {
				return err
			}
			user, err := s.policy.Authorize(ctx, t.action, security.Resource{
				RetailerID:     doc.RetailerID,
				ManufacturerID: doc.ManufacturerID,
			})
			if err != nil {
				return err
			}
			if doc.Status != StatusPending {
				return apperror.NewInvalidState(entityName, string(doc.Status), t.verb)
			}

			for _, l := range doc.Lines {
				_, err := t.ledgerOp(ctx, inventory.Movement{
					MaterialID:    l.MaterialID,
					OwnerID:       doc.ManufacturerID,
					Quantity:      l.Quantity(),
					ActorID:       user.UserID,
					ReferenceType: inventory.RefDispatch,
					ReferenceID:   doc.ID,
					Note:          doc.Number,
				})
				if err != nil {
					return err
				}
			}

			now := time.Now().UTC()
			doc.Status = t.to
			switch t.to {
			case StatusInTransit:
				doc.ExecutedAt = &now
			case StatusCancelled:
				doc.CancelledAt = &now
				doc.CancelReason = t.reason
			}
			doc.Touch(user.UserID)
			if err := s.repo.Update(ctx, doc); err != nil {
				return fmt.Errorf("update document: %w", err)
			}
			return s.transitioned(ctx, doc, StatusPending)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "dispatch transitioned",
		"action", t.verb,
		"id", doc.ID,
		"number", doc.Number,
		"status", doc.Status)
	return doc, nil
}

// MarkDelivered closes an IN_TRANSIT dispatch. It joins the caller's
// transaction and is driven by GRN confirmation only.
func (s *Service) MarkDelivered(ctx context.Context, docID id.ID) (*Dispatch, error) {
	if err := tx.Require(ctx, s.txm); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusInTransit {
		return nil, apperror.NewInvalidState(entityName, string(doc.Status), "deliver")
	}

	now := time.Now().UTC()
	doc.Status = StatusDelivered
	doc.DeliveredAt = &now
	doc.Touch(doc.RetailerID)
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if err := s.transitioned(ctx, doc, StatusInTransit); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) transitioned(ctx context.Context, doc *Dispatch, from Status) error {
	entry := audit.Transition(entityName, doc.ID, string(from), string(doc.Status), nil)
	if doc.CancelReason != "" {
		entry.Changes = map[string]any{"reason": doc.CancelReason}
	}
	if err := audit.Record(ctx, s.audit, entry); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return s.hooks.Run(ctx, domain.AfterTransition, doc)
}

// GetByID retrieves a dispatch visible to the caller.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Dispatch, error) {
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

// List retrieves dispatches the caller is a party to.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Dispatch], error) {
	user, err := security.Principal(ctx)
	if err != nil {
		return domain.ListResult[*Dispatch]{}, err
	}
	if r, m := security.PartyScope(user); r != nil || m != nil {
		filter.RetailerID, filter.ManufacturerID = r, m
	}
	return s.repo.List(ctx, filter)
}
