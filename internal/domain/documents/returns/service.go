package returns

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
	"foodchain/internal/domain/catalogs/assignment"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/documents/grn"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/pkg/logger"
)

// NumeratorStrategy for return numbers.
const NumeratorStrategy = numerator.StrategyCached

// Deps groups the collaborators of Service.
type Deps struct {
	Repo        Repository
	GRNs        *grn.Service
	Assignments *assignment.Service
	Materials   *material.Service
	Ledger      *inventory.Service
	Numerator   numerator.Generator
	TxManager   tx.Manager
	Locker      lock.Locker
	Policy      *security.Policy
	Audit       audit.Recorder
}

// Service provides the return workflow.
type Service struct {
	repo        Repository
	grns        *grn.Service
	assignments *assignment.Service
	materials   *material.Service
	ledger      *inventory.Service
	numerator   numerator.Generator
	txm         tx.Manager
	locker      lock.Locker
	policy      *security.Policy
	audit       audit.Recorder
}

// NewService creates a new return service.
func NewService(d Deps) *Service {
	return &Service{
		repo:        d.Repo,
		grns:        d.GRNs,
		assignments: d.Assignments,
		materials:   d.Materials,
		ledger:      d.Ledger,
		numerator:   d.Numerator,
		txm:         d.TxManager,
		locker:      d.Locker,
		policy:      d.Policy,
		audit:       d.Audit,
	}
}

// Raise records a retailer return. When a GRN is cited it must be the
// caller's own CONFIRMED GRN, and the quantities returned against it across
// all non-rejected returns may not exceed what was received. The GRN row stays
// locked until commit. Without a GRN the retailer must be actively assigned
// to the manufacturer and every line must name a known material.
func (s *Service) Raise(ctx context.Context, cmd RaiseCommand) (*Return, error) {
	user, err := s.policy.Authorize(ctx, security.ActionReturnRaise, security.Resource{})
	if err != nil {
		return nil, err
	}

	var doc *Return
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		manufacturerID := cmd.ManufacturerID
		var receipt *grn.GRN
		if cmd.GRNID != nil {
			receipt, err = s.grns.LockForReturn(ctx, *cmd.GRNID)
			if err != nil {
				return err
			}
			if receipt.RetailerID != user.UserID {
				return apperror.NewForbidden("grn belongs to another retailer")
			}
			if receipt.Status != grn.StatusConfirmed {
				return apperror.NewInvalidState("grn", string(receipt.Status), "return")
			}
			if !id.IsNil(manufacturerID) && manufacturerID != receipt.ManufacturerID {
				return apperror.NewValidation("manufacturer does not match the grn").
					WithDetail("field", "manufacturerId")
			}
			manufacturerID = receipt.ManufacturerID
		}

		doc = New(user.UserID, manufacturerID, cmd.Reason, cmd.Lines)
		doc.GRNID = cmd.GRNID
		if err := doc.Validate(ctx); err != nil {
			return err
		}
		if receipt != nil {
			if err := s.checkAgainstReceipt(ctx, receipt, doc); err != nil {
				return err
			}
		} else if err := s.checkUnreferenced(ctx, doc); err != nil {
			return err
		}

		doc.Number, err = numerator.Next(ctx, s.numerator, numerator.PrefixReturn, NumeratorStrategy)
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
			"reason": doc.Reason,
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return raised",
		"id", doc.ID,
		"number", doc.Number,
		"manufacturer_id", doc.ManufacturerID)
	return doc, nil
}

func (s *Service) checkUnreferenced(ctx context.Context, doc *Return) error {
	if err := s.assignments.RequireActive(ctx, doc.RetailerID, doc.ManufacturerID); err != nil {
		return err
	}
	for m := range doc.ByMaterial() {
		if _, err := s.materials.GetByID(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkAgainstReceipt(ctx context.Context, receipt *grn.GRN, doc *Return) error {
	received := receipt.ReceivedByMaterial()

	prior, err := s.repo.ListByGRN(ctx, receipt.ID)
	if err != nil {
		return fmt.Errorf("list returns for grn: %w", err)
	}
	claimed := make(map[id.ID]inventory.Quantity)
	for _, r := range prior {
		if r.Status == StatusRejected {
			continue
		}
		for m, q := range r.ByMaterial() {
			c := claimed[m]
			c.Packets += q.Packets
			c.LooseUnits += q.LooseUnits
			claimed[m] = c
		}
	}

	for m, q := range doc.ByMaterial() {
		rec, ok := received[m]
		if !ok {
			return apperror.NewValidation("material was not received on the grn").
				WithDetail("material_id", m)
		}
		c := claimed[m]
		if c.Packets+q.Packets > rec.Packets || c.LooseUnits+q.LooseUnits > rec.LooseUnits {
			return apperror.NewValidation("returned quantity exceeds received quantity").
				WithDetail("material_id", m).
				WithDetail("received_packets", rec.Packets).
				WithDetail("received_loose", rec.LooseUnits).
				WithDetail("already_returned_packets", c.Packets).
				WithDetail("already_returned_loose", c.LooseUnits)
		}
	}
	return nil
}

// StartReview moves a RAISED return to UNDER_REVIEW.
func (s *Service) StartReview(ctx context.Context, docID id.ID) (*Return, error) {
	user, err := s.policy.Authorize(ctx, security.ActionReturnReview, security.Resource{})
	if err != nil {
		return nil, err
	}

	var doc *Return
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusRaised {
			return apperror.NewInvalidState(entityName, string(doc.Status), "review")
		}

		now := time.Now().UTC()
		doc.Status = StatusUnderReview
		doc.ReviewedAt = &now
		doc.Touch(user.UserID)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return audit.Record(ctx, s.audit, audit.Transition(entityName, doc.ID,
			string(StatusRaised), string(doc.Status), nil))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return under review", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Resolve closes a RAISED or UNDER_REVIEW return. APPROVED_RESTOCK credits
// the manufacturer's on-hand stock with the returned quantities; the other
// outcomes leave inventory untouched. REJECTED requires a note.
func (s *Service) Resolve(ctx context.Context, docID id.ID, cmd ResolveCommand) (*Return, error) {
	user, err := s.policy.Authorize(ctx, security.ActionReturnResolve, security.Resource{})
	if err != nil {
		return nil, err
	}
	if !cmd.Outcome.IsTerminal() {
		return nil, apperror.NewValidation("outcome must be APPROVED_RESTOCK, APPROVED_REPLACE, REJECTED or RESOLVED").
			WithDetail("field", "outcome")
	}
	note := strings.TrimSpace(cmd.Note)
	if cmd.Outcome == StatusRejected && note == "" {
		return nil, apperror.NewValidation("resolution note is required to reject").
			WithDetail("field", "note")
	}

	var keys []string
	if cmd.Outcome == StatusApprovedRestock {
		current, err := s.repo.GetByID(ctx, docID)
		if err != nil {
			return nil, err
		}
		for _, l := range current.Lines {
			keys = append(keys, lock.InventoryKey(l.MaterialID, current.ManufacturerID))
		}
	}

	var (
		doc  *Return
		from Status
	)
	err = lock.With(ctx, s.locker, lock.Normalize(keys), func(ctx context.Context) error {
		return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			doc, err = s.repo.GetForUpdate(ctx, docID)
			if err != nil {
				return err
			}
			if doc.Status != StatusRaised && doc.Status != StatusUnderReview {
				return apperror.NewInvalidState(entityName, string(doc.Status), "resolve")
			}
			from = doc.Status

			if cmd.Outcome == StatusApprovedRestock {
				for _, l := range doc.Lines {
					_, err := s.ledger.RestockFromReturn(ctx, inventory.Movement{
						MaterialID:    l.MaterialID,
						OwnerID:       doc.ManufacturerID,
						Quantity:      l.Quantity(),
						ActorID:       user.UserID,
						ReferenceType: inventory.RefReturn,
						ReferenceID:   doc.ID,
						Note:          doc.Number,
					})
					if err != nil {
						return err
					}
				}
			}

			now, actor := time.Now().UTC(), user.UserID
			doc.Status = cmd.Outcome
			doc.ResolutionNote = note
			doc.ResolvedAt = &now
			doc.ResolvedBy = &actor
			doc.Touch(actor)
			if err := s.repo.Update(ctx, doc); err != nil {
				return fmt.Errorf("update document: %w", err)
			}
			return audit.Record(ctx, s.audit, audit.Transition(entityName, doc.ID,
				string(from), string(doc.Status), map[string]any{"note": note}))
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return resolved",
		"id", doc.ID,
		"number", doc.Number,
		"outcome", doc.Status)
	return doc, nil
}

// GetByID retrieves a return visible to the caller.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Return, error) {
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

// List retrieves returns the caller is a party to.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error) {
	user, err := security.Principal(ctx)
	if err != nil {
		return domain.ListResult[*Return]{}, err
	}
	if r, m := security.PartyScope(user); r != nil || m != nil {
		filter.RetailerID, filter.ManufacturerID = r, m
	}
	return s.repo.List(ctx, filter)
}
