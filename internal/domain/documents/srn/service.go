package srn

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
	"foodchain/internal/domain/registers/inventory"
	"foodchain/pkg/logger"
)

// NumeratorStrategy for SRN numbers. Requests tolerate gaps.
const NumeratorStrategy = numerator.StrategyCached

// Deps groups the collaborators of Service.
type Deps struct {
	Repo        Repository
	Assignments *assignment.Service
	Materials   *material.Service
	Ledger      *inventory.Service
	Numerator   numerator.Generator
	TxManager   tx.Manager
	Locker      lock.Locker
	Policy      *security.Policy
	Audit       audit.Recorder
}

// Service provides the SRN state machine.
type Service struct {
	repo        Repository
	assignments *assignment.Service
	materials   *material.Service
	ledger      *inventory.Service
	numerator   numerator.Generator
	txm         tx.Manager
	locker      lock.Locker
	policy      *security.Policy
	audit       audit.Recorder
	hooks       *domain.HookRegistry[*SRN]
}

// NewService creates a new SRN service.
func NewService(d Deps) *Service {
	return &Service{
		repo:        d.Repo,
		assignments: d.Assignments,
		materials:   d.Materials,
		ledger:      d.Ledger,
		numerator:   d.Numerator,
		txm:         d.TxManager,
		locker:      d.Locker,
		policy:      d.Policy,
		audit:       d.Audit,
		hooks:       domain.NewHookRegistry[*SRN](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*SRN] {
	return s.hooks
}

// CreateCommand is the input of Create.
type CreateCommand struct {
	ManufacturerID id.ID
	Note           string
	Lines          []LineInput
}

// UpdateCommand edits a draft. Nil fields are left unchanged; Lines replaces all lines.
type UpdateCommand struct {
	ManufacturerID *id.ID
	Note           *string
	Lines          *[]LineInput
}

// Create drafts a new SRN for the calling retailer.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*SRN, error) {
	user, err := s.policy.Authorize(ctx, security.ActionSRNCreate, security.Resource{})
	if err != nil {
		return nil, err
	}

	doc := New(user.UserID, cmd.ManufacturerID)
	doc.Note = strings.TrimSpace(cmd.Note)
	doc.SetLines(cmd.Lines)
	if err := s.validateDraft(ctx, doc); err != nil {
		return nil, err
	}

	number, err := numerator.Next(ctx, s.numerator, numerator.PrefixSRN, NumeratorStrategy)
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	doc.Number = number

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return audit.Record(ctx, s.audit, audit.Created(entityName, doc.ID, string(doc.Status), map[string]any{
			"number":         doc.Number,
			"manufacturerId": doc.ManufacturerID,
			"lines":          len(doc.Lines),
		}))
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "srn created",
		"id", doc.ID,
		"number", doc.Number,
		"manufacturer_id", doc.ManufacturerID)
	return doc, nil
}

// UpdateDraft edits a DRAFT SRN owned by the calling retailer.
func (s *Service) UpdateDraft(ctx context.Context, docID id.ID, cmd UpdateCommand) (*SRN, error) {
	var doc *SRN
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		user, err := s.policy.Authorize(ctx, security.ActionSRNEdit, security.Resource{RetailerID: doc.RetailerID})
		if err != nil {
			return err
		}
		if doc.Status != StatusDraft {
			return apperror.NewInvalidState(entityName, string(doc.Status), "edit")
		}

		if cmd.ManufacturerID != nil {
			doc.ManufacturerID = *cmd.ManufacturerID
		}
		if cmd.Note != nil {
			doc.Note = strings.TrimSpace(*cmd.Note)
		}
		if cmd.Lines != nil {
			doc.SetLines(*cmd.Lines)
		}
		if err := s.validateDraft(ctx, doc); err != nil {
			return err
		}

		doc.Touch(user.UserID)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if cmd.Lines != nil {
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
		}
		return audit.Record(ctx, s.audit, audit.Entry{
			EntityType: entityName,
			EntityID:   doc.ID,
			Action:     audit.ActionUpdate,
			Changes:    map[string]any{"lines": len(doc.Lines)},
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDraft removes a DRAFT SRN owned by the calling retailer.
func (s *Service) DeleteDraft(ctx context.Context, docID id.ID) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if _, err := s.policy.Authorize(ctx, security.ActionSRNEdit, security.Resource{RetailerID: doc.RetailerID}); err != nil {
			return err
		}
		if doc.Status != StatusDraft {
			return apperror.NewInvalidState(entityName, string(doc.Status), "delete")
		}
		if err := s.repo.Delete(ctx, docID); err != nil {
			return err
		}
		return audit.Record(ctx, s.audit, audit.Entry{
			EntityType: entityName,
			EntityID:   docID,
			Action:     audit.ActionDelete,
			FromStatus: string(doc.Status),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "srn draft deleted", "id", docID)
	return nil
}

// Submit moves a DRAFT to SUBMITTED. The SRN needs at least one line and the
// retailer must be actively assigned to the manufacturer. No stock is touched.
func (s *Service) Submit(ctx context.Context, docID id.ID) (*SRN, error) {
	var doc *SRN
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		user, err := s.policy.Authorize(ctx, security.ActionSRNSubmit, security.Resource{RetailerID: doc.RetailerID})
		if err != nil {
			return err
		}
		if doc.Status != StatusDraft {
			return apperror.NewInvalidState(entityName, string(doc.Status), "submit")
		}
		if len(doc.Lines) == 0 {
			return apperror.NewValidation("srn must have at least one line")
		}
		if err := s.assignments.RequireActive(ctx, doc.RetailerID, doc.ManufacturerID); err != nil {
			return err
		}

		now := time.Now().UTC()
		doc.Status = StatusSubmitted
		doc.SubmittedAt = &now
		doc.Touch(user.UserID)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return s.transitioned(ctx, doc, StatusDraft, nil)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "srn submitted", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Process approves or rejects a SUBMITTED SRN.
//
// Approval blocks manufacturer stock for every line with a positive approved
// quantity. If any block fails nothing is reserved and the SRN stays SUBMITTED.
// The resulting status is computed by Classify. Rejection needs a note and
// touches no stock.
func (s *Service) Process(ctx context.Context, docID id.ID, cmd ProcessCommand) (*SRN, error) {
	user, err := s.policy.Authorize(ctx, security.ActionSRNProcess, security.Resource{})
	if err != nil {
		return nil, err
	}

	switch cmd.Decision {
	case DecisionReject:
		return s.reject(ctx, docID, strings.TrimSpace(cmd.Note), user.UserID)
	case DecisionApprove:
	default:
		return nil, apperror.NewValidation("decision must be APPROVE or REJECT").
			WithDetail("field", "decision")
	}

	// Lock keys are derived from an unlocked read; the status check below is
	// repeated under the row lock.
	current, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(current.Lines))
	for _, l := range current.Lines {
		keys = append(keys, lock.InventoryKey(l.MaterialID, current.ManufacturerID))
	}

	var doc *SRN
	err = lock.With(ctx, s.locker, lock.Normalize(keys), func(ctx context.Context) error {
		return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			doc, err = s.repo.GetForUpdate(ctx, docID)
			if err != nil {
				return err
			}
			if doc.Status != StatusSubmitted {
				return apperror.NewInvalidState(entityName, string(doc.Status), "process")
			}
			if err := applyApprovals(doc.Lines, cmd.Approvals); err != nil {
				return err
			}

			for _, l := range doc.Lines {
				q := l.Approved()
				if q.IsZero() {
					continue
				}
				_, err := s.ledger.BlockForDispatch(ctx, inventory.Movement{
					MaterialID:    l.MaterialID,
					OwnerID:       doc.ManufacturerID,
					Quantity:      q,
					ActorID:       user.UserID,
					ReferenceType: inventory.RefSRN,
					ReferenceID:   doc.ID,
					Note:          doc.Number,
				})
				if err != nil {
					return err
				}
			}

			now, actor := time.Now().UTC(), user.UserID
			doc.Status = Classify(doc.Lines)
			doc.ProcessedAt = &now
			doc.ProcessedBy = &actor
			doc.Touch(user.UserID)
			if err := s.repo.Update(ctx, doc); err != nil {
				return fmt.Errorf("update document: %w", err)
			}
			if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
			return s.transitioned(ctx, doc, StatusSubmitted, nil)
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "srn processed",
		"id", doc.ID,
		"number", doc.Number,
		"status", doc.Status)
	return doc, nil
}

func (s *Service) reject(ctx context.Context, docID id.ID, note string, actor id.ID) (*SRN, error) {
	if note == "" {
		return nil, apperror.NewValidation("rejection note is required").
			WithDetail("field", "note")
	}

	var doc *SRN
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusSubmitted {
			return apperror.NewInvalidState(entityName, string(doc.Status), "process")
		}

		now := time.Now().UTC()
		doc.Status = StatusRejected
		doc.RejectionNote = note
		doc.ProcessedAt = &now
		doc.ProcessedBy = &actor
		doc.Touch(actor)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return s.transitioned(ctx, doc, StatusSubmitted, map[string]any{"note": note})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "srn rejected", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

func (s *Service) transitioned(ctx context.Context, doc *SRN, from Status, changes map[string]any) error {
	if err := audit.Record(ctx, s.audit, audit.Transition(entityName, doc.ID, string(from), string(doc.Status), changes)); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return s.hooks.Run(ctx, domain.AfterTransition, doc)
}

// validateDraft checks document invariants and that every line references an
// active material.
func (s *Service) validateDraft(ctx context.Context, doc *SRN) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	for _, l := range doc.Lines {
		m, err := s.materials.GetByID(ctx, l.MaterialID)
		if err != nil {
			return err
		}
		if err := m.EnsureActive(); err != nil {
			return err
		}
	}
	return nil
}

// LockForDispatch returns the SRN locked inside the caller's transaction.
func (s *Service) LockForDispatch(ctx context.Context, docID id.ID) (*SRN, error) {
	if err := tx.Require(ctx, s.txm); err != nil {
		return nil, err
	}
	return s.repo.GetForUpdate(ctx, docID)
}

// GetByID retrieves an SRN visible to the caller.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*SRN, error) {
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

// List retrieves SRNs the caller is a party to (all of them for admins).
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SRN], error) {
	user, err := security.Principal(ctx)
	if err != nil {
		return domain.ListResult[*SRN]{}, err
	}
	if r, m := security.PartyScope(user); r != nil || m != nil {
		filter.RetailerID, filter.ManufacturerID = r, m
	}
	return s.repo.List(ctx, filter)
}
