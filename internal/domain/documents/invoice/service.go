package invoice

import (
	"context"
	"fmt"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/core/numerator"
	"foodchain/internal/core/security"
	"foodchain/internal/core/tx"
	"foodchain/internal/core/types"
	"foodchain/internal/domain"
	"foodchain/internal/domain/audit"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/documents/grn"
	"foodchain/pkg/logger"
)

// NumeratorStrategy for invoice numbers. Tax documents must be gapless.
const NumeratorStrategy = numerator.StrategyStrict

// Deps groups the collaborators of Service.
type Deps struct {
	Repo      Repository
	GRNs      *grn.Service
	Materials *material.Service
	Numerator numerator.Generator
	TxManager tx.Manager
	Policy    *security.Policy
	Audit     audit.Recorder
}

// Service generates invoices.
type Service struct {
	repo      Repository
	grns      *grn.Service
	materials *material.Service
	numerator numerator.Generator
	txm       tx.Manager
	policy    *security.Policy
	audit     audit.Recorder
}

// NewService creates a new invoice service.
func NewService(d Deps) *Service {
	return &Service{
		repo:      d.Repo,
		grns:      d.GRNs,
		materials: d.Materials,
		numerator: d.Numerator,
		txm:       d.TxManager,
		policy:    d.Policy,
		audit:     d.Audit,
	}
}

// Generate creates the invoice of a CONFIRMED GRN from its received
// quantities. Unit prices come from the material MRP; HSN code and GST rate
// are the material's locked tax fields. One invoice per GRN.
func (s *Service) Generate(ctx context.Context, grnID id.ID, opts GenerateOptions) (*Invoice, error) {
	var inv *Invoice
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		receipt, err := s.grns.Load(ctx, grnID)
		if err != nil {
			return err
		}
		user, err := s.policy.Authorize(ctx, security.ActionInvoiceGenerate, security.Resource{
			RetailerID:     receipt.RetailerID,
			ManufacturerID: receipt.ManufacturerID,
		})
		if err != nil {
			return err
		}
		if receipt.Status != grn.StatusConfirmed {
			return apperror.NewInvalidState("grn", string(receipt.Status), "invoice")
		}

		exists, err := s.repo.ExistsForGRN(ctx, grnID)
		if err != nil {
			return fmt.Errorf("check existing invoice: %w", err)
		}
		if exists {
			return apperror.NewDuplicate(entityName, "grnId", grnID.String())
		}

		inv, err = s.build(ctx, receipt, opts, user.UserID)
		if err != nil {
			return err
		}
		inv.Number, err = numerator.Next(ctx, s.numerator, numerator.PrefixInvoice, NumeratorStrategy)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		if err := s.repo.Create(ctx, inv); err != nil {
			return err
		}
		return audit.Record(ctx, s.audit, audit.Created(entityName, inv.ID, "", map[string]any{
			"number":     inv.Number,
			"grnId":      inv.GRNID,
			"grandTotal": inv.GrandTotal.StringFixed(types.MoneyScale),
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice generated",
		"id", inv.ID,
		"number", inv.Number,
		"grn_id", inv.GRNID,
		"grand_total", inv.GrandTotal.StringFixed(types.MoneyScale))
	return inv, nil
}

func (s *Service) build(ctx context.Context, receipt *grn.GRN, opts GenerateOptions, actor id.ID) (*Invoice, error) {
	inv := &Invoice{
		Document:   entity.NewDocument(actor),
		Parties:    receipt.Parties,
		GRNID:      receipt.ID,
		Interstate: opts.Interstate,
	}

	for _, gl := range receipt.Lines {
		q := gl.Received()
		if q.IsZero() {
			continue
		}
		m, err := s.materials.GetByID(ctx, gl.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("load material %s: %w", gl.MaterialID, err)
		}
		inv.Lines = append(inv.Lines, Line{
			ID:             id.New(),
			InvoiceID:      inv.ID,
			LineNo:         len(inv.Lines) + 1,
			MaterialID:     m.ID,
			Description:    m.Name,
			HSNCode:        m.HSNCode,
			GSTRate:        m.GSTRate,
			Packets:        q.Packets,
			LooseUnits:     q.LooseUnits,
			UnitPrice:      m.MRPPerPacket,
			LooseUnitPrice: m.UnitPrice(),
		})
	}
	if len(inv.Lines) == 0 {
		return nil, apperror.NewValidation("grn has no received quantities to invoice").
			WithDetail("grn_id", receipt.ID)
	}

	inv.Totals = Compute(inv.Lines, opts.Interstate)
	return inv, nil
}

// GetByID retrieves an invoice visible to the caller.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, security.ActionDocumentRead, security.Resource{
		RetailerID:     inv.RetailerID,
		ManufacturerID: inv.ManufacturerID,
	}); err != nil {
		return nil, err
	}
	return inv, nil
}

// GetByGRN retrieves the invoice generated for a GRN.
func (s *Service) GetByGRN(ctx context.Context, grnID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByGRN(ctx, grnID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, security.ActionDocumentRead, security.Resource{
		RetailerID:     inv.RetailerID,
		ManufacturerID: inv.ManufacturerID,
	}); err != nil {
		return nil, err
	}
	return inv, nil
}

// List retrieves invoices the caller is a party to.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	user, err := security.Principal(ctx)
	if err != nil {
		return domain.ListResult[*Invoice]{}, err
	}
	if r, m := security.PartyScope(user); r != nil || m != nil {
		filter.RetailerID, filter.ManufacturerID = r, m
	}
	return s.repo.List(ctx, filter)
}
