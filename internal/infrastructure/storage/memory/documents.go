package memory

import (
	"context"
	"slices"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/documents/dispatch"
	"foodchain/internal/domain/documents/grn"
	"foodchain/internal/domain/documents/invoice"
	"foodchain/internal/domain/documents/returns"
	"foodchain/internal/domain/documents/srn"
)

// ---------------------------------------------------------------------------
// SRN
// ---------------------------------------------------------------------------

// SRNRepo implements srn.Repository.
type SRNRepo struct{ s *Store }

// SRNs returns the SRN repository.
func (s *Store) SRNs() *SRNRepo { return &SRNRepo{s: s} }

var _ srn.Repository = (*SRNRepo)(nil)

func srnHeader(d *srn.SRN) docHeader {
	return docHeader{d.Number, string(d.Status), d.RetailerID, d.ManufacturerID, d.CreatedAt}
}

func cloneSRNLines(lines []srn.Line) []srn.Line {
	out := slices.Clone(lines)
	for i := range out {
		out[i].ApprovedPackets = clonePtr(out[i].ApprovedPackets)
		out[i].ApprovedLooseUnits = clonePtr(out[i].ApprovedLooseUnits)
	}
	return out
}

func (r *SRNRepo) Create(ctx context.Context, doc *srn.SRN) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if _, ok := r.s.srns.get(doc.ID); ok {
			return apperror.NewDuplicate("srn", "id", doc.ID.String())
		}
		h := *doc
		h.Lines = nil
		r.s.srns.set(u, doc.ID, h)
		return nil
	})
}

func (r *SRNRepo) GetByID(ctx context.Context, docID id.ID) (*srn.SRN, error) {
	var (
		doc srn.SRN
		ok  bool
	)
	r.s.read(ctx, func() {
		if doc, ok = r.s.srns.get(docID); ok {
			lines, _ := r.s.srnLines.get(docID)
			doc.Lines = cloneSRNLines(lines)
		}
	})
	if !ok {
		return nil, apperror.NewNotFound("srn", docID)
	}
	return &doc, nil
}

func (r *SRNRepo) GetForUpdate(ctx context.Context, docID id.ID) (*srn.SRN, error) {
	return r.GetByID(ctx, docID)
}

func (r *SRNRepo) Update(ctx context.Context, doc *srn.SRN) error {
	return r.s.write(ctx, func(u *undoLog) error {
		stored, ok := r.s.srns.get(doc.ID)
		if !ok {
			return apperror.NewNotFound("srn", doc.ID)
		}
		if err := checkVersion("srn", doc.ID, stored.Version, doc.Version); err != nil {
			return err
		}
		h := *doc
		h.Lines = nil
		r.s.srns.set(u, doc.ID, h)
		return nil
	})
}

func (r *SRNRepo) Delete(ctx context.Context, docID id.ID) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if _, ok := r.s.srns.get(docID); !ok {
			return apperror.NewNotFound("srn", docID)
		}
		r.s.srnLines.remove(u, docID)
		r.s.srns.remove(u, docID)
		return nil
	})
}

func (r *SRNRepo) SaveLines(ctx context.Context, docID id.ID, lines []srn.Line) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if _, ok := r.s.srns.get(docID); !ok {
			return apperror.NewNotFound("srn", docID)
		}
		r.s.srnLines.set(u, docID, cloneSRNLines(lines))
		return nil
	})
}

func (r *SRNRepo) List(ctx context.Context, filter srn.ListFilter) (domain.ListResult[*srn.SRN], error) {
	var items []*srn.SRN
	r.s.read(ctx, func() {
		for _, d := range r.s.srns.scan(func(d srn.SRN) bool { return srnHeader(&d).matches(filter.ListFilter) }) {
			lines, _ := r.s.srnLines.get(d.ID)
			d.Lines = cloneSRNLines(lines)
			items = append(items, &d)
		}
	})
	return sortAndPage(items, filter.ListFilter, srnHeader), nil
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// DispatchRepo implements dispatch.Repository.
type DispatchRepo struct{ s *Store }

// Dispatches returns the dispatch repository.
func (s *Store) Dispatches() *DispatchRepo { return &DispatchRepo{s: s} }

var _ dispatch.Repository = (*DispatchRepo)(nil)

func dispatchHeader(d *dispatch.Dispatch) docHeader {
	return docHeader{d.Number, string(d.Status), d.RetailerID, d.ManufacturerID, d.CreatedAt}
}

func (r *DispatchRepo) Create(ctx context.Context, doc *dispatch.Dispatch) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if r.forSRN(doc.SRNID) {
			return apperror.NewBusinessRule(apperror.CodeInvalidSRNState, "srn already has a dispatch").
				WithDetail("srn_id", doc.SRNID)
		}
		h := *doc
		h.Lines = nil
		r.s.dispatches.set(u, doc.ID, h)
		return nil
	})
}

func (r *DispatchRepo) GetByID(ctx context.Context, docID id.ID) (*dispatch.Dispatch, error) {
	var (
		doc dispatch.Dispatch
		ok  bool
	)
	r.s.read(ctx, func() {
		if doc, ok = r.s.dispatches.get(docID); ok {
			lines, _ := r.s.dispatchLines.get(docID)
			doc.Lines = slices.Clone(lines)
		}
	})
	if !ok {
		return nil, apperror.NewNotFound("dispatch", docID)
	}
	return &doc, nil
}

func (r *DispatchRepo) GetForUpdate(ctx context.Context, docID id.ID) (*dispatch.Dispatch, error) {
	return r.GetByID(ctx, docID)
}

func (r *DispatchRepo) Update(ctx context.Context, doc *dispatch.Dispatch) error {
	return r.s.write(ctx, func(u *undoLog) error {
		stored, ok := r.s.dispatches.get(doc.ID)
		if !ok {
			return apperror.NewNotFound("dispatch", doc.ID)
		}
		if err := checkVersion("dispatch", doc.ID, stored.Version, doc.Version); err != nil {
			return err
		}
		h := *doc
		h.Lines = nil
		r.s.dispatches.set(u, doc.ID, h)
		return nil
	})
}

func (r *DispatchRepo) SaveLines(ctx context.Context, docID id.ID, lines []dispatch.Line) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if _, ok := r.s.dispatches.get(docID); !ok {
			return apperror.NewNotFound("dispatch", docID)
		}
		r.s.dispatchLines.set(u, docID, slices.Clone(lines))
		return nil
	})
}

func (r *DispatchRepo) ExistsForSRN(ctx context.Context, srnID id.ID) (bool, error) {
	var ok bool
	r.s.read(ctx, func() { ok = r.forSRN(srnID) })
	return ok, nil
}

func (r *DispatchRepo) List(ctx context.Context, filter dispatch.ListFilter) (domain.ListResult[*dispatch.Dispatch], error) {
	var items []*dispatch.Dispatch
	r.s.read(ctx, func() {
		for _, d := range r.s.dispatches.scan(func(d dispatch.Dispatch) bool {
			if filter.SRNID != nil && d.SRNID != *filter.SRNID {
				return false
			}
			return dispatchHeader(&d).matches(filter.ListFilter)
		}) {
			lines, _ := r.s.dispatchLines.get(d.ID)
			d.Lines = slices.Clone(lines)
			items = append(items, &d)
		}
	})
	return sortAndPage(items, filter.ListFilter, dispatchHeader), nil
}

func (r *DispatchRepo) forSRN(srnID id.ID) bool {
	for _, d := range r.s.dispatches.rows {
		if d.SRNID == srnID {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// GRN
// ---------------------------------------------------------------------------

// GRNRepo implements grn.Repository.
type GRNRepo struct{ s *Store }

// GRNs returns the GRN repository.
func (s *Store) GRNs() *GRNRepo { return &GRNRepo{s: s} }

var _ grn.Repository = (*GRNRepo)(nil)

func grnHeader(d *grn.GRN) docHeader {
	return docHeader{d.Number, string(d.Status), d.RetailerID, d.ManufacturerID, d.CreatedAt}
}

func cloneGRNLines(lines []grn.Line) []grn.Line {
	out := slices.Clone(lines)
	for i := range out {
		out[i].ReceivedPackets = clonePtr(out[i].ReceivedPackets)
		out[i].ReceivedLooseUnits = clonePtr(out[i].ReceivedLooseUnits)
	}
	return out
}

func (r *GRNRepo) Create(ctx context.Context, doc *grn.GRN) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if r.byDispatch(doc.DispatchID) != nil {
			return apperror.NewDuplicate("grn", "dispatch_id", doc.DispatchID.String())
		}
		h := *doc
		h.Lines = nil
		r.s.grns.set(u, doc.ID, h)
		return nil
	})
}

func (r *GRNRepo) GetByID(ctx context.Context, docID id.ID) (*grn.GRN, error) {
	var (
		doc grn.GRN
		ok  bool
	)
	r.s.read(ctx, func() {
		if doc, ok = r.s.grns.get(docID); ok {
			lines, _ := r.s.grnLines.get(docID)
			doc.Lines = cloneGRNLines(lines)
		}
	})
	if !ok {
		return nil, apperror.NewNotFound("grn", docID)
	}
	return &doc, nil
}

func (r *GRNRepo) GetForUpdate(ctx context.Context, docID id.ID) (*grn.GRN, error) {
	return r.GetByID(ctx, docID)
}

func (r *GRNRepo) GetByDispatch(ctx context.Context, dispatchID id.ID) (*grn.GRN, error) {
	var found *grn.GRN
	r.s.read(ctx, func() {
		if d := r.byDispatch(dispatchID); d != nil {
			lines, _ := r.s.grnLines.get(d.ID)
			d.Lines = cloneGRNLines(lines)
			found = d
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("grn", dispatchID)
	}
	return found, nil
}

func (r *GRNRepo) Update(ctx context.Context, doc *grn.GRN) error {
	return r.s.write(ctx, func(u *undoLog) error {
		stored, ok := r.s.grns.get(doc.ID)
		if !ok {
			return apperror.NewNotFound("grn", doc.ID)
		}
		if err := checkVersion("grn", doc.ID, stored.Version, doc.Version); err != nil {
			return err
		}
		h := *doc
		h.Lines = nil
		r.s.grns.set(u, doc.ID, h)
		return nil
	})
}

func (r *GRNRepo) SaveLines(ctx context.Context, docID id.ID, lines []grn.Line) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if _, ok := r.s.grns.get(docID); !ok {
			return apperror.NewNotFound("grn", docID)
		}
		r.s.grnLines.set(u, docID, cloneGRNLines(lines))
		return nil
	})
}

func (r *GRNRepo) List(ctx context.Context, filter grn.ListFilter) (domain.ListResult[*grn.GRN], error) {
	var items []*grn.GRN
	r.s.read(ctx, func() {
		for _, d := range r.s.grns.scan(func(d grn.GRN) bool { return grnHeader(&d).matches(filter.ListFilter) }) {
			lines, _ := r.s.grnLines.get(d.ID)
			d.Lines = cloneGRNLines(lines)
			items = append(items, &d)
		}
	})
	return sortAndPage(items, filter.ListFilter, grnHeader), nil
}

func (r *GRNRepo) byDispatch(dispatchID id.ID) *grn.GRN {
	for _, d := range r.s.grns.rows {
		if d.DispatchID == dispatchID {
			return &d
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Invoice
// ---------------------------------------------------------------------------

// InvoiceRepo implements invoice.Repository. Lines are stored with the header
// because invoices are never modified.
type InvoiceRepo struct{ s *Store }

// Invoices returns the invoice repository.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s: s} }

var _ invoice.Repository = (*InvoiceRepo)(nil)

func invoiceHeader(d *invoice.Invoice) docHeader {
	return docHeader{d.Number, "", d.RetailerID, d.ManufacturerID, d.CreatedAt}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if r.byGRN(inv.GRNID) != nil {
			return apperror.NewDuplicate("invoice", "grn_id", inv.GRNID.String())
		}
		v := *inv
		v.Lines = slices.Clone(inv.Lines)
		r.s.invoices.set(u, inv.ID, v)
		return nil
	})
}

func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	var (
		inv invoice.Invoice
		ok  bool
	)
	r.s.read(ctx, func() { inv, ok = r.s.invoices.get(invoiceID) })
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	inv.Lines = slices.Clone(inv.Lines)
	return &inv, nil
}

func (r *InvoiceRepo) GetByGRN(ctx context.Context, grnID id.ID) (*invoice.Invoice, error) {
	var found *invoice.Invoice
	r.s.read(ctx, func() { found = r.byGRN(grnID) })
	if found == nil {
		return nil, apperror.NewNotFound("invoice", grnID)
	}
	found.Lines = slices.Clone(found.Lines)
	return found, nil
}

func (r *InvoiceRepo) ExistsForGRN(ctx context.Context, grnID id.ID) (bool, error) {
	var ok bool
	r.s.read(ctx, func() { ok = r.byGRN(grnID) != nil })
	return ok, nil
}

func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	var items []*invoice.Invoice
	r.s.read(ctx, func() {
		for _, d := range r.s.invoices.scan(func(d invoice.Invoice) bool { return invoiceHeader(&d).matches(filter.ListFilter) }) {
			d.Lines = slices.Clone(d.Lines)
			items = append(items, &d)
		}
	})
	return sortAndPage(items, filter.ListFilter, invoiceHeader), nil
}

func (r *InvoiceRepo) byGRN(grnID id.ID) *invoice.Invoice {
	for _, d := range r.s.invoices.rows {
		if d.GRNID == grnID {
			return &d
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Returns
// ---------------------------------------------------------------------------

// ReturnRepo implements returns.Repository.
type ReturnRepo struct{ s *Store }

// Returns returns the return repository.
func (s *Store) Returns() *ReturnRepo { return &ReturnRepo{s: s} }

var _ returns.Repository = (*ReturnRepo)(nil)

func returnHeader(d *returns.Return) docHeader {
	return docHeader{d.Number, string(d.Status), d.RetailerID, d.ManufacturerID, d.CreatedAt}
}

func (r *ReturnRepo) Create(ctx context.Context, doc *returns.Return) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if _, ok := r.s.returns.get(doc.ID); ok {
			return apperror.NewDuplicate("return", "id", doc.ID.String())
		}
		h := *doc
		h.Lines = nil
		h.GRNID = clonePtr(doc.GRNID)
		r.s.returns.set(u, doc.ID, h)
		return nil
	})
}

func (r *ReturnRepo) GetByID(ctx context.Context, docID id.ID) (*returns.Return, error) {
	var (
		doc returns.Return
		ok  bool
	)
	r.s.read(ctx, func() {
		if doc, ok = r.s.returns.get(docID); ok {
			lines, _ := r.s.returnLines.get(docID)
			doc.Lines = slices.Clone(lines)
		}
	})
	if !ok {
		return nil, apperror.NewNotFound("return", docID)
	}
	return &doc, nil
}

func (r *ReturnRepo) GetForUpdate(ctx context.Context, docID id.ID) (*returns.Return, error) {
	return r.GetByID(ctx, docID)
}

func (r *ReturnRepo) Update(ctx context.Context, doc *returns.Return) error {
	return r.s.write(ctx, func(u *undoLog) error {
		stored, ok := r.s.returns.get(doc.ID)
		if !ok {
			return apperror.NewNotFound("return", doc.ID)
		}
		if err := checkVersion("return", doc.ID, stored.Version, doc.Version); err != nil {
			return err
		}
		h := *doc
		h.Lines = nil
		r.s.returns.set(u, doc.ID, h)
		return nil
	})
}

func (r *ReturnRepo) SaveLines(ctx context.Context, docID id.ID, lines []returns.Line) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if _, ok := r.s.returns.get(docID); !ok {
			return apperror.NewNotFound("return", docID)
		}
		r.s.returnLines.set(u, docID, slices.Clone(lines))
		return nil
	})
}

func (r *ReturnRepo) ListByGRN(ctx context.Context, grnID id.ID) ([]*returns.Return, error) {
	out := make([]*returns.Return, 0)
	r.s.read(ctx, func() {
		for _, d := range r.s.returns.scan(func(d returns.Return) bool { return d.GRNID != nil && *d.GRNID == grnID }) {
			lines, _ := r.s.returnLines.get(d.ID)
			d.Lines = slices.Clone(lines)
			out = append(out, &d)
		}
	})
	return out, nil
}

func (r *ReturnRepo) List(ctx context.Context, filter returns.ListFilter) (domain.ListResult[*returns.Return], error) {
	var items []*returns.Return
	r.s.read(ctx, func() {
		for _, d := range r.s.returns.scan(func(d returns.Return) bool {
			if filter.GRNID != nil && (d.GRNID == nil || *d.GRNID != *filter.GRNID) {
				return false
			}
			return returnHeader(&d).matches(filter.ListFilter)
		}) {
			lines, _ := r.s.returnLines.get(d.ID)
			d.Lines = slices.Clone(lines)
			items = append(items, &d)
		}
	})
	return sortAndPage(items, filter.ListFilter, returnHeader), nil
}
