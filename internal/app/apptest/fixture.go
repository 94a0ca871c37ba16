// Package apptest wires the application on the in-memory store and offers
// shortcuts that drive documents through their lifecycle for tests.
package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"foodchain/internal/app"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/core/types"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/documents/dispatch"
	"foodchain/internal/domain/documents/grn"
	"foodchain/internal/domain/documents/srn"
	"foodchain/internal/domain/production"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/internal/infrastructure/storage/memory"
)

// Fixture is a fully wired application with one admin, one manufacturer and
// one retailer.
type Fixture struct {
	*app.Services
	Store *memory.Store

	AdminID        id.ID
	ManufacturerID id.ID
	RetailerID     id.ID
}

// New creates a fixture with an empty store.
func New(t testing.TB) *Fixture {
	t.Helper()
	store := memory.New()
	return &Fixture{
		Services:       app.New(store.Repositories(), nil, nil),
		Store:          store,
		AdminID:        id.New(),
		ManufacturerID: id.New(),
		RetailerID:     id.New(),
	}
}

// As returns a context authenticated as userID with role.
func As(role string, userID id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: userID, Role: role})
}

func (f *Fixture) Admin() context.Context        { return As(appctx.RoleAdmin, f.AdminID) }
func (f *Fixture) Manufacturer() context.Context { return As(appctx.RoleManufacturer, f.ManufacturerID) }
func (f *Fixture) Retailer() context.Context     { return As(appctx.RoleRetailer, f.RetailerID) }

// Material creates an active material priced at 120.00 per packet with 18% GST
// and a 5% commission.
func (f *Fixture) Material(t testing.TB, code string, unitsPerPacket int64) *material.Material {
	t.Helper()
	m, err := f.Materials.Create(f.Admin(), material.CreateCommand{
		Code:            code,
		Name:            "Material " + code,
		UnitsPerPacket:  unitsPerPacket,
		HSNCode:         "04021010",
		GSTRate:         types.MustMoney("18"),
		MRPPerPacket:    types.MustMoney("120.00"),
		CommissionType:  material.CommissionPercentage,
		CommissionValue: types.MustMoney("5"),
	})
	require.NoError(t, err)
	return m
}

// Assign links the fixture retailer to the fixture manufacturer.
func (f *Fixture) Assign(t testing.TB) {
	t.Helper()
	_, err := f.Assignments.Assign(f.Admin(), f.RetailerID, f.ManufacturerID)
	require.NoError(t, err)
}

// BatchCommand builds a production command with a fresh batch number and a
// six month shelf life.
func BatchCommand(m *material.Material, packets, looseUnits int64) production.RecordCommand {
	mfg := time.Now().UTC().Truncate(24 * time.Hour)
	return production.RecordCommand{
		Material:        material.Ref{ID: &m.ID},
		BatchNumber:     "B-" + id.New().String()[:8],
		ManufactureDate: mfg,
		ExpiryDate:      mfg.AddDate(0, 6, 0),
		Packets:         packets,
		LooseUnits:      looseUnits,
	}
}

// Produce records a batch for the fixture manufacturer.
func (f *Fixture) Produce(t testing.TB, m *material.Material, packets, looseUnits int64) *production.Batch {
	t.Helper()
	b, err := f.Production.Record(f.Manufacturer(), BatchCommand(m, packets, looseUnits))
	require.NoError(t, err)
	return b
}

// SubmittedSRN creates and submits a single-line SRN. The pair must be assigned.
func (f *Fixture) SubmittedSRN(t testing.TB, m *material.Material, packets, looseUnits int64) *srn.SRN {
	t.Helper()
	doc, err := f.SRNs.Create(f.Retailer(), srn.CreateCommand{
		ManufacturerID: f.ManufacturerID,
		Lines:          []srn.LineInput{{MaterialID: m.ID, Packets: packets, LooseUnits: looseUnits}},
	})
	require.NoError(t, err)
	doc, err = f.SRNs.Submit(f.Retailer(), doc.ID)
	require.NoError(t, err)
	return doc
}

// ApprovedSRN submits an SRN and approves it in full.
func (f *Fixture) ApprovedSRN(t testing.TB, m *material.Material, packets, looseUnits int64) *srn.SRN {
	t.Helper()
	doc := f.SubmittedSRN(t, m, packets, looseUnits)
	doc, err := f.SRNs.Process(f.Admin(), doc.ID, srn.ProcessCommand{
		Decision:  srn.DecisionApprove,
		Approvals: []srn.Approval{{LineID: doc.Lines[0].ID, Packets: packets, LooseUnits: looseUnits}},
	})
	require.NoError(t, err)
	return doc
}

// ExecutedDispatch approves an SRN, creates its dispatch and ships it.
func (f *Fixture) ExecutedDispatch(t testing.TB, m *material.Material, packets, looseUnits int64) *dispatch.Dispatch {
	t.Helper()
	doc := f.ApprovedSRN(t, m, packets, looseUnits)
	d, err := f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	require.NoError(t, err)
	d, err = f.Dispatches.Execute(f.Manufacturer(), d.ID)
	require.NoError(t, err)
	return d
}

// ConfirmedGRN ships goods and confirms them as fully received.
func (f *Fixture) ConfirmedGRN(t testing.TB, m *material.Material, packets, looseUnits int64) *grn.GRN {
	t.Helper()
	d := f.ExecutedDispatch(t, m, packets, looseUnits)
	doc, err := f.GRNs.GetByDispatch(f.Retailer(), d.ID)
	require.NoError(t, err)

	receipts := make([]grn.Receipt, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		receipts = append(receipts, grn.Receipt{
			LineID:             l.ID,
			ReceivedPackets:    l.ExpectedPackets,
			ReceivedLooseUnits: l.ExpectedLooseUnits,
		})
	}
	res, err := f.GRNs.Confirm(f.Retailer(), doc.ID, grn.ConfirmCommand{Receipts: receipts})
	require.NoError(t, err)
	return res.GRN
}

// Balance reads a balance row directly from the ledger.
func (f *Fixture) Balance(t testing.TB, m *material.Material, owner inventory.OwnerType, ownerID id.ID) inventory.Balance {
	t.Helper()
	b, err := f.Inventory.GetBalance(context.Background(), inventory.Key{
		MaterialID: m.ID,
		OwnerType:  owner,
		OwnerID:    ownerID,
	})
	require.NoError(t, err)
	return b
}

// ManufacturerBalance is Balance for the fixture manufacturer.
func (f *Fixture) ManufacturerBalance(t testing.TB, m *material.Material) inventory.Balance {
	t.Helper()
	return f.Balance(t, m, inventory.OwnerManufacturer, f.ManufacturerID)
}

// RetailerBalance is Balance for the fixture retailer.
func (f *Fixture) RetailerBalance(t testing.TB, m *material.Material) inventory.Balance {
	t.Helper()
	return f.Balance(t, m, inventory.OwnerRetailer, f.RetailerID)
}
