// Package app assembles the domain services on top of a storage backend.
package app

import (
	"foodchain/internal/core/lock"
	"foodchain/internal/core/numerator"
	"foodchain/internal/core/security"
	"foodchain/internal/core/tx"
	"foodchain/internal/domain/audit"
	"foodchain/internal/domain/catalogs/assignment"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/commission"
	"foodchain/internal/domain/documents/dispatch"
	"foodchain/internal/domain/documents/grn"
	"foodchain/internal/domain/documents/invoice"
	"foodchain/internal/domain/documents/returns"
	"foodchain/internal/domain/documents/srn"
	"foodchain/internal/domain/production"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/internal/domain/sales"
)

// Repositories is everything a storage backend provides.
type Repositories struct {
	TxManager tx.Manager
	Numerator numerator.Generator
	Audit     audit.Recorder

	Materials   material.Repository
	Assignments assignment.Repository
	Inventory   inventory.Repository
	Production  production.Repository
	SRNs        srn.Repository
	Dispatches  dispatch.Repository
	GRNs        grn.Repository
	Invoices    invoice.Repository
	Returns     returns.Repository
	Sales       sales.Repository
	Commissions commission.Repository
}

// Services is the wired application.
type Services struct {
	Policy *security.Policy
	Audit  audit.Recorder

	Materials   *material.Service
	Assignments *assignment.Service
	Inventory   *inventory.Service
	Production  *production.Service
	SRNs        *srn.Service
	Dispatches  *dispatch.Service
	GRNs        *grn.Service
	Invoices    *invoice.Service
	Returns     *returns.Service
	Sales       *sales.Service
	Commissions *commission.Service
}

// New wires the services. A nil locker falls back to a process-local KeyedMutex.
func New(r Repositories, locker lock.Locker, policy *security.Policy) *Services {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if policy == nil {
		policy = security.MustDefaultPolicy()
	}

	svc := &Services{Policy: policy, Audit: r.Audit}
	svc.Materials = material.NewService(r.Materials, r.TxManager, policy)
	svc.Assignments = assignment.NewService(r.Assignments, r.TxManager, policy)
	svc.Inventory = inventory.NewService(r.Inventory, r.TxManager)
	svc.Commissions = commission.NewService(r.Commissions, r.TxManager, policy, r.Audit)
	svc.Production = production.NewService(r.Production, svc.Materials, svc.Inventory,
		r.TxManager, locker, policy, r.Audit)

	svc.SRNs = srn.NewService(srn.Deps{
		Repo:        r.SRNs,
		Assignments: svc.Assignments,
		Materials:   svc.Materials,
		Ledger:      svc.Inventory,
		Numerator:   r.Numerator,
		TxManager:   r.TxManager,
		Locker:      locker,
		Policy:      policy,
		Audit:       r.Audit,
	})
	svc.Dispatches = dispatch.NewService(dispatch.Deps{
		Repo:      r.Dispatches,
		SRNs:      svc.SRNs,
		Ledger:    svc.Inventory,
		Numerator: r.Numerator,
		TxManager: r.TxManager,
		Locker:    locker,
		Policy:    policy,
		Audit:     r.Audit,
	})
	// GRN registers itself on dispatch transitions.
	svc.GRNs = grn.NewService(grn.Deps{
		Repo:       r.GRNs,
		Dispatches: svc.Dispatches,
		Ledger:     svc.Inventory,
		Numerator:  r.Numerator,
		TxManager:  r.TxManager,
		Locker:     locker,
		Policy:     policy,
		Audit:      r.Audit,
	})
	svc.Invoices = invoice.NewService(invoice.Deps{
		Repo:      r.Invoices,
		GRNs:      svc.GRNs,
		Materials: svc.Materials,
		Numerator: r.Numerator,
		TxManager: r.TxManager,
		Policy:    policy,
		Audit:     r.Audit,
	})
	svc.Returns = returns.NewService(returns.Deps{
		Repo:        r.Returns,
		GRNs:        svc.GRNs,
		Assignments: svc.Assignments,
		Materials:   svc.Materials,
		Ledger:      svc.Inventory,
		Numerator:   r.Numerator,
		TxManager:   r.TxManager,
		Locker:      locker,
		Policy:      policy,
		Audit:       r.Audit,
	})
	svc.Sales = sales.NewService(sales.Deps{
		Repo:        r.Sales,
		Materials:   svc.Materials,
		Ledger:      svc.Inventory,
		Commissions: svc.Commissions,
		Numerator:   r.Numerator,
		TxManager:   r.TxManager,
		Locker:      locker,
		Policy:      policy,
		Audit:       r.Audit,
	})
	return svc
}
