package inventory

import (
	"context"
	"fmt"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/core/tx"
	"foodchain/internal/domain"
	"foodchain/pkg/logger"
)

// Service is the inventory ledger.
//
// Every mutating method joins the caller's transaction (or opens one), locks the
// balance row, validates, writes the new counters and appends one Transaction.
// The ledger does not deduplicate references; callers guard that with their own
// status checks.
type Service struct {
	repo Repository
	txm  tx.Manager
	now  func() time.Time
}

// NewService creates a new inventory ledger.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{
		repo: repo,
		txm:  txm,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// mutation computes the new balance in place and fills the deltas of t.
type mutation func(b *Balance, t *Transaction) error

func (s *Service) apply(ctx context.Context, kind TxType, owner OwnerType, m Movement, fn mutation) (Balance, error) {
	if err := m.Quantity.Validate(); err != nil {
		return Balance{}, err
	}
	if m.Quantity.IsZero() {
		return Balance{}, apperror.NewEmptyOperation(string(kind))
	}
	if id.IsNil(m.MaterialID) || id.IsNil(m.OwnerID) {
		return Balance{}, apperror.NewValidation("material and owner are required")
	}

	var result Balance
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		key := Key{MaterialID: m.MaterialID, OwnerType: owner, OwnerID: m.OwnerID}
		bal, err := s.repo.GetForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("lock balance %s: %w", key, err)
		}

		entry := Transaction{
			ID:            id.New(),
			MaterialID:    key.MaterialID,
			OwnerType:     key.OwnerType,
			OwnerID:       key.OwnerID,
			Type:          kind,
			ReferenceType: m.ReferenceType,
			ReferenceID:   m.ReferenceID,
			ActorID:       m.ActorID,
			Note:          m.Note,
		}
		before := bal
		if err := fn(&bal, &entry); err != nil {
			return err
		}
		if err := bal.CheckInvariant(); err != nil {
			return err
		}

		now := s.now()
		bal.UpdatedAt = now
		if err := s.repo.Save(ctx, bal); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}

		entry.DeltaPackets = bal.FullPackets - before.FullPackets
		entry.DeltaLooseUnits = bal.LooseUnits - before.LooseUnits
		entry.DeltaBlockedPackets = bal.BlockedPackets - before.BlockedPackets
		entry.DeltaBlockedLooseUnits = bal.BlockedLooseUnits - before.BlockedLooseUnits
		entry.FullPacketsAfter = bal.FullPackets
		entry.LooseUnitsAfter = bal.LooseUnits
		entry.BlockedPacketsAfter = bal.BlockedPackets
		entry.BlockedLooseUnitsAfter = bal.BlockedLooseUnits
		entry.CreatedAt = now
		if err := s.repo.AppendTransaction(ctx, entry); err != nil {
			return fmt.Errorf("append inventory transaction: %w", err)
		}

		result = bal
		return nil
	})
	if err != nil {
		return Balance{}, err
	}

	logger.Debug(ctx, "inventory mutated",
		"type", kind,
		"material_id", m.MaterialID,
		"owner_id", m.OwnerID,
		"reference_id", m.ReferenceID,
		"full_packets", result.FullPackets,
		"blocked_packets", result.BlockedPackets)

	return result, nil
}

// --- Manufacturer side ---

// AddProduction credits manufacturer on-hand stock.
func (s *Service) AddProduction(ctx context.Context, m Movement) (Balance, error) {
	return s.apply(ctx, TxProduction, OwnerManufacturer, m, func(b *Balance, _ *Transaction) error {
		b.FullPackets += m.Quantity.Packets
		b.LooseUnits += m.Quantity.LooseUnits
		return nil
	})
}

// BlockForDispatch reserves available manufacturer stock.
func (s *Service) BlockForDispatch(ctx context.Context, m Movement) (Balance, error) {
	return s.apply(ctx, TxBlock, OwnerManufacturer, m, func(b *Balance, _ *Transaction) error {
		q := m.Quantity
		if q.Packets > b.AvailablePackets() || q.LooseUnits > b.AvailableLooseUnits() {
			return apperror.NewInsufficientAvailable(m.MaterialID.String(),
				q.Packets, q.LooseUnits, b.AvailablePackets(), b.AvailableLooseUnits())
		}
		b.BlockedPackets += q.Packets
		b.BlockedLooseUnits += q.LooseUnits
		return nil
	})
}

// UnblockInventory releases a reservation without touching on-hand stock.
func (s *Service) UnblockInventory(ctx context.Context, m Movement) (Balance, error) {
	return s.apply(ctx, TxUnblock, OwnerManufacturer, m, func(b *Balance, _ *Transaction) error {
		if err := checkBlocked(b, m); err != nil {
			return err
		}
		b.BlockedPackets -= m.Quantity.Packets
		b.BlockedLooseUnits -= m.Quantity.LooseUnits
		return nil
	})
}

// ExecuteDispatch debits on-hand and blocked stock by the same amount.
func (s *Service) ExecuteDispatch(ctx context.Context, m Movement) (Balance, error) {
	return s.apply(ctx, TxDispatch, OwnerManufacturer, m, func(b *Balance, _ *Transaction) error {
		if err := checkBlocked(b, m); err != nil {
			return err
		}
		b.BlockedPackets -= m.Quantity.Packets
		b.BlockedLooseUnits -= m.Quantity.LooseUnits
		b.FullPackets -= m.Quantity.Packets
		b.LooseUnits -= m.Quantity.LooseUnits
		return nil
	})
}

// RestockFromReturn credits returned goods to manufacturer on-hand stock.
func (s *Service) RestockFromReturn(ctx context.Context, m Movement) (Balance, error) {
	return s.apply(ctx, TxRestock, OwnerManufacturer, m, func(b *Balance, _ *Transaction) error {
		b.FullPackets += m.Quantity.Packets
		b.LooseUnits += m.Quantity.LooseUnits
		return nil
	})
}

func checkBlocked(b *Balance, m Movement) error {
	q := m.Quantity
	if q.Packets > b.BlockedPackets || q.LooseUnits > b.BlockedLooseUnits {
		return apperror.NewInsufficientBlocked(m.MaterialID.String(),
			q.Packets, q.LooseUnits, b.BlockedPackets, b.BlockedLooseUnits)
	}
	return nil
}

// GetAvailable returns manufacturer available stock; (0,0) when no row exists.
func (s *Service) GetAvailable(ctx context.Context, materialID, manufacturerID id.ID) (Quantity, error) {
	bal, err := s.repo.Get(ctx, Key{MaterialID: materialID, OwnerType: OwnerManufacturer, OwnerID: manufacturerID})
	if err != nil {
		return Quantity{}, fmt.Errorf("get balance: %w", err)
	}
	return bal.Available(), nil
}

// --- Retailer side ---

// ReceiveGoods credits retailer stock from a confirmed GRN.
func (s *Service) ReceiveGoods(ctx context.Context, m Movement) (Balance, error) {
	return s.apply(ctx, TxReceipt, OwnerRetailer, m, func(b *Balance, _ *Transaction) error {
		b.FullPackets += m.Quantity.Packets
		b.LooseUnits += m.Quantity.LooseUnits
		return nil
	})
}

// RecordSale debits retailer stock. Whole packets are taken first; when loose
// stock cannot cover the loose units sold, ceil(shortfall/unitsPerPacket)
// packets are opened into loose units before deducting.
func (s *Service) RecordSale(ctx context.Context, m Movement, unitsPerPacket int64) (SaleResult, error) {
	if unitsPerPacket <= 0 {
		return SaleResult{}, apperror.NewValidation("unitsPerPacket must be positive")
	}

	var opened int64
	bal, err := s.apply(ctx, TxSale, OwnerRetailer, m, func(b *Balance, t *Transaction) error {
		q := m.Quantity
		packetsLeft := b.AvailablePackets() - q.Packets
		if packetsLeft < 0 {
			return apperror.NewInsufficientAvailable(m.MaterialID.String(),
				q.Packets, q.LooseUnits, b.AvailablePackets(), b.AvailableLooseUnits())
		}

		opened = PacketsToOpen(q.LooseUnits, b.AvailableLooseUnits(), unitsPerPacket)
		if opened > packetsLeft {
			return apperror.NewInsufficientAvailable(m.MaterialID.String(),
				q.Packets, q.LooseUnits, b.AvailablePackets(), b.AvailableLooseUnits()).
				WithDetail("packets_to_open", opened)
		}

		b.FullPackets -= q.Packets + opened
		b.LooseUnits += opened*unitsPerPacket - q.LooseUnits
		t.PacketsOpened = opened
		return nil
	})
	if err != nil {
		return SaleResult{}, err
	}

	return SaleResult{
		Balance:       bal,
		PacketsOpened: opened,
		UnitsSold:     m.Quantity.Units(unitsPerPacket),
	}, nil
}

// PacketsToOpen returns how many packets must be opened so that availableLoose
// covers unitsSold.
func PacketsToOpen(unitsSold, availableLoose, unitsPerPacket int64) int64 {
	shortfall := unitsSold - availableLoose
	if shortfall <= 0 {
		return 0
	}
	return (shortfall + unitsPerPacket - 1) / unitsPerPacket
}

// GetRetailerAvailable returns retailer stock; (0,0) when no row exists.
func (s *Service) GetRetailerAvailable(ctx context.Context, materialID, retailerID id.ID) (Quantity, error) {
	bal, err := s.repo.Get(ctx, Key{MaterialID: materialID, OwnerType: OwnerRetailer, OwnerID: retailerID})
	if err != nil {
		return Quantity{}, fmt.Errorf("get balance: %w", err)
	}
	return bal.Available(), nil
}

// --- Reads ---

// GetBalance returns the full balance row for key (zero when absent).
func (s *Service) GetBalance(ctx context.Context, key Key) (Balance, error) {
	return s.repo.Get(ctx, key)
}

// ListBalances returns balances matching filter.
func (s *Service) ListBalances(ctx context.Context, filter BalanceFilter) ([]Balance, error) {
	return s.repo.ListBalances(ctx, filter)
}

// History returns ledger entries matching filter, newest first.
func (s *Service) History(ctx context.Context, filter TransactionFilter) (domain.ListResult[Transaction], error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.ListTransactions(ctx, filter)
}
