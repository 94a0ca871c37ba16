// Package inventory provides the packet/loose-unit inventory register.
//
// A balance row exists per (material, owner type, owner). Manufacturers hold
// produced stock that can be blocked for approved requests; retailers hold
// received stock that is consumed by sales. Every mutation appends exactly one
// immutable Transaction carrying the deltas and the resulting totals.
package inventory

import (
	"fmt"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
)

// OwnerType distinguishes the manufacturer-side and retailer-side ledgers.
type OwnerType string

const (
	OwnerManufacturer OwnerType = "MANUFACTURER"
	OwnerRetailer     OwnerType = "RETAILER"
)

// TxType is the kind of mutation recorded in the transaction log.
type TxType string

const (
	TxProduction TxType = "PRODUCTION"
	TxBlock      TxType = "BLOCK"
	TxUnblock    TxType = "UNBLOCK"
	TxDispatch   TxType = "DISPATCH"
	TxRestock    TxType = "RESTOCK"
	TxReceipt    TxType = "RECEIPT"
	TxSale       TxType = "SALE"
)

// Reference types recorded on transactions.
const (
	RefProductionBatch = "PRODUCTION_BATCH"
	RefSRN             = "SRN"
	RefDispatch        = "DISPATCH"
	RefGRN             = "GRN"
	RefReturn          = "RETURN"
	RefSale            = "SALE"
)

// Key identifies one balance row.
type Key struct {
	MaterialID id.ID
	OwnerType  OwnerType
	OwnerID    id.ID
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.MaterialID, k.OwnerType, k.OwnerID)
}

// Balance holds on-hand and blocked quantities for one key.
// Available quantities are derived and never stored.
type Balance struct {
	ID                id.ID     `db:"id" json:"id"`
	MaterialID        id.ID     `db:"material_id" json:"materialId"`
	OwnerType         OwnerType `db:"owner_type" json:"ownerType"`
	OwnerID           id.ID     `db:"owner_id" json:"ownerId"`
	FullPackets       int64     `db:"full_packets" json:"fullPackets"`
	LooseUnits        int64     `db:"loose_units" json:"looseUnits"`
	BlockedPackets    int64     `db:"blocked_packets" json:"blockedPackets"`
	BlockedLooseUnits int64     `db:"blocked_loose_units" json:"blockedLooseUnits"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// EmptyBalance returns the zero balance for key.
func EmptyBalance(key Key) Balance {
	return Balance{
		ID:         id.New(),
		MaterialID: key.MaterialID,
		OwnerType:  key.OwnerType,
		OwnerID:    key.OwnerID,
	}
}

// Key returns the balance key.
func (b Balance) Key() Key {
	return Key{MaterialID: b.MaterialID, OwnerType: b.OwnerType, OwnerID: b.OwnerID}
}

// AvailablePackets is full minus blocked packets.
func (b Balance) AvailablePackets() int64 { return b.FullPackets - b.BlockedPackets }

// AvailableLooseUnits is loose minus blocked loose units.
func (b Balance) AvailableLooseUnits() int64 { return b.LooseUnits - b.BlockedLooseUnits }

// Available returns the derived available quantities.
func (b Balance) Available() Quantity {
	return Quantity{Packets: b.AvailablePackets(), LooseUnits: b.AvailableLooseUnits()}
}

// CheckInvariant verifies 0 <= blocked <= full for both dimensions.
func (b Balance) CheckInvariant() error {
	if b.BlockedPackets < 0 || b.BlockedLooseUnits < 0 ||
		b.BlockedPackets > b.FullPackets || b.BlockedLooseUnits > b.LooseUnits {
		return apperror.NewInternal(fmt.Errorf("inventory invariant violated for %s: full=%d/%d blocked=%d/%d",
			b.Key(), b.FullPackets, b.LooseUnits, b.BlockedPackets, b.BlockedLooseUnits))
	}
	return nil
}

// Quantity is a packets + loose units pair.
type Quantity struct {
	Packets    int64 `json:"packets"`
	LooseUnits int64 `json:"looseUnits"`
}

// IsZero reports whether both dimensions are zero.
func (q Quantity) IsZero() bool { return q.Packets == 0 && q.LooseUnits == 0 }

// Validate rejects negative values.
func (q Quantity) Validate() error {
	if q.Packets < 0 {
		return apperror.NewInvalidQuantity("packets", q.Packets)
	}
	if q.LooseUnits < 0 {
		return apperror.NewInvalidQuantity("looseUnits", q.LooseUnits)
	}
	return nil
}

// Units returns the total unit count for a packet size.
func (q Quantity) Units(unitsPerPacket int64) int64 {
	return q.Packets*unitsPerPacket + q.LooseUnits
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID                     id.ID     `db:"id" json:"id"`
	MaterialID             id.ID     `db:"material_id" json:"materialId"`
	OwnerType              OwnerType `db:"owner_type" json:"ownerType"`
	OwnerID                id.ID     `db:"owner_id" json:"ownerId"`
	Type                   TxType    `db:"tx_type" json:"type"`
	DeltaPackets           int64     `db:"delta_packets" json:"deltaPackets"`
	DeltaLooseUnits        int64     `db:"delta_loose_units" json:"deltaLooseUnits"`
	DeltaBlockedPackets    int64     `db:"delta_blocked_packets" json:"deltaBlockedPackets"`
	DeltaBlockedLooseUnits int64     `db:"delta_blocked_loose_units" json:"deltaBlockedLooseUnits"`
	FullPacketsAfter       int64     `db:"full_packets_after" json:"fullPacketsAfter"`
	LooseUnitsAfter        int64     `db:"loose_units_after" json:"looseUnitsAfter"`
	BlockedPacketsAfter    int64     `db:"blocked_packets_after" json:"blockedPacketsAfter"`
	BlockedLooseUnitsAfter int64     `db:"blocked_loose_units_after" json:"blockedLooseUnitsAfter"`
	PacketsOpened          int64     `db:"packets_opened" json:"packetsOpened"`
	ReferenceType          string    `db:"reference_type" json:"referenceType"`
	ReferenceID            id.ID     `db:"reference_id" json:"referenceId"`
	ActorID                id.ID     `db:"actor_id" json:"actorId"`
	Note                   string    `db:"note" json:"note,omitempty"`
	CreatedAt              time.Time `db:"created_at" json:"createdAt"`
}

// Movement is the input of every ledger mutation.
type Movement struct {
	MaterialID    id.ID
	OwnerID       id.ID
	Quantity      Quantity
	ActorID       id.ID
	ReferenceType string
	ReferenceID   id.ID
	Note          string
}

// SaleResult reports the outcome of a retailer sale debit.
type SaleResult struct {
	Balance       Balance
	PacketsOpened int64
	UnitsSold     int64
}
