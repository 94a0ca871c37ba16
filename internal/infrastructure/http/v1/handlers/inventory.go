package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// InventoryHandler exposes the inventory register read side.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service}
}

// ownerScope resolves whose stock the caller may read.
// Non-admins are pinned to their own balance; admins choose via ownerType and ownerId.
func (h *InventoryHandler) ownerScope(c *gin.Context) (inventory.OwnerType, *id.ID, bool) {
	user := h.User(c)
	switch user.Role {
	case appctx.RoleManufacturer:
		return inventory.OwnerManufacturer, &user.UserID, true
	case appctx.RoleRetailer:
		return inventory.OwnerRetailer, &user.UserID, true
	}

	ownerType := inventory.OwnerType(c.Query("ownerType"))
	if ownerType != "" && ownerType != inventory.OwnerManufacturer && ownerType != inventory.OwnerRetailer {
		h.Error(c, apperror.NewValidation("ownerType must be MANUFACTURER or RETAILER"))
		return "", nil, false
	}
	ownerID, ok := h.ParseIDQuery(c, "ownerId")
	if !ok {
		return "", nil, false
	}
	return ownerType, ownerID, true
}

// Balances handles GET /inventory/balances
func (h *InventoryHandler) Balances(c *gin.Context) {
	ownerType, ownerID, ok := h.ownerScope(c)
	if !ok {
		return
	}
	materialID, ok := h.ParseIDQuery(c, "materialId")
	if !ok {
		return
	}
	items, err := h.service.ListBalances(c.Request.Context(), inventory.BalanceFilter{
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		MaterialID:  materialID,
		ExcludeZero: c.Query("includeZero") != "true",
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}

// Available handles GET /inventory/available?materialId=
func (h *InventoryHandler) Available(c *gin.Context) {
	ownerType, ownerID, ok := h.ownerScope(c)
	if !ok {
		return
	}
	materialID, ok := h.ParseIDQuery(c, "materialId")
	if !ok {
		return
	}
	if materialID == nil || ownerID == nil || ownerType == "" {
		h.Error(c, apperror.NewValidation("materialId, ownerType and ownerId are required"))
		return
	}

	var (
		qty inventory.Quantity
		err error
	)
	if ownerType == inventory.OwnerManufacturer {
		qty, err = h.service.GetAvailable(c.Request.Context(), *materialID, *ownerID)
	} else {
		qty, err = h.service.GetRetailerAvailable(c.Request.Context(), *materialID, *ownerID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.AvailabilityResponse{
		MaterialID: *materialID,
		OwnerType:  ownerType,
		OwnerID:    *ownerID,
		Available:  qty,
	})
}

// Transactions handles GET /inventory/transactions
func (h *InventoryHandler) Transactions(c *gin.Context) {
	ownerType, ownerID, ok := h.ownerScope(c)
	if !ok {
		return
	}
	filter := inventory.TransactionFilter{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Type:      inventory.TxType(c.Query("type")),
		Limit:     h.ParseIntQuery(c, "limit", 50),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}
	if filter.MaterialID, ok = h.ParseIDQuery(c, "materialId"); !ok {
		return
	}
	if filter.ReferenceID, ok = h.ParseIDQuery(c, "referenceId"); !ok {
		return
	}
	if filter.From, ok = h.parseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.parseTimeQuery(c, "to"); !ok {
		return
	}

	result, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
