package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/domain/commission"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// CommissionHandler handles retailer commissions.
type CommissionHandler struct {
	*BaseHandler
	service *commission.Service
}

// NewCommissionHandler creates a new commission handler.
func NewCommissionHandler(base *BaseHandler, service *commission.Service) *CommissionHandler {
	return &CommissionHandler{BaseHandler: base, service: service}
}

// List handles GET /commissions
func (h *CommissionHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c)
	if !ok {
		return
	}
	materialID, ok := h.ParseIDQuery(c, "materialId")
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), commission.ListFilter{ListFilter: base, MaterialID: materialID})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /commissions/:id
func (h *CommissionHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetByID)
}

// Summary handles GET /commissions/summary
// Retailers get their own totals; admins pass retailerId.
func (h *CommissionHandler) Summary(c *gin.Context) {
	user := h.User(c)
	retailerID := user.UserID
	if user.Role != appctx.RoleRetailer {
		q, ok := h.ParseIDQuery(c, "retailerId")
		if !ok {
			return
		}
		if q == nil {
			h.Error(c, apperror.NewValidation("retailerId is required"))
			return
		}
		retailerID = *q
	}
	sum, err := h.service.Summary(c.Request.Context(), retailerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sum)
}

// MarkPaid handles POST /commissions/:id/pay
func (h *CommissionHandler) MarkPaid(c *gin.Context) {
	commissionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.MarkPaidRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.service.MarkPaid(c.Request.Context(), commissionID, req.Reference)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// MarkAllPaid handles POST /commissions/pay-all
func (h *CommissionHandler) MarkAllPaid(c *gin.Context) {
	var req dto.MarkAllPaidRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.service.MarkAllPaid(c.Request.Context(), req.RetailerID, req.Reference)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CountResponse{Count: n})
}
