package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/domain/catalogs/assignment"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// AssignmentHandler handles retailer to manufacturer assignments.
type AssignmentHandler struct {
	*BaseHandler
	service *assignment.Service
}

// NewAssignmentHandler creates a new assignment handler.
func NewAssignmentHandler(base *BaseHandler, service *assignment.Service) *AssignmentHandler {
	return &AssignmentHandler{BaseHandler: base, service: service}
}

// Assign handles POST /assignments
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := h.service.Assign(c.Request.Context(), req.RetailerID, req.ManufacturerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, a)
}

// Unassign handles DELETE /assignments
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	var req dto.AssignmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.Unassign(c.Request.Context(), req.RetailerID, req.ManufacturerID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List handles GET /assignments
// Retailers and manufacturers see only their own links; admins pass retailerId or manufacturerId.
func (h *AssignmentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	user := h.User(c)
	activeOnly := c.Query("activeOnly") != "false"

	retailerID, ok := h.ParseIDQuery(c, "retailerId")
	if !ok {
		return
	}
	manufacturerID, ok := h.ParseIDQuery(c, "manufacturerId")
	if !ok {
		return
	}

	var (
		items []*assignment.Assignment
		err   error
	)
	switch {
	case user.Role == appctx.RoleRetailer:
		items, err = h.service.ListForRetailer(ctx, user.UserID, activeOnly)
	case user.Role == appctx.RoleManufacturer:
		items, err = h.service.ListForManufacturer(ctx, user.UserID, activeOnly)
	case retailerID != nil:
		items, err = h.service.ListForRetailer(ctx, *retailerID, activeOnly)
	case manufacturerID != nil:
		items, err = h.service.ListForManufacturer(ctx, *manufacturerID, activeOnly)
	default:
		err = apperror.NewValidation("retailerId or manufacturerId is required")
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}
