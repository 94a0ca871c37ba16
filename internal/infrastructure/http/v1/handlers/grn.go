package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/domain/documents/grn"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// GRNHandler handles goods receipt notes.
// GRNs are opened automatically when a dispatch is executed.
type GRNHandler struct {
	*BaseHandler
	service *grn.Service
}

// NewGRNHandler creates a new GRN handler.
func NewGRNHandler(base *BaseHandler, service *grn.Service) *GRNHandler {
	return &GRNHandler{BaseHandler: base, service: service}
}

// List handles GET /grns
func (h *GRNHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c)
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), grn.ListFilter{ListFilter: base})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /grns/:id
func (h *GRNHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetByID)
}

// GetByDispatch handles GET /dispatches/:id/grn
func (h *GRNHandler) GetByDispatch(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetByDispatch)
}

// Confirm handles POST /grns/:id/confirm
func (h *GRNHandler) Confirm(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ConfirmGRNRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.service.Confirm(c.Request.Context(), docID, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}
