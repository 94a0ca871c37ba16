package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/domain/sales"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles retail sales.
type SaleHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sales.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c)
	if !ok {
		return
	}
	materialID, ok := h.ParseIDQuery(c, "materialId")
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), sales.ListFilter{ListFilter: base, MaterialID: materialID})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetByID)
}

// Record handles POST /sales
func (h *SaleHandler) Record(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.service.Record(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, res)
}
