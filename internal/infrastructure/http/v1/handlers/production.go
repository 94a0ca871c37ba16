package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/domain/production"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// ProductionHandler handles production batches.
type ProductionHandler struct {
	*BaseHandler
	service *production.Service
}

// NewProductionHandler creates a new production handler.
func NewProductionHandler(base *BaseHandler, service *production.Service) *ProductionHandler {
	return &ProductionHandler{BaseHandler: base, service: service}
}

// Record handles POST /production
func (h *ProductionHandler) Record(c *gin.Context) {
	var req dto.RecordProductionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.Error(c, err)
		return
	}
	batch, err := h.service.Record(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, batch)
}

// Get handles GET /production/:id
func (h *ProductionHandler) Get(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	batch, err := h.service.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// List handles GET /production
func (h *ProductionHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c)
	if !ok {
		return
	}
	materialID, ok := h.ParseIDQuery(c, "materialId")
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), production.ListFilter{ListFilter: base, MaterialID: materialID})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
