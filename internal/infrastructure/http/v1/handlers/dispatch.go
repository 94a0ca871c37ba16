package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/domain/documents/dispatch"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// DispatchHandler handles dispatches.
type DispatchHandler struct {
	*BaseHandler
	service *dispatch.Service
}

// NewDispatchHandler creates a new dispatch handler.
func NewDispatchHandler(base *BaseHandler, service *dispatch.Service) *DispatchHandler {
	return &DispatchHandler{BaseHandler: base, service: service}
}

// List handles GET /dispatches
func (h *DispatchHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c)
	if !ok {
		return
	}
	srnID, ok := h.ParseIDQuery(c, "srnId")
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), dispatch.ListFilter{ListFilter: base, SRNID: srnID})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /dispatches/:id
func (h *DispatchHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetByID)
}

// Create handles POST /dispatches
func (h *DispatchHandler) Create(c *gin.Context) {
	var req dto.CreateDispatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.CreateFromSRN(c.Request.Context(), req.SRNID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Execute handles POST /dispatches/:id/execute
func (h *DispatchHandler) Execute(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.Execute)
}

// Cancel handles POST /dispatches/:id/cancel
func (h *DispatchHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelDispatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Cancel(c.Request.Context(), docID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
