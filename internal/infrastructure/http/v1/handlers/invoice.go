package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/domain/documents/invoice"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles tax invoices. Invoices are immutable once generated.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c)
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), invoice.ListFilter{ListFilter: base})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetByID)
}

// GetByGRN handles GET /grns/:id/invoice
func (h *InvoiceHandler) GetByGRN(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetByGRN)
}

// Generate handles POST /invoices
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req dto.GenerateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.service.Generate(c.Request.Context(), req.GRNID, invoice.GenerateOptions{Interstate: req.Interstate})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, inv)
}
