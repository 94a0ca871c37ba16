package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/domain/documents/returns"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// ReturnHandler handles retailer returns.
type ReturnHandler struct {
	*BaseHandler
	service *returns.Service
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(base *BaseHandler, service *returns.Service) *ReturnHandler {
	return &ReturnHandler{BaseHandler: base, service: service}
}

// List handles GET /returns
func (h *ReturnHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c)
	if !ok {
		return
	}
	grnID, ok := h.ParseIDQuery(c, "grnId")
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), returns.ListFilter{ListFilter: base, GRNID: grnID})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /returns/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetByID)
}

// Raise handles POST /returns
func (h *ReturnHandler) Raise(c *gin.Context) {
	var req dto.RaiseReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Raise(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Review handles POST /returns/:id/review
func (h *ReturnHandler) Review(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.StartReview)
}

// Resolve handles POST /returns/:id/resolve
func (h *ReturnHandler) Resolve(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Resolve(c.Request.Context(), docID, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
