package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/domain/documents/srn"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// SRNHandler handles stock requisition notes.
type SRNHandler struct {
	*BaseHandler
	service *srn.Service
}

// NewSRNHandler creates a new SRN handler.
func NewSRNHandler(base *BaseHandler, service *srn.Service) *SRNHandler {
	return &SRNHandler{BaseHandler: base, service: service}
}

// List handles GET /srns
func (h *SRNHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c)
	if !ok {
		return
	}
	result, err := h.service.List(c.Request.Context(), srn.ListFilter{ListFilter: base})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /srns/:id
func (h *SRNHandler) Get(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.GetByID)
}

// Create handles POST /srns
func (h *SRNHandler) Create(c *gin.Context) {
	var req dto.CreateSRNRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Create(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Update handles PATCH /srns/:id (drafts only)
func (h *SRNHandler) Update(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSRNRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.UpdateDraft(c.Request.Context(), docID, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Delete handles DELETE /srns/:id (drafts only)
func (h *SRNHandler) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteDraft(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Submit handles POST /srns/:id/submit
func (h *SRNHandler) Submit(c *gin.Context) {
	byID(h.BaseHandler, c, h.service.Submit)
}

// Process handles POST /srns/:id/process
func (h *SRNHandler) Process(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ProcessSRNRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Process(c.Request.Context(), docID, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
