package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/infrastructure/http/v1/dto"
)

// MaterialHandler handles HTTP requests for the material catalog.
type MaterialHandler struct {
	*BaseHandler
	service *material.Service
}

// NewMaterialHandler creates a new material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHandler {
	return &MaterialHandler{BaseHandler: base, service: service}
}

// List handles GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c)
	if !ok {
		return
	}
	if c.Query("orderBy") == "" {
		base.OrderBy = "code"
	}
	filter := material.ListFilter{ListFilter: base, IncludeInactive: c.Query("includeInactive") == "true"}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	m, err := h.service.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Create handles POST /materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.service.Create(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// Update handles PATCH /materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.service.Update(c.Request.Context(), materialID, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Deactivate handles POST /materials/:id/deactivate
func (h *MaterialHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

// Activate handles POST /materials/:id/activate
func (h *MaterialHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *MaterialHandler) setActive(c *gin.Context, active bool) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var err error
	if active {
		err = h.service.Activate(c.Request.Context(), materialID)
	} else {
		err = h.service.Deactivate(c.Request.Context(), materialID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
