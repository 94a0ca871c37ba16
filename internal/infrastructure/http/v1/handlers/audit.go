package handlers

import (
	"github.com/gin-gonic/gin"

	"foodchain/internal/core/apperror"
	"foodchain/internal/domain/audit"
)

// AuditHandler exposes the transition log.
type AuditHandler struct {
	*BaseHandler
	recorder audit.Recorder
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, recorder audit.Recorder) *AuditHandler {
	return &AuditHandler{BaseHandler: base, recorder: recorder}
}

// History handles GET /audit/:entityType/:id
func (h *AuditHandler) History(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if h.recorder == nil {
		h.Error(c, apperror.NewBusinessRule("AUDIT_DISABLED", "audit log is disabled"))
		return
	}
	entries, err := h.recorder.History(c.Request.Context(), c.Param("entityType"), entityID, h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}
