package handlers

import (
	"github.com/gin-gonic/gin"

	"palletledger/internal/domain/audit"
	"palletledger/internal/infrastructure/http/v1/dto"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	*BaseHandler
	service *audit.Service
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(base *BaseHandler, service *audit.Service) *AuditHandler {
	return &AuditHandler{BaseHandler: base, service: service}
}

// List handles GET /audit
func (h *AuditHandler) List(c *gin.Context) {
	var q dto.AuditQuery
	if !h.BindQuery(c, &q) {
		return
	}

	entries, err := h.service.Trail(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(entries))
}
