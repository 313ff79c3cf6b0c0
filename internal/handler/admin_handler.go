package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"quotedesk/internal/pkg/response"
	"quotedesk/internal/service"
)

type AdminHandler struct {
	audit *service.AuditLog
}

func NewAdminHandler(audit *service.AuditLog) *AdminHandler {
	return &AdminHandler{audit: audit}
}

func (h *AdminHandler) Audit(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	entries, err := h.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"entries": entries})
}
