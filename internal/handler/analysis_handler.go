package handler

import (
	"github.com/gin-gonic/gin"

	"quotedesk/internal/pkg/response"
	"quotedesk/internal/service"
)

type AnalysisHandler struct {
	triage *service.TriageService
	quotes service.QuoteReader
}

func NewAnalysisHandler(triage *service.TriageService, quotes service.QuoteReader) *AnalysisHandler {
	return &AnalysisHandler{triage: triage, quotes: quotes}
}

// Get is cache-read only: a missing entry is a 404, never a recompute.
func (h *AnalysisHandler) Get(c *gin.Context) {
	analysis, err := h.triage.GetCached(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, analysis)
}

// Trigger computes (or returns the still-valid cached) analysis.
func (h *AnalysisHandler) Trigger(c *gin.Context) {
	req, err := h.quotes.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	force := c.Query("force") == "true"
	analysis, err := h.triage.Compute(c.Request.Context(), req, force)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, analysis)
}
