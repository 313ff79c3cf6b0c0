package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quotedesk/internal/pkg/errcode"
	"quotedesk/internal/pkg/response"
	"quotedesk/internal/service"
)

type EstimateHandler struct {
	estimator *service.Estimator
}

func NewEstimateHandler(estimator *service.Estimator) *EstimateHandler {
	return &EstimateHandler{estimator: estimator}
}

type estimateRequest struct {
	ServiceType string `json:"service_type"`
	Description string `json:"description"`
}

func (h *EstimateHandler) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	estimate, err := h.estimator.Estimate(c.Request.Context(), req.ServiceType, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrDescriptionTooShort) {
			response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "description too short for an estimate")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, estimate)
}
