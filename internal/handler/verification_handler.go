package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quotedesk/internal/pkg/errcode"
	appErr "quotedesk/internal/pkg/errors"
	"quotedesk/internal/pkg/response"
	"quotedesk/internal/service"
)

type VerificationHandler struct {
	verification *service.VerificationService
}

func NewVerificationHandler(verification *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

func (h *VerificationHandler) Status(c *gin.Context) {
	verified, err := h.verification.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"verified": verified})
}

func (h *VerificationHandler) Send(c *gin.Context) {
	locale := c.Query("locale")
	err := h.verification.Send(c.Request.Context(), c.Param("id"), locale)
	if err != nil {
		if cooldown, ok := appErr.AsCooldown(err); ok {
			waitSeconds := int(cooldown.Wait.Seconds())
			if waitSeconds < 1 {
				waitSeconds = 1
			}
			response.ErrorWithData(c, http.StatusTooManyRequests, errcode.ErrCooldownActive,
				"verification mail was sent recently", gin.H{"wait_seconds": waitSeconds})
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"sent": true})
}

type consumeRequest struct {
	Token string `json:"token"`
}

func (h *VerificationHandler) Consume(c *gin.Context) {
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	requestID, err := h.verification.Consume(c.Request.Context(), req.Token)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"request_id": requestID, "verified": true})
}
