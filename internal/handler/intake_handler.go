package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quotedesk/internal/pkg/errcode"
	"quotedesk/internal/pkg/response"
	"quotedesk/internal/service"
)

type IntakeHandler struct {
	intake *service.IntakeService
}

func NewIntakeHandler(intake *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intake: intake}
}

type submitRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	ServiceType string `json:"service_type"`
	Description string `json:"description"`
	BudgetHint  string `json:"budget_hint"`
	Locale      string `json:"locale"`
	// Honeypot: invisible in the real form, any value means a bot filled it.
	Website      string `json:"website"`
	CaptchaToken string `json:"captcha_token"`
}

func (h *IntakeHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	input := service.SubmitInput{
		Email:       req.Email,
		Name:        req.Name,
		Company:     req.Company,
		Phone:       req.Phone,
		ServiceType: req.ServiceType,
		Description: req.Description,
		BudgetHint:  req.BudgetHint,
		Locale:      req.Locale,
		Submission: service.Submission{
			Honeypot:       req.Website,
			CaptchaToken:   req.CaptchaToken,
			ClientIP:       c.ClientIP(),
			UserAgent:      c.GetHeader("User-Agent"),
			AcceptLanguage: c.GetHeader("Accept-Language"),
		},
	}
	id, err := h.intake.Submit(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}
