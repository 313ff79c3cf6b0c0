package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Intake       *IntakeHandler
	Verification *VerificationHandler
	Analysis     *AnalysisHandler
	Similarity   *SimilarityHandler
	Estimate     *EstimateHandler
	Admin        *AdminHandler
	Health       *HealthHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/quote-requests", deps.Intake.Submit)

	api.GET("/quote-requests/:id/verification", deps.Verification.Status)
	api.POST("/quote-requests/:id/verification/send", deps.Verification.Send)
	api.POST("/verify", deps.Verification.Consume)

	api.GET("/quote-requests/:id/analysis", deps.Analysis.Get)
	api.POST("/quote-requests/:id/analysis", deps.Analysis.Trigger)

	api.GET("/quote-requests/:id/similar", deps.Similarity.Find)
	api.POST("/estimate", deps.Estimate.Estimate)

	api.GET("/admin/audit", deps.Admin.Audit)
	api.GET("/healthz", deps.Health.Check)
}
