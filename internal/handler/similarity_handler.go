package handler

import (
	"github.com/gin-gonic/gin"

	"quotedesk/internal/pkg/response"
	"quotedesk/internal/service"
)

type SimilarityHandler struct {
	similarity *service.SimilarityService
}

func NewSimilarityHandler(similarity *service.SimilarityService) *SimilarityHandler {
	return &SimilarityHandler{similarity: similarity}
}

func (h *SimilarityHandler) Find(c *gin.Context) {
	results, source, err := h.similarity.FindSimilar(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results, "source": source})
}
