package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"quotedesk/internal/pkg/errcode"
	appErr "quotedesk/internal/pkg/errors"
	"quotedesk/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
	case errors.Is(err, appErr.ErrTokenNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrTokenNotFound, "verification link is invalid or expired")
	case errors.Is(err, appErr.ErrTokenConsumed):
		response.Error(c, http.StatusConflict, errcode.ErrTokenConsumed, "verification link was already used")
	case errors.Is(err, appErr.ErrProviderUnavailable):
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrAnalysisUnavailable, "analysis unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
