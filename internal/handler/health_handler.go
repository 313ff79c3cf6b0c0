package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"quotedesk/internal/pkg/errcode"
	"quotedesk/internal/pkg/response"
)

type HealthHandler struct {
	db  *sql.DB
	rdb *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.db.PingContext(ctx); err != nil {
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrInternal, "database unavailable")
		return
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			response.Error(c, http.StatusServiceUnavailable, errcode.ErrInternal, "redis unavailable")
			return
		}
	}
	response.Success(c, gin.H{"status": "ok"})
}
