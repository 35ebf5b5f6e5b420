package controller

import (
	"agri_training_backend/internal/util"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionPinger 检查会话存储是否可用
type SessionPinger func(ctx context.Context) error

type HealthController struct {
	DB          *gorm.DB
	SessionPing SessionPinger
}

func NewHealthController(db *gorm.DB, ping SessionPinger) *HealthController {
	return &HealthController{DB: db, SessionPing: ping}
}

// @Summary 健康检查
// @Description 检查数据库和会话存储
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	if c.SessionPing != nil {
		if err := c.SessionPing(ctx.Request.Context()); err != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Session store unavailable")
			return
		}
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"database": "up",
			"sessions": "up",
		},
	})
}
