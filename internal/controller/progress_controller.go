package controller

import (
	"agri_training_backend/internal/service"
	"agri_training_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// Get godoc
// @Summary 当前会话的积分和徽章
// @Tags 学习进度
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.ProgressUpdate}
// @Failure 401 {object} util.Response
// @Router /api/progress [get]
func (c *ProgressController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.ProgressService.Get(ctx.Request.Context(), claims.SessionID())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
