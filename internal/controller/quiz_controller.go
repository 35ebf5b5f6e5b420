package controller

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/service"
	"agri_training_backend/internal/util"
	"agri_training_backend/pkg/logger"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QuizController struct {
	QuizService     *service.QuizService
	ProgressService *service.ProgressService
}

func NewQuizController(quizService *service.QuizService, progressService *service.ProgressService) *QuizController {
	return &QuizController{
		QuizService:     quizService,
		ProgressService: progressService,
	}
}

// SubmitQuizRequest 题号（从 0 开始）到所选选项
// swagger:model SubmitQuizRequest
type SubmitQuizRequest struct {
	Answers model.QuizAttempt `json:"answers"`
}

// Get godoc
// @Summary 读取测验
// @Description 返回题目和选项，不包含答案
// @Tags 测验
// @Produce  json
// @Param program path string true "cotton | dairy"
// @Param filename path string true ".json 或 .xlsx 测验文件"
// @Success 200 {object} util.Response{data=model.QuizView}
// @Failure 400 {object} util.Response "测验文件格式错误"
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{program}/{filename} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	program, err := service.ParseProgram(ctx.Param("program"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	def, _, err := c.QuizService.Load(ctx.Request.Context(), program, ctx.Param("filename"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, def.View())
}

// Submit godoc
// @Summary 提交测验
// @Description 评分；登录状态下保存记录并按超过历史最佳的部分加分
// @Tags 测验
// @Accept  json
// @Produce  json
// @Param program path string true "cotton | dairy"
// @Param filename path string true "测验文件"
// @Param body body SubmitQuizRequest true "作答"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{program}/{filename}/score [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	program, err := service.ParseProgram(ctx.Param("program"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Answers == nil {
		req.Answers = model.QuizAttempt{}
	}

	var identity *model.Identity
	claims := util.GetUserFromContext(ctx)
	if claims != nil {
		identity = claims.Identity()
	}

	result, entry, err := c.QuizService.Submit(ctx.Request.Context(), program, ctx.Param("filename"), req.Answers, identity)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	if claims != nil {
		update, err := c.ProgressService.RecordQuiz(ctx.Request.Context(), claims.SessionID(), entry.Key(), result.Score)
		if err != nil {
			logger.Log.Warn("Record quiz progress failed", zap.String("key", entry.Key()), zap.Error(err))
		} else {
			result.Progress = update
		}
	}
	util.Success(ctx, result)
}

// History godoc
// @Summary 测验记录
// @Description 成员查看自己的记录，管理员查看全部
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param limit query int false "条数，默认 50"
// @Success 200 {object} util.Response{data=[]model.QuizRecord}
// @Router /api/quiz-records [get]
func (c *QuizController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	records, err := c.QuizService.History(ctx.Request.Context(), claims.Identity(), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, records)
}
