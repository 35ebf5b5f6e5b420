package controller

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/service"
	"agri_training_backend/internal/util"
	"agri_training_backend/pkg/logger"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogController struct {
	CatalogService  *service.CatalogService
	ProgressService *service.ProgressService
}

func NewCatalogController(catalogService *service.CatalogService, progressService *service.ProgressService) *CatalogController {
	return &CatalogController{
		CatalogService:  catalogService,
		ProgressService: progressService,
	}
}

func parseLocation(ctx *gin.Context) (model.ProgramKey, model.Category, error) {
	program, err := service.ParseProgram(ctx.Param("program"))
	if err != nil {
		return "", "", err
	}
	category, err := service.ParseCategory(ctx.Param("category"))
	if err != nil {
		return "", "", err
	}
	return program, category, nil
}

// Overview godoc
// @Summary 资料目录
// @Description 每个项目下各分类的文件数
// @Tags 培训资料
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.ProgramSummary}
// @Router /api/catalog [get]
func (c *CatalogController) Overview(ctx *gin.Context) {
	summaries, err := c.CatalogService.Overview(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summaries)
}

// List godoc
// @Summary 分类下的资料
// @Description 按文件名排序；没有内容时 empty 为 true 并附带提示
// @Tags 培训资料
// @Produce  json
// @Param program path string true "cotton | dairy"
// @Param category path string true "presentations | videos | audios | quizzes"
// @Success 200 {object} util.Response{data=model.CatalogListing}
// @Failure 400 {object} util.Response
// @Router /api/catalog/{program}/{category} [get]
func (c *CatalogController) List(ctx *gin.Context) {
	program, category, err := parseLocation(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	listing, err := c.CatalogService.List(ctx.Request.Context(), program, category)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, listing)
}

// File godoc
// @Summary 读取文件
// @Description 下载类文件以附件返回，媒体文件内联播放并支持 Range
// @Tags 培训资料
// @Produce  octet-stream
// @Param program path string true "cotton | dairy"
// @Param category path string true "presentations | videos | audios | quizzes"
// @Param filename path string true "文件名"
// @Success 200 {file} file
// @Failure 404 {object} util.Response
// @Router /api/catalog/{program}/{category}/files/{filename} [get]
func (c *CatalogController) File(ctx *gin.Context) {
	program, category, err := parseLocation(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	body, entry, err := c.CatalogService.Open(ctx.Request.Context(), program, category, ctx.Param("filename"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	defer body.Close()

	c.recordView(ctx, *entry)

	kind, _ := service.RenderKindFor(entry.Category, entry.Extension)
	disposition := "inline"
	if kind == model.RenderDownload || kind == model.RenderQuiz || kind == model.RenderData {
		disposition = "attachment"
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, entry.Filename))
	ctx.Header("Content-Type", util.ContentTypeFor(entry.Extension))

	if seeker, ok := body.(io.ReadSeeker); ok {
		http.ServeContent(ctx.Writer, ctx.Request, entry.Filename, entry.ModTime, seeker)
		return
	}
	ctx.DataFromReader(http.StatusOK, entry.Size, util.ContentTypeFor(entry.Extension), body, nil)
}

// recordView 有会话时给演示、视频、音频加分
func (c *CatalogController) recordView(ctx *gin.Context, entry model.CatalogEntry) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return
	}
	update, err := c.ProgressService.RecordView(ctx.Request.Context(), claims.SessionID(), entry)
	if err != nil {
		logger.Log.Warn("Record view failed", zap.String("key", entry.Key()), zap.Error(err))
		return
	}
	if len(update.Unlocked) > 0 {
		logger.Log.Info("Badge unlocked",
			zap.String("subject", claims.Subject),
			zap.Strings("badges", update.Unlocked))
	}
}

// Preview godoc
// @Summary 图片缩略图
// @Tags 培训资料
// @Produce  png
// @Param program path string true "cotton | dairy"
// @Param category path string true "分类"
// @Param filename path string true "图片文件名"
// @Param width query int false "宽度，32-1920，默认 480"
// @Success 200 {file} file
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/catalog/{program}/{category}/files/{filename}/preview [get]
func (c *CatalogController) Preview(ctx *gin.Context) {
	program, category, err := parseLocation(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	width := 0
	if raw := ctx.Query("width"); raw != "" {
		width, err = strconv.Atoi(raw)
		if err != nil {
			util.BadRequest(ctx, "width must be an integer")
			return
		}
	}

	data, entry, err := c.CatalogService.Preview(ctx.Request.Context(), program, category, ctx.Param("filename"), width)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Header("Cache-Control", "public, max-age=3600")
	ctx.Data(http.StatusOK, util.ContentTypeFor(entry.Extension), data)
}
