package controller

import (
	"agri_training_backend/internal/service"
	"agri_training_backend/internal/util"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
	maxBytes       atomic.Int64
}

func NewContentController(contentService *service.ContentService, maxBytes int64) *ContentController {
	c := &ContentController{ContentService: contentService}
	c.SetMaxBytes(maxBytes)
	return c
}

// SetMaxBytes 配置热更新时调整上传大小上限
func (c *ContentController) SetMaxBytes(n int64) {
	if n <= 0 {
		n = 512 << 20
	}
	c.maxBytes.Store(n)
}

// Upload godoc
// @Summary 上传培训资料
// @Description 同名文件会被覆盖；扩展名必须符合分类
// @Tags 管理
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param program path string true "cotton | dairy"
// @Param category path string true "presentations | videos | audios | quizzes"
// @Param file formData file true "文件"
// @Param filename formData string false "保存的文件名，默认使用上传文件名"
// @Success 201 {object} util.Response{data=model.UploadResult}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 413 {object} util.Response
// @Router /api/admin/catalog/{program}/{category} [post]
func (c *ContentController) Upload(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxBytes.Load())

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			util.Error(ctx, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		util.BadRequest(ctx, "file is required")
		return
	}

	filename := ctx.PostForm("filename")
	if filename == "" {
		filename = fileHeader.Filename
	}

	src, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	result, err := c.ContentService.Upload(ctx.Request.Context(), ctx.Param("program"), ctx.Param("category"), filename, src, fileHeader.Size)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// Delete godoc
// @Summary 删除培训资料
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param program path string true "cotton | dairy"
// @Param category path string true "分类"
// @Param filename path string true "文件名"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/catalog/{program}/{category}/{filename} [delete]
func (c *ContentController) Delete(ctx *gin.Context) {
	if err := c.ContentService.Delete(ctx.Request.Context(), ctx.Param("program"), ctx.Param("category"), ctx.Param("filename")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": ctx.Param("filename")})
}
