package util

import (
	"agri_training_backend/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}

// HandleError 按错误分类映射 HTTP 状态码，所有错误都在这里被兜住
func HandleError(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		BadRequest(c, ve.Error())
	case errors.Is(err, ErrNotFound):
		NotFound(c)
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSessionRevoked):
		Unauthorized(c)
	case errors.Is(err, ErrPermissionDenied):
		Forbidden(c)
	case IsStorage(err):
		logger.Log.Error("Storage operation failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		Error(c, http.StatusInternalServerError, "Storage operation failed, please retry")
	default:
		LogInternalError(c, err)
	}
}
