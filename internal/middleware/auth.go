package middleware

import (
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenValidator 由 AuthService 实现
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*util.Claims, error)
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	// 浏览器直接打开视频、下载链接时无法带请求头
	return c.Query("token")
}

// AuthMiddleware 必须登录
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := validator.Validate(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, util.ErrUnauthorized) || errors.Is(err, util.ErrSessionRevoked) {
				util.Unauthorized(c)
			} else {
				util.LogInternalError(c, err)
			}
			c.Abort()
			return
		}

		util.SetUserInContext(c, claims)
		c.Next()
	}
}

// TryAuthMiddleware 浏览资料不需要登录，带了有效令牌时才记录进度
func TryAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if claims, err := validator.Validate(c.Request.Context(), tokenString); err == nil {
				util.SetUserInContext(c, claims)
			}
		}
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		// 管理员直接放行
		hasRole := user.Role == model.Admin
		for _, role := range roles {
			if user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
