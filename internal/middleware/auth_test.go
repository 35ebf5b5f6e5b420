package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeValidator struct {
	tokens map[string]*util.Claims
}

func (f *fakeValidator) Validate(ctx context.Context, token string) (*util.Claims, error) {
	if claims, ok := f.tokens[token]; ok {
		return claims, nil
	}
	return nil, util.ErrSessionRevoked
}

func newValidator() *fakeValidator {
	return &fakeValidator{tokens: map[string]*util.Claims{
		"admin-token":  {Name: "admin", Role: model.Admin},
		"member-token": {Name: "Ravi Patil", Role: model.Member, EmployeeID: 3},
	}}
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.Name)
	})
	r.GET("/x", handlers...)
	return r
}

func do(r *gin.Engine, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(newValidator()))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/x", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/x", "revoked").Code)

	w := do(r, "/x", "member-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ravi Patil", w.Body.String())

	// 查询参数中的令牌
	w = do(r, "/x?token=admin-token", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())
}

func TestTryAuthMiddlewareNeverRejects(t *testing.T) {
	r := newRouter(TryAuthMiddleware(newValidator()))

	assert.Equal(t, "anonymous", do(r, "/x", "").Body.String())
	assert.Equal(t, "anonymous", do(r, "/x", "revoked").Body.String())
	assert.Equal(t, "Ravi Patil", do(r, "/x", "member-token").Body.String())
}

func TestRoleMiddleware(t *testing.T) {
	v := newValidator()

	adminOnly := newRouter(AuthMiddleware(v), RoleMiddleware(model.Admin))
	assert.Equal(t, http.StatusForbidden, do(adminOnly, "/x", "member-token").Code)
	assert.Equal(t, http.StatusOK, do(adminOnly, "/x", "admin-token").Code)

	members := newRouter(AuthMiddleware(v), RoleMiddleware(model.Member))
	assert.Equal(t, http.StatusOK, do(members, "/x", "member-token").Code)
	assert.Equal(t, http.StatusOK, do(members, "/x", "admin-token").Code)

	noAuth := newRouter(RoleMiddleware(model.Member))
	assert.Equal(t, http.StatusUnauthorized, do(noAuth, "/x", "").Code)
}
