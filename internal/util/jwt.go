package util

import (
	"agri_training_backend/internal/model"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const contextUserKey = "user"

type Claims struct {
	Name       string         `json:"name"`
	Role       model.UserRole `json:"role"`
	EmployeeID uint           `json:"employee_id,omitempty"`
	jwt.RegisteredClaims
}

// SessionID 即 JWT 的 jti
func (c *Claims) SessionID() string {
	return c.ID
}

func (c *Claims) Identity() *model.Identity {
	return &model.Identity{
		Subject:    c.Subject,
		Name:       c.Name,
		Role:       c.Role,
		EmployeeID: c.EmployeeID,
	}
}

func GenerateJWT(identity *model.Identity, sessionID, secret string, expiration time.Duration) (string, time.Time, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		Name:       identity.Name,
		Role:       identity.Role,
		EmployeeID: identity.EmployeeID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	return signed, expirationTime, err
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func SetUserInContext(c *gin.Context, claims *Claims) {
	c.Set(contextUserKey, claims)
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get(contextUserKey)
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
