package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseIDParam 解析路径中的 :id，非法时返回 ValidationError
func ParseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, NewValidationError(name, "invalid id %q", raw)
	}
	return uint(id), nil
}
