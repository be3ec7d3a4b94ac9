package public

import (
	handlershared "github.com/coupon-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, key, invalidKey, typeInvalidKey)
}

func getUserID(c *gin.Context) (uint, bool) {
	return getContextUintWithKeys(c, "user_id", "error.user_id_invalid", "error.user_id_type_invalid")
}

// optionalUserID 读取可选登录态，未登录时返回 nil
func optionalUserID(c *gin.Context) *uint {
	value, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	switch v := value.(type) {
	case uint:
		if v > 0 {
			return &v
		}
	case int:
		if v > 0 {
			id := uint(v)
			return &id
		}
	case float64:
		if v > 0 {
			id := uint(v)
			return &id
		}
	}
	return nil
}
