package public

import (
	"time"

	"github.com/coupon-next/internal/cache"
	"github.com/coupon-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey = "public:config"
	publicConfigCacheTTL = 60 * time.Second
)

// GetConfig 获取全局配置
func (h *Handler) GetConfig(c *gin.Context) {
	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	data := map[string]interface{}{
		"languages":    []string{"zh-CN", "en-US"},
		"coupon_types": h.Config.Coupon.Types,
		"captcha":      h.CaptchaService.PublicSetting(),
	}

	if err := cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL); err != nil {
		requestLog(c).Warnw("public_config_cache_set_failed", "error", err)
	}
	response.Success(c, data)
}
