package public

import (
	"errors"

	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var couponValidationErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, code: response.CodeNotFound, key: "error.coupon_code_not_found"},
	{target: service.ErrSignInRequired, code: response.CodeUnauthorized, key: "error.coupon_sign_in_required"},
	{target: service.ErrCouponAlreadyUsed, code: response.CodeBadRequest, key: "error.coupon_already_used"},
	{target: service.ErrCouponUsedByAccount, code: response.CodeBadRequest, key: "error.coupon_used_by_account"},
	{target: service.ErrCouponNotForAccount, code: response.CodeBadRequest, key: "error.coupon_not_for_account"},
	{target: service.ErrCouponNotStarted, code: response.CodeBadRequest, key: "error.coupon_not_started"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, key: "error.coupon_expired"},
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, key: "error.bad_request"},
}

var captchaErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeInternal, key: "error.captcha_unavailable"},
}
