package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// LocaleZHCN 简体中文
	LocaleZHCN = "zh-CN"
	// LocaleENUS 英文
	LocaleENUS = "en-US"
	// DefaultLocale 默认语言
	DefaultLocale = LocaleZHCN
)

// messages 按语言组织的消息目录
var messages = map[string]map[string]string{
	LocaleZHCN: {
		"error.bad_request":             "请求参数有误",
		"error.unauthorized":            "未授权，请先登录",
		"error.forbidden":               "没有权限执行该操作",
		"error.internal":                "服务器内部错误",
		"error.not_found":               "资源不存在",
		"error.rate_limited":            "操作过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":  "限流服务不可用",
		"error.login_too_many":          "登录尝试过多，请 %d 秒后重试",
		"error.redeem_too_many":         "兑换操作过于频繁，请 %d 秒后重试",
		"error.login_failed":            "用户名或密码错误",
		"error.token_invalid":           "登录凭证无效",
		"error.token_revoked":           "登录凭证已失效，请重新登录",
		"error.auth_header_missing":     "缺少认证头",
		"error.auth_header_invalid":     "认证头格式错误",
		"error.jwt_secret_missing":      "JWT 密钥未配置",
		"error.user_id_invalid":         "用户 ID 不合法",
		"error.user_id_type_invalid":    "用户 ID 类型错误",
		"error.admin_id_invalid":        "管理员 ID 不合法",
		"error.admin_id_type_invalid":   "管理员 ID 类型错误",
		"error.email_invalid":           "邮箱格式不正确",
		"error.email_exists":            "邮箱已被注册",
		"error.user_not_found":          "用户不存在",
		"error.user_disabled":           "账号已被禁用",
		"error.weak_password":           "密码强度不足",
		"error.password_too_short":      "密码长度不能少于 %d 位",
		"error.password_need_upper":     "密码需要包含大写字母",
		"error.password_need_lower":     "密码需要包含小写字母",
		"error.password_need_number":    "密码需要包含数字",
		"error.password_need_special":   "密码需要包含特殊字符",
		"error.coupon_code_not_found":   "优惠码不存在",
		"error.coupon_not_started":      "优惠码尚未生效",
		"error.coupon_expired":          "优惠码已过期",
		"error.coupon_already_used":     "该优惠码已被使用",
		"error.coupon_used_by_account":  "该优惠码已被你的账号用完",
		"error.coupon_not_for_account":  "该优惠码不适用于你的账号",
		"error.coupon_sign_in_required": "请登录后再使用该优惠码",
		"error.coupon_type_invalid":     "优惠码类型不合法",
		"error.coupon_code_exhausted":   "优惠码生成失败，请稍后重试",
		"error.coupon_create_failed":    "优惠码创建失败",
		"error.coupon_fetch_failed":     "优惠码查询失败",
		"error.coupon_update_failed":    "优惠码更新失败",
		"error.coupon_redeem_failed":    "优惠码核销失败",
		"error.campaign_not_found":      "活动不存在",
		"error.campaign_exists":         "活动名称已存在",
		"error.campaign_invalid":        "活动参数不合法",
		"error.campaign_in_use":         "活动下仍有优惠码，无法删除",
		"error.captcha_required":        "请完成验证码",
		"error.captcha_invalid":         "验证码错误",
		"error.captcha_unavailable":     "验证码服务不可用",
		"error.role_invalid":            "角色不合法",
		"success.redeemed":              "核销成功",
	},
	LocaleENUS: {
		"error.bad_request":             "Invalid request",
		"error.unauthorized":            "Unauthorized, please sign in",
		"error.forbidden":               "You are not allowed to perform this action",
		"error.internal":                "Internal server error",
		"error.not_found":               "Resource not found",
		"error.rate_limited":            "Too many attempts, retry in %d seconds",
		"error.rate_limit_unavailable":  "Rate limiter unavailable",
		"error.login_too_many":          "Too many login attempts, retry in %d seconds",
		"error.redeem_too_many":         "Too many redeem attempts, retry in %d seconds",
		"error.login_failed":            "Invalid username or password",
		"error.token_invalid":           "Invalid token",
		"error.token_revoked":           "Token revoked, please sign in again",
		"error.auth_header_missing":     "Missing authorization header",
		"error.auth_header_invalid":     "Malformed authorization header",
		"error.jwt_secret_missing":      "JWT secret not configured",
		"error.user_id_invalid":         "Invalid user id",
		"error.user_id_type_invalid":    "Invalid user id type",
		"error.admin_id_invalid":        "Invalid admin id",
		"error.admin_id_type_invalid":   "Invalid admin id type",
		"error.email_invalid":           "Invalid email address",
		"error.email_exists":            "Email already registered",
		"error.user_not_found":          "User not found",
		"error.user_disabled":           "Account disabled",
		"error.weak_password":           "Password does not meet the policy",
		"error.password_too_short":      "Password must be at least %d characters",
		"error.password_need_upper":     "Password must contain an uppercase letter",
		"error.password_need_lower":     "Password must contain a lowercase letter",
		"error.password_need_number":    "Password must contain a digit",
		"error.password_need_special":   "Password must contain a special character",
		"error.coupon_code_not_found":   "This code is not valid.",
		"error.coupon_not_started":      "This code is not active yet.",
		"error.coupon_expired":          "This code is expired.",
		"error.coupon_already_used":     "This code has already been used.",
		"error.coupon_used_by_account":  "This code has already been fully used by your account.",
		"error.coupon_not_for_account":  "This code is not valid for your account.",
		"error.coupon_sign_in_required": "Please sign in to use this coupon.",
		"error.coupon_type_invalid":     "Invalid coupon type",
		"error.coupon_code_exhausted":   "Could not generate a unique code, try again later",
		"error.coupon_create_failed":    "Failed to create coupon",
		"error.coupon_fetch_failed":     "Failed to fetch coupon",
		"error.coupon_update_failed":    "Failed to update coupon",
		"error.coupon_redeem_failed":    "Failed to redeem coupon",
		"error.campaign_not_found":      "Campaign not found",
		"error.campaign_exists":         "Campaign name already exists",
		"error.campaign_invalid":        "Invalid campaign",
		"error.campaign_in_use":         "Campaign still has coupons and cannot be deleted",
		"error.captcha_required":        "Captcha required",
		"error.captcha_invalid":         "Captcha mismatch",
		"error.captcha_unavailable":     "Captcha unavailable",
		"error.role_invalid":            "Invalid role",
		"success.redeemed":              "Redeemed",
	},
}

// ResolveLocale 解析请求语言：query 参数优先，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if locale := normalizeLocale(c.Query("locale")); locale != "" {
		return locale
	}
	if locale := normalizeLocale(c.GetHeader("Accept-Language")); locale != "" {
		return locale
	}
	return DefaultLocale
}

// T 按语言翻译消息 key；未命中时回退默认语言，仍未命中则原样返回 key
func T(locale, key string) string {
	if catalog, ok := messages[normalizeLocale(locale)]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化消息
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalizeLocale(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	// Accept-Language 可能携带权重列表，仅取第一个语言标记
	if idx := strings.IndexAny(value, ",;"); idx >= 0 {
		value = value[:idx]
	}
	value = strings.TrimSpace(value)
	lower := strings.ToLower(value)
	switch {
	case strings.HasPrefix(lower, "zh"):
		return LocaleZHCN
	case strings.HasPrefix(lower, "en"):
		return LocaleENUS
	default:
		return ""
	}
}
