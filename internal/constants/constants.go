package constants

// 优惠码类型常量
const (
	CouponTypeMonetary        = "monetary"
	CouponTypePercentage      = "percentage"
	CouponTypeVirtualCurrency = "virtual_currency"
)

// 优惠码列表筛选常量
const (
	CouponFilterUsed    = "used"
	CouponFilterUnused  = "unused"
	CouponFilterExpired = "expired"
	CouponFilterActive  = "active"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneLogin       = "login"
	CaptchaSceneGuestRedeem = "guest_redeem"
)

// 队列与任务常量
const (
	QueueDefault       = "default"
	TaskCouponRedeemed = "coupon:redeemed"
)

// 核销来源常量
const (
	RedeemSourceAPI  = "api"
	RedeemSourceSeed = "seed"
)
