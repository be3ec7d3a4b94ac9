package service

import "errors"

// 通用错误
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailExists        = errors.New("email already registered")
	ErrUserDisabled       = errors.New("user disabled")
)

// 验证码错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha mismatch")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
)

// 优惠码错误
var (
	ErrCouponInvalid       = errors.New("coupon invalid")
	ErrCouponNotFound      = errors.New("coupon code not found")
	ErrCouponNotStarted    = errors.New("coupon not active yet")
	ErrCouponExpired       = errors.New("coupon expired")
	ErrCouponAlreadyUsed   = errors.New("coupon already used")
	ErrCouponUsedByAccount = errors.New("coupon fully used by this account")
	ErrCouponNotForAccount = errors.New("coupon not valid for this account")
	ErrSignInRequired      = errors.New("sign in required to redeem this coupon")
	ErrCouponTypeInvalid   = errors.New("coupon type invalid")
	ErrCodeSpaceExhausted  = errors.New("coupon code space exhausted")
)

// 活动错误
var (
	ErrCampaignInvalid  = errors.New("campaign invalid")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignExists   = errors.New("campaign name already exists")
	ErrCampaignInUse    = errors.New("campaign still has coupons")
)
