package public

import (
	"time"

	"github.com/coupon-next/internal/cache"
	"github.com/coupon-next/internal/constants"
	handlershared "github.com/coupon-next/internal/http/handlers/shared"
	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/i18n"
	"github.com/coupon-next/internal/models"

	"github.com/gin-gonic/gin"
)

func couponView(coupon *models.Coupon) gin.H {
	return gin.H{
		"code":        coupon.Code,
		"type":        coupon.Type,
		"value":       coupon.Value,
		"description": coupon.Description,
		"valid_from":  coupon.ValidFrom,
		"valid_until": coupon.ValidUntil,
	}
}

func snapshotFromCoupon(coupon *models.Coupon) *cache.CouponSnapshot {
	validUntil := int64(0)
	if coupon.ValidUntil != nil {
		validUntil = coupon.ValidUntil.Unix()
	}
	return &cache.CouponSnapshot{
		CouponID:     coupon.ID,
		Code:         coupon.Code,
		Type:         coupon.Type,
		Value:        coupon.Value,
		Description:  coupon.Description,
		UserLimit:    coupon.UserLimit,
		LimitPerUser: coupon.LimitPerUser,
		ValidFrom:    coupon.ValidFrom.Unix(),
		ValidUntil:   validUntil,
		UpdatedAt:    time.Now().Unix(),
	}
}

func couponFromSnapshot(snapshot *cache.CouponSnapshot) *models.Coupon {
	coupon := &models.Coupon{
		ID:           snapshot.CouponID,
		Code:         snapshot.Code,
		Type:         snapshot.Type,
		Value:        snapshot.Value,
		Description:  snapshot.Description,
		UserLimit:    snapshot.UserLimit,
		LimitPerUser: snapshot.LimitPerUser,
		ValidFrom:    time.Unix(snapshot.ValidFrom, 0),
	}
	if snapshot.ValidUntil > 0 {
		validUntil := time.Unix(snapshot.ValidUntil, 0)
		coupon.ValidUntil = &validUntil
	}
	return coupon
}

// lookupCoupon 优先读校验快照，未命中时回源数据库并回填
func (h *Handler) lookupCoupon(c *gin.Context, code string) (*models.Coupon, error) {
	snapshot, hit, err := cache.GetCouponSnapshot(c.Request.Context(), code)
	if err != nil {
		requestLog(c).Warnw("coupon_snapshot_get_failed", "code", code, "error", err)
	} else if hit && snapshot != nil && snapshot.CouponID > 0 {
		return couponFromSnapshot(snapshot), nil
	}

	coupon, err := h.CouponService.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if err := cache.SetCouponSnapshot(c.Request.Context(), snapshotFromCoupon(coupon)); err != nil {
		requestLog(c).Warnw("coupon_snapshot_set_failed", "code", coupon.Code, "error", err)
	}
	return coupon, nil
}

// ValidateCoupon 只读校验优惠码；不改变任何核销状态
func (h *Handler) ValidateCoupon(c *gin.Context) {
	coupon, err := h.lookupCoupon(c, c.Param("code"))
	if err != nil {
		respondWithMappedError(c, err, couponValidationErrorRules, response.CodeInternal, "error.coupon_fetch_failed")
		return
	}

	if err := h.CouponService.CanRedeem(coupon, optionalUserID(c), time.Now()); err != nil {
		respondWithMappedError(c, err, couponValidationErrorRules, response.CodeInternal, "error.coupon_fetch_failed")
		return
	}

	response.Success(c, gin.H{
		"valid":  true,
		"coupon": couponView(coupon),
	})
}

// RedeemCouponRequest 核销请求
type RedeemCouponRequest struct {
	Code           string                              `json:"code" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// RedeemCoupon 核销优惠码：先走只读校验，再执行核销
func (h *Handler) RedeemCoupon(c *gin.Context) {
	var req RedeemCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	userID := optionalUserID(c)

	// 匿名核销按场景开关校验验证码
	if userID == nil && h.CaptchaService != nil {
		if err := h.CaptchaService.Verify(constants.CaptchaSceneGuestRedeem, req.CaptchaPayload.ToServicePayload()); err != nil {
			respondWithMappedError(c, err, captchaErrorRules, response.CodeInternal, "error.captcha_unavailable")
			return
		}
	}

	coupon, err := h.CouponService.GetByCode(req.Code)
	if err != nil {
		respondWithMappedError(c, err, couponValidationErrorRules, response.CodeInternal, "error.coupon_redeem_failed")
		return
	}
	if err := h.CouponService.CanRedeem(coupon, userID, time.Now()); err != nil {
		respondWithMappedError(c, err, couponValidationErrorRules, response.CodeInternal, "error.coupon_redeem_failed")
		return
	}

	record, err := h.CouponService.Redeem(coupon, userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_redeem_failed", err)
		return
	}

	locale := i18n.ResolveLocale(c)
	response.SuccessWithMsg(c, i18n.T(locale, "success.redeemed"), gin.H{
		"coupon":       couponView(coupon),
		"redeem_count": record.RedeemCount,
		"redeemed_at":  record.RedeemedAt,
	})
}
