package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/repository"
	"github.com/coupon-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCouponRequest 创建优惠码请求
type CreateCouponRequest struct {
	Code         string     `json:"code"`
	Prefix       string     `json:"prefix"`
	Type         string     `json:"type" binding:"required"`
	Value        int64      `json:"value" binding:"required"`
	Description  string     `json:"description"`
	UserLimit    *uint      `json:"user_limit"`
	LimitPerUser *uint      `json:"limit_per_user"`
	ValidFrom    *time.Time `json:"valid_from"`
	ValidUntil   *time.Time `json:"valid_until"`
	CampaignID   *uint      `json:"campaign_id"`
	Users        []uint     `json:"users"`
}

func (r CreateCouponRequest) toInput() service.CreateCouponInput {
	return service.CreateCouponInput{
		Code:         r.Code,
		Prefix:       r.Prefix,
		Type:         r.Type,
		Value:        r.Value,
		Description:  r.Description,
		UserLimit:    r.UserLimit,
		LimitPerUser: r.LimitPerUser,
		ValidFrom:    r.ValidFrom,
		ValidUntil:   r.ValidUntil,
		CampaignID:   r.CampaignID,
		Users:        r.Users,
	}
}

var adminCouponCreateErrorResponses = map[error]struct {
	code int
	key  string
}{
	service.ErrCouponTypeInvalid:  {response.CodeBadRequest, "error.coupon_type_invalid"},
	service.ErrCouponInvalid:      {response.CodeBadRequest, "error.coupon_create_failed"},
	service.ErrCodeSpaceExhausted: {response.CodeInternal, "error.coupon_code_exhausted"},
	service.ErrCampaignNotFound:   {response.CodeBadRequest, "error.campaign_not_found"},
}

func respondAdminCouponCreateError(c *gin.Context, err error) {
	for target, resp := range adminCouponCreateErrorResponses {
		if errors.Is(err, target) {
			respondError(c, resp.code, resp.key, nil)
			return
		}
	}
	respondError(c, response.CodeInternal, "error.coupon_create_failed", err)
}

// CreateCoupon 创建优惠码
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	coupon, err := h.CouponAdminService.Create(req.toInput())
	if err != nil {
		respondAdminCouponCreateError(c, err)
		return
	}
	response.Success(c, coupon)
}

// CreateCouponBatchRequest 批量创建优惠码请求
type CreateCouponBatchRequest struct {
	Quantity int `json:"quantity" binding:"required"`
	CreateCouponRequest
}

// CreateCouponBatch 批量创建优惠码
func (h *Handler) CreateCouponBatch(c *gin.Context) {
	var req CreateCouponBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.Quantity <= 0 || req.Quantity > 1000 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	coupons, err := h.CouponAdminService.CreateBatch(req.Quantity, req.toInput())
	if err != nil {
		// 部分创建成功时携带已生成的码返回
		if len(coupons) > 0 {
			requestLog(c).Warnw("admin_coupon_batch_partial",
				"requested", req.Quantity,
				"created", len(coupons),
				"error", err,
			)
			response.ErrorWithData(c, response.CodeInternal, "error.coupon_code_exhausted", gin.H{
				"created": coupons,
			})
			return
		}
		respondAdminCouponCreateError(c, err)
		return
	}
	response.Success(c, gin.H{"created": coupons})
}

// UpdateCouponRequest 更新优惠码请求，省略的字段保持原值
type UpdateCouponRequest struct {
	Description  *string    `json:"description"`
	UserLimit    *uint      `json:"user_limit"`
	LimitPerUser *uint      `json:"limit_per_user"`
	ValidFrom    *time.Time `json:"valid_from"`
	ValidUntil   *time.Time `json:"valid_until"`
	CampaignID   *uint      `json:"campaign_id"`
}

// UpdateCoupon 更新优惠码元信息与有效期
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	coupon, err := h.CouponAdminService.Update(c.Request.Context(), uint(id), service.UpdateCouponInput{
		Description:  req.Description,
		UserLimit:    req.UserLimit,
		LimitPerUser: req.LimitPerUser,
		ValidFrom:    req.ValidFrom,
		ValidUntil:   req.ValidUntil,
		CampaignID:   req.CampaignID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "error.coupon_code_not_found", nil)
		case errors.Is(err, service.ErrCampaignNotFound):
			respondError(c, response.CodeBadRequest, "error.campaign_not_found", nil)
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.coupon_update_failed", err)
		}
		return
	}
	response.Success(c, coupon)
}

// GetCoupons 获取优惠码列表
func (h *Handler) GetCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
		Type:     strings.TrimSpace(c.Query("type")),
		Status:   strings.TrimSpace(c.Query("status")),
		Now:      time.Now(),
	}
	if raw := strings.TrimSpace(c.Query("campaign_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.CampaignID = uint(id)
	}

	coupons, total, err := h.CouponAdminService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, coupons, pagination)
}

// GetCoupon 获取优惠码详情
func (h *Handler) GetCoupon(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	detail, err := h.CouponAdminService.GetDetail(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			respondError(c, response.CodeNotFound, "error.coupon_code_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.coupon_fetch_failed", err)
		return
	}
	response.Success(c, detail)
}

// GetCouponRecords 获取优惠码核销占位记录
func (h *Handler) GetCouponRecords(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	records, total, err := h.CouponAdminService.ListRecords(repository.CouponUserListFilter{
		Page:     page,
		PageSize: pageSize,
		CouponID: uint(id),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, records, pagination)
}
