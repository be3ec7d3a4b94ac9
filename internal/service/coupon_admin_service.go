package service

import (
	"context"
	"time"

	"github.com/coupon-next/internal/cache"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"
)

// CouponAdminService 优惠码后台管理服务
type CouponAdminService struct {
	couponSvc   *CouponService
	coupons     repository.CouponRepository
	couponUsers repository.CouponUserRepository
	campaigns   repository.CampaignRepository
	logs        repository.RedemptionLogRepository
}

// NewCouponAdminService 创建优惠码后台管理服务
func NewCouponAdminService(
	couponSvc *CouponService,
	coupons repository.CouponRepository,
	couponUsers repository.CouponUserRepository,
	campaigns repository.CampaignRepository,
	logs repository.RedemptionLogRepository,
) *CouponAdminService {
	return &CouponAdminService{
		couponSvc:   couponSvc,
		coupons:     coupons,
		couponUsers: couponUsers,
		campaigns:   campaigns,
		logs:        logs,
	}
}

// CouponDetail 优惠码详情，附带派生状态与核销占位记录
type CouponDetail struct {
	Coupon         *models.Coupon      `json:"coupon"`
	Redeemed       bool                `json:"redeemed"`
	Expired        bool                `json:"expired"`
	Claims         int64               `json:"claims"`
	LastRedeemedAt *time.Time          `json:"last_redeemed_at"`
	Records        []models.CouponUser `json:"records"`
}

// UpdateCouponInput 更新优惠码输入，nil 字段保持原值；码本身不可变更
type UpdateCouponInput struct {
	Description  *string
	UserLimit    *uint
	LimitPerUser *uint
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	CampaignID   *uint
}

// Create 创建优惠码，关联活动时先校验活动存在
func (s *CouponAdminService) Create(input CreateCouponInput) (*models.Coupon, error) {
	if err := s.ensureCampaign(input.CampaignID); err != nil {
		return nil, err
	}
	return s.couponSvc.CreateCoupon(input)
}

// CreateBatch 批量创建优惠码
func (s *CouponAdminService) CreateBatch(quantity int, input CreateCouponInput) ([]models.Coupon, error) {
	if err := s.ensureCampaign(input.CampaignID); err != nil {
		return nil, err
	}
	return s.couponSvc.CreateCoupons(quantity, input)
}

// List 分页查询优惠码
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	if filter.Now.IsZero() {
		filter.Now = time.Now()
	}
	return s.coupons.List(filter)
}

// GetDetail 获取优惠码详情
func (s *CouponAdminService) GetDetail(id uint) (*CouponDetail, error) {
	coupon, err := s.coupons.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	redeemed, err := s.couponSvc.IsRedeemed(coupon)
	if err != nil {
		return nil, err
	}
	claims, err := s.couponUsers.CountClaims(coupon.ID)
	if err != nil {
		return nil, err
	}
	lastRedeemedAt, err := s.couponUsers.LastRedeemedAt(coupon.ID)
	if err != nil {
		return nil, err
	}
	records, err := s.couponUsers.ListByCoupon(coupon.ID)
	if err != nil {
		return nil, err
	}

	return &CouponDetail{
		Coupon:         coupon,
		Redeemed:       redeemed,
		Expired:        coupon.IsExpired(time.Now()),
		Claims:         claims,
		LastRedeemedAt: lastRedeemedAt,
		Records:        records,
	}, nil
}

// Update 更新优惠码元信息与有效期，成功后清除校验快照缓存
func (s *CouponAdminService) Update(ctx context.Context, id uint, input UpdateCouponInput) (*models.Coupon, error) {
	if id == 0 {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.coupons.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	if input.CampaignID != nil {
		if *input.CampaignID == 0 {
			coupon.CampaignID = nil
		} else {
			if err := s.ensureCampaign(input.CampaignID); err != nil {
				return nil, err
			}
			coupon.CampaignID = input.CampaignID
		}
		coupon.Campaign = nil
	}
	if input.Description != nil {
		coupon.Description = *input.Description
	}
	if input.UserLimit != nil {
		coupon.UserLimit = *input.UserLimit
	}
	if input.LimitPerUser != nil {
		if *input.LimitPerUser == 0 {
			return nil, ErrCouponInvalid
		}
		coupon.LimitPerUser = *input.LimitPerUser
	}
	if input.ValidFrom != nil {
		coupon.ValidFrom = *input.ValidFrom
	}
	if input.ValidUntil != nil {
		validUntil := *input.ValidUntil
		coupon.ValidUntil = &validUntil
	}
	if coupon.ValidUntil != nil && coupon.ValidUntil.Before(coupon.ValidFrom) {
		return nil, ErrCouponInvalid
	}

	if err := s.coupons.Update(coupon); err != nil {
		return nil, err
	}
	if err := cache.DelCouponSnapshot(ctx, coupon.Code); err != nil {
		logger.Warnw("coupon_snapshot_del_failed", "code", coupon.Code, "error", err)
	}
	return coupon, nil
}

// ListRecords 分页查询优惠码核销占位记录
func (s *CouponAdminService) ListRecords(filter repository.CouponUserListFilter) ([]models.CouponUser, int64, error) {
	return s.couponUsers.List(filter)
}

// ListRedemptionLogs 分页查询核销流水
func (s *CouponAdminService) ListRedemptionLogs(filter repository.RedemptionLogListFilter) ([]models.RedemptionLog, int64, error) {
	return s.logs.List(filter)
}

func (s *CouponAdminService) ensureCampaign(campaignID *uint) error {
	if campaignID == nil || *campaignID == 0 {
		return nil
	}
	campaign, err := s.campaigns.GetByID(*campaignID)
	if err != nil {
		return err
	}
	if campaign == nil {
		return ErrCampaignNotFound
	}
	return nil
}
