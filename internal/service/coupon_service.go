package service

import (
	"context"
	"strings"
	"time"

	"github.com/coupon-next/internal/cache"
	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/queue"
	"github.com/coupon-next/internal/repository"

	"gorm.io/gorm"
)

const defaultCreateMaxRetries = 10

// CouponService 优惠码核心服务：创建、校验与核销
type CouponService struct {
	coupons     repository.CouponRepository
	couponUsers repository.CouponUserRepository
	queueClient *queue.Client
	gen         *CodeGenerator
	types       map[string]struct{}
	maxRetries  int
}

// NewCouponService 创建优惠码服务
func NewCouponService(
	coupons repository.CouponRepository,
	couponUsers repository.CouponUserRepository,
	queueClient *queue.Client,
	cfg config.CouponConfig,
) *CouponService {
	types := make(map[string]struct{}, len(cfg.Types))
	for _, t := range cfg.Types {
		normalized := strings.ToLower(strings.TrimSpace(t))
		if normalized != "" {
			types[normalized] = struct{}{}
		}
	}
	if len(types) == 0 {
		types = map[string]struct{}{
			constants.CouponTypeMonetary:        {},
			constants.CouponTypePercentage:      {},
			constants.CouponTypeVirtualCurrency: {},
		}
	}
	maxRetries := cfg.CreateMaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultCreateMaxRetries
	}
	return &CouponService{
		coupons:     coupons,
		couponUsers: couponUsers,
		queueClient: queueClient,
		gen:         NewCodeGenerator(cfg),
		types:       types,
		maxRetries:  maxRetries,
	}
}

// CreateCouponInput 创建优惠码输入
type CreateCouponInput struct {
	Code         string // 留空则生成随机码
	Prefix       string // 随机码前缀
	Type         string
	Value        int64
	Description  string
	UserLimit    *uint // 未指定时使用模型默认值 1
	LimitPerUser *uint // 未指定时使用模型默认值 1
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	CampaignID   *uint
	Users        []uint // 预绑定账号，创建后生成未核销的占位记录
}

// CreateCoupon 创建优惠码；未指定码时带重试地生成唯一随机码
func (s *CouponService) CreateCoupon(input CreateCouponInput) (*models.Coupon, error) {
	couponType := strings.ToLower(strings.TrimSpace(input.Type))
	if _, ok := s.types[couponType]; !ok {
		return nil, ErrCouponTypeInvalid
	}

	userLimit := uint(1)
	if input.UserLimit != nil {
		userLimit = *input.UserLimit
	}
	limitPerUser := uint(1)
	if input.LimitPerUser != nil {
		limitPerUser = *input.LimitPerUser
	}
	validFrom := time.Now()
	if input.ValidFrom != nil {
		validFrom = *input.ValidFrom
	}
	if input.ValidUntil != nil && input.ValidUntil.Before(validFrom) {
		return nil, ErrCouponInvalid
	}

	build := func(code string) *models.Coupon {
		return &models.Coupon{
			Code:         code,
			Type:         couponType,
			Value:        input.Value,
			Description:  strings.TrimSpace(input.Description),
			UserLimit:    userLimit,
			LimitPerUser: limitPerUser,
			CampaignID:   input.CampaignID,
			ValidFrom:    validFrom,
			ValidUntil:   input.ValidUntil,
		}
	}

	var coupon *models.Coupon
	if explicit := NormalizeCode(input.Code); explicit != "" {
		if len(explicit) > maxCodeLength {
			return nil, ErrCouponInvalid
		}
		coupon = build(explicit)
		if err := s.coupons.Create(coupon); err != nil {
			if err == repository.ErrDuplicateCode {
				return nil, ErrCouponInvalid
			}
			return nil, err
		}
	} else {
		created := false
		for attempt := 1; attempt <= s.maxRetries; attempt++ {
			code := NormalizeCode(input.Prefix + s.gen.Generate())
			if len(code) > maxCodeLength {
				return nil, ErrCouponInvalid
			}
			coupon = build(code)
			err := s.coupons.Create(coupon)
			if err == nil {
				created = true
				break
			}
			if err != repository.ErrDuplicateCode {
				return nil, err
			}
			logger.Warnw("coupon_code_collision_retry",
				"attempt", attempt,
				"max_retries", s.maxRetries,
			)
		}
		if !created {
			return nil, ErrCodeSpaceExhausted
		}
	}

	for _, userID := range input.Users {
		if userID == 0 {
			continue
		}
		uid := userID
		record := &models.CouponUser{CouponID: coupon.ID, UserID: &uid}
		if err := s.couponUsers.Create(record); err != nil {
			return nil, err
		}
	}
	return coupon, nil
}

// CreateCoupons 批量创建优惠码；单条失败即返回，已创建的部分保留
func (s *CouponService) CreateCoupons(quantity int, input CreateCouponInput) ([]models.Coupon, error) {
	if quantity <= 0 {
		return nil, ErrCouponInvalid
	}
	// 批量创建不支持指定码与预绑定账号
	input.Code = ""
	input.Users = nil

	coupons := make([]models.Coupon, 0, quantity)
	for i := 0; i < quantity; i++ {
		coupon, err := s.CreateCoupon(input)
		if err != nil {
			return coupons, err
		}
		coupons = append(coupons, *coupon)
	}
	return coupons, nil
}

// GetByCode 根据码查找优惠码，未找到返回 ErrCouponNotFound
func (s *CouponService) GetByCode(code string) (*models.Coupon, error) {
	coupon, err := s.coupons.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// IsRedeemed 判断优惠码是否已被完全核销：
// 核销次数达到单账号上限的账号数 ≥ 账号数上限，且上限不为 0。
func (s *CouponService) IsRedeemed(coupon *models.Coupon) (bool, error) {
	if coupon == nil {
		return false, ErrCouponInvalid
	}
	if coupon.UserLimit == 0 {
		return false, nil
	}
	exhausted, err := s.couponUsers.CountExhausted(coupon.ID, coupon.LimitPerUser)
	if err != nil {
		return false, err
	}
	return exhausted >= int64(coupon.UserLimit), nil
}

// LastRedeemedAt 获取优惠码最近一次核销时间，从未核销时返回 nil
func (s *CouponService) LastRedeemedAt(coupon *models.Coupon) (*time.Time, error) {
	if coupon == nil {
		return nil, ErrCouponInvalid
	}
	return s.couponUsers.LastRedeemedAt(coupon.ID)
}

// CanRedeem 只读校验：判断指定账号此刻能否核销该优惠码。
// 校验不锁定任何状态，真正的核销仍由 Redeem 完成。
func (s *CouponService) CanRedeem(coupon *models.Coupon, userID *uint, now time.Time) error {
	if coupon == nil {
		return ErrCouponNotFound
	}
	if now.IsZero() {
		now = time.Now()
	}

	// 单次即失效的码允许匿名核销，其余都需要身份来追踪单账号上限
	if userID == nil && coupon.UserLimit != 1 {
		return ErrSignInRequired
	}

	redeemed, err := s.IsRedeemed(coupon)
	if err != nil {
		return err
	}
	if redeemed {
		return ErrCouponAlreadyUsed
	}

	if userID != nil {
		record, err := s.couponUsers.GetByCouponAndUser(coupon.ID, *userID)
		if err != nil {
			return err
		}
		if record != nil {
			if coupon.LimitPerUser > 0 && record.RedeemCount >= coupon.LimitPerUser {
				return ErrCouponUsedByAccount
			}
		} else if coupon.UserLimit != 0 {
			// 账号名额已被其他账号占满
			bound, err := s.couponUsers.CountBound(coupon.ID)
			if err != nil {
				return err
			}
			if bound >= int64(coupon.UserLimit) {
				return ErrCouponNotForAccount
			}
		}
	}

	if !coupon.IsStarted(now) {
		return ErrCouponNotStarted
	}
	if coupon.IsExpired(now) {
		return ErrCouponExpired
	}
	return nil
}

// Redeem 无条件核销：为 (优惠码, 账号) 建立或更新占位记录并累加核销次数。
// 窗口与次数限制由 CanRedeem 把关，Redeem 本身不重复校验。
// 匿名占位由第一个带身份核销的账号认领。
func (s *CouponService) Redeem(coupon *models.Coupon, userID *uint) (*models.CouponUser, error) {
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	now := time.Now()
	var record *models.CouponUser
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.couponUsers.WithTx(tx)

		var err error
		record, err = s.resolveRecord(repo, coupon.ID, userID)
		if err != nil {
			return err
		}
		hit, err := repo.IncrementRedeem(record.ID, now)
		if err != nil {
			return err
		}
		if !hit {
			return gorm.ErrRecordNotFound
		}
		record.RedeemCount++
		record.RedeemedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishRedeemed(coupon, userID, now)
	return record, nil
}

// resolveRecord 定位本次核销应更新的占位记录：
// 账号已有记录时直接使用；存在匿名占位时认领；否则新建。
func (s *CouponService) resolveRecord(repo *repository.GormCouponUserRepository, couponID uint, userID *uint) (*models.CouponUser, error) {
	if userID != nil {
		record, err := repo.GetByCouponAndUser(couponID, *userID)
		if err != nil {
			return nil, err
		}
		if record != nil {
			return record, nil
		}

		unbound, err := repo.GetUnbound(couponID)
		if err != nil {
			return nil, err
		}
		if unbound != nil {
			claimed, err := repo.ClaimUnbound(unbound.ID, *userID)
			if err != nil {
				return nil, err
			}
			if claimed {
				unbound.UserID = userID
				return unbound, nil
			}
			// 占位被并发认领，重新按账号查找
			record, err = repo.GetByCouponAndUser(couponID, *userID)
			if err != nil {
				return nil, err
			}
			if record != nil {
				return record, nil
			}
		}

		record = &models.CouponUser{CouponID: couponID, UserID: userID}
		if err := repo.Create(record); err != nil {
			return nil, err
		}
		return record, nil
	}

	record, err := repo.GetUnbound(couponID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}
	record = &models.CouponUser{CouponID: couponID}
	if err := repo.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// publishRedeemed 发布核销事件并失效校验缓存，失败只记日志不影响核销结果
func (s *CouponService) publishRedeemed(coupon *models.Coupon, userID *uint, redeemedAt time.Time) {
	if err := cache.DelCouponSnapshot(context.Background(), coupon.Code); err != nil {
		logger.Warnw("coupon_snapshot_invalidate_failed", "code", coupon.Code, "error", err)
	}
	if s.queueClient == nil {
		return
	}
	err := s.queueClient.EnqueueCouponRedeemed(queue.CouponRedeemedPayload{
		CouponID:   coupon.ID,
		CouponCode: coupon.Code,
		UserID:     userID,
		Source:     constants.RedeemSourceAPI,
		RedeemedAt: redeemedAt,
	})
	if err != nil {
		logger.Warnw("coupon_redeemed_enqueue_failed",
			"coupon_id", coupon.ID,
			"code", coupon.Code,
			"error", err,
		)
	}
}
