package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateCode 优惠码唯一约束冲突
var ErrDuplicateCode = errors.New("coupon code already exists")

// CouponRepository 优惠码数据访问接口
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	CountByCampaign(campaignID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormCouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠码仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByID 根据ID获取优惠码
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.Preload("Campaign").First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据优惠码获取记录，匹配不区分大小写
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var coupon models.Coupon
	if err := r.db.Where("code = ?", normalized).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// Create 创建优惠码，码冲突时返回 ErrDuplicateCode
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	if err := r.db.Create(coupon).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

// Update 更新优惠码
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	return r.db.Save(coupon).Error
}

// List 获取优惠码列表
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	query := r.db.Model(&models.Coupon{})

	if filter.Code != "" {
		operator := likeOperatorByDialect(dbDialectName(r.db))
		query = query.Where("code "+operator+" ?", "%"+strings.ToUpper(strings.TrimSpace(filter.Code))+"%")
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.CampaignID > 0 {
		query = query.Where("campaign_id = ?", filter.CampaignID)
	}
	query = applyStatusFilter(query, filter.Status, filter.Now)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("Campaign").Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// CountByCampaign 统计活动下的优惠码数量
func (r *GormCouponRepository) CountByCampaign(campaignID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Coupon{}).Where("campaign_id = ?", campaignID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// applyStatusFilter 应用状态过滤：
// used 表示存在核销记录，unused 表示不存在，expired 按失效时间判断，active 表示当前可用。
func applyStatusFilter(query *gorm.DB, status string, now time.Time) *gorm.DB {
	if now.IsZero() {
		now = time.Now()
	}
	redeemedExists := "EXISTS (SELECT 1 FROM coupon_users cu WHERE cu.coupon_id = coupons.id AND cu.redeemed_at IS NOT NULL)"
	switch status {
	case constants.CouponFilterUsed:
		return query.Where(redeemedExists)
	case constants.CouponFilterUnused:
		return query.Where("NOT " + redeemedExists)
	case constants.CouponFilterExpired:
		return query.Where("valid_until IS NOT NULL AND valid_until < ?", now)
	case constants.CouponFilterActive:
		return query.Where("valid_from <= ?", now).
			Where("valid_until IS NULL OR valid_until >= ?", now)
	default:
		return query
	}
}
