package repository

import (
	"errors"
	"time"

	"github.com/coupon-next/internal/models"

	"gorm.io/gorm"
)

// CouponUserRepository 优惠码核销占位记录数据访问接口
type CouponUserRepository interface {
	GetByCouponAndUser(couponID, userID uint) (*models.CouponUser, error)
	GetUnbound(couponID uint) (*models.CouponUser, error)
	Create(record *models.CouponUser) error
	ClaimUnbound(recordID, userID uint) (bool, error)
	IncrementRedeem(recordID uint, redeemedAt time.Time) (bool, error)
	ListByCoupon(couponID uint) ([]models.CouponUser, error)
	List(filter CouponUserListFilter) ([]models.CouponUser, int64, error)
	CountClaims(couponID uint) (int64, error)
	CountBound(couponID uint) (int64, error)
	CountExhausted(couponID uint, limitPerUser uint) (int64, error)
	LastRedeemedAt(couponID uint) (*time.Time, error)
	WithTx(tx *gorm.DB) *GormCouponUserRepository
}

// GormCouponUserRepository GORM 实现
type GormCouponUserRepository struct {
	db *gorm.DB
}

// NewCouponUserRepository 创建优惠码核销记录仓库
func NewCouponUserRepository(db *gorm.DB) *GormCouponUserRepository {
	return &GormCouponUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponUserRepository) WithTx(tx *gorm.DB) *GormCouponUserRepository {
	if tx == nil {
		return r
	}
	return &GormCouponUserRepository{db: tx}
}

// GetByCouponAndUser 获取指定账号在指定优惠码下的占位记录
func (r *GormCouponUserRepository) GetByCouponAndUser(couponID, userID uint) (*models.CouponUser, error) {
	var record models.CouponUser
	err := r.db.Where("coupon_id = ? AND user_id = ?", couponID, userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetUnbound 获取优惠码下的匿名占位记录
func (r *GormCouponUserRepository) GetUnbound(couponID uint) (*models.CouponUser, error) {
	var record models.CouponUser
	err := r.db.Where("coupon_id = ? AND user_id IS NULL", couponID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Create 创建占位记录
func (r *GormCouponUserRepository) Create(record *models.CouponUser) error {
	return r.db.Create(record).Error
}

// ClaimUnbound 将匿名占位记录绑定到指定账号，返回是否真正发生了绑定。
// 条件更新保证并发下只有一个账号能认领同一条占位。
func (r *GormCouponUserRepository) ClaimUnbound(recordID, userID uint) (bool, error) {
	result := r.db.Model(&models.CouponUser{}).
		Where("id = ? AND user_id IS NULL", recordID).
		Update("user_id", userID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementRedeem 累加核销次数并刷新核销时间，返回是否命中记录。
func (r *GormCouponUserRepository) IncrementRedeem(recordID uint, redeemedAt time.Time) (bool, error) {
	result := r.db.Model(&models.CouponUser{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"redeem_count": gorm.Expr("redeem_count + 1"),
			"redeemed_at":  redeemedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListByCoupon 获取优惠码下的全部占位记录
func (r *GormCouponUserRepository) ListByCoupon(couponID uint) ([]models.CouponUser, error) {
	records := make([]models.CouponUser, 0)
	if err := r.db.Where("coupon_id = ?", couponID).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// List 按过滤条件分页获取占位记录
func (r *GormCouponUserRepository) List(filter CouponUserListFilter) ([]models.CouponUser, int64, error) {
	records := make([]models.CouponUser, 0)
	query := r.db.Model(&models.CouponUser{})
	if filter.CouponID > 0 {
		query = query.Where("coupon_id = ?", filter.CouponID)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// CountClaims 统计优惠码下已存在的占位记录数（含匿名占位）
func (r *GormCouponUserRepository) CountClaims(couponID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CouponUser{}).Where("coupon_id = ?", couponID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountBound 统计优惠码下已绑定账号的占位记录数（不含匿名占位）
func (r *GormCouponUserRepository) CountBound(couponID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CouponUser{}).
		Where("coupon_id = ? AND user_id IS NOT NULL", couponID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountExhausted 统计优惠码下核销次数已达单账号上限的记录数，仅统计发生过核销的记录
func (r *GormCouponUserRepository) CountExhausted(couponID uint, limitPerUser uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CouponUser{}).
		Where("coupon_id = ? AND redeemed_at IS NOT NULL AND redeem_count >= ?", couponID, limitPerUser).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LastRedeemedAt 获取优惠码最近一次核销时间，从未核销时返回 nil
func (r *GormCouponUserRepository) LastRedeemedAt(couponID uint) (*time.Time, error) {
	var record models.CouponUser
	err := r.db.Where("coupon_id = ? AND redeemed_at IS NOT NULL", couponID).
		Order("redeemed_at desc").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record.RedeemedAt, nil
}
