package repository

import (
	"github.com/coupon-next/internal/models"

	"gorm.io/gorm"
)

// RedemptionLogRepository 核销流水数据访问接口
type RedemptionLogRepository interface {
	Create(log *models.RedemptionLog) error
	List(filter RedemptionLogListFilter) ([]models.RedemptionLog, int64, error)
}

// GormRedemptionLogRepository GORM 实现
type GormRedemptionLogRepository struct {
	db *gorm.DB
}

// NewRedemptionLogRepository 创建核销流水仓库
func NewRedemptionLogRepository(db *gorm.DB) *GormRedemptionLogRepository {
	return &GormRedemptionLogRepository{db: db}
}

// Create 写入一条核销流水
func (r *GormRedemptionLogRepository) Create(log *models.RedemptionLog) error {
	return r.db.Create(log).Error
}

// List 按过滤条件分页获取核销流水
func (r *GormRedemptionLogRepository) List(filter RedemptionLogListFilter) ([]models.RedemptionLog, int64, error) {
	logs := make([]models.RedemptionLog, 0)
	query := r.db.Model(&models.RedemptionLog{})

	if filter.CouponID > 0 {
		query = query.Where("coupon_id = ?", filter.CouponID)
	}
	if filter.CouponCode != "" {
		query = query.Where("coupon_code = ?", filter.CouponCode)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
