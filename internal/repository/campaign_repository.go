package repository

import (
	"errors"

	"github.com/coupon-next/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateCampaignName 活动名称唯一约束冲突
var ErrDuplicateCampaignName = errors.New("campaign name already exists")

// CampaignRepository 活动数据访问接口
type CampaignRepository interface {
	GetByID(id uint) (*models.Campaign, error)
	GetByName(name string) (*models.Campaign, error)
	Create(campaign *models.Campaign) error
	Update(campaign *models.Campaign) error
	Delete(id uint) error
	List(filter CampaignListFilter) ([]models.Campaign, int64, error)
}

// GormCampaignRepository GORM 实现
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository 创建活动仓库
func NewCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// GetByID 根据ID获取活动
func (r *GormCampaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.First(&campaign, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// GetByName 根据名称获取活动
func (r *GormCampaignRepository) GetByName(name string) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.db.Where("name = ?", name).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

// Create 创建活动，名称冲突时返回 ErrDuplicateCampaignName
func (r *GormCampaignRepository) Create(campaign *models.Campaign) error {
	if err := r.db.Create(campaign).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCampaignName
		}
		return err
	}
	return nil
}

// Update 更新活动
func (r *GormCampaignRepository) Update(campaign *models.Campaign) error {
	if err := r.db.Save(campaign).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCampaignName
		}
		return err
	}
	return nil
}

// Delete 删除活动
func (r *GormCampaignRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Campaign{}, id).Error
}

// List 获取活动列表
func (r *GormCampaignRepository) List(filter CampaignListFilter) ([]models.Campaign, int64, error) {
	campaigns := make([]models.Campaign, 0)
	query := r.db.Model(&models.Campaign{})

	if filter.Keyword != "" {
		operator := likeOperatorByDialect(dbDialectName(r.db))
		like := "%" + filter.Keyword + "%"
		query = query.Where("name "+operator+" ? OR description "+operator+" ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&campaigns).Error; err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}
