package service

import (
	"strings"

	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"
)

// CampaignService 活动管理服务
type CampaignService struct {
	campaigns repository.CampaignRepository
	coupons   repository.CouponRepository
}

// NewCampaignService 创建活动服务
func NewCampaignService(campaigns repository.CampaignRepository, coupons repository.CouponRepository) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		coupons:   coupons,
	}
}

// CampaignInput 活动创建/更新输入
type CampaignInput struct {
	Name        string
	Description string
}

// Create 创建活动
func (s *CampaignService) Create(input CampaignInput) (*models.Campaign, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCampaignInvalid
	}

	campaign := &models.Campaign{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.campaigns.Create(campaign); err != nil {
		if err == repository.ErrDuplicateCampaignName {
			return nil, ErrCampaignExists
		}
		return nil, err
	}
	return campaign, nil
}

// Update 更新活动
func (s *CampaignService) Update(id uint, input CampaignInput) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCampaignInvalid
	}
	campaign.Name = name
	campaign.Description = strings.TrimSpace(input.Description)

	if err := s.campaigns.Update(campaign); err != nil {
		if err == repository.ErrDuplicateCampaignName {
			return nil, ErrCampaignExists
		}
		return nil, err
	}
	return campaign, nil
}

// Delete 删除活动；仍有优惠码关联时拒绝删除
func (s *CampaignService) Delete(id uint) error {
	campaign, err := s.campaigns.GetByID(id)
	if err != nil {
		return err
	}
	if campaign == nil {
		return ErrCampaignNotFound
	}

	count, err := s.coupons.CountByCampaign(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCampaignInUse
	}
	return s.campaigns.Delete(id)
}

// GetByID 获取活动详情
func (s *CampaignService) GetByID(id uint) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// List 分页查询活动
func (s *CampaignService) List(filter repository.CampaignListFilter) ([]models.Campaign, int64, error) {
	return s.campaigns.List(filter)
}
