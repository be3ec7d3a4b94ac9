package main

import (
	"time"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/service"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加活动
	campaigns := []models.Campaign{
		{Name: "Spring Launch", Description: "春季上新活动，兑换码面向全量用户投放"},
		{Name: "Newsletter Signup", Description: "订阅邮件奖励，单次兑换"},
	}
	for _, campaign := range campaigns {
		var existing models.Campaign
		if err := models.DB.Where("name = ?", campaign.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&campaign).Error; err != nil {
				stdLog.Printf("Failed to create campaign %s: %v", campaign.Name, err)
			} else {
				stdLog.Printf("Created campaign: %s", campaign.Name)
			}
		} else {
			stdLog.Printf("Campaign already exists: %s", campaign.Name)
		}
	}

	campaignIDs := map[string]uint{}
	var campaignList []models.Campaign
	if err := models.DB.Where("name IN ?", []string{"Spring Launch", "Newsletter Signup"}).Find(&campaignList).Error; err != nil {
		stdLog.Printf("Failed to load campaigns: %v", err)
	}
	for _, campaign := range campaignList {
		campaignIDs[campaign.Name] = campaign.ID
	}
	springID := campaignIDs["Spring Launch"]
	newsletterID := campaignIDs["Newsletter Signup"]

	// 添加演示优惠码
	now := time.Now()
	nextMonth := now.AddDate(0, 1, 0)
	generator := service.NewCodeGenerator(cfg.Coupon)
	coupons := []models.Coupon{
		{
			Code:         "WELCOME-10",
			Type:         constants.CouponTypeMonetary,
			Value:        1000,
			Description:  "新用户立减 10 元",
			UserLimit:    0,
			LimitPerUser: 1,
			CampaignID:   optionalCampaignID(springID),
			ValidFrom:    now,
			ValidUntil:   &nextMonth,
		},
		{
			Code:         "SPRING-20OFF",
			Type:         constants.CouponTypePercentage,
			Value:        20,
			Description:  "春季八折码，限前 100 个账号",
			UserLimit:    100,
			LimitPerUser: 1,
			CampaignID:   optionalCampaignID(springID),
			ValidFrom:    now,
			ValidUntil:   &nextMonth,
		},
		{
			Code:         generator.Generate(),
			Type:         constants.CouponTypeVirtualCurrency,
			Value:        500,
			Description:  "订阅奖励积分",
			UserLimit:    1,
			LimitPerUser: 1,
			CampaignID:   optionalCampaignID(newsletterID),
			ValidFrom:    now,
		},
	}
	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
				continue
			}
			stdLog.Printf("Created coupon: %s", coupon.Code)

			// 写一条匿名核销记录与流水，便于后台页面有数据可看
			if coupon.Code == "WELCOME-10" {
				record := models.CouponUser{
					CouponID:    coupon.ID,
					RedeemedAt:  &now,
					RedeemCount: 1,
				}
				if err := models.DB.Create(&record).Error; err != nil {
					stdLog.Printf("Failed to create redemption record for %s: %v", coupon.Code, err)
				}
				log := models.RedemptionLog{
					CouponID:   coupon.ID,
					CouponCode: coupon.Code,
					Source:     constants.RedeemSourceSeed,
					RedeemedAt: now,
				}
				if err := models.DB.Create(&log).Error; err != nil {
					stdLog.Printf("Failed to create redemption log for %s: %v", coupon.Code, err)
				}
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
		}
	}

	stdLog.Printf("Seed finished")
}

func optionalCampaignID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
