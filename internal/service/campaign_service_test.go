package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCampaignServiceTest(t *testing.T) (*CampaignService, *CouponService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:campaign_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Campaign{},
		&models.Coupon{},
		&models.CouponUser{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	couponRepo := repository.NewCouponRepository(db)
	campaignSvc := NewCampaignService(repository.NewCampaignRepository(db), couponRepo)
	couponSvc := NewCouponService(couponRepo, repository.NewCouponUserRepository(db), nil, config.CouponConfig{})
	return campaignSvc, couponSvc, db
}

func TestCampaignServiceCreateAndDuplicate(t *testing.T) {
	svc, _, _ := setupCampaignServiceTest(t)

	campaign, err := svc.Create(CampaignInput{Name: " 夏季推广 ", Description: "新用户拉新"})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if campaign.Name != "夏季推广" {
		t.Fatalf("expected trimmed name, got: %q", campaign.Name)
	}

	if _, err := svc.Create(CampaignInput{Name: "夏季推广"}); !errors.Is(err, ErrCampaignExists) {
		t.Fatalf("expected ErrCampaignExists, got: %v", err)
	}
	if _, err := svc.Create(CampaignInput{Name: "   "}); !errors.Is(err, ErrCampaignInvalid) {
		t.Fatalf("expected ErrCampaignInvalid for blank name, got: %v", err)
	}
}

func TestCampaignServiceUpdate(t *testing.T) {
	svc, _, _ := setupCampaignServiceTest(t)

	campaign, err := svc.Create(CampaignInput{Name: "原名称"})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}

	updated, err := svc.Update(campaign.ID, CampaignInput{Name: "新名称", Description: "改描述"})
	if err != nil {
		t.Fatalf("update campaign failed: %v", err)
	}
	if updated.Name != "新名称" || updated.Description != "改描述" {
		t.Fatalf("unexpected campaign state: %+v", updated)
	}

	if _, err := svc.Update(99999, CampaignInput{Name: "X"}); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("expected ErrCampaignNotFound, got: %v", err)
	}
}

func TestCampaignServiceDeleteInUse(t *testing.T) {
	svc, couponSvc, _ := setupCampaignServiceTest(t)

	campaign, err := svc.Create(CampaignInput{Name: "在用活动"})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if _, err := couponSvc.CreateCoupon(CreateCouponInput{
		Type:       constants.CouponTypeMonetary,
		Value:      100,
		CampaignID: &campaign.ID,
	}); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	if err := svc.Delete(campaign.ID); !errors.Is(err, ErrCampaignInUse) {
		t.Fatalf("expected ErrCampaignInUse, got: %v", err)
	}

	empty, err := svc.Create(CampaignInput{Name: "空活动"})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	if err := svc.Delete(empty.ID); err != nil {
		t.Fatalf("delete empty campaign failed: %v", err)
	}
	if _, err := svc.GetByID(empty.ID); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("expected ErrCampaignNotFound after delete, got: %v", err)
	}
}
