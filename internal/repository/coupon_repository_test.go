package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponRepositoryTest(t *testing.T) (*GormCouponRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	return NewCouponRepository(db), db
}

func TestCouponRepositoryGetByCodeCaseInsensitive(t *testing.T) {
	repo, db := setupCouponRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	coupon := models.Coupon{
		Code:         "ABC-DEF-123",
		Type:         constants.CouponTypeMonetary,
		Value:        100,
		UserLimit:    1,
		LimitPerUser: 1,
		ValidFrom:    now,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	got, err := repo.GetByCode("abc-def-123")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if got == nil || got.ID != coupon.ID {
		t.Fatalf("lowercase lookup should find coupon, got %+v", got)
	}

	got, err = repo.GetByCode("  Abc-Def-123  ")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if got == nil || got.ID != coupon.ID {
		t.Fatalf("mixed case lookup should find coupon, got %+v", got)
	}

	got, err = repo.GetByCode("missing")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if got != nil {
		t.Fatalf("unknown code should return nil, got %+v", got)
	}
}

func TestCouponRepositoryCreateDuplicateCode(t *testing.T) {
	repo, _ := setupCouponRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	first := models.Coupon{
		Code:         "DUP-CODE",
		Type:         constants.CouponTypeMonetary,
		Value:        50,
		UserLimit:    1,
		LimitPerUser: 1,
		ValidFrom:    now,
	}
	if err := repo.Create(&first); err != nil {
		t.Fatalf("create first coupon failed: %v", err)
	}

	second := models.Coupon{
		Code:         "DUP-CODE",
		Type:         constants.CouponTypePercentage,
		Value:        10,
		UserLimit:    1,
		LimitPerUser: 1,
		ValidFrom:    now,
	}
	err := repo.Create(&second)
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("duplicate code should return ErrDuplicateCode, got %v", err)
	}
}

func TestCouponRepositoryListStatusFilters(t *testing.T) {
	repo, db := setupCouponRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	redeemed := models.Coupon{
		Code: "USED-1", Type: constants.CouponTypeMonetary, Value: 100,
		UserLimit: 1, LimitPerUser: 1, ValidFrom: past,
	}
	fresh := models.Coupon{
		Code: "FRESH-1", Type: constants.CouponTypeMonetary, Value: 100,
		UserLimit: 1, LimitPerUser: 1, ValidFrom: past,
	}
	expired := models.Coupon{
		Code: "EXPIRED-1", Type: constants.CouponTypeMonetary, Value: 100,
		UserLimit: 1, LimitPerUser: 1, ValidFrom: past, ValidUntil: &past,
	}
	pending := models.Coupon{
		Code: "PENDING-1", Type: constants.CouponTypeMonetary, Value: 100,
		UserLimit: 1, LimitPerUser: 1, ValidFrom: future,
	}
	for _, c := range []*models.Coupon{&redeemed, &fresh, &expired, &pending} {
		if err := db.Create(c).Error; err != nil {
			t.Fatalf("create coupon %s failed: %v", c.Code, err)
		}
	}
	redeemedAt := now.Add(-time.Hour)
	usage := models.CouponUser{CouponID: redeemed.ID, RedeemedAt: &redeemedAt, RedeemCount: 1}
	if err := db.Create(&usage).Error; err != nil {
		t.Fatalf("create coupon user failed: %v", err)
	}

	used, total, err := repo.List(CouponListFilter{Status: constants.CouponFilterUsed, Now: now})
	if err != nil {
		t.Fatalf("list used failed: %v", err)
	}
	if total != 1 || len(used) != 1 || used[0].Code != "USED-1" {
		t.Fatalf("used filter mismatch, total=%d items=%+v", total, used)
	}

	_, total, err = repo.List(CouponListFilter{Status: constants.CouponFilterUnused, Now: now})
	if err != nil {
		t.Fatalf("list unused failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("unused filter want 3 got %d", total)
	}

	expiredList, total, err := repo.List(CouponListFilter{Status: constants.CouponFilterExpired, Now: now})
	if err != nil {
		t.Fatalf("list expired failed: %v", err)
	}
	if total != 1 || expiredList[0].Code != "EXPIRED-1" {
		t.Fatalf("expired filter mismatch, total=%d items=%+v", total, expiredList)
	}

	_, total, err = repo.List(CouponListFilter{Status: constants.CouponFilterActive, Now: now})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("active filter want 2 got %d", total)
	}
}

func TestCouponRepositoryListByCampaignAndType(t *testing.T) {
	repo, db := setupCouponRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	campaign := models.Campaign{Name: "spring-sale"}
	if err := db.Create(&campaign).Error; err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}

	inCampaign := models.Coupon{
		Code: "SPRING-1", Type: constants.CouponTypePercentage, Value: 20,
		UserLimit: 1, LimitPerUser: 1, ValidFrom: now, CampaignID: &campaign.ID,
	}
	outside := models.Coupon{
		Code: "LONER-1", Type: constants.CouponTypeMonetary, Value: 100,
		UserLimit: 1, LimitPerUser: 1, ValidFrom: now,
	}
	for _, c := range []*models.Coupon{&inCampaign, &outside} {
		if err := db.Create(c).Error; err != nil {
			t.Fatalf("create coupon %s failed: %v", c.Code, err)
		}
	}

	items, total, err := repo.List(CouponListFilter{CampaignID: campaign.ID})
	if err != nil {
		t.Fatalf("list by campaign failed: %v", err)
	}
	if total != 1 || items[0].Code != "SPRING-1" {
		t.Fatalf("campaign filter mismatch, total=%d items=%+v", total, items)
	}

	items, total, err = repo.List(CouponListFilter{Type: constants.CouponTypeMonetary})
	if err != nil {
		t.Fatalf("list by type failed: %v", err)
	}
	if total != 1 || items[0].Code != "LONER-1" {
		t.Fatalf("type filter mismatch, total=%d items=%+v", total, items)
	}

	count, err := repo.CountByCampaign(campaign.ID)
	if err != nil {
		t.Fatalf("count by campaign failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("campaign count want 1 got %d", count)
	}
}
