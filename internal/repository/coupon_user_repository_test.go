package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponUserRepositoryTest(t *testing.T) (*GormCouponUserRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_user_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Coupon{},
		&models.CouponUser{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewCouponUserRepository(db), db
}

func seedCoupon(t *testing.T, db *gorm.DB, code string) *models.Coupon {
	t.Helper()
	coupon := models.Coupon{
		Code:         code,
		Type:         constants.CouponTypeMonetary,
		Value:        100,
		UserLimit:    3,
		LimitPerUser: 1,
		ValidFrom:    time.Now().UTC().Add(-time.Hour),
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return &coupon
}

func TestCouponUserRepositoryClaimUnboundOnce(t *testing.T) {
	repo, db := setupCouponUserRepositoryTest(t)
	coupon := seedCoupon(t, db, "CLAIM-1")

	redeemedAt := time.Now().UTC().Truncate(time.Second)
	unbound := models.CouponUser{CouponID: coupon.ID, RedeemedAt: &redeemedAt, RedeemCount: 1}
	if err := repo.Create(&unbound); err != nil {
		t.Fatalf("create unbound record failed: %v", err)
	}

	got, err := repo.GetUnbound(coupon.ID)
	if err != nil {
		t.Fatalf("get unbound failed: %v", err)
	}
	if got == nil || got.ID != unbound.ID {
		t.Fatalf("unbound record not found, got %+v", got)
	}

	claimed, err := repo.ClaimUnbound(unbound.ID, 7)
	if err != nil {
		t.Fatalf("claim unbound failed: %v", err)
	}
	if !claimed {
		t.Fatalf("first claim should succeed")
	}

	// 第二次认领同一条占位必须失败
	claimed, err = repo.ClaimUnbound(unbound.ID, 8)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if claimed {
		t.Fatalf("second claim should not succeed")
	}

	bound, err := repo.GetByCouponAndUser(coupon.ID, 7)
	if err != nil {
		t.Fatalf("get by coupon and user failed: %v", err)
	}
	if bound == nil || bound.ID != unbound.ID {
		t.Fatalf("claimed record should belong to user 7, got %+v", bound)
	}
}

func TestCouponUserRepositoryIncrementRedeem(t *testing.T) {
	repo, db := setupCouponUserRepositoryTest(t)
	coupon := seedCoupon(t, db, "INC-1")

	userID := uint(42)
	record := models.CouponUser{CouponID: coupon.ID, UserID: &userID}
	if err := repo.Create(&record); err != nil {
		t.Fatalf("create record failed: %v", err)
	}

	firstAt := time.Now().UTC().Truncate(time.Second)
	ok, err := repo.IncrementRedeem(record.ID, firstAt)
	if err != nil {
		t.Fatalf("increment redeem failed: %v", err)
	}
	if !ok {
		t.Fatalf("increment should hit the record")
	}

	secondAt := firstAt.Add(time.Minute)
	if _, err := repo.IncrementRedeem(record.ID, secondAt); err != nil {
		t.Fatalf("second increment failed: %v", err)
	}

	var reloaded models.CouponUser
	if err := db.First(&reloaded, record.ID).Error; err != nil {
		t.Fatalf("reload record failed: %v", err)
	}
	if reloaded.RedeemCount != 2 {
		t.Fatalf("redeem count want 2 got %d", reloaded.RedeemCount)
	}
	if reloaded.RedeemedAt == nil || !reloaded.RedeemedAt.Equal(secondAt) {
		t.Fatalf("redeemed_at want %v got %v", secondAt, reloaded.RedeemedAt)
	}

	ok, err = repo.IncrementRedeem(99999, secondAt)
	if err != nil {
		t.Fatalf("increment missing record failed: %v", err)
	}
	if ok {
		t.Fatalf("increment on missing record should not hit")
	}
}

func TestCouponUserRepositoryCounts(t *testing.T) {
	repo, db := setupCouponUserRepositoryTest(t)
	coupon := seedCoupon(t, db, "COUNT-1")

	now := time.Now().UTC().Truncate(time.Second)
	later := now.Add(time.Hour)
	u1, u2 := uint(1), uint(2)
	records := []models.CouponUser{
		{CouponID: coupon.ID, UserID: &u1, RedeemCount: 1, RedeemedAt: &now},
		{CouponID: coupon.ID, UserID: &u2, RedeemCount: 2, RedeemedAt: &later},
		{CouponID: coupon.ID, UserID: nil, RedeemCount: 0},
	}
	for i := range records {
		if err := repo.Create(&records[i]); err != nil {
			t.Fatalf("create record %d failed: %v", i, err)
		}
	}

	claims, err := repo.CountClaims(coupon.ID)
	if err != nil {
		t.Fatalf("count claims failed: %v", err)
	}
	if claims != 3 {
		t.Fatalf("claims want 3 got %d", claims)
	}

	exhausted, err := repo.CountExhausted(coupon.ID, 2)
	if err != nil {
		t.Fatalf("count exhausted failed: %v", err)
	}
	if exhausted != 1 {
		t.Fatalf("exhausted want 1 got %d", exhausted)
	}

	lastAt, err := repo.LastRedeemedAt(coupon.ID)
	if err != nil {
		t.Fatalf("last redeemed at failed: %v", err)
	}
	if lastAt == nil || !lastAt.Equal(later) {
		t.Fatalf("last redeemed at want %v got %v", later, lastAt)
	}

	other := seedCoupon(t, db, "COUNT-2")
	lastAt, err = repo.LastRedeemedAt(other.ID)
	if err != nil {
		t.Fatalf("last redeemed at for fresh coupon failed: %v", err)
	}
	if lastAt != nil {
		t.Fatalf("fresh coupon should have no redemption time, got %v", lastAt)
	}
}
