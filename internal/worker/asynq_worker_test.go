package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/provider"
	"github.com/coupon-next/internal/queue"
	"github.com/coupon-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Coupon{},
		&models.CouponUser{},
		&models.RedemptionLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	container := &provider.Container{
		CouponRepo:        repository.NewCouponRepository(db),
		RedemptionLogRepo: repository.NewRedemptionLogRepository(db),
	}
	return NewConsumer(container), db
}

func TestConsumerHandleCouponRedeemed(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	userID := uint(42)
	redeemedAt := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	task, err := queue.NewCouponRedeemedTask(queue.CouponRedeemedPayload{
		CouponID:   7,
		CouponCode: "WORKER-CODE",
		UserID:     &userID,
		Source:     constants.RedeemSourceAPI,
		RedeemedAt: redeemedAt,
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}

	if err := consumer.handleCouponRedeemed(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}

	var logs []models.RedemptionLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("load logs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 redemption log, got: %d", len(logs))
	}
	entry := logs[0]
	if entry.CouponID != 7 || entry.CouponCode != "WORKER-CODE" {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.UserID == nil || *entry.UserID != userID {
		t.Fatalf("expected user id %d, got: %v", userID, entry.UserID)
	}
	if !entry.RedeemedAt.Equal(redeemedAt) {
		t.Fatalf("expected redeemed_at %v, got: %v", redeemedAt, entry.RedeemedAt)
	}
}

func TestConsumerHandleCouponRedeemedResolvesCode(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	coupon := models.Coupon{
		Code:      "RESOLVED-CODE",
		Type:      constants.CouponTypeMonetary,
		Value:     100,
		ValidFrom: time.Now(),
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	task, err := queue.NewCouponRedeemedTask(queue.CouponRedeemedPayload{
		CouponID:   coupon.ID,
		RedeemedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleCouponRedeemed(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}

	var entry models.RedemptionLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("load log failed: %v", err)
	}
	if entry.CouponCode != "RESOLVED-CODE" {
		t.Fatalf("expected code resolved from coupon, got: %q", entry.CouponCode)
	}
	if entry.Source != constants.RedeemSourceAPI {
		t.Fatalf("expected default source, got: %q", entry.Source)
	}
}

func TestConsumerHandleCouponRedeemedSkipsInvalidPayload(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	task, err := queue.NewCouponRedeemedTask(queue.CouponRedeemedPayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleCouponRedeemed(context.Background(), task); err != nil {
		t.Fatalf("invalid payload should be swallowed: %v", err)
	}

	var count int64
	if err := db.Model(&models.RedemptionLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count logs failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no logs, got: %d", count)
	}
}
