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

func setupCouponServiceTest(t *testing.T) (*CouponService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:coupon_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Campaign{},
		&models.Coupon{},
		&models.CouponUser{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewCouponService(
		repository.NewCouponRepository(db),
		repository.NewCouponUserRepository(db),
		nil,
		config.CouponConfig{CodeLength: 12, CreateMaxRetries: 5},
	)
	return svc, db
}

func uintPtr(v uint) *uint {
	return &v
}

func TestCouponServiceCreateCouponGenerated(t *testing.T) {
	svc, db := setupCouponServiceTest(t)

	coupon, err := svc.CreateCoupon(CreateCouponInput{
		Type:  constants.CouponTypeMonetary,
		Value: 500,
	})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if len(coupon.Code) != 12 {
		t.Fatalf("expected generated code length 12, got: %q", coupon.Code)
	}
	if coupon.UserLimit != 1 || coupon.LimitPerUser != 1 {
		t.Fatalf("expected default limits 1/1, got: %d/%d", coupon.UserLimit, coupon.LimitPerUser)
	}
	if coupon.ValidFrom.IsZero() {
		t.Fatal("valid_from should default to creation time")
	}

	var count int64
	if err := db.Model(&models.Coupon{}).Count(&count).Error; err != nil {
		t.Fatalf("count coupons failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 coupon, got: %d", count)
	}
}

func TestCouponServiceCreateCouponExplicitCode(t *testing.T) {
	svc, _ := setupCouponServiceTest(t)

	coupon, err := svc.CreateCoupon(CreateCouponInput{
		Code:  "  welcome-2026  ",
		Type:  constants.CouponTypePercentage,
		Value: 10,
	})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if coupon.Code != "WELCOME-2026" {
		t.Fatalf("expected normalized code WELCOME-2026, got: %q", coupon.Code)
	}

	_, err = svc.CreateCoupon(CreateCouponInput{
		Code:  "welcome-2026",
		Type:  constants.CouponTypePercentage,
		Value: 10,
	})
	if !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("expected ErrCouponInvalid on duplicate code, got: %v", err)
	}
}

func TestCouponServiceCreateCouponInvalidType(t *testing.T) {
	svc, _ := setupCouponServiceTest(t)

	_, err := svc.CreateCoupon(CreateCouponInput{Type: "discounts", Value: 1})
	if !errors.Is(err, ErrCouponTypeInvalid) {
		t.Fatalf("expected ErrCouponTypeInvalid, got: %v", err)
	}
}

func TestCouponServiceCreateCouponWithBoundUsers(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCouponUserAccount(t, db, 1)
	seedCouponUserAccount(t, db, 2)

	coupon, err := svc.CreateCoupon(CreateCouponInput{
		Type:      constants.CouponTypeMonetary,
		Value:     100,
		UserLimit: uintPtr(2),
		Users:     []uint{1, 2},
	})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	records, err := repository.NewCouponUserRepository(db).ListByCoupon(coupon.ID)
	if err != nil {
		t.Fatalf("list records failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 bound records, got: %d", len(records))
	}
	for _, record := range records {
		if record.UserID == nil {
			t.Fatal("pre-bound record should carry a user id")
		}
		if record.RedeemedAt != nil || record.RedeemCount != 0 {
			t.Fatalf("pre-bound record should be unredeemed: %+v", record)
		}
	}
}

func TestCouponServiceCreateCoupons(t *testing.T) {
	svc, db := setupCouponServiceTest(t)

	coupons, err := svc.CreateCoupons(3, CreateCouponInput{
		Type:  constants.CouponTypeVirtualCurrency,
		Value: 50,
	})
	if err != nil {
		t.Fatalf("create coupons failed: %v", err)
	}
	if len(coupons) != 3 {
		t.Fatalf("expected 3 coupons, got: %d", len(coupons))
	}
	seen := make(map[string]struct{})
	for _, coupon := range coupons {
		if _, dup := seen[coupon.Code]; dup {
			t.Fatalf("duplicate code in batch: %s", coupon.Code)
		}
		seen[coupon.Code] = struct{}{}
	}

	var count int64
	if err := db.Model(&models.Coupon{}).Count(&count).Error; err != nil {
		t.Fatalf("count coupons failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 coupons persisted, got: %d", count)
	}
}

// alwaysDuplicateCouponRepository 模拟码空间耗尽：创建永远冲突
type alwaysDuplicateCouponRepository struct {
	*repository.GormCouponRepository
}

func (r *alwaysDuplicateCouponRepository) Create(_ *models.Coupon) error {
	return repository.ErrDuplicateCode
}

func TestCouponServiceCreateCouponCodeSpaceExhausted(t *testing.T) {
	_, db := setupCouponServiceTest(t)
	svc := NewCouponService(
		&alwaysDuplicateCouponRepository{repository.NewCouponRepository(db)},
		repository.NewCouponUserRepository(db),
		nil,
		config.CouponConfig{CodeLength: 2, CodeChars: "A", CreateMaxRetries: 3},
	)

	_, err := svc.CreateCoupon(CreateCouponInput{
		Type:  constants.CouponTypeMonetary,
		Value: 1,
	})
	if !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("expected ErrCodeSpaceExhausted, got: %v", err)
	}
}

func seedCouponUserAccount(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("coupon_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func mustCreateCoupon(t *testing.T, svc *CouponService, input CreateCouponInput) *models.Coupon {
	t.Helper()
	if input.Type == "" {
		input.Type = constants.CouponTypeMonetary
	}
	coupon, err := svc.CreateCoupon(input)
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return coupon
}

func TestCouponServiceRedeemSingleUse(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCouponUserAccount(t, db, 1)
	coupon := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100})
	now := time.Now()

	if err := svc.CanRedeem(coupon, uintPtr(1), now); err != nil {
		t.Fatalf("fresh coupon should be redeemable: %v", err)
	}

	record, err := svc.Redeem(coupon, uintPtr(1))
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if record.RedeemCount != 1 || record.RedeemedAt == nil {
		t.Fatalf("unexpected record state: %+v", record)
	}

	redeemed, err := svc.IsRedeemed(coupon)
	if err != nil {
		t.Fatalf("is redeemed failed: %v", err)
	}
	if !redeemed {
		t.Fatal("single-use coupon should be fully redeemed")
	}
	// 单次即失效的码完全核销后，对所有账号（包括核销者本人）都报统一的已使用错误
	if err := svc.CanRedeem(coupon, uintPtr(1), now); !errors.Is(err, ErrCouponAlreadyUsed) {
		t.Fatalf("expected ErrCouponAlreadyUsed for the redeeming account, got: %v", err)
	}

	seedCouponUserAccount(t, db, 2)
	if err := svc.CanRedeem(coupon, uintPtr(2), now); !errors.Is(err, ErrCouponAlreadyUsed) {
		t.Fatalf("expected ErrCouponAlreadyUsed for other accounts, got: %v", err)
	}
}

func TestCouponServiceCreatePersistsZeroLimits(t *testing.T) {
	svc, _ := setupCouponServiceTest(t)

	coupon := mustCreateCoupon(t, svc, CreateCouponInput{
		Value:        100,
		UserLimit:    uintPtr(0),
		LimitPerUser: uintPtr(0),
	})
	if coupon.UserLimit != 0 {
		t.Fatalf("in-memory user limit want 0 got %d", coupon.UserLimit)
	}

	// 0 表示不限制，落库后重新读出也必须保持为 0
	reloaded, err := svc.GetByCode(coupon.Code)
	if err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.UserLimit != 0 {
		t.Fatalf("persisted user limit want 0 got %d", reloaded.UserLimit)
	}
	if reloaded.LimitPerUser != 0 {
		t.Fatalf("persisted limit per user want 0 got %d", reloaded.LimitPerUser)
	}
}

func TestCouponServiceRedeemUnlimitedUserLimit(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	coupon := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100, UserLimit: uintPtr(0)})
	now := time.Now()

	for id := uint(1); id <= 3; id++ {
		seedCouponUserAccount(t, db, id)
		if err := svc.CanRedeem(coupon, uintPtr(id), now); err != nil {
			t.Fatalf("account %d should be able to redeem: %v", id, err)
		}
		if _, err := svc.Redeem(coupon, uintPtr(id)); err != nil {
			t.Fatalf("redeem for account %d failed: %v", id, err)
		}
	}

	redeemed, err := svc.IsRedeemed(coupon)
	if err != nil {
		t.Fatalf("is redeemed failed: %v", err)
	}
	if redeemed {
		t.Fatal("coupon with unlimited accounts should never be fully redeemed")
	}
}

func TestCouponServiceRedeemAnonymousThenClaim(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	coupon := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100, LimitPerUser: uintPtr(2)})

	if _, err := svc.Redeem(coupon, nil); err != nil {
		t.Fatalf("anonymous redeem failed: %v", err)
	}
	records, err := repository.NewCouponUserRepository(db).ListByCoupon(coupon.ID)
	if err != nil {
		t.Fatalf("list records failed: %v", err)
	}
	if len(records) != 1 || records[0].UserID != nil {
		t.Fatalf("expected one anonymous record, got: %+v", records)
	}

	// 第一个带身份的核销认领匿名占位，不新建记录
	seedCouponUserAccount(t, db, 7)
	record, err := svc.Redeem(coupon, uintPtr(7))
	if err != nil {
		t.Fatalf("claiming redeem failed: %v", err)
	}
	if record.UserID == nil || *record.UserID != 7 {
		t.Fatalf("record should be bound to account 7: %+v", record)
	}
	if record.RedeemCount != 2 {
		t.Fatalf("expected redeem count 2 on claimed record, got: %d", record.RedeemCount)
	}

	records, err = repository.NewCouponUserRepository(db).ListByCoupon(coupon.ID)
	if err != nil {
		t.Fatalf("list records failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("claiming should not create a second record, got: %d", len(records))
	}
}

func TestCouponServiceCanRedeemLimitPerUserProgression(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCouponUserAccount(t, db, 1)
	// 账号名额留有余量，确保命中的是单账号超限而非整码已使用
	coupon := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100, UserLimit: uintPtr(2), LimitPerUser: uintPtr(2)})
	now := time.Now()

	if _, err := svc.Redeem(coupon, uintPtr(1)); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	if err := svc.CanRedeem(coupon, uintPtr(1), now); err != nil {
		t.Fatalf("one redemption left, should still pass: %v", err)
	}
	if _, err := svc.Redeem(coupon, uintPtr(1)); err != nil {
		t.Fatalf("second redeem failed: %v", err)
	}
	if err := svc.CanRedeem(coupon, uintPtr(1), now); !errors.Is(err, ErrCouponUsedByAccount) {
		t.Fatalf("expected ErrCouponUsedByAccount after limit reached, got: %v", err)
	}
}

func TestCouponServiceCanRedeemSignInRequired(t *testing.T) {
	svc, _ := setupCouponServiceTest(t)
	multi := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100, UserLimit: uintPtr(2)})
	unlimited := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100, UserLimit: uintPtr(0)})
	single := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100})
	now := time.Now()

	if err := svc.CanRedeem(multi, nil, now); !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("multi-account coupon should require sign-in, got: %v", err)
	}
	if err := svc.CanRedeem(unlimited, nil, now); !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("unlimited coupon should require sign-in, got: %v", err)
	}
	if err := svc.CanRedeem(single, nil, now); err != nil {
		t.Fatalf("single-use coupon should allow anonymous redemption: %v", err)
	}
}

func TestCouponServiceCanRedeemNotForAccount(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCouponUserAccount(t, db, 1)
	seedCouponUserAccount(t, db, 2)
	// 单账号名额、每账号两次：账号 1 核销一次后码未耗尽，但名额已满
	coupon := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100, LimitPerUser: uintPtr(2)})
	now := time.Now()

	if _, err := svc.Redeem(coupon, uintPtr(1)); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if redeemed, err := svc.IsRedeemed(coupon); err != nil || redeemed {
		t.Fatalf("coupon should not be fully redeemed yet (err=%v)", err)
	}
	if err := svc.CanRedeem(coupon, uintPtr(1), now); err != nil {
		t.Fatalf("owning account should still pass: %v", err)
	}
	if err := svc.CanRedeem(coupon, uintPtr(2), now); !errors.Is(err, ErrCouponNotForAccount) {
		t.Fatalf("expected ErrCouponNotForAccount for account 2, got: %v", err)
	}
}

func TestCouponServiceCanRedeemValidityWindow(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCouponUserAccount(t, db, 1)
	now := time.Now()

	future := now.Add(24 * time.Hour)
	notStarted := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100, ValidFrom: &future})
	if err := svc.CanRedeem(notStarted, uintPtr(1), now); !errors.Is(err, ErrCouponNotStarted) {
		t.Fatalf("expected ErrCouponNotStarted, got: %v", err)
	}

	start := now.Add(-48 * time.Hour)
	end := now.Add(-24 * time.Hour)
	expired := mustCreateCoupon(t, svc, CreateCouponInput{Value: 100, ValidFrom: &start, ValidUntil: &end})
	if err := svc.CanRedeem(expired, uintPtr(1), now); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired, got: %v", err)
	}
}

func TestCouponServiceGetByCodeAndLastRedeemedAt(t *testing.T) {
	svc, db := setupCouponServiceTest(t)
	seedCouponUserAccount(t, db, 1)
	coupon := mustCreateCoupon(t, svc, CreateCouponInput{Code: "LOOKUP-CODE", Value: 100})

	found, err := svc.GetByCode("lookup-code")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if found.ID != coupon.ID {
		t.Fatalf("expected coupon %d, got: %d", coupon.ID, found.ID)
	}
	if _, err := svc.GetByCode("MISSING-CODE"); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got: %v", err)
	}

	last, err := svc.LastRedeemedAt(coupon)
	if err != nil {
		t.Fatalf("last redeemed at failed: %v", err)
	}
	if last != nil {
		t.Fatalf("fresh coupon should have no redemption time, got: %v", last)
	}
	if _, err := svc.Redeem(coupon, uintPtr(1)); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	last, err = svc.LastRedeemedAt(coupon)
	if err != nil {
		t.Fatalf("last redeemed at failed: %v", err)
	}
	if last == nil {
		t.Fatal("redeemed coupon should carry a redemption time")
	}
}
