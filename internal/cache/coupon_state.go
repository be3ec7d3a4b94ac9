package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const couponSnapshotTTL = 30 * time.Second

// CouponSnapshot 优惠码校验快照，供公开查询接口短暂缓存。
// 携带校验所需的全部优惠码字段，命中时可跳过优惠码主表查询。
type CouponSnapshot struct {
	CouponID     uint   `json:"coupon_id"`
	Code         string `json:"code"`
	Type         string `json:"type"`
	Value        int64  `json:"value"`
	Description  string `json:"description"`
	UserLimit    uint   `json:"user_limit"`
	LimitPerUser uint   `json:"limit_per_user"`
	ValidFrom    int64  `json:"valid_from"`
	ValidUntil   int64  `json:"valid_until"` // 0 表示永久有效
	UpdatedAt    int64  `json:"updated_at"`
}

func couponSnapshotKey(code string) string {
	return fmt.Sprintf("coupon:code:%s", strings.ToUpper(strings.TrimSpace(code)))
}

// GetCouponSnapshot 获取优惠码快照
func GetCouponSnapshot(ctx context.Context, code string) (*CouponSnapshot, bool, error) {
	if strings.TrimSpace(code) == "" {
		return nil, false, nil
	}
	var snapshot CouponSnapshot
	hit, err := GetJSON(ctx, couponSnapshotKey(code), &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetCouponSnapshot 写入优惠码快照
func SetCouponSnapshot(ctx context.Context, snapshot *CouponSnapshot) error {
	if snapshot == nil || snapshot.Code == "" {
		return nil
	}
	return SetJSON(ctx, couponSnapshotKey(snapshot.Code), snapshot, couponSnapshotTTL)
}

// DelCouponSnapshot 删除优惠码快照（核销后调用，避免读到过期状态）
func DelCouponSnapshot(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	return Del(ctx, couponSnapshotKey(code))
}
