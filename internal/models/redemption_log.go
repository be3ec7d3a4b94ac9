package models

import (
	"time"
)

// RedemptionLog 核销流水（由队列 worker 异步写入）
type RedemptionLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`            // 主键
	CouponID   uint      `gorm:"index;not null" json:"coupon_id"` // 优惠码ID
	CouponCode string    `gorm:"index;not null" json:"coupon_code"` // 核销时的优惠码
	UserID     *uint     `gorm:"index" json:"user_id"`            // 核销账号ID（匿名核销为空）
	Source     string    `gorm:"not null;default:'api'" json:"source"` // 核销来源
	RedeemedAt time.Time `gorm:"index;not null" json:"redeemed_at"` // 核销时间
	CreatedAt  time.Time `gorm:"index" json:"created_at"`         // 落库时间
}

// TableName 指定表名
func (RedemptionLog) TableName() string {
	return "redemption_logs"
}
