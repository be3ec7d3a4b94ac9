package models

import (
	"time"
)

// CouponUser 优惠码与账号的核销占位记录
//
// UserID 为空表示匿名占位：优惠码被无登录态核销时先落一条空账号记录，
// 之后第一个带身份核销的账号会认领该占位。
type CouponUser struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                            // 主键
	CouponID    uint       `gorm:"uniqueIndex:idx_coupon_user,priority:1;not null" json:"coupon_id"` // 优惠码ID
	UserID      *uint      `gorm:"uniqueIndex:idx_coupon_user,priority:2;index" json:"user_id"`     // 账号ID（空表示匿名占位）
	RedeemedAt  *time.Time `gorm:"index" json:"redeemed_at"`                                        // 最近一次核销时间
	RedeemCount uint       `gorm:"not null;default:0" json:"redeem_count"`                          // 已核销次数
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`                                         // 创建时间

	Coupon *Coupon `gorm:"foreignKey:CouponID" json:"-"` // 所属优惠码
	User   *User   `gorm:"foreignKey:UserID" json:"-"`   // 所属账号
}

// TableName 指定表名
func (CouponUser) TableName() string {
	return "coupon_users"
}
