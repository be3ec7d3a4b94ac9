package models

import (
	"time"
)

// Coupon 优惠码
type Coupon struct {
	ID           uint       `gorm:"primarykey" json:"id"`                      // 主键
	Code         string     `gorm:"uniqueIndex;not null;size:30" json:"code"`  // 优惠码（统一大写存储，匹配不区分大小写）
	Type         string     `gorm:"not null;index" json:"type"`                // 类型（monetary/percentage/virtual_currency）
	Value        int64      `gorm:"not null" json:"value"`                     // 数值（面额、百分比或虚拟币数量）
	Description  string     `gorm:"type:text" json:"description"`              // 描述
	UserLimit    uint       `gorm:"not null" json:"user_limit"`                // 可核销账号数上限（0 表示不限制），默认值由服务层补齐
	LimitPerUser uint       `gorm:"not null" json:"limit_per_user"`            // 单账号核销次数上限，默认值由服务层补齐
	CampaignID   *uint      `gorm:"index" json:"campaign_id"`                  // 所属活动ID
	ValidFrom    time.Time  `gorm:"index;not null" json:"valid_from"`          // 生效时间
	ValidUntil   *time.Time `gorm:"index" json:"valid_until"`                  // 失效时间（空表示永久有效）
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                   // 创建时间

	Campaign *Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"` // 所属活动
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// IsExpired 判断优惠码在指定时刻是否已过期
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ValidUntil != nil && c.ValidUntil.Before(now)
}

// IsStarted 判断优惠码在指定时刻是否已生效
func (c *Coupon) IsStarted(now time.Time) bool {
	return !c.ValidFrom.After(now)
}
