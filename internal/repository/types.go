package repository

import "time"

// CouponListFilter 查询优惠码列表的过滤条件
type CouponListFilter struct {
	Page       int
	PageSize   int
	Code       string // 模糊匹配（不区分大小写）
	Type       string
	CampaignID uint
	Status     string // used / unused / expired / active，空表示不过滤
	Now        time.Time
}

// CouponUserListFilter 查询优惠码核销占位记录的过滤条件
type CouponUserListFilter struct {
	Page     int
	PageSize int
	CouponID uint
	UserID   uint
}

// RedemptionLogListFilter 查询核销流水的过滤条件
type RedemptionLogListFilter struct {
	Page        int
	PageSize    int
	CouponID    uint
	CouponCode  string
	UserID      uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CampaignListFilter 查询活动列表的过滤条件
type CampaignListFilter struct {
	Page     int
	PageSize int
	Keyword  string
}
