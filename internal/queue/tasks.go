package queue

import (
	"encoding/json"
	"time"

	"github.com/coupon-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCouponRedeemed 优惠码核销事件任务
	TaskCouponRedeemed = constants.TaskCouponRedeemed
)

// CouponRedeemedPayload 优惠码核销事件载荷
type CouponRedeemedPayload struct {
	CouponID   uint      `json:"coupon_id"`
	CouponCode string    `json:"coupon_code"`
	UserID     *uint     `json:"user_id"` // 匿名核销为空
	Source     string    `json:"source"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// NewCouponRedeemedTask 创建优惠码核销事件任务
func NewCouponRedeemedTask(payload CouponRedeemedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponRedeemed, body), nil
}
