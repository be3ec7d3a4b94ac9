package worker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/provider"
	"github.com/coupon-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCouponRedeemed, c.handleCouponRedeemed)
}

// handleCouponRedeemed 消费核销事件，落一条核销流水
func (c *Consumer) handleCouponRedeemed(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_coupon_redeemed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CouponRedeemedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_coupon_redeemed_unmarshal_failed", "error", err)
		return err
	}
	if payload.CouponID == 0 {
		logger.Debugw("worker_coupon_redeemed_skip_invalid_payload", "coupon_id", payload.CouponID)
		return nil
	}

	code := strings.TrimSpace(payload.CouponCode)
	if code == "" {
		coupon, err := c.CouponRepo.GetByID(payload.CouponID)
		if err != nil {
			logger.Warnw("worker_coupon_redeemed_fetch_coupon_failed", "coupon_id", payload.CouponID, "error", err)
			return err
		}
		if coupon != nil {
			code = coupon.Code
		}
	}

	source := strings.TrimSpace(payload.Source)
	if source == "" {
		source = constants.RedeemSourceAPI
	}
	redeemedAt := payload.RedeemedAt
	if redeemedAt.IsZero() {
		redeemedAt = time.Now()
	}

	entry := &models.RedemptionLog{
		CouponID:   payload.CouponID,
		CouponCode: code,
		UserID:     payload.UserID,
		Source:     source,
		RedeemedAt: redeemedAt,
	}
	if err := c.RedemptionLogRepo.Create(entry); err != nil {
		logger.Warnw("worker_coupon_redeemed_log_failed",
			"coupon_id", payload.CouponID,
			"code", code,
			"error", err,
		)
		return err
	}

	logger.Infow("worker_coupon_redeemed_logged",
		"coupon_id", payload.CouponID,
		"code", code,
		"source", source,
	)
	return nil
}
