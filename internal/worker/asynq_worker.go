package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/provider"
	"github.com/sokosnap/internal/queue"
	"github.com/sokosnap/internal/service"

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
	mux.HandleFunc(queue.TaskOrderEscrowTimeout, c.handleOrderEscrowTimeout)
	mux.HandleFunc(queue.TaskFeedInvalidate, c.handleFeedInvalidate)
}

func (c *Consumer) handleOrderEscrowTimeout(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_escrow_timeout_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderEscrowTimeoutPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_escrow_timeout_unmarshal_failed", "error", err)
		return err
	}
	orderID := strings.TrimSpace(payload.OrderID)
	if orderID == "" {
		logger.Debugw("worker_order_escrow_timeout_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_escrow_timeout_skip_order_service_nil", "order_id", orderID)
		return nil
	}
	applied, err := c.OrderService.CancelExpiredOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderUpdateFailed) {
			logger.Warnw("worker_order_escrow_timeout_update_failed", "order_id", orderID, "error", err)
			return err
		}
		logger.Warnw("worker_order_escrow_timeout_failed", "order_id", orderID, "error", err)
		return err
	}
	if !applied {
		logger.Debugw("worker_order_escrow_timeout_skip_not_pending", "order_id", orderID)
	}
	return nil
}

func (c *Consumer) handleFeedInvalidate(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_feed_invalidate_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.FeedInvalidatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_feed_invalidate_unmarshal_failed", "error", err)
		return err
	}
	if c.FeedService == nil {
		logger.Warnw("worker_feed_invalidate_skip_feed_service_nil", "product_id", payload.ProductID)
		return nil
	}
	if err := c.FeedService.InvalidateGlobal(ctx); err != nil {
		logger.Warnw("worker_feed_invalidate_failed", "product_id", payload.ProductID, "reason", payload.Reason, "error", err)
		return err
	}
	logger.Debugw("worker_feed_invalidated", "product_id", payload.ProductID, "reason", payload.Reason)
	return nil
}
