package worker

import (
	"context"
	"time"

	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/service"
)

const (
	maintenanceInterval = time.Minute
	sweepBatchSize      = 100
)

type orderSweeper interface {
	SweepExpiredPending(ctx context.Context, now time.Time, limit int) (int, error)
}

type sessionEvictor interface {
	EvictExpired(now time.Time) int
}

// Maintenance 周期性维护：取消超时未托管订单、回收空闲结算会话
type Maintenance struct {
	name      string
	orders    orderSweeper
	checkouts sessionEvictor
	interval  time.Duration
	now       func() time.Time
}

// NewMaintenance 创建维护任务，nil 依赖对应的步骤会被跳过
func NewMaintenance(orders *service.OrderService, checkouts *service.CheckoutService) *Maintenance {
	m := &Maintenance{name: "maintenance", interval: maintenanceInterval, now: time.Now}
	if orders != nil {
		m.orders = orders
	}
	if checkouts != nil {
		m.checkouts = checkouts
	}
	return m
}

// Name 服务名称
func (m *Maintenance) Name() string {
	if m == nil || m.name == "" {
		return "maintenance"
	}
	return m.name
}

// Start 启动维护循环，阻塞直到 ctx 结束
func (m *Maintenance) Start(ctx context.Context) error {
	m.Loop(ctx)
	return nil
}

// Stop 停止服务（循环随 ctx 退出）
func (m *Maintenance) Stop(ctx context.Context) error {
	return nil
}

// Loop 立即执行一次，之后按间隔执行
func (m *Maintenance) Loop(ctx context.Context) {
	if m == nil {
		return
	}
	m.RunOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce 执行一轮维护
func (m *Maintenance) RunOnce(ctx context.Context) {
	now := m.now()
	if m.checkouts != nil {
		if evicted := m.checkouts.EvictExpired(now); evicted > 0 {
			logger.Infow("worker_checkout_sessions_evicted", "count", evicted)
		}
	}
	if m.orders != nil {
		cancelled, err := m.orders.SweepExpiredPending(ctx, now, sweepBatchSize)
		if err != nil {
			logger.Warnw("worker_escrow_sweep_failed", "error", err)
			return
		}
		if cancelled > 0 {
			logger.Infow("worker_escrow_sweep_cancelled", "count", cancelled)
		}
	}
}
