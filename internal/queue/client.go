package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 普通任务队列
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 资金相关任务队列（托管超时）
	CriticalQueue = constants.QueueCritical

	escrowTimeoutMaxRetry  = 5
	feedInvalidateMaxRetry = 2
	feedInvalidateUnique   = 5 * time.Second
)

// Client 队列生产端；未启用时所有投递都是空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueOrderEscrowTimeout 投递托管超时取消任务，同一订单只保留一个任务
func (c *Client) EnqueueOrderEscrowTimeout(ctx context.Context, payload OrderEscrowTimeoutPayload, delay time.Duration) error {
	task, err := NewOrderEscrowTimeoutTask(payload)
	if err != nil {
		return err
	}
	if delay < 0 {
		delay = 0
	}
	return c.enqueue(ctx, task,
		asynq.Queue(CriticalQueue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(escrowTimeoutMaxRetry),
		asynq.TaskID(escrowTaskID(payload.OrderID)),
	)
}

// EnqueueFeedInvalidate 投递信息流缓存失效任务，短时间内的重复失效会被合并
func (c *Client) EnqueueFeedInvalidate(ctx context.Context, payload FeedInvalidatePayload) error {
	task, err := NewFeedInvalidateTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task,
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(feedInvalidateMaxRetry),
		asynq.Unique(feedInvalidateUnique),
	)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	_, err := c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func escrowTaskID(orderID string) string {
	return "escrow-timeout:" + strings.TrimSpace(orderID)
}

// BuildServerConfig 生成 worker 端配置，critical 队列默认优先
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 6, DefaultQueue: 3}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
