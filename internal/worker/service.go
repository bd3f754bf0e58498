package worker

import (
	"context"
	"errors"
	"time"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/queue"

	"github.com/hibiken/asynq"
)

const shutdownTimeout = 8 * time.Second

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	sweeper  *Maintenance
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.Logger = logger.S().With("component", "asynq")
	serverCfg.ShutdownTimeout = shutdownTimeout
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(logTaskFailure)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
		sweeper:  NewMaintenance(consumer.OrderService, nil),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
// 延迟任务丢失时由定时扫描兜底取消超时订单
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.sweeper != nil {
		go s.sweeper.Loop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务，等待进行中的任务结束
func (s *Service) Stop(_ context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

func logTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	taskID, _ := asynq.GetTaskID(ctx)
	logger.Warnw("worker_task_failed",
		"task_type", task.Type(),
		"task_id", taskID,
		"retried", retried,
		"max_retry", maxRetry,
		"final", retried >= maxRetry,
		"error", err,
	)
}
