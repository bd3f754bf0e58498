package app

import (
	"errors"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/provider"
	"github.com/sokosnap/internal/router"
	"github.com/sokosnap/internal/service"
	"github.com/sokosnap/internal/worker"
)

// buildServices 按启动模式组装服务
func buildServices(cfg *config.Config, container *provider.Container, mode string) ([]Service, error) {
	var services []Service
	workerRunning := false

	// 初始化 Worker 服务；all 模式下队列未启用时由 API 进程兜底扫描超时订单
	if runsWorker(mode) {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
			workerRunning = true
		} else if mode == ModeWorker {
			return nil, errors.New("worker mode requires queue.enabled")
		} else {
			logger.Warnw("app_worker_skipped_queue_disabled")
		}
	}

	// 初始化 HTTP 服务与结算会话回收
	if servesAPI(mode) {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))

		var orders *service.OrderService
		if !workerRunning {
			orders = container.OrderService
		}
		services = append(services, worker.NewMaintenance(orders, container.CheckoutService))
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return services, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	container := provider.NewContainer(opts.Config)
	defer container.Close()

	services, err := buildServices(opts.Config, container, opts.Mode)
	if err != nil {
		return err
	}
	runner := NewRunner(services...)
	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode, "services", runner.Names())
	return RunWithOptions(runner, opts)
}
