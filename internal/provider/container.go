package provider

import (
	"time"

	"github.com/sokosnap/internal/authz"
	"github.com/sokosnap/internal/cache"
	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/queue"
	"github.com/sokosnap/internal/repository"
	"github.com/sokosnap/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	OrderRepo   repository.OrderRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	FeedService        *service.FeedService
	ProductService     *service.ProductService
	LikeService        *service.LikeService
	ShareService       *service.ShareService
	CartService        *service.CartService
	DeliveryQuoter     *service.DeliveryQuoter
	CheckoutService    *service.CheckoutService
	OrderService       *service.OrderService
	FulfillmentService *service.FulfillmentEventService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed_fallback_db", "error", err)
	}

	// 初始化队列客户端；未启用时返回空操作客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	return NewContainerWithDB(cfg, models.DB, queueClient)
}

// NewContainerWithDB 使用指定连接初始化容器（测试复用）
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices(db)

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	grants := make([]authz.Policy, 0, len(c.Config.Security.ExtraGrants))
	for _, grant := range c.Config.Security.ExtraGrants {
		grants = append(grants, authz.Policy{Subject: grant.Role, Object: grant.Object, Action: grant.Action})
	}
	if err := c.AuthzService.GrantExtraPolicies(grants); err != nil {
		logger.Errorw("provider_grant_extra_policies_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config.JWT)
	c.FeedService = service.NewFeedService(c.ProductRepo, c.Config.Feed)
	c.ProductService = service.NewProductService(c.ProductRepo, c.QueueClient)
	c.LikeService = service.NewLikeService(c.ProductRepo)
	c.ShareService = service.NewShareService(c.ProductRepo, c.Config.Share)

	userCarts := service.NewGormCartStore(c.CartRepo)
	var guestCarts service.CartStore = userCarts
	if cache.Enabled() {
		guestCarts = service.NewRedisCartStore(time.Duration(c.Config.Cart.GuestTTLHours) * time.Hour)
	}
	c.CartService = service.NewCartService(c.ProductRepo, userCarts, guestCarts, c.Config.Cart, c.Config.Checkout)

	c.DeliveryQuoter = service.NewDeliveryQuoter(c.Config.Delivery)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.QueueClient, c.Config.Order)
	c.FulfillmentService = service.NewFulfillmentEventService(c.OrderRepo)
	c.CheckoutService = service.NewCheckoutService(c.ProductRepo, c.CartService, c.OrderService, c.DeliveryQuoter, service.CoordinateGeocoder{}, c.Config.Checkout)
}

// Close 释放队列与缓存连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
