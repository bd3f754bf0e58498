package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sokosnap/internal/authz"
	"github.com/sokosnap/internal/cache"
	"github.com/sokosnap/internal/config"
	publichandlers "github.com/sokosnap/internal/http/handlers/public"
	handlershared "github.com/sokosnap/internal/http/handlers/shared"
	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/provider"

	"github.com/gin-gonic/gin"
)

// protectedPrefixes 需要 casbin 授权的路由前缀
var protectedPrefixes = []string{"/api/v1/orders", "/api/v1/seller/", "/api/v1/support/"}

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	h := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "soko"
	}
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
		MessageKey:    "error.checkout_too_many",
	}
	sessionRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:session", redisPrefix),
		WindowSeconds: cfg.Security.SessionRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SessionRateLimit.MaxRequests,
		MessageKey:    "error.checkout_too_many",
		FailOpen:      true,
	}
	likeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:like", redisPrefix),
		WindowSeconds: cfg.Security.LikeRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LikeRateLimit.MaxRequests,
		FailOpen:      true,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	optionalAuth := JWTAuthMiddleware(c.AuthService, false)
	requiredAuth := JWTAuthMiddleware(c.AuthService, true)

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		public.Use(optionalAuth)
		{
			public.GET("/feed", h.GetFeed)
			public.GET("/search", h.SearchProducts)
			public.GET("/products/:id", h.GetProduct)
			public.POST("/products/:id/like", RateLimitMiddleware(redisClient, likeRule, KeyByIPAndParam("id")), h.ToggleLike)
			public.GET("/share/:shop/:product", h.GetShareMeta)
			public.GET("/couriers", h.ListCouriers)
			public.GET("/delivery/quote", h.QuoteDelivery)
		}

		// 购物车（游客凭 X-Cart-Token，登录买家凭 JWT）
		cart := apiV1.Group("/cart")
		cart.Use(optionalAuth)
		{
			cart.GET("", h.GetCart)
			cart.POST("/items", h.AddCartItem)
			cart.PUT("/items/:product_id", h.UpdateCartItem)
			cart.DELETE("/items/:product_id", h.RemoveCartItem)
			cart.DELETE("", h.ClearCart)
		}

		// 结算会话
		checkout := apiV1.Group("/checkout/sessions")
		checkout.Use(optionalAuth)
		{
			checkout.POST("", RateLimitMiddleware(redisClient, sessionRule, nil), h.OpenCheckout)
			checkout.GET("/:id", h.GetCheckout)
			checkout.PATCH("/:id", h.EditCheckout)
			checkout.POST("/:id/geolocation", h.ApplyCheckoutGeolocation)
			checkout.POST("/:id/submit", RateLimitMiddleware(redisClient, checkoutRule, KeyByCheckoutPhone(c.CheckoutService)), h.SubmitCheckout)
			checkout.DELETE("/:id", h.CloseCheckout)
		}

		// 登录后接口（角色授权）
		authorized := apiV1.Group("")
		authorized.Use(requiredAuth, RoleRBACMiddleware(c.AuthzService))
		{
			authorized.GET("/orders", h.ListMyOrders)
			authorized.GET("/orders/:id", h.GetMyOrder)
			authorized.POST("/orders/:id/events", h.PostOrderEvent)

			authorized.GET("/seller/products", h.ListSellerProducts)
			authorized.POST("/seller/products", h.CreateSellerProduct)
			authorized.POST("/seller/products/:id/archive", h.ArchiveSellerProduct)

			authorized.GET("/support/permissions", permissionCatalogHandler(r, c.AuthzService))
		}
	}

	return r
}

type permissionCatalogItem struct {
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildPermissionCatalog 列出需要角色授权的接口
func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}
	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !isProtectedPath(item.Path) {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Object == items[j].Object {
			return items[i].Method < items[j].Method
		}
		return items[i].Object < items[j].Object
	})
	return items
}

// permissionCatalogHandler 客服查看受保护接口与角色矩阵
func permissionCatalogHandler(engine *gin.Engine, authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		matrix, err := authzService.RoleMatrix()
		if err != nil {
			handlershared.RespondError(c, response.CodeInternal, "error.permissions_fetch_failed", err)
			return
		}
		response.Success(c, gin.H{
			"routes": buildPermissionCatalog(engine),
			"roles":  matrix,
		})
	}
}

func isProtectedPath(path string) bool {
	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
