package config

import (
	"fmt"
	"strings"

	"github.com/sokosnap/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Cart     CartConfig     `mapstructure:"cart"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Order    OrderConfig    `mapstructure:"order"`
	Share    ShareConfig    `mapstructure:"share"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                     string `mapstructure:"host"`
	Port                     string `mapstructure:"port"`
	Mode                     string `mapstructure:"mode"` // debug / release
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres/mysql）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CheckoutRateLimit RateLimitConfig `mapstructure:"checkout_rate_limit"`
	SessionRateLimit  RateLimitConfig `mapstructure:"session_rate_limit"`
	LikeRateLimit     RateLimitConfig `mapstructure:"like_rate_limit"`
	ExtraGrants       []RoleGrant     `mapstructure:"extra_grants"`
}

// RoleGrant 内置角色矩阵之外的额外授权
type RoleGrant struct {
	Role   string `mapstructure:"role"`
	Object string `mapstructure:"object"`
	Action string `mapstructure:"action"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// FeedConfig 商品流配置
type FeedConfig struct {
	PageSize        int `mapstructure:"page_size"`
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// CartConfig 购物车配置
type CartConfig struct {
	MaxItems      int `mapstructure:"max_items"`
	GuestTTLHours int `mapstructure:"guest_ttl_hours"`
}

// CheckoutConfig 结算配置
type CheckoutConfig struct {
	CartDeliveryFee   int64  `mapstructure:"cart_delivery_fee"`
	SessionTTLMinutes int    `mapstructure:"session_ttl_minutes"`
	DefaultCourier    string `mapstructure:"default_courier"`
}

// CourierConfig 配送方式配置
type CourierConfig struct {
	Code  string `mapstructure:"code"`
	Label string `mapstructure:"label"`
	Price int64  `mapstructure:"price"`
	SLA   string `mapstructure:"sla"`
}

// DeliveryConfig 配送配置
type DeliveryConfig struct {
	MinLocationLength int             `mapstructure:"min_location_length"`
	Couriers          []CourierConfig `mapstructure:"couriers"`
}

// OrderConfig 订单配置
type OrderConfig struct {
	Currency             string `mapstructure:"currency"`
	EscrowTimeoutMinutes int    `mapstructure:"escrow_timeout_minutes"`
	MinAmount            int64  `mapstructure:"min_amount"`
	MaxAmount            int64  `mapstructure:"max_amount"`
}

// ShareConfig 分享链接配置
type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	return LoadFrom("")
}

// LoadFrom 加载指定配置文件；path 为空时按默认目录查找 config.yml
func LoadFrom(path string) *Config {
	if path = strings.TrimSpace(path); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("../") // 从 cmd/server 运行
		viper.AddConfigPath("./etc")
	}

	setDefaults(viper.GetViper())

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

// Default 返回仅包含默认值的配置（测试与工具使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_header_timeout_seconds", 10)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/sokosnap.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 168)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "soko")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Cart-Token",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.checkout_rate_limit.window_seconds", 60)
	v.SetDefault("security.checkout_rate_limit.max_requests", 5)
	v.SetDefault("security.session_rate_limit.window_seconds", 60)
	v.SetDefault("security.session_rate_limit.max_requests", 20)
	v.SetDefault("security.like_rate_limit.window_seconds", 10)
	v.SetDefault("security.like_rate_limit.max_requests", 20)
	v.SetDefault("feed.page_size", 20)
	v.SetDefault("feed.cache_ttl_seconds", 30)
	v.SetDefault("cart.max_items", 50)
	v.SetDefault("cart.guest_ttl_hours", 720)
	v.SetDefault("checkout.cart_delivery_fee", 150)
	v.SetDefault("checkout.session_ttl_minutes", 30)
	v.SetDefault("checkout.default_courier", "standard")
	v.SetDefault("delivery.min_location_length", 3)
	v.SetDefault("delivery.couriers", []map[string]interface{}{
		{"code": "pickup", "label": "Pickup", "price": 0, "sla": "Collect from seller"},
		{"code": "standard", "label": "Standard", "price": 150, "sla": "Same day"},
		{"code": "express", "label": "Express", "price": 300, "sla": "Within 2 hours"},
	})
	v.SetDefault("order.currency", "KES")
	v.SetDefault("order.escrow_timeout_minutes", 30)
	v.SetDefault("order.min_amount", 10)
	v.SetDefault("order.max_amount", 150000)
	v.SetDefault("share.base_url", "https://sokosnap.app")
}
