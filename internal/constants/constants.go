package constants

// 商品状态常量
const (
	ProductStatusActive   = "active"
	ProductStatusArchived = "archived"
)

// 媒体类型常量
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// 身份与角色常量
const (
	GuestCustomerID = "guest"
	RoleBuyer       = "buyer"
	RoleSeller      = "seller"
	RoleRider       = "rider"
	RoleSupport     = "support"
)

// 币种与业务前缀常量
const (
	CurrencyKES        = "KES"
	EscrowRefPrefix    = "TRX"
	OrderNoPrefix      = "SS"
	ReleaseCodeDigits  = 4
	DefaultFeedScope   = "global"
	CartTokenHeader    = "X-Cart-Token"
	RequestIDHeader    = "X-Request-ID"
	ContextKeyRequest  = "request_id"
	ContextKeyUserID   = "user_id"
	ContextKeyUserName = "user_name"
	ContextKeyPhone    = "user_phone"
	ContextKeyRole     = "user_role"
)

// 队列与任务常量
const (
	QueueDefault            = "default"
	QueueCritical           = "critical"
	TaskOrderEscrowTimeout  = "order:escrow_timeout"
	TaskFeedInvalidate      = "feed:invalidate"
	FeedGlobalCacheKey      = "feed:global"
	GuestCartCacheKeyPrefix = "cart:guest"
)
