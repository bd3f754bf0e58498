package service

import "errors"

// 商品相关错误
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductNameRequired  = errors.New("product name required")
	ErrProductPriceInvalid  = errors.New("product price invalid")
	ErrProductMediaRequired = errors.New("product media required")
	ErrProductFetchFailed   = errors.New("product fetch failed")
	ErrSlugGenerateFailed   = errors.New("slug generate failed")
)

// 购物车相关错误
var (
	ErrCartFull          = errors.New("cart is full")
	ErrCartItemInvalid   = errors.New("cart item invalid")
	ErrCartTokenRequired = errors.New("cart token required")
	ErrCartLoadFailed    = errors.New("cart load failed")
	ErrCartSaveFailed    = errors.New("cart save failed")
)

// 配送与结算相关错误
var (
	ErrCourierInvalid          = errors.New("courier invalid")
	ErrCheckoutInProgress      = errors.New("checkout submission in progress")
	ErrCheckoutInvalid         = errors.New("checkout input invalid")
	ErrCheckoutNotReady        = errors.New("checkout not ready")
	ErrCheckoutClosed          = errors.New("checkout session closed")
	ErrCheckoutConfirmed       = errors.New("checkout already confirmed")
	ErrCheckoutSessionNotFound = errors.New("checkout session not found")
	ErrCheckoutEmpty           = errors.New("checkout has no items")
	ErrGeolocationUnavailable  = errors.New("geolocation unavailable")
)

// 订单相关错误
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("order status invalid")
	ErrOrderCreateFailed  = errors.New("order create failed")
	ErrOrderUpdateFailed  = errors.New("order update failed")
	ErrOrderFetchFailed   = errors.New("order fetch failed")
	ErrOrderTotalMismatch = errors.New("order total mismatch")
	ErrInvalidOrderAmount = errors.New("order amount out of range")
	ErrInvalidOrderItem   = errors.New("order item invalid")
	ErrReleaseCodeInvalid = errors.New("release code invalid")
	ErrRiderRequired      = errors.New("rider required")
	ErrFulfillmentEvent   = errors.New("fulfillment event invalid")
)

// 身份与权限相关错误
var (
	ErrForbidden        = errors.New("forbidden")
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenSignFailed  = errors.New("token sign failed")
	ErrQueueUnavailable = errors.New("queue unavailable")
)
