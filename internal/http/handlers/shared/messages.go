package shared

import (
	"fmt"
	"strings"
)

// messages 接口提示文案
var messages = map[string]string{
	"error.bad_request":               "Invalid request",
	"error.unauthorized":              "Please sign in to continue",
	"error.forbidden":                 "You are not allowed to do that",
	"error.auth_header_invalid":       "Authorization header must be a Bearer token",
	"error.token_invalid":             "Session expired, please sign in again",
	"error.jwt_secret_missing":        "Authentication is not configured",
	"error.rate_limited":              "Too many requests, try again in %d seconds",
	"error.checkout_too_many":         "Too many checkout attempts, try again in %d seconds",
	"error.rate_limit_unavailable":    "Rate limiter unavailable",
	"error.product_not_found":         "Product not found",
	"error.product_fetch_failed":      "Could not load products",
	"error.product_name_required":     "Product name is required",
	"error.product_price_invalid":     "Product price must be greater than zero",
	"error.product_media_required":    "A photo or video is required",
	"error.product_create_failed":     "Could not publish product",
	"error.product_update_failed":     "Could not update product",
	"error.cart_full":                 "Your cart is full",
	"error.cart_item_invalid":         "Invalid cart item",
	"error.cart_token_required":       "Cart token is required",
	"error.cart_fetch_failed":         "Could not load your cart",
	"error.cart_update_failed":        "Could not update your cart",
	"error.courier_invalid":           "Unknown delivery option",
	"error.checkout_not_found":        "Checkout session not found",
	"error.checkout_in_progress":      "Your order is already being placed",
	"error.checkout_invalid":          "Please fix the highlighted fields",
	"error.checkout_not_ready":        "Enter your phone and delivery location first",
	"error.checkout_closed":           "Checkout session closed",
	"error.checkout_confirmed":        "Order already placed",
	"error.checkout_empty":            "Nothing to check out",
	"error.order_create_failed":       "Order failed, please retry",
	"error.order_not_found":           "Order not found",
	"error.order_fetch_failed":        "Could not load orders",
	"error.order_update_failed":       "Could not update order",
	"error.order_status_invalid":      "Order cannot move to that status",
	"error.order_amount_invalid":      "Order amount is out of range",
	"error.order_item_invalid":        "Invalid order item",
	"error.order_phase_invalid":       "Phase must be ongoing or completed",
	"error.release_code_invalid":      "Release code does not match",
	"error.rider_required":            "Assign a rider before dispatch",
	"error.fulfillment_event_invalid": "Unknown fulfillment status",
	"error.permissions_fetch_failed":  "Could not load permissions",
}

// Message 根据 key 返回提示文案，未登记的 key 原样返回
func Message(key string) string {
	if msg, ok := messages[strings.TrimSpace(key)]; ok {
		return msg
	}
	return key
}

// Messagef 带参数的提示文案
func Messagef(key string, args ...interface{}) string {
	return fmt.Sprintf(Message(key), args...)
}
