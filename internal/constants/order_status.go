package constants

import (
	"fmt"
	"strings"
)

// OrderStatus 订单状态（封闭集合，所有视图共用）
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusEscrowHeld OrderStatus = "escrow_held"
	OrderStatusInTransit  OrderStatus = "in_transit"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// OrderPhase 订单历史分组
type OrderPhase string

const (
	OrderPhaseOngoing   OrderPhase = "ongoing"
	OrderPhaseCompleted OrderPhase = "completed"
)

// AllOrderStatuses 全部订单状态（按生命周期顺序）
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusEscrowHeld,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// 旧版视图使用的粗粒度状态词汇
var legacyOrderStatusAliases = map[string]OrderStatus{
	"shipping": OrderStatusInTransit,
	"shipped":  OrderStatusInTransit,
	"canceled": OrderStatusCancelled,
	"paid":     OrderStatusEscrowHeld,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:    "Pending",
	OrderStatusProcessing: "Processing",
	OrderStatusEscrowHeld: "Payment Secured",
	OrderStatusInTransit:  "On the Way",
	OrderStatusDelivered:  "Delivered",
	OrderStatusCompleted:  "Completed",
	OrderStatusCancelled:  "Cancelled",
	OrderStatusRefunded:   "Refunded",
}

// ParseOrderStatus 解析状态字符串，兼容旧版词汇
func ParseOrderStatus(raw string) (OrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, status := range AllOrderStatuses {
		if string(status) == normalized {
			return status, nil
		}
	}
	if alias, ok := legacyOrderStatusAliases[normalized]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("unknown order status: %q", raw)
}

// Valid 判断是否为已知状态
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Label 展示文案
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsOngoing 订单仍在进行中
func (s OrderStatus) IsOngoing() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusEscrowHeld, OrderStatusInTransit:
		return true
	}
	return false
}

// IsCompleted 订单已结束（成功或失败）
func (s OrderStatus) IsCompleted() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// IsTerminal 不再接受任何履约事件
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Phase 历史视图分组
func (s OrderStatus) Phase() OrderPhase {
	if s.IsOngoing() {
		return OrderPhaseOngoing
	}
	return OrderPhaseCompleted
}

// ParseOrderPhase 解析分组参数，空值表示不过滤
func ParseOrderPhase(raw string) (OrderPhase, bool) {
	switch OrderPhase(strings.ToLower(strings.TrimSpace(raw))) {
	case OrderPhaseOngoing:
		return OrderPhaseOngoing, true
	case OrderPhaseCompleted:
		return OrderPhaseCompleted, true
	}
	return "", false
}
