package repository

import (
	"github.com/sokosnap/internal/constants"
)

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page       int
	PageSize   int
	CustomerID string
	SellerID   string
	RiderID    string
	Statuses   []constants.OrderStatus
}
