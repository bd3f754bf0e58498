package models

import (
	"time"
)

// CartItem 购物车项（登录买家持久化）
type CartItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                                 // 主键
	CustomerID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_customer_product" json:"customer_id"` // 买家ID
	ProductID   string    `gorm:"type:varchar(26);not null;uniqueIndex:idx_cart_customer_product" json:"product_id"`  // 商品ID
	Quantity    int       `gorm:"not null" json:"quantity"`                                                             // 数量
	Position    int       `gorm:"not null;default:0" json:"position"`                                                   // 行顺序
	ProductData JSON      `gorm:"type:json" json:"product_data"`                                                        // 商品快照
	AddedAt     time.Time `gorm:"not null" json:"added_at"`                                                             // 加入时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`                                                              // 更新时间
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}

// CartLine 购物车行（内存账本与持久化快照共用）
type CartLine struct {
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}
