package models

import (
	"time"
)

// OrderItem 订单项表
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                       // 主键
	OrderID   string    `gorm:"type:varchar(26);index;not null" json:"order_id"`            // 订单ID
	ProductID string    `gorm:"type:varchar(26);index;not null" json:"product_id"`          // 商品ID
	SellerID  string    `gorm:"type:varchar(64);index" json:"seller_id"`                    // 卖家ID
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`                     // 商品名称快照
	MediaURL  string    `gorm:"type:varchar(500)" json:"media_url"`                         // 媒体快照
	UnitPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`    // 单价
	Quantity  int       `gorm:"not null" json:"quantity"`                                   // 数量
	LineTotal Money     `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"`    // 小计
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                    // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
