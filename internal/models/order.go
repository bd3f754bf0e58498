package models

import (
	"time"

	"github.com/sokosnap/internal/constants"
)

// Order 订单表
type Order struct {
	ID               string                `gorm:"primaryKey;type:varchar(26)" json:"id"`                      // 主键（ULID）
	OrderNo          string                `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"`      // 订单编号
	CustomerID       string                `gorm:"type:varchar(64);index;not null" json:"customer_id"`         // 买家ID（游客为 guest）
	CustomerName     string                `gorm:"type:varchar(120)" json:"customer_name,omitempty"`           // 买家昵称
	CustomerPhone    string                `gorm:"type:varchar(20);index;not null" json:"customer_phone"`      // 买家手机号（07 开头）
	SellerID         string                `gorm:"type:varchar(64);index" json:"seller_id"`                    // 卖家ID（多卖家购物车为空）
	Amount           Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`        // 商品小计
	DeliveryFee      Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`  // 配送费
	Total            Money                 `gorm:"type:decimal(20,2);not null;default:0" json:"total"`         // 应付总额
	Currency         string                `gorm:"type:varchar(8);not null" json:"currency"`                   // 币种
	Courier          string                `gorm:"type:varchar(20)" json:"courier"`                            // 配送方式
	DeliveryLocation string                `gorm:"type:varchar(255);not null" json:"delivery_location"`        // 配送地址
	Status           constants.OrderStatus `gorm:"type:varchar(20);index;not null" json:"status"`              // 订单状态
	EscrowRef        string                `gorm:"type:varchar(20)" json:"escrow_ref,omitempty"`               // 托管流水号
	RiderID          string                `gorm:"type:varchar(64);index" json:"rider_id,omitempty"`           // 骑手ID
	RiderName        string                `gorm:"type:varchar(120)" json:"rider_name,omitempty"`              // 骑手名称
	ReleaseCodeHash  string                `gorm:"type:varchar(100)" json:"-"`                                 // 放款码哈希
	FromCart         bool                  `gorm:"not null;default:false" json:"from_cart"`                    // 是否购物车结算
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`                                     // 取消时间
	CompletedAt      *time.Time            `json:"completed_at,omitempty"`                                     // 完成时间
	CreatedAt        time.Time             `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt        time.Time             `json:"updated_at"`                                                 // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
