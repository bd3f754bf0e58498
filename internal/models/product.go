package models

import (
	"time"
)

// ProductDocument 商品文档表
// 常用查询字段单独成列，完整文档（可能包含旧字段名）保存在 Data 中
type ProductDocument struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)" json:"id"`                           // 主键（ULID）
	Status    string    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`  // 状态（active/archived）
	Slug      *string   `gorm:"type:varchar(191);uniqueIndex" json:"slug,omitempty"`             // 备用查找键
	SellerID  string    `gorm:"type:varchar(64);not null;default:'';index" json:"seller_id"`     // 卖家ID
	Data      JSON      `gorm:"type:json" json:"data"`                                           // 原始文档
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                                      // 更新时间
}

// TableName 指定表名
func (ProductDocument) TableName() string {
	return "product_documents"
}

// Product 规范化后的商品记录（不直接落库）
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        Money     `json:"price"`
	Currency     string    `json:"currency"`
	MediaURL     string    `json:"media_url"`
	Type         string    `json:"type"`
	SellerID     string    `json:"seller_id"`
	SellerName   string    `json:"seller_name"`
	SellerHandle string    `json:"seller_handle"`
	SellerAvatar string    `json:"seller_avatar,omitempty"`
	Status       string    `json:"status"`
	Slug         string    `json:"slug,omitempty"`
	Likes        int64     `json:"likes"`
	Comments     int64     `json:"comments"`
	CreatedAt    time.Time `json:"created_at"`
}
