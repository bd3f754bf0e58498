package repository

import (
	"context"

	"github.com/sokosnap/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByCustomer(ctx context.Context, customerID string) ([]models.CartItem, error)
	ReplaceForCustomer(ctx context.Context, customerID string, items []models.CartItem) error
	ClearByCustomer(ctx context.Context, customerID string) error
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByCustomer 获取买家购物车项（按加入顺序）
func (r *GormCartRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("position asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceForCustomer 以快照方式整体覆盖买家购物车
func (r *GormCartRepository) ReplaceForCustomer(ctx context.Context, customerID string, items []models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", customerID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].CustomerID = customerID
			items[i].Position = i
		}
		return tx.Create(&items).Error
	})
}

// ClearByCustomer 清空购物车
func (r *GormCartRepository) ClearByCustomer(ctx context.Context, customerID string) error {
	return r.db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&models.CartItem{}).Error
}
