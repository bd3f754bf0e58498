package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品文档数据访问接口
type ProductRepository interface {
	ListActive(ctx context.Context, limit int) ([]models.ProductDocument, error)
	ListBySeller(ctx context.Context, sellerID string, page, pageSize int) ([]models.ProductDocument, int64, error)
	SearchActive(ctx context.Context, keyword string, limit int) ([]models.ProductDocument, error)
	FindByID(ctx context.Context, id string) (*models.ProductDocument, error)
	FindBySlug(ctx context.Context, slug string) (*models.ProductDocument, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.ProductDocument, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, doc *models.ProductDocument) error
	UpdateStatus(ctx context.Context, id, status string) error
	MutateData(ctx context.Context, id string, mutate func(data models.JSON) error) (*models.ProductDocument, error)
}

// ErrProductDocumentNotFound 文档不存在（仅在更新类操作中返回）
var ErrProductDocumentNotFound = errors.New("product document not found")

// 商品名称检索使用的文档字段
var productSearchKeys = []string{"name", "sellerName", "description"}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// ListActive 按创建时间倒序获取上架商品
func (r *GormProductRepository) ListActive(ctx context.Context, limit int) ([]models.ProductDocument, error) {
	var docs []models.ProductDocument
	query := r.db.WithContext(ctx).
		Where("status = ?", constants.ProductStatusActive).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// ListBySeller 卖家商品列表（含已下架）
func (r *GormProductRepository) ListBySeller(ctx context.Context, sellerID string, page, pageSize int) ([]models.ProductDocument, int64, error) {
	var docs []models.ProductDocument
	var total int64
	query := r.db.WithContext(ctx).Model(&models.ProductDocument{}).Where("seller_id = ?", sellerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)
	if err := query.Order("created_at DESC, id DESC").Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// SearchActive 按名称/卖家/描述模糊检索上架商品
func (r *GormProductRepository) SearchActive(ctx context.Context, keyword string, limit int) ([]models.ProductDocument, error) {
	condition, args := documentSearchClause(dialectOf(r.db), "data", productSearchKeys, keyword)
	if condition == "" {
		return []models.ProductDocument{}, nil
	}
	var docs []models.ProductDocument
	query := r.db.WithContext(ctx).
		Where("status = ?", constants.ProductStatusActive).
		Where(condition, args...).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// FindByID 根据 ID 获取商品（不限状态）
func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*models.ProductDocument, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var doc models.ProductDocument
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// FindBySlug 根据 slug 获取上架商品，大小写不敏感
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*models.ProductDocument, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, nil
	}
	var doc models.ProductDocument
	err := r.db.WithContext(ctx).
		Where("LOWER(slug) = ? AND status = ?", slug, constants.ProductStatusActive).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// FindByIDs 批量获取商品
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []string) ([]models.ProductDocument, error) {
	if len(ids) == 0 {
		return []models.ProductDocument{}, nil
	}
	var docs []models.ProductDocument
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// SlugExists 判断 slug 是否已被占用（不限状态）
func (r *GormProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductDocument{}).Where("LOWER(slug) = ?", strings.ToLower(strings.TrimSpace(slug))).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建商品文档
func (r *GormProductRepository) Create(ctx context.Context, doc *models.ProductDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// UpdateStatus 更新商品状态，同时同步文档内的 status 字段
func (r *GormProductRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.MutateData(ctx, id, func(data models.JSON) error {
		data["status"] = status
		return nil
	})
	return err
}

// MutateData 在事务内读取-修改-写回文档
func (r *GormProductRepository) MutateData(ctx context.Context, id string, mutate func(data models.JSON) error) (*models.ProductDocument, error) {
	var updated models.ProductDocument
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.ProductDocument
		if err := tx.Where("id = ?", id).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductDocumentNotFound
			}
			return err
		}
		data := doc.Data.Clone()
		if err := mutate(data); err != nil {
			return err
		}
		updates := map[string]interface{}{
			"data":       data,
			"updated_at": time.Now(),
		}
		if status, ok := data["status"].(string); ok && strings.TrimSpace(status) != "" {
			updates["status"] = strings.TrimSpace(status)
		}
		if err := tx.Model(&models.ProductDocument{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
