package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sokosnap/internal/cache"
	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/queue"
	"github.com/sokosnap/internal/repository"
)

const maxSlugAttempts = 50

// ProductService 商品业务服务（卖家发布与下架）
type ProductService struct {
	repo        repository.ProductRepository
	queueClient *queue.Client
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, queueClient *queue.Client) *ProductService {
	return &ProductService{repo: repo, queueClient: queueClient}
}

// CreateProductInput 卖家发布商品输入
type CreateProductInput struct {
	SellerID     string
	SellerName   string
	SellerHandle string
	SellerAvatar string
	Name         string
	Description  string
	Price        int64
	Currency     string
	MediaURL     string
	Type         string
}

// GetPublic 按 ID 或 slug 获取上架商品
func (s *ProductService) GetPublic(ctx context.Context, key string) (*models.Product, error) {
	product, err := lookupActiveProduct(ctx, s.repo, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProductFetchFailed, err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListBySeller 卖家商品列表（含已下架）
func (s *ProductService) ListBySeller(ctx context.Context, sellerID string, page, pageSize int) ([]models.Product, int64, error) {
	docs, total, err := s.repo.ListBySeller(ctx, strings.TrimSpace(sellerID), page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrProductFetchFailed, err)
	}
	return NormalizeProducts(docs), total, nil
}

// Create 发布商品
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProductNameRequired
	}
	if input.Price <= 0 {
		return nil, ErrProductPriceInvalid
	}
	mediaURL := strings.TrimSpace(input.MediaURL)
	if mediaURL == "" {
		return nil, ErrProductMediaRequired
	}
	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = constants.CurrencyKES
	}

	product := models.Product{
		ID:           newRecordID(),
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		Price:        models.NewMoney(input.Price),
		Currency:     currency,
		MediaURL:     mediaURL,
		Type:         normalizeMediaType(input.Type, mediaURL),
		SellerID:     strings.TrimSpace(input.SellerID),
		SellerName:   strings.TrimSpace(input.SellerName),
		SellerHandle: strings.TrimSpace(input.SellerHandle),
		SellerAvatar: strings.TrimSpace(input.SellerAvatar),
		Status:       constants.ProductStatusActive,
		Slug:         slug,
		CreatedAt:    time.Now(),
	}
	doc := ProductToDocument(product)
	if err := s.repo.Create(ctx, &doc); err != nil {
		return nil, err
	}
	logger.Infow("product_published", "product_id", product.ID, "seller_id", product.SellerID, "slug", slug)
	s.invalidateFeed(ctx, product.ID, "published")
	normalized := NormalizeProduct(doc)
	return &normalized, nil
}

// Archive 下架商品；卖家只能下架自己的商品
func (s *ProductService) Archive(ctx context.Context, id, actorID, actorRole string) (*models.Product, error) {
	doc, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProductFetchFailed, err)
	}
	if doc == nil {
		return nil, ErrProductNotFound
	}
	current := NormalizeProduct(*doc)
	if actorRole != constants.RoleSupport && current.SellerID != strings.TrimSpace(actorID) {
		return nil, ErrForbidden
	}
	if current.Status == constants.ProductStatusArchived {
		return &current, nil
	}
	if err := s.repo.UpdateStatus(ctx, current.ID, constants.ProductStatusArchived); err != nil {
		return nil, err
	}
	current.Status = constants.ProductStatusArchived
	logger.Infow("product_archived", "product_id", current.ID, "actor_id", actorID)
	s.invalidateFeed(ctx, current.ID, "archived")
	return &current, nil
}

// uniqueSlug 由名称生成 slug，冲突时追加数字后缀
func (s *ProductService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "product"
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSlugGenerateFailed, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	return "", ErrSlugGenerateFailed
}

// invalidateFeed 队列可用时异步失效，否则直接删除缓存
func (s *ProductService) invalidateFeed(ctx context.Context, productID, reason string) {
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueFeedInvalidate(ctx, queue.FeedInvalidatePayload{ProductID: productID, Reason: reason})
		if err == nil {
			return
		}
		logger.Warnw("feed_invalidate_enqueue_failed", "product_id", productID, "error", err)
	}
	if err := cache.DelFeedSnapshot(ctx); err != nil {
		logger.Warnw("feed_cache_invalidate_failed", "product_id", productID, "error", err)
	}
}
