package service

import (
	"context"
	"strings"
	"time"

	"github.com/sokosnap/internal/cache"
	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/repository"

	"golang.org/x/sync/errgroup"
)

const maxFeedPageSize = 20

// FeedService 信息流组装服务
type FeedService struct {
	productRepo repository.ProductRepository
	pageSize    int
	cacheTTL    time.Duration
}

// NewFeedService 创建信息流服务
func NewFeedService(productRepo repository.ProductRepository, cfg config.FeedConfig) *FeedService {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxFeedPageSize {
		pageSize = maxFeedPageSize
	}
	return &FeedService{
		productRepo: productRepo,
		pageSize:    pageSize,
		cacheTTL:    time.Duration(cfg.CacheTTLSeconds) * time.Second,
	}
}

// AssembleFeed 组装信息流
// 上架商品分页与深链商品查询并行执行，任一失败都不会让整个请求失败
func (s *FeedService) AssembleFeed(ctx context.Context, scope, deepLink string) []models.Product {
	scope = strings.TrimSpace(scope)
	deepLink = strings.TrimSpace(deepLink)

	var (
		active []models.Product
		linked *models.Product
	)
	var g errgroup.Group
	g.Go(func() error {
		products, err := s.loadActive(ctx, scope)
		if err != nil {
			logger.Warnw("feed_fetch_active_failed", "scope", scope, "error", err)
			return nil
		}
		active = filterByScope(products, scope)
		return nil
	})
	if deepLink != "" {
		g.Go(func() error {
			product, err := lookupActiveProduct(ctx, s.productRepo, deepLink)
			if err != nil {
				logger.Warnw("feed_deeplink_lookup_failed", "deeplink", deepLink, "error", err)
				return nil
			}
			linked = product
			return nil
		})
	}
	_ = g.Wait()

	feed := dedupeProducts(active)
	if deepLink == "" {
		return feed
	}
	if idx := indexOfProduct(feed, deepLink); idx >= 0 {
		return moveToFront(feed, idx)
	}
	if linked == nil {
		logger.Infow("feed_deeplink_miss", "deeplink", deepLink, "scope", scope)
		return feed
	}
	return dedupeProducts(append([]models.Product{*linked}, feed...))
}

// Search 按关键词检索上架商品，检索失败返回空结果
func (s *FeedService) Search(ctx context.Context, keyword string) []models.Product {
	docs, err := s.productRepo.SearchActive(ctx, keyword, s.pageSize)
	if err != nil {
		logger.Warnw("feed_search_failed", "keyword", keyword, "error", err)
		return []models.Product{}
	}
	return dedupeProducts(NormalizeProducts(docs))
}

// InvalidateGlobal 使全站信息流缓存失效
func (s *FeedService) InvalidateGlobal(ctx context.Context) error {
	return cache.DelFeedSnapshot(ctx)
}

// loadActive 获取上架商品页；全站范围优先读缓存
func (s *FeedService) loadActive(ctx context.Context, scope string) ([]models.Product, error) {
	global := isGlobalScope(scope)
	if global && s.cacheTTL > 0 {
		snapshot, hit, err := cache.GetFeedSnapshot(ctx)
		if err != nil {
			logger.Warnw("feed_cache_read_failed", "error", err)
		} else if hit && snapshot != nil {
			return snapshot.Products, nil
		}
	}
	docs, err := s.productRepo.ListActive(ctx, s.pageSize)
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		product := NormalizeProduct(doc)
		if product.Status != constants.ProductStatusActive {
			continue
		}
		products = append(products, product)
	}
	if global && s.cacheTTL > 0 {
		if err := cache.SetFeedSnapshot(ctx, products, s.cacheTTL); err != nil {
			logger.Warnw("feed_cache_write_failed", "error", err)
		}
	}
	return products, nil
}

// lookupActiveProduct 先按 ID 再按 slug 查找上架商品，未找到返回 nil
func lookupActiveProduct(ctx context.Context, repo repository.ProductRepository, key string) (*models.Product, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	doc, err := repo.FindByID(ctx, key)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc, err = repo.FindBySlug(ctx, key)
		if err != nil {
			return nil, err
		}
	}
	if doc == nil {
		return nil, nil
	}
	product := NormalizeProduct(*doc)
	if product.Status != constants.ProductStatusActive {
		return nil, nil
	}
	return &product, nil
}

func isGlobalScope(scope string) bool {
	normalized := strings.ToLower(strings.TrimSpace(scope))
	return normalized == "" || normalized == constants.DefaultFeedScope
}

// filterByScope 店铺范围按卖家 handle 或卖家名 slug 做子串匹配
func filterByScope(products []models.Product, scope string) []models.Product {
	if isGlobalScope(scope) {
		return products
	}
	token := normalizeScope(scope)
	filtered := make([]models.Product, 0, len(products))
	for _, product := range products {
		if matchesSellerScope(product, token) {
			filtered = append(filtered, product)
		}
	}
	return filtered
}

func matchesSellerScope(product models.Product, token string) bool {
	if token == "" {
		return true
	}
	if handle := normalizeHandle(product.SellerHandle); handle != "" && strings.Contains(handle, token) {
		return true
	}
	if nameSlug := slugifySellerName(product.SellerName); nameSlug != "" && strings.Contains(nameSlug, token) {
		return true
	}
	return false
}

func normalizeScope(scope string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(scope)), "_", "-")
}

func normalizeHandle(handle string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(handle), "@")
	return strings.ReplaceAll(strings.ToLower(trimmed), "_", "-")
}

func slugifySellerName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func indexOfProduct(products []models.Product, key string) int {
	for i, product := range products {
		if product.ID == key {
			return i
		}
	}
	for i, product := range products {
		if product.Slug != "" && strings.EqualFold(product.Slug, key) {
			return i
		}
	}
	return -1
}

// moveToFront 将指定位置的商品移到首位，其余相对顺序不变
func moveToFront(products []models.Product, idx int) []models.Product {
	if idx <= 0 || idx >= len(products) {
		return products
	}
	out := make([]models.Product, 0, len(products))
	out = append(out, products[idx])
	out = append(out, products[:idx]...)
	out = append(out, products[idx+1:]...)
	return out
}

// dedupeProducts 按 ID 去重，保留首次出现的记录
func dedupeProducts(products []models.Product) []models.Product {
	seen := make(map[string]struct{}, len(products))
	out := make([]models.Product, 0, len(products))
	for _, product := range products {
		if _, ok := seen[product.ID]; ok {
			continue
		}
		seen[product.ID] = struct{}{}
		out = append(out, product)
	}
	return out
}
