package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/repository"
)

const (
	shareDescriptionPrefix = "🛒 Buy securely with M-Pesa. "
	shareDescriptionLimit  = 120
)

// ShareMeta 分享卡片元数据
type ShareMeta struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Image         string         `json:"image"`
	MediaType     string         `json:"media_type"`
	CanonicalPath string         `json:"canonical_path"`
	URL           string         `json:"url"`
	Product       models.Product `json:"product"`
}

// ShareService 分享链接服务
type ShareService struct {
	productRepo repository.ProductRepository
	baseURL     string
}

// NewShareService 创建分享服务
func NewShareService(productRepo repository.ProductRepository, cfg config.ShareConfig) *ShareService {
	return &ShareService{
		productRepo: productRepo,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}
}

// Resolve 按店铺与商品 slug 生成分享元数据
func (s *ShareService) Resolve(ctx context.Context, shop, productKey string) (*ShareMeta, error) {
	product, err := lookupActiveProduct(ctx, s.productRepo, productKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProductFetchFailed, err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	shopToken := normalizeScope(shop)
	if shopToken != "" && !matchesSellerScope(*product, shopToken) {
		return nil, ErrProductNotFound
	}

	path := buildCanonicalPath(*product, shop)
	meta := &ShareMeta{
		Title:         buildShareTitle(*product),
		Description:   buildShareDescription(product.Description),
		Image:         product.MediaURL,
		MediaType:     product.Type,
		CanonicalPath: path,
		URL:           path,
		Product:       *product,
	}
	if s.baseURL != "" {
		meta.URL = s.baseURL + path
	}
	return meta, nil
}

func buildShareTitle(product models.Product) string {
	seller := product.SellerName
	if seller == "" {
		seller = normalizeHandle(product.SellerHandle)
	}
	title := fmt.Sprintf("%s %s | %s", product.Currency, product.Price.String(), product.Name)
	if seller != "" {
		title += " by " + seller
	}
	return title
}

// buildShareDescription 描述按字符截断到 120 个
func buildShareDescription(description string) string {
	text := shareDescriptionPrefix + strings.TrimSpace(description)
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= shareDescriptionLimit {
		return text
	}
	return string(runes[:shareDescriptionLimit-3]) + "..."
}

func buildCanonicalPath(product models.Product, shop string) string {
	shopSegment := normalizeHandle(product.SellerHandle)
	if shopSegment == "" {
		shopSegment = slugifySellerName(product.SellerName)
	}
	if shopSegment == "" {
		shopSegment = normalizeScope(shop)
	}
	productSegment := product.Slug
	if productSegment == "" {
		productSegment = product.ID
	}
	return "/store/" + url.PathEscape(shopSegment) + "/" + url.PathEscape(productSegment)
}
