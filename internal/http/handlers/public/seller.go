package public

import (
	"strings"

	handlershared "github.com/sokosnap/internal/http/handlers/shared"
	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateProductRequest 卖家发布商品请求
type CreateProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Price        int64  `json:"price"`
	Currency     string `json:"currency"`
	MediaURL     string `json:"media_url"`
	Type         string `json:"type"`
	SellerName   string `json:"seller_name"`
	SellerHandle string `json:"seller_handle"`
	SellerAvatar string `json:"seller_avatar"`
}

// CreateSellerProduct 发布商品
func (h *Handler) CreateSellerProduct(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.product_name_required", nil)
		return
	}
	sellerName := strings.TrimSpace(req.SellerName)
	if sellerName == "" {
		sellerName = identity.Name
	}
	product, err := h.ProductService.Create(c.Request.Context(), service.CreateProductInput{
		SellerID:     identity.UserID,
		SellerName:   sellerName,
		SellerHandle: req.SellerHandle,
		SellerAvatar: req.SellerAvatar,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		MediaURL:     req.MediaURL,
		Type:         req.Type,
	})
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.product_create_failed")
		return
	}
	response.Success(c, product)
}

// ListSellerProducts 卖家商品列表
func (h *Handler) ListSellerProducts(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)

	products, total, err := h.ProductService.ListBySeller(c.Request.Context(), identity.UserID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// ArchiveSellerProduct 下架商品
func (h *Handler) ArchiveSellerProduct(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	product, err := h.ProductService.Archive(c.Request.Context(), c.Param("id"), identity.UserID, identity.Role)
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.product_update_failed")
		return
	}
	response.Success(c, product)
}
