package public

import (
	"strings"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
)

// LikeRequest 点赞请求：客户端当前看到的状态
type LikeRequest struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

// GetFeed 获取商品流，deeplink 命中的商品排在首位
func (h *Handler) GetFeed(c *gin.Context) {
	scope := strings.TrimSpace(c.Query("scope"))
	if scope == "" {
		scope = constants.DefaultFeedScope
	}
	deepLink := strings.TrimSpace(c.Query("deeplink"))
	items := h.FeedService.AssembleFeed(c.Request.Context(), scope, deepLink)
	response.Success(c, gin.H{
		"scope":    scope,
		"deeplink": deepLink,
		"items":    items,
	})
}

// SearchProducts 按关键词搜索上架商品
func (h *Handler) SearchProducts(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("q"))
	items := h.FeedService.Search(c.Request.Context(), keyword)
	response.Success(c, gin.H{
		"q":     keyword,
		"items": items,
	})
}

// GetProduct 根据 ID 或 slug 获取商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.ProductService.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, product)
}

// ToggleLike 切换点赞；写入失败时返回回滚后的状态
func (h *Handler) ToggleLike(c *gin.Context) {
	var req LikeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
	}
	state, err := h.LikeService.Toggle(c.Request.Context(), c.Param("id"), service.LikeState{Liked: req.Liked, Count: req.Likes})
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.product_update_failed")
		return
	}
	response.Success(c, state)
}

// GetShareMeta 获取分享卡片信息
func (h *Handler) GetShareMeta(c *gin.Context) {
	meta, err := h.ShareService.Resolve(c.Request.Context(), c.Param("shop"), c.Param("product"))
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, meta)
}

// ListCouriers 配送方式列表
func (h *Handler) ListCouriers(c *gin.Context) {
	response.Success(c, gin.H{"items": h.DeliveryQuoter.Couriers()})
}

// QuoteDelivery 按配送方式与地址试算配送费
func (h *Handler) QuoteDelivery(c *gin.Context) {
	courier := strings.TrimSpace(c.Query("courier"))
	location := c.Query("location")
	fee, err := h.DeliveryQuoter.Quote(courier, location)
	if err != nil {
		respondWithMappedError(c, err, checkoutSessionErrorRules, response.CodeBadRequest, "error.courier_invalid")
		return
	}
	response.Success(c, gin.H{
		"courier":      courier,
		"fee":          fee,
		"has_location": h.DeliveryQuoter.HasLocation(location),
	})
}
