package public

import (
	"strings"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartItemRequest 加入购物车请求
type CartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// CartQuantityRequest 修改数量请求
type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.CartService.Get(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_fetch_failed")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加入购物车；游客首次加购时签发购物车令牌
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	owner := cartOwner(c)
	if owner.IsGuest() && strings.TrimSpace(owner.Token) == "" {
		owner.Token = uuid.NewString()
	}
	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}
	view, err := h.CartService.AddItem(c.Request.Context(), owner, req.ProductID, qty)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	if owner.IsGuest() {
		c.Header(constants.CartTokenHeader, owner.Token)
	}
	response.Success(c, cartResponse(view, owner))
}

// UpdateCartItem 修改购物车数量，数量为 0 时移除
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req CartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	owner := cartOwner(c)
	view, err := h.CartService.UpdateQuantity(c.Request.Context(), owner, c.Param("product_id"), req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, cartResponse(view, owner))
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	owner := cartOwner(c)
	view, err := h.CartService.RemoveItem(c.Request.Context(), owner, c.Param("product_id"))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, cartResponse(view, owner))
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.CartService.Clear(c.Request.Context(), cartOwner(c)); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.cart_update_failed")
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

func cartResponse(view *service.CartView, owner service.CartOwner) gin.H {
	data := gin.H{
		"lines":  view.Lines,
		"totals": view.Totals,
	}
	if owner.IsGuest() && owner.Token != "" {
		data["cart_token"] = owner.Token
	}
	return data
}
