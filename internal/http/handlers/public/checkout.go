package public

import (
	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
)

// OpenCheckoutRequest 创建结算会话请求：单品直购或购物车结算
type OpenCheckoutRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	FromCart  bool   `json:"from_cart"`
	Courier   string `json:"courier"`
}

// EditCheckoutRequest 编辑结算会话请求，未提供的字段保持不变
type EditCheckoutRequest struct {
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
	Courier  string  `json:"courier"`
}

// GeolocationRequest 定位请求
type GeolocationRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Label string   `json:"label"`
}

// OpenCheckout 创建结算会话
func (h *Handler) OpenCheckout(c *gin.Context) {
	var req OpenCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if !req.FromCart && req.ProductID == "" {
		respondError(c, response.CodeBadRequest, "error.checkout_empty", nil)
		return
	}
	identity := currentIdentity(c)
	owner := cartOwner(c)
	session, err := h.CheckoutService.Open(c.Request.Context(), service.OpenCheckoutInput{
		CustomerID:   identity.CustomerID(),
		CustomerName: identity.Name,
		Phone:        identity.Phone,
		CartToken:    owner.Token,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		FromCart:     req.FromCart,
		Courier:      req.Courier,
	})
	if err != nil {
		rules := concatMappedHandlerErrors(checkoutOpenExtraErrorRules, cartErrorRules, checkoutSessionErrorRules)
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.product_fetch_failed")
		return
	}
	response.Success(c, session.View())
}

// GetCheckout 获取结算会话
func (h *Handler) GetCheckout(c *gin.Context) {
	session, err := h.CheckoutService.Get(c.Param("id"), currentIdentity(c).CustomerID())
	if err != nil {
		respondWithMappedError(c, err, checkoutSessionErrorRules, response.CodeInternal, "error.checkout_not_found")
		return
	}
	response.Success(c, session.View())
}

// EditCheckout 编辑手机号、地址与配送方式
func (h *Handler) EditCheckout(c *gin.Context) {
	var req EditCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	customerID := currentIdentity(c).CustomerID()
	session, err := h.CheckoutService.Get(c.Param("id"), customerID)
	if err != nil {
		respondWithMappedError(c, err, checkoutSessionErrorRules, response.CodeInternal, "error.checkout_not_found")
		return
	}
	current := session.Input()
	input := service.EditCheckoutInput{Phone: current.Phone, Location: current.Location, Courier: req.Courier}
	if req.Phone != nil {
		input.Phone = *req.Phone
	}
	if req.Location != nil {
		input.Location = *req.Location
	}
	result, err := h.CheckoutService.Edit(session.ID(), customerID, input)
	if err != nil {
		respondWithMappedErrorData(c, err, checkoutSessionErrorRules, response.CodeInternal, "error.checkout_invalid", session.View())
		return
	}
	response.Success(c, gin.H{
		"result":  result,
		"session": session.View(),
	})
}

// ApplyCheckoutGeolocation 用定位结果填充空地址
func (h *Handler) ApplyCheckoutGeolocation(c *gin.Context) {
	var req GeolocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	customerID := currentIdentity(c).CustomerID()
	result, applied, err := h.CheckoutService.ApplyGeolocation(c.Request.Context(), c.Param("id"), customerID, service.GeolocationInput{
		Lat:   req.Lat,
		Lng:   req.Lng,
		Label: req.Label,
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutSessionErrorRules, response.CodeInternal, "error.checkout_invalid")
		return
	}
	session, err := h.CheckoutService.Get(c.Param("id"), customerID)
	if err != nil {
		respondWithMappedError(c, err, checkoutSessionErrorRules, response.CodeInternal, "error.checkout_not_found")
		return
	}
	response.Success(c, gin.H{
		"result":  result,
		"applied": applied,
		"session": session.View(),
	})
}

// SubmitCheckout 提交订单；失败时返回会话视图以便重试
func (h *Handler) SubmitCheckout(c *gin.Context) {
	view, err := h.CheckoutService.Submit(c.Request.Context(), c.Param("id"), currentIdentity(c).CustomerID())
	if err != nil {
		rules := concatMappedHandlerErrors(checkoutSubmitExtraErrorRules, checkoutSessionErrorRules)
		if view.ID == "" {
			respondWithMappedError(c, err, rules, response.CodeInternal, "error.order_create_failed")
			return
		}
		respondWithMappedErrorData(c, err, rules, response.CodeInternal, "error.order_create_failed", view)
		return
	}
	response.Success(c, view)
}

// CloseCheckout 关闭结算会话
func (h *Handler) CloseCheckout(c *gin.Context) {
	if err := h.CheckoutService.Close(c.Param("id"), currentIdentity(c).CustomerID()); err != nil {
		respondWithMappedError(c, err, checkoutSessionErrorRules, response.CodeInternal, "error.checkout_not_found")
		return
	}
	response.Success(c, gin.H{"closed": true})
}
