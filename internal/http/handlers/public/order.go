package public

import (
	"strings"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/http/response"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderEventRequest 履约事件请求
type OrderEventRequest struct {
	Status      string `json:"status" binding:"required"`
	ReleaseCode string `json:"release_code"`
	RiderID     string `json:"rider_id"`
	RiderName   string `json:"rider_name"`
	Note        string `json:"note"`
}

// ListMyOrders 买家订单历史，按 ongoing/completed 分组
func (h *Handler) ListMyOrders(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var phase constants.OrderPhase
	if raw := strings.TrimSpace(c.Query("phase")); raw != "" {
		parsed, valid := constants.ParseOrderPhase(raw)
		if !valid {
			respondError(c, response.CodeBadRequest, "error.order_phase_invalid", nil)
			return
		}
		phase = parsed
	}
	orders := h.OrderService.ListOrderHistory(c.Request.Context(), identity.UserID, phase)
	response.Success(c, gin.H{
		"phase": phase,
		"items": orders,
	})
}

// GetMyOrder 订单详情；买家只能查看自己的订单，卖家与骑手可查看关联订单
func (h *Handler) GetMyOrder(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	orderID := c.Param("id")
	var (
		order *models.Order
		err   error
	)
	if identity.Role == constants.RoleBuyer {
		order, err = h.OrderService.GetOrderForCustomer(c.Request.Context(), orderID, identity.UserID)
	} else {
		order, err = h.OrderService.GetOrder(c.Request.Context(), orderID)
		if err == nil && !canViewOrder(order, identity) {
			err = service.ErrOrderNotFound
		}
	}
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// PostOrderEvent 卖家、骑手或客服推进订单状态
func (h *Handler) PostOrderEvent(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req OrderEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.FulfillmentService.Apply(c.Request.Context(), c.Param("id"), service.FulfillmentEventInput{
		Status:      req.Status,
		ReleaseCode: req.ReleaseCode,
		RiderID:     req.RiderID,
		RiderName:   req.RiderName,
		ActorID:     identity.UserID,
		ActorRole:   identity.Role,
		Note:        req.Note,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

func canViewOrder(order *models.Order, identity service.Identity) bool {
	if order == nil {
		return false
	}
	switch identity.Role {
	case constants.RoleSupport:
		return true
	case constants.RoleSeller:
		if order.SellerID == identity.UserID {
			return true
		}
	case constants.RoleRider:
		if order.RiderID == identity.UserID {
			return true
		}
	}
	return order.CustomerID == identity.UserID
}
