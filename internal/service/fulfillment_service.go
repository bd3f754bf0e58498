package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/repository"
)

// FulfillmentEventInput 外部履约事件（卖家/骑手/客服）
type FulfillmentEventInput struct {
	Status      string
	ReleaseCode string
	RiderID     string
	RiderName   string
	ActorID     string
	ActorRole   string
	Note        string
}

// FulfillmentEventService 履约事件服务：订单创建后状态的唯一变更入口
type FulfillmentEventService struct {
	orderRepo repository.OrderRepository
}

// NewFulfillmentEventService 创建履约事件服务
func NewFulfillmentEventService(orderRepo repository.OrderRepository) *FulfillmentEventService {
	return &FulfillmentEventService{orderRepo: orderRepo}
}

// Apply 应用履约事件
func (s *FulfillmentEventService) Apply(ctx context.Context, orderID string, input FulfillmentEventInput) (*models.Order, error) {
	target, err := constants.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, ErrFulfillmentEvent
	}
	order, err := s.orderRepo.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	role := strings.ToLower(strings.TrimSpace(input.ActorRole))
	if !isRoleAllowedTarget(role, target) {
		return nil, ErrForbidden
	}
	if err := checkFulfillmentActor(order, role, strings.TrimSpace(input.ActorID)); err != nil {
		return nil, err
	}
	if !isTransitionAllowed(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{}
	riderID := strings.TrimSpace(input.RiderID)
	riderName := strings.TrimSpace(input.RiderName)
	if role == constants.RoleRider && riderID == "" {
		riderID = strings.TrimSpace(input.ActorID)
	}
	if riderID != "" {
		updates["rider_id"] = riderID
		if riderName != "" {
			updates["rider_name"] = riderName
		}
	}

	switch target {
	case constants.OrderStatusEscrowHeld:
		if order.EscrowRef == "" {
			updates["escrow_ref"] = generateEscrowRef()
		}
	case constants.OrderStatusInTransit:
		if riderID == "" && order.RiderID == "" {
			return nil, ErrRiderRequired
		}
	case constants.OrderStatusCompleted:
		if err := verifyReleaseCode(order, input.ReleaseCode); err != nil {
			return nil, err
		}
		updates["completed_at"] = now
	case constants.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	applied, err := s.orderRepo.TransitionStatus(ctx, order.ID, order.Status, target, updates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if !applied {
		return nil, ErrOrderStatusInvalid
	}
	logger.Infow("order_status_transitioned",
		"order_id", order.ID,
		"from", string(order.Status),
		"to", string(target),
		"actor_id", input.ActorID,
		"actor_role", role,
		"note", input.Note,
	)

	updated, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}
	return updated, nil
}

// checkFulfillmentActor 卖家只能操作自己的订单；已指派骑手的订单只允许该骑手操作
func checkFulfillmentActor(order *models.Order, role, actorID string) error {
	switch role {
	case constants.RoleSupport:
		return nil
	case constants.RoleSeller:
		if order.SellerID == "" || order.SellerID != actorID {
			return ErrForbidden
		}
	case constants.RoleRider:
		if order.RiderID != "" && order.RiderID != actorID {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}
