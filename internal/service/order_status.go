package service

import (
	"github.com/sokosnap/internal/constants"
)

// allowedTransitions 履约事件可驱动的状态迁移
var allowedTransitions = map[constants.OrderStatus]map[constants.OrderStatus]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusEscrowHeld: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusEscrowHeld: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusEscrowHeld: {
		constants.OrderStatusInTransit: true,
		constants.OrderStatusRefunded:  true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusInTransit: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusCompleted: true,
		constants.OrderStatusRefunded:  true,
	},
}

// 各角色可触发的目标状态，support 不受限
var roleAllowedTargets = map[string]map[constants.OrderStatus]bool{
	constants.RoleSeller: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusInTransit:  true,
		constants.OrderStatusCancelled:  true,
	},
	constants.RoleRider: {
		constants.OrderStatusInTransit: true,
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCompleted: true,
	},
}

func isTransitionAllowed(from, to constants.OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

func isRoleAllowedTarget(role string, to constants.OrderStatus) bool {
	if role == constants.RoleSupport {
		return true
	}
	targets, ok := roleAllowedTargets[role]
	if !ok {
		return false
	}
	return targets[to]
}
