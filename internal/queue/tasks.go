package queue

import (
	"encoding/json"

	"github.com/sokosnap/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderEscrowTimeout 托管超时取消任务
	TaskOrderEscrowTimeout = constants.TaskOrderEscrowTimeout
	// TaskFeedInvalidate 信息流缓存失效任务
	TaskFeedInvalidate = constants.TaskFeedInvalidate
)

// OrderEscrowTimeoutPayload 托管超时取消任务载荷
type OrderEscrowTimeoutPayload struct {
	OrderID string `json:"order_id"`
}

// FeedInvalidatePayload 信息流缓存失效任务载荷
type FeedInvalidatePayload struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

// NewOrderEscrowTimeoutTask 创建托管超时取消任务
func NewOrderEscrowTimeoutTask(payload OrderEscrowTimeoutPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderEscrowTimeout, body), nil
}

// NewFeedInvalidateTask 创建信息流缓存失效任务
func NewFeedInvalidateTask(payload FeedInvalidatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFeedInvalidate, body), nil
}
