package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ActionType 任务类型
const (
	ActionOrderFulfill     = "order_fulfill"     // 新订单自动发货
	ActionMarketplaceEvent = "marketplace_event" // 市场侧状态事件
)

// Envelope 队列任务信封
type Envelope struct {
	ActionType string `json:"action_type"`
	RequestID  string `json:"request_id,omitempty"`
	OrderID    string `json:"order_id"`
	Status     string `json:"status,omitempty"` // 仅 marketplace_event 使用
}

// ParseEnvelope 解析任务信封并校验必填字段
// RequestID 缺失时生成一个，保证链路日志可追踪
func ParseEnvelope(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}
	if envelope.ActionType == "" {
		return nil, fmt.Errorf("invalid job structure: action_type is empty")
	}
	if envelope.OrderID == "" {
		return nil, fmt.Errorf("invalid job structure: order_id is empty")
	}
	if envelope.RequestID == "" {
		envelope.RequestID = uuid.NewString()
	}
	return &envelope, nil
}
