// Package messaging 提交后副作用经RabbitMQ投递
//
// api进程把审计日志和预警通知发布为事件，worker进程消费后落库。
// 投递是至少一次：worker重复消费同一事件时会写入重复的审计行，
// 审计行只用于追溯，不参与库存计算。
package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xiebiao/stockledger/internal/domain/alert"
)

// Routing key
const (
	RoutingKeyAudit          = "inventory.audit"
	RoutingKeyAlertCreated   = "alert.created"
	RoutingKeyProductUpdated = "product.updated" // 商品目录方发布
)

// 事件类型
const (
	EventAuditRecorded  = "AuditRecorded"
	EventAlertCreated   = "AlertCreated"
	EventProductUpdated = "ProductUpdated"
)

// Event 消息信封
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEvent 生成带唯一ID的事件
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("事件序列化失败: %w", err)
	}
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Payload:    body,
	}, nil
}

// AlertPayload 预警创建事件的内容
type AlertPayload struct {
	AlertID         uint      `json:"alert_id"`
	ProductID       uint      `json:"product_id"`
	AlertType       string    `json:"alert_type"`
	CurrentQuantity int       `json:"current_quantity"`
	Threshold       int       `json:"threshold"`
	CreatedAt       time.Time `json:"created_at"`
}

func newAlertPayload(a *alert.Alert) AlertPayload {
	return AlertPayload{
		AlertID:         a.ID,
		ProductID:       a.ProductID,
		AlertType:       string(a.Type),
		CurrentQuantity: a.CurrentQuantity,
		Threshold:       a.Threshold,
		CreatedAt:       a.CreatedAt,
	}
}

func (p AlertPayload) toAlert() *alert.Alert {
	return &alert.Alert{
		ID:              p.AlertID,
		ProductID:       p.ProductID,
		Type:            alert.Type(p.AlertType),
		CurrentQuantity: p.CurrentQuantity,
		Threshold:       p.Threshold,
		CreatedAt:       p.CreatedAt,
	}
}

// ProductPayload 商品变更事件的内容，只关心商品ID
type ProductPayload struct {
	ProductID uint `json:"product_id"`
}
