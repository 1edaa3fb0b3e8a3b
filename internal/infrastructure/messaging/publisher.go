package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/domain/alert"
	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/pkg/circuitbreaker"
)

// Publisher 消息发布(*mq.Publisher)
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// eventPublisher 熔断保护下发布事件
// Broker故障时快速失败，副作用工作池记录失败后继续处理后续任务
type eventPublisher struct {
	pub     Publisher
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func (p *eventPublisher) publish(ctx context.Context, routingKey, eventType string, payload interface{}) error {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}

	err = p.breaker.Execute(func() error {
		return p.pub.Publish(ctx, routingKey, event)
	})
	if err != nil {
		p.logger.Warn("事件发布失败",
			zap.String("event_id", event.ID),
			zap.String("type", eventType),
			zap.String("breaker", p.breaker.State().String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// AuditPublisher 把审计日志发布为事件，实现audit.Logger
type AuditPublisher struct {
	eventPublisher
}

// NewAuditPublisher 创建审计事件发布者
func NewAuditPublisher(pub Publisher, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *AuditPublisher {
	return &AuditPublisher{eventPublisher{pub: pub, breaker: breaker, logger: logger}}
}

// LogAction 发布审计事件
func (p *AuditPublisher) LogAction(ctx context.Context, e audit.Entry) error {
	return p.publish(ctx, RoutingKeyAudit, EventAuditRecorded, e)
}

// AlertPublisher 把新预警发布为事件，实现alert.Notifier
type AlertPublisher struct {
	eventPublisher
}

// NewAlertPublisher 创建预警事件发布者
func NewAlertPublisher(pub Publisher, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *AlertPublisher {
	return &AlertPublisher{eventPublisher{pub: pub, breaker: breaker, logger: logger}}
}

// Notify 发布预警创建事件
func (p *AlertPublisher) Notify(ctx context.Context, a *alert.Alert) error {
	return p.publish(ctx, RoutingKeyAlertCreated, EventAlertCreated, newAlertPayload(a))
}

var (
	_ audit.Logger   = (*AuditPublisher)(nil)
	_ alert.Notifier = (*AlertPublisher)(nil)
)
