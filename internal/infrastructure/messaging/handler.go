package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/application/alerting"
	"github.com/xiebiao/stockledger/internal/domain/alert"
	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/pkg/mq"
)

// ProductCache 商品缓存失效
type ProductCache interface {
	Invalidate(ctx context.Context, productID uint) error
}

// EventHandler worker端的事件处理
type EventHandler struct {
	auditLog audit.Logger
	notifier alert.Notifier
	cache    ProductCache
	logger   *zap.Logger
}

// NewEventHandler 创建事件处理器，channels为空时只发站内通知
func NewEventHandler(auditLog audit.Logger, notifications alert.NotificationRepository, channels []string, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		auditLog: auditLog,
		notifier: alerting.NewNotifier(notifications, channels, logger),
		logger:   logger,
	}
}

// WithProductCache 商品变更时删除缓存，不设置则忽略商品事件
func (h *EventHandler) WithProductCache(cache ProductCache) *EventHandler {
	h.cache = cache
	return h
}

// Handle 处理一条消息，返回错误时消息被Nack
func (h *EventHandler) Handle(ctx context.Context, d mq.Delivery) error {
	var event Event
	if err := json.Unmarshal(d.Body, &event); err != nil {
		// 格式错误重试也不会成功，直接确认
		h.logger.Error("事件格式错误，丢弃", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		return nil
	}

	switch event.Type {
	case EventAuditRecorded:
		return h.handleAudit(ctx, &event)
	case EventAlertCreated:
		return h.handleAlert(ctx, &event)
	case EventProductUpdated:
		return h.handleProductUpdated(ctx, &event)
	default:
		h.logger.Warn("未知事件类型", zap.String("type", event.Type), zap.String("event_id", event.ID))
		return nil
	}
}

func (h *EventHandler) handleAudit(ctx context.Context, event *Event) error {
	var entry audit.Entry
	if err := json.Unmarshal(event.Payload, &entry); err != nil {
		h.logger.Error("审计事件内容错误", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	if err := h.auditLog.LogAction(ctx, entry); err != nil {
		return fmt.Errorf("写入审计日志失败: %w", err)
	}
	return nil
}

func (h *EventHandler) handleAlert(ctx context.Context, event *Event) error {
	var payload AlertPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		h.logger.Error("预警事件内容错误", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	a := payload.toAlert()

	if err := h.notifier.Notify(ctx, a); err != nil {
		return err
	}
	h.logger.Info("预警通知已处理", zap.Uint("alert_id", a.ID), zap.String("type", string(a.Type)))
	return nil
}

func (h *EventHandler) handleProductUpdated(ctx context.Context, event *Event) error {
	if h.cache == nil {
		return nil
	}
	var payload ProductPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil || payload.ProductID == 0 {
		h.logger.Error("商品事件内容错误", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	if err := h.cache.Invalidate(ctx, payload.ProductID); err != nil {
		return err
	}
	h.logger.Debug("商品缓存已失效", zap.Uint("product_id", payload.ProductID))
	return nil
}
