package alerting

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/domain/alert"
)

// ChannelNotifier 按渠道投递预警通知
// 站内通知写入通知表；邮件不在本服务内投递，只记一条日志
type ChannelNotifier struct {
	notifications alert.NotificationRepository
	channels      []string
	logger        *zap.Logger
}

// NewNotifier 创建通知器，channels为空时只发站内通知
func NewNotifier(notifications alert.NotificationRepository, channels []string, logger *zap.Logger) *ChannelNotifier {
	if len(channels) == 0 {
		channels = []string{alert.ChannelInApp}
	}
	return &ChannelNotifier{notifications: notifications, channels: channels, logger: logger}
}

// Notify 实现alert.Notifier
func (n *ChannelNotifier) Notify(ctx context.Context, a *alert.Alert) error {
	for _, channel := range n.channels {
		msg := alert.NewNotification(a, channel)
		switch channel {
		case alert.ChannelInApp:
			if err := n.notifications.Save(ctx, msg); err != nil {
				return fmt.Errorf("保存站内通知失败: %w", err)
			}
		case alert.ChannelEmail:
			n.logger.Info("发送邮件通知",
				zap.Uint("alert_id", a.ID),
				zap.Uint("product_id", a.ProductID),
				zap.String("title", msg.Title),
				zap.String("message", msg.Message),
			)
		default:
			n.logger.Warn("未知通知渠道", zap.String("channel", channel))
		}
	}
	return nil
}
