package alert

import (
	"context"
	"fmt"
	"time"
)

// 通知渠道
const (
	ChannelInApp = "IN_APP"
	ChannelEmail = "EMAIL"
)

// Notification 预警产生的站内通知
type Notification struct {
	ID        uint
	AlertID   uint
	ProductID uint
	Channel   string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// NewNotification 根据预警生成通知内容
func NewNotification(a *Alert, channel string) *Notification {
	return &Notification{
		AlertID:   a.ID,
		ProductID: a.ProductID,
		Channel:   channel,
		Title:     fmt.Sprintf("库存预警: %s", a.Type.Title()),
		Message: fmt.Sprintf("商品%d当前库存%d，阈值%d，请及时处理",
			a.ProductID, a.CurrentQuantity, a.Threshold),
		CreatedAt: time.Now(),
	}
}

// Title 预警类型的中文名
func (t Type) Title() string {
	switch t {
	case TypeLowStock:
		return "低库存"
	case TypeOutOfStock:
		return "缺货"
	case TypeOverstocked:
		return "超储"
	case TypeExpiringSoon:
		return "即将过期"
	case TypeExpired:
		return "已过期"
	default:
		return string(t)
	}
}

// NotificationRepository 通知仓储
type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
	ListRecent(ctx context.Context, limit int) ([]*Notification, error)
}
