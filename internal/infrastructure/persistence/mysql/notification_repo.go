package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/stockledger/internal/domain/alert"
)

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) alert.NotificationRepository {
	return &notificationRepository{db: db}
}

// Save 保存通知
func (r *notificationRepository) Save(ctx context.Context, n *alert.Notification) error {
	model := &NotificationModel{
		AlertID:   n.AlertID,
		ProductID: n.ProductID,
		Channel:   n.Channel,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return wrapStoreError(err, "保存通知失败")
	}
	n.ID = model.ID
	return nil
}

// ListRecent 最近的通知
func (r *notificationRepository) ListRecent(ctx context.Context, limit int) ([]*alert.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var models []NotificationModel
	if err := getDB(ctx, r.db).Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, wrapStoreError(err, "查询通知失败")
	}

	out := make([]*alert.Notification, len(models))
	for i, m := range models {
		out[i] = &alert.Notification{
			ID:        m.ID,
			AlertID:   m.AlertID,
			ProductID: m.ProductID,
			Channel:   m.Channel,
			Title:     m.Title,
			Message:   m.Message,
			IsRead:    m.IsRead,
			CreatedAt: m.CreatedAt,
		}
	}
	return out, nil
}
