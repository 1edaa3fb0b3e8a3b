package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/stockledger/internal/domain/audit"
)

// auditLogger 审计日志直接写表
// 未启用消息队列时由副作用工作池调用；启用时由worker消费事件后调用
type auditLogger struct {
	db *gorm.DB
}

// NewAuditLogger 创建审计日志写入器
func NewAuditLogger(db *gorm.DB) audit.Logger {
	return &auditLogger{db: db}
}

// LogAction 写入一条审计日志
func (l *auditLogger) LogAction(ctx context.Context, e audit.Entry) error {
	model := &AuditLogModel{
		EntityName: e.EntityName,
		EntityID:   e.EntityID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		OldValue:   string(e.OldValue),
		NewValue:   string(e.NewValue),
		CreatedAt:  e.CreatedAt,
	}
	if err := getDB(ctx, l.db).Create(model).Error; err != nil {
		return wrapStoreError(err, "写入审计日志失败")
	}
	return nil
}
