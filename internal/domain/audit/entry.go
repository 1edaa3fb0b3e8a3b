package audit

import (
	"context"
	"encoding/json"
	"time"
)

// 审计动作
const (
	ActionCreate         = "CREATE"
	ActionAddStock       = "ADD_STOCK"
	ActionRemoveStock    = "REMOVE_STOCK"
	ActionAdjustStock    = "ADJUST_STOCK"
	ActionUpdateSettings = "UPDATE_SETTINGS"
	ActionResolveAlert   = "RESOLVE_ALERT"
)

// 实体名
const (
	EntityInventory = "Inventory"
	EntityAlert     = "StockAlert"
)

// Entry 审计日志条目，before/after为JSON快照
type Entry struct {
	EntityName string          `json:"entity_name"`
	EntityID   uint            `json:"entity_id"`
	Action     string          `json:"action"`
	ActorID    string          `json:"actor_id"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewEntry 构造审计条目，before/after序列化失败时记为空
func NewEntry(entity string, id uint, action, actor string, before, after interface{}) Entry {
	return Entry{
		EntityName: entity,
		EntityID:   id,
		Action:     action,
		ActorID:    actor,
		OldValue:   snapshot(before),
		NewValue:   snapshot(after),
		CreatedAt:  time.Now(),
	}
}

func snapshot(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// Logger 审计日志(外部协作方)，失败只记录不影响主流程
type Logger interface {
	LogAction(ctx context.Context, e Entry) error
}
