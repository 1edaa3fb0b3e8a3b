package stock

import (
	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/internal/domain/movement"
)

// MovementCommand 入库/出库请求
type MovementCommand struct {
	ProductID       uint
	Quantity        int             // 必须>=1
	Reason          movement.Reason // 业务原因
	Notes           string
	ActorID         string // 已解析的操作人，空表示system
	ReferenceNumber string // 外部单号(采购单/销售单)，空时自动生成
}

// AdjustCommand 盘点调整请求
type AdjustCommand struct {
	ProductID       uint
	NewQuantity     int // 目标数量，必须>=0
	Reason          movement.Reason
	Notes           string
	ActorID         string
	ReferenceNumber string
}

// SettingsCommand 库存设置更新请求
type SettingsCommand struct {
	ProductID uint
	Settings  inventory.Settings
	ActorID   string
}
