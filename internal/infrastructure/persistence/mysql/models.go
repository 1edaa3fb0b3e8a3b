package mysql

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel 商品目录(只读取库存需要的字段)
type ProductModel struct {
	ID        uint            `gorm:"primaryKey"`
	SKU       string          `gorm:"uniqueIndex;size:64;not null;comment:SKU"`
	Name      string          `gorm:"size:200;not null;comment:商品名称"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:单价"`
	IsActive  bool            `gorm:"index;not null;comment:是否启用"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (ProductModel) TableName() string {
	return "products"
}

// InventoryModel 库存记录
// 1. ProductID唯一，与商品一对一
// 2. Version乐观锁版本号，只通过条件UPDATE递增
// 3. 布尔字段不设default，否则GORM会把false当零值替换成默认值
type InventoryModel struct {
	ID                   uint       `gorm:"primaryKey"`
	ProductID            uint       `gorm:"uniqueIndex;not null;comment:商品ID"`
	QuantityAvailable    int        `gorm:"not null;default:0;comment:可用数量"`
	MinStockLevel        int        `gorm:"not null;comment:最低库存"`
	MaxStockLevel        int        `gorm:"not null;comment:最高库存"`
	ReorderPoint         int        `gorm:"not null;comment:补货点"`
	ReorderQuantity      int        `gorm:"not null;comment:补货量"`
	Location             string     `gorm:"index;size:100;comment:库位"`
	BinNumber            string     `gorm:"size:50;comment:货格"`
	RackNumber           string     `gorm:"size:50;comment:货架"`
	LowStockAlertEnabled bool       `gorm:"not null;comment:是否开启预警"`
	IsActive             bool       `gorm:"index;not null;comment:是否启用"`
	LastRestockDate      *time.Time `gorm:"comment:最近补货时间"`
	LastSaleDate         *time.Time `gorm:"comment:最近出库时间"`
	Version              int64      `gorm:"not null;default:0;comment:乐观锁版本号"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName 指定表名
func (InventoryModel) TableName() string {
	return "inventories"
}

// MovementModel 库存流水(只追加)
type MovementModel struct {
	ID               uint      `gorm:"primaryKey"`
	ProductID        uint      `gorm:"index:idx_product_time,priority:1;not null;comment:商品ID"`
	ActorID          string    `gorm:"index;size:64;not null;comment:操作人"`
	Type             string    `gorm:"size:20;not null;comment:类型(IN/OUT/ADJUSTMENT)"`
	Reason           string    `gorm:"size:32;not null;comment:原因"`
	Quantity         int       `gorm:"not null;comment:变动数量"`
	PreviousQuantity int       `gorm:"not null;comment:变动前数量"`
	NewQuantity      int       `gorm:"not null;comment:变动后数量"`
	Notes            string    `gorm:"size:500;comment:备注"`
	ReferenceNumber  string    `gorm:"index;size:64;comment:参考号"`
	CreatedAt        time.Time `gorm:"index:idx_product_time,priority:2;index;comment:创建时间"`
}

// TableName 指定表名
func (MovementModel) TableName() string {
	return "stock_movements"
}

// AlertModel 库存预警
// uk_open_alert保证同一(商品, 类型)最多一条未解除预警：
// 未解除时OpenSlot=1，解除时置NULL(唯一索引不比较NULL)
type AlertModel struct {
	ID              uint       `gorm:"primaryKey"`
	ProductID       uint       `gorm:"uniqueIndex:uk_open_alert,priority:1;not null;comment:商品ID"`
	AlertType       string     `gorm:"uniqueIndex:uk_open_alert,priority:2;size:20;not null;comment:预警类型"`
	OpenSlot        *int8      `gorm:"uniqueIndex:uk_open_alert,priority:3;comment:未解除标记"`
	CurrentQuantity int        `gorm:"not null;comment:创建时数量"`
	Threshold       int        `gorm:"not null;comment:阈值"`
	IsResolved      bool       `gorm:"index;not null;comment:是否已解除"`
	ResolvedAt      *time.Time `gorm:"comment:解除时间"`
	ResolvedBy      string     `gorm:"size:64;comment:解除人"`
	Notes           string     `gorm:"size:500;comment:备注"`
	CreatedAt       time.Time  `gorm:"index;comment:创建时间"`
}

// TableName 指定表名
func (AlertModel) TableName() string {
	return "stock_alerts"
}

// AuditLogModel 审计日志
type AuditLogModel struct {
	ID         uint      `gorm:"primaryKey"`
	EntityName string    `gorm:"index:idx_entity,priority:1;size:50;not null;comment:实体名"`
	EntityID   uint      `gorm:"index:idx_entity,priority:2;not null;comment:实体ID"`
	Action     string    `gorm:"size:32;not null;comment:动作"`
	ActorID    string    `gorm:"index;size:64;comment:操作人"`
	OldValue   string    `gorm:"type:text;comment:变更前(JSON)"`
	NewValue   string    `gorm:"type:text;comment:变更后(JSON)"`
	CreatedAt  time.Time `gorm:"index;comment:创建时间"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// NotificationModel 站内通知
type NotificationModel struct {
	ID        uint      `gorm:"primaryKey"`
	AlertID   uint      `gorm:"index;not null;comment:预警ID"`
	ProductID uint      `gorm:"index;not null;comment:商品ID"`
	Channel   string    `gorm:"size:20;not null;comment:渠道"`
	Title     string    `gorm:"size:200;not null;comment:标题"`
	Message   string    `gorm:"size:1000;comment:内容"`
	IsRead    bool      `gorm:"not null;comment:是否已读"`
	CreatedAt time.Time `gorm:"index;comment:创建时间"`
}

// TableName 指定表名
func (NotificationModel) TableName() string {
	return "notifications"
}
