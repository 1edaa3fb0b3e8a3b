package alert

import (
	"time"

	"github.com/xiebiao/stockledger/internal/domain/inventory"
)

// AutoResolveNote 自动解除时写入的备注
const AutoResolveNote = "库存水平已恢复正常"

// Type 预警类型
type Type string

const (
	TypeLowStock     Type = "LOW_STOCK"
	TypeOutOfStock   Type = "OUT_OF_STOCK"
	TypeOverstocked  Type = "OVERSTOCKED"
	TypeExpiringSoon Type = "EXPIRING_SOON"
	TypeExpired      Type = "EXPIRED"
)

// Valid 是否为已知类型
func (t Type) Valid() bool {
	switch t {
	case TypeLowStock, TypeOutOfStock, TypeOverstocked, TypeExpiringSoon, TypeExpired:
		return true
	}
	return false
}

// Alert 库存预警
// 同一(ProductID, Type)同时最多一条未解除的预警；
// 解除后不可再修改，作为历史保留
type Alert struct {
	ID              uint
	ProductID       uint
	Type            Type
	CurrentQuantity int // 创建时的库存数量
	Threshold       int // 创建时的阈值(低库存/缺货为min，超储为max)
	IsResolved      bool
	ResolvedAt      *time.Time
	ResolvedBy      string
	Notes           string
	CreatedAt       time.Time
}

// Resolve 标记为已解除，已解除的预警返回false
func (a *Alert) Resolve(by, notes string, now time.Time) bool {
	if a.IsResolved {
		return false
	}
	a.IsResolved = true
	a.ResolvedAt = &now
	a.ResolvedBy = by
	a.Notes = notes
	return true
}

// Classify 按当前数量判定应处于的预警类型
//   - 数量为0       → OUT_OF_STOCK(阈值min)
//   - 数量<=min     → LOW_STOCK(阈值min)
//   - 数量>max      → OVERSTOCKED(阈值max)
//
// 预警关闭或数量正常时ok为false。
// EXPIRING_SOON/EXPIRED依赖批次效期数据，不在这里判定
func Classify(r *inventory.Record) (t Type, threshold int, ok bool) {
	if !r.LowStockAlertEnabled {
		return "", 0, false
	}

	q := r.QuantityAvailable
	switch {
	case q == 0:
		return TypeOutOfStock, r.MinStockLevel, true
	case q <= r.MinStockLevel:
		return TypeLowStock, r.MinStockLevel, true
	case q > r.MaxStockLevel:
		return TypeOverstocked, r.MaxStockLevel, true
	}
	return "", 0, false
}

// ShouldAutoResolve 当前数量是否已回到该预警的正常区间
func ShouldAutoResolve(a *Alert, r *inventory.Record) bool {
	switch a.Type {
	case TypeLowStock, TypeOutOfStock:
		return r.QuantityAvailable > r.MinStockLevel
	case TypeOverstocked:
		return r.QuantityAvailable <= r.MaxStockLevel
	}
	return false
}
