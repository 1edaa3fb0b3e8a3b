package inventory

import (
	"time"
)

// Record 库存记录(聚合根)
// 1. 与商品一对一，ProductID不可变且唯一
// 2. QuantityAvailable只能通过入库/出库/盘点调整修改，永不为负
// 3. Version是乐观锁版本号，每次成功写入加1
// 4. 不做物理删除，停用时IsActive=false
type Record struct {
	ID                   uint
	ProductID            uint
	QuantityAvailable    int
	MinStockLevel        int
	MaxStockLevel        int
	ReorderPoint         int
	ReorderQuantity      int
	Location             string
	BinNumber            string
	RackNumber           string
	LowStockAlertEnabled bool
	IsActive             bool
	LastRestockDate      *time.Time
	LastSaleDate         *time.Time
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Defaults 新建库存记录时的默认阈值
type Defaults struct {
	MinStockLevel   int `mapstructure:"min_stock_level"`
	MaxStockLevel   int `mapstructure:"max_stock_level"`
	ReorderPoint    int `mapstructure:"reorder_point"`
	ReorderQuantity int `mapstructure:"reorder_quantity"`
}

// DefaultThresholds 未配置时使用的阈值
var DefaultThresholds = Defaults{
	MinStockLevel:   10,
	MaxStockLevel:   1000,
	ReorderPoint:    20,
	ReorderQuantity: 50,
}

// NewRecord 商品进入目录时创建库存记录，初始数量为0
func NewRecord(productID uint, d Defaults) *Record {
	now := time.Now()
	return &Record{
		ProductID:            productID,
		QuantityAvailable:    0,
		MinStockLevel:        d.MinStockLevel,
		MaxStockLevel:        d.MaxStockLevel,
		ReorderPoint:         d.ReorderPoint,
		ReorderQuantity:      d.ReorderQuantity,
		LowStockAlertEnabled: true,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Clone 复制一份快照(审计before/after用)
func (r *Record) Clone() *Record {
	c := *r
	if r.LastRestockDate != nil {
		t := *r.LastRestockDate
		c.LastRestockDate = &t
	}
	if r.LastSaleDate != nil {
		t := *r.LastSaleDate
		c.LastSaleDate = &t
	}
	return &c
}

// Increase 入库：数量增加并刷新最近补货时间
func (r *Record) Increase(quantity int, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	r.QuantityAvailable += quantity
	r.LastRestockDate = &now
	r.UpdatedAt = now
	return nil
}

// Decrease 出库：库存不足时返回*InsufficientStockError
func (r *Record) Decrease(quantity int, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if r.QuantityAvailable < quantity {
		return NewInsufficientStockError(r.ProductID, r.QuantityAvailable, quantity)
	}
	r.QuantityAvailable -= quantity
	r.LastSaleDate = &now
	r.UpdatedAt = now
	return nil
}

// SetQuantity 盘点调整：直接设为目标值
func (r *Record) SetQuantity(newQuantity int, now time.Time) error {
	if newQuantity < 0 {
		return ErrNegativeQuantity
	}
	r.QuantityAvailable = newQuantity
	r.UpdatedAt = now
	return nil
}

// EnsureActive 停用的库存记录不允许出入库
func (r *Record) EnsureActive() error {
	if !r.IsActive {
		return ErrInventoryInactive
	}
	return nil
}

// NeedsReorder 是否达到补货点
func (r *Record) NeedsReorder() bool {
	return r.QuantityAvailable <= r.ReorderPoint
}

// Settings 库存设置(部分更新，nil字段不修改)
type Settings struct {
	MinStockLevel        *int
	MaxStockLevel        *int
	ReorderPoint         *int
	ReorderQuantity      *int
	Location             *string
	BinNumber            *string
	RackNumber           *string
	LowStockAlertEnabled *bool
	IsActive             *bool
}

// ApplySettings 应用设置，不触碰数量
// 返回值表示是否需要重新评估预警：阈值或预警开关变化，或记录被重新启用
// (停用期间的阈值修改不评估，启用时一并补上)
func (r *Record) ApplySettings(s Settings, now time.Time) (bool, error) {
	next := *r
	setInt := func(dst *int, v *int) error {
		if v == nil {
			return nil
		}
		if *v < 0 {
			return ErrNegativeThreshold
		}
		*dst = *v
		return nil
	}

	for _, p := range []struct {
		dst *int
		v   *int
	}{
		{&next.MinStockLevel, s.MinStockLevel},
		{&next.MaxStockLevel, s.MaxStockLevel},
		{&next.ReorderPoint, s.ReorderPoint},
		{&next.ReorderQuantity, s.ReorderQuantity},
	} {
		if err := setInt(p.dst, p.v); err != nil {
			return false, err
		}
	}
	if next.MinStockLevel > next.MaxStockLevel {
		return false, ErrThresholdRange
	}

	if s.Location != nil {
		next.Location = *s.Location
	}
	if s.BinNumber != nil {
		next.BinNumber = *s.BinNumber
	}
	if s.RackNumber != nil {
		next.RackNumber = *s.RackNumber
	}
	if s.LowStockAlertEnabled != nil {
		next.LowStockAlertEnabled = *s.LowStockAlertEnabled
	}
	if s.IsActive != nil {
		next.IsActive = *s.IsActive
	}

	changed := next.MinStockLevel != r.MinStockLevel ||
		next.MaxStockLevel != r.MaxStockLevel ||
		next.LowStockAlertEnabled != r.LowStockAlertEnabled ||
		(!r.IsActive && next.IsActive)

	next.UpdatedAt = now
	*r = next
	return changed, nil
}
