package inventory

import (
	"context"
)

// Repository 库存记录仓储接口
// 所有写操作都以读取时的版本号为条件(compare-and-swap)，
// 仓储实现从ctx中取出事务(如果有)
type Repository interface {
	// Create 创建库存记录，商品已有记录时返回ErrAlreadyProvisioned
	Create(ctx context.Context, r *Record) error

	// FindByID 根据ID查找
	FindByID(ctx context.Context, id uint) (*Record, error)

	// FindByProductID 根据商品ID查找
	FindByProductID(ctx context.Context, productID uint) (*Record, error)

	// Update 条件写入：WHERE version = expectedVersion AND quantity_available + delta >= 0
	// 数量以 quantity_available + delta 的方式在语句内计算，其余字段取r中的值，version加1。
	// 影响0行时重新读取区分：
	//   - 记录不存在 → ErrInventoryNotFound
	//   - 版本已变化 → ErrConcurrencyConflict
	//   - 否则       → *InsufficientStockError
	// 成功后r.Version更新为expectedVersion+1
	Update(ctx context.Context, r *Record, expectedVersion int64, delta int) error

	// List 分页查询
	List(ctx context.Context, params ListParams) ([]*Record, int64, error)

	// ListLowStock 低库存：quantity_available <= min_stock_level 且启用
	ListLowStock(ctx context.Context) ([]*Record, error)

	// ListOutOfStock 缺货：quantity_available = 0 且启用
	ListOutOfStock(ctx context.Context) ([]*Record, error)

	// ListOverstocked 超储：quantity_available > max_stock_level 且启用
	ListOverstocked(ctx context.Context) ([]*Record, error)

	// CountLowStock 低库存数量
	CountLowStock(ctx context.Context) (int64, error)

	// CountOutOfStock 缺货数量
	CountOutOfStock(ctx context.Context) (int64, error)

	// ListActive 所有启用的记录(计算库存总值)
	ListActive(ctx context.Context) ([]*Record, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page       int    // 页码(从1开始)
	PageSize   int    // 每页数量
	Location   string // 库位过滤(精确匹配)，空表示不过滤
	ActiveOnly bool   // 只查启用的记录
}

// Normalize 规范化分页参数
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
}
