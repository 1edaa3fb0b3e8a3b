package alert

import (
	"context"
)

// Repository 预警仓储接口
type Repository interface {
	// Create 创建未解除预警，同类型未解除预警已存在时返回ErrDuplicateOpenAlert
	Create(ctx context.Context, a *Alert) error

	// FindByID 根据ID查找
	FindByID(ctx context.Context, id uint) (*Alert, error)

	// FindUnresolvedByProduct 商品的全部未解除预警
	FindUnresolvedByProduct(ctx context.Context, productID uint) ([]*Alert, error)

	// ExistsUnresolved 是否存在指定类型的未解除预警
	ExistsUnresolved(ctx context.Context, productID uint, t Type) (bool, error)

	// Resolve 条件更新：仅当预警仍未解除时写入解除信息
	// 返回false表示已被其他请求解除
	Resolve(ctx context.Context, a *Alert) (bool, error)

	// ListUnresolved 分页查询未解除预警，最新在前
	ListUnresolved(ctx context.Context, page, pageSize int) ([]*Alert, int64, error)

	// CountUnresolved 未解除预警数量
	CountUnresolved(ctx context.Context) (int64, error)

	// Filter 组合条件查询
	Filter(ctx context.Context, f Filter) ([]*Alert, int64, error)
}

// Filter 预警查询条件，零值字段不参与过滤
type Filter struct {
	Type      Type
	Resolved  *bool
	ProductID uint
	Page      int
	PageSize  int
}

// Normalize 规范化分页参数
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

// Notifier 预警通知(邮件/站内信)，尽力而为
type Notifier interface {
	Notify(ctx context.Context, a *Alert) error
}
