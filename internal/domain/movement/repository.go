package movement

import (
	"context"
	"time"
)

// Repository 库存流水仓储接口(只追加)
// 没有Update/Delete方法，流水创建后不可修改
type Repository interface {
	// Append 追加一条流水，回填ID和CreatedAt
	Append(ctx context.Context, m *Movement) error

	// ListByProduct 按商品分页查询，最新在前
	ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*Movement, int64, error)

	// ListByActor 按操作人分页查询，最新在前
	ListByActor(ctx context.Context, actorID string, page, pageSize int) ([]*Movement, int64, error)

	// ListByDateRange 按时间区间查询 [from, to)
	ListByDateRange(ctx context.Context, from, to time.Time, page, pageSize int) ([]*Movement, int64, error)

	// Filter 组合条件查询，最新在前
	Filter(ctx context.Context, f Filter) ([]*Movement, int64, error)

	// CountByActor 操作人的流水条数
	CountByActor(ctx context.Context, actorID string) (int64, error)

	// SumSignedByProduct 商品全部流水的带符号变动量之和
	SumSignedByProduct(ctx context.Context, productID uint) (int, error)
}

// Filter 流水查询条件，零值字段不参与过滤
// 时间区间为 [From, To)
type Filter struct {
	ProductID uint
	ActorID   string
	Type      Type
	From      *time.Time
	To        *time.Time
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

// Validate 校验类型和时间区间
func (f *Filter) Validate() error {
	if f.Type != "" && !f.Type.Valid() {
		return ErrInvalidType
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return ErrInvalidDateRange
	}
	return nil
}

