package product

import (
	"context"

	"github.com/shopspring/decimal"

	apperrors "github.com/xiebiao/stockledger/pkg/errors"
)

// Product 商品目录中与库存相关的属性(存在性、启用状态、单价)
type Product struct {
	ID       uint
	SKU      string
	Name     string
	Price    decimal.Decimal
	IsActive bool
}

// Catalog 商品目录(外部协作方)
type Catalog interface {
	// GetProduct 查询商品，不存在返回ErrProductNotFound
	GetProduct(ctx context.Context, id uint) (*Product, error)

	// GetPrices 批量查询单价，不存在的商品不出现在结果中
	GetPrices(ctx context.Context, ids []uint) (map[uint]decimal.Decimal, error)
}

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = apperrors.New(apperrors.ErrCodeProductNotFound, "商品不存在")

	// ErrProductInactive 商品已停用
	ErrProductInactive = apperrors.New(apperrors.ErrCodeProductInactive, "商品已停用")
)

// EnsureActive 停用的商品不允许出入库
func (p *Product) EnsureActive() error {
	if !p.IsActive {
		return ErrProductInactive
	}
	return nil
}
