package mysql

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xiebiao/stockledger/internal/domain/product"
)

// productCatalog 商品目录(products表)
type productCatalog struct {
	db *gorm.DB
}

// NewProductCatalog 创建商品目录
func NewProductCatalog(db *gorm.DB) product.Catalog {
	return &productCatalog{db: db}
}

// GetProduct 查询商品
func (c *productCatalog) GetProduct(ctx context.Context, id uint) (*product.Product, error) {
	var model ProductModel
	if err := getDB(ctx, c.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, wrapStoreError(err, "查询商品失败")
	}
	return &product.Product{
		ID:       model.ID,
		SKU:      model.SKU,
		Name:     model.Name,
		Price:    model.Price,
		IsActive: model.IsActive,
	}, nil
}

// GetPrices 批量查询单价
func (c *productCatalog) GetPrices(ctx context.Context, ids []uint) (map[uint]decimal.Decimal, error) {
	prices := make(map[uint]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	var models []ProductModel
	if err := getDB(ctx, c.db).Select("id", "price").Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, wrapStoreError(err, "查询商品价格失败")
	}
	for _, m := range models {
		prices[m.ID] = m.Price
	}
	return prices, nil
}
