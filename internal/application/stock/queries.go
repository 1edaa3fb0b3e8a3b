package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/internal/domain/movement"
)

// GetByProduct 按商品查询库存记录
func (s *Service) GetByProduct(ctx context.Context, productID uint) (*inventory.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.records.FindByProductID(ctx, productID)
}

// GetByID 按ID查询库存记录
func (s *Service) GetByID(ctx context.Context, id uint) (*inventory.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.records.FindByID(ctx, id)
}

// List 分页查询
func (s *Service) List(ctx context.Context, params inventory.ListParams) ([]*inventory.Record, int64, error) {
	params.Normalize()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.records.List(ctx, params)
}

// ListLowStock 低库存(含缺货)
func (s *Service) ListLowStock(ctx context.Context) ([]*inventory.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.records.ListLowStock(ctx)
}

// ListOutOfStock 缺货
func (s *Service) ListOutOfStock(ctx context.Context) ([]*inventory.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.records.ListOutOfStock(ctx)
}

// ListOverstocked 超储
func (s *Service) ListOverstocked(ctx context.Context) ([]*inventory.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.records.ListOverstocked(ctx)
}

// CountLowStock 低库存数量
func (s *Service) CountLowStock(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.records.CountLowStock(ctx)
}

// CountOutOfStock 缺货数量
func (s *Service) CountOutOfStock(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.records.CountOutOfStock(ctx)
}

// TotalInventoryValue 库存总值 = Σ 可用数量 × 单价
// 只统计启用的记录；目录中查不到价格的商品按0计，未接入商品目录时总值为0
func (s *Service) TotalInventoryValue(ctx context.Context) (decimal.Decimal, error) {
	if s.catalog == nil {
		return decimal.Zero, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	records, err := s.records.ListActive(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(records) == 0 {
		return decimal.Zero, nil
	}

	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ProductID)
	}
	prices, err := s.catalog.GetPrices(ctx, ids)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, r := range records {
		price, ok := prices[r.ProductID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(r.QuantityAvailable))))
	}
	return total, nil
}

// ListMovements 商品流水，最新在前
func (s *Service) ListMovements(ctx context.Context, productID uint, page, pageSize int) ([]*movement.Movement, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.movements.ListByProduct(ctx, productID, page, pageSize)
}

// ListMovementsByActor 操作人流水，最新在前
func (s *Service) ListMovementsByActor(ctx context.Context, actorID string, page, pageSize int) ([]*movement.Movement, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.movements.ListByActor(ctx, actorID, page, pageSize)
}

// ListMovementsByDateRange 时间区间 [from, to) 内的流水
func (s *Service) ListMovementsByDateRange(ctx context.Context, from, to time.Time, page, pageSize int) ([]*movement.Movement, int64, error) {
	if !from.Before(to) {
		return nil, 0, movement.ErrInvalidDateRange
	}
	page, pageSize = normalizePage(page, pageSize)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.movements.ListByDateRange(ctx, from, to, page, pageSize)
}

// FilterMovements 按商品、操作人、类型、时间组合查询
func (s *Service) FilterMovements(ctx context.Context, f movement.Filter) ([]*movement.Movement, int64, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	f.Normalize()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.movements.Filter(ctx, f)
}

// CountMovementsByActor 操作人的流水条数，空操作人按system统计
func (s *Service) CountMovementsByActor(ctx context.Context, actorID string) (int64, error) {
	if actorID == "" {
		actorID = movement.SystemActor
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.movements.CountByActor(ctx, actorID)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
