package stock

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/pkg/tracing"
)

// ProvisionForProduct 商品进入目录时创建库存记录
// 初始数量为0，阈值取配置的默认值。这里不评估预警：
// 新商品数量为0是正常状态，第一次出入库或设置变更时才会评估
func (s *Service) ProvisionForProduct(ctx context.Context, productID uint, actorID string) (result *inventory.Record, err error) {
	const operation = "provision"
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "stock."+operation)
	defer func() {
		tracing.EndSpan(span, err)
		s.observe(operation, start, err)
	}()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// 1. 商品必须存在
	if s.catalog != nil {
		if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
			return nil, err
		}
	}

	// 2. 创建记录，重复创建由唯一索引拦截
	r := inventory.NewRecord(productID, s.cfg.Defaults)
	if err := s.records.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("库存记录已创建", zap.Uint("product_id", productID), zap.Uint("inventory_id", r.ID))
	s.dispatch(pending{
		audits: []audit.Entry{
			audit.NewEntry(audit.EntityInventory, r.ID, audit.ActionCreate, actorOrSystem(actorID), nil, snapshotOf(r)),
		},
	})
	return r, nil
}
