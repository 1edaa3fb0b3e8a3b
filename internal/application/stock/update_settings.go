package stock

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/pkg/tracing"
)

// UpdateSettings 更新阈值和库位，不修改数量、不产生流水
// 停用的记录也可以更新(否则无法重新启用)。
// 最低/最高库存或预警开关变化时，按当前数量重新评估预警
func (s *Service) UpdateSettings(ctx context.Context, cmd SettingsCommand) (result *inventory.Record, err error) {
	const operation = "update_settings"
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "stock."+operation)
	defer func() {
		tracing.EndSpan(span, err)
		s.observe(operation, start, err)
	}()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var p pending
	err = s.tx.Transaction(ctx, func(txCtx context.Context) error {
		r, err := s.records.FindByProductID(txCtx, cmd.ProductID)
		if err != nil {
			return err
		}
		before := r.Clone()
		expected := r.Version

		changed, err := r.ApplySettings(cmd.Settings, s.now())
		if err != nil {
			return err
		}

		// delta为0，只以版本号为条件
		if err := s.records.Update(txCtx, r, expected, 0); err != nil {
			return err
		}

		if changed && r.IsActive {
			if err := s.evaluateAlerts(txCtx, r, true, true, &p); err != nil {
				return err
			}
		}

		p.audits = append(p.audits, audit.NewEntry(audit.EntityInventory, r.ID, audit.ActionUpdateSettings, actorOrSystem(cmd.ActorID), snapshotOf(before), snapshotOf(r)))
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("库存设置已更新",
		zap.Uint("product_id", result.ProductID),
		zap.Int("min_stock_level", result.MinStockLevel),
		zap.Int("max_stock_level", result.MaxStockLevel),
		zap.Bool("is_active", result.IsActive),
	)
	s.dispatch(p)
	return result, nil
}
