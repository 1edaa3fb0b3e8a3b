package stock

import (
	"context"
	"time"

	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/internal/domain/movement"
)

// AdjustStock 盘点调整：直接设为目标数量
// 方向未知，解除检查和创建检查都要做。目标与当前相同时也记一条数量为0的调整流水
func (s *Service) AdjustStock(ctx context.Context, cmd AdjustCommand) (*inventory.Record, error) {
	if cmd.NewQuantity < 0 {
		return nil, inventory.ErrNegativeQuantity
	}
	if cmd.Reason == "" {
		cmd.Reason = movement.ReasonAdjustment
	}

	return s.execute(ctx, change{
		operation: "adjust_stock",
		action:    audit.ActionAdjustStock,
		productID: cmd.ProductID,
		typ:       movement.TypeAdjustment,
		reason:    cmd.Reason,
		notes:     cmd.Notes,
		actor:     cmd.ActorID,
		reference: cmd.ReferenceNumber,
		apply: func(r *inventory.Record, now time.Time) (int, int, error) {
			previous := r.QuantityAvailable
			if err := r.SetQuantity(cmd.NewQuantity, now); err != nil {
				return 0, 0, err
			}
			diff := cmd.NewQuantity - previous
			if diff < 0 {
				return diff, -diff, nil
			}
			return diff, diff, nil
		},
		create:  true,
		resolve: true,
	})
}
