package stock

import (
	"context"
	"time"

	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/internal/domain/movement"
)

// AddStock 入库
// 数量增加后只做解除检查(库存只会变多，不会新进入低库存/缺货)
func (s *Service) AddStock(ctx context.Context, cmd MovementCommand) (*inventory.Record, error) {
	if cmd.Quantity < 1 {
		return nil, inventory.ErrInvalidQuantity
	}

	return s.execute(ctx, change{
		operation: "add_stock",
		action:    audit.ActionAddStock,
		productID: cmd.ProductID,
		typ:       movement.TypeIn,
		reason:    cmd.Reason,
		notes:     cmd.Notes,
		actor:     cmd.ActorID,
		reference: cmd.ReferenceNumber,
		apply: func(r *inventory.Record, now time.Time) (int, int, error) {
			if err := r.Increase(cmd.Quantity, now); err != nil {
				return 0, 0, err
			}
			return cmd.Quantity, cmd.Quantity, nil
		},
		resolve: true,
	})
}
