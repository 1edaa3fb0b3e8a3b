package stock

import (
	"context"
	"time"

	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/internal/domain/movement"
)

// RemoveStock 出库
//
// 库存充足的判断做两次：
//  1. 在事务内读到的记录上判断，不足直接返回InsufficientStockError
//  2. 条件写入 WHERE version = ? AND quantity_available - ? >= 0
//
// 两个并发出库读到同一版本时，只有一个能写入成功，
// 另一个得到ConcurrencyConflict(重试时会重新读取并再次判断)。
// 出库后只做创建检查
func (s *Service) RemoveStock(ctx context.Context, cmd MovementCommand) (*inventory.Record, error) {
	if cmd.Quantity < 1 {
		return nil, inventory.ErrInvalidQuantity
	}

	return s.execute(ctx, change{
		operation: "remove_stock",
		action:    audit.ActionRemoveStock,
		productID: cmd.ProductID,
		typ:       movement.TypeOut,
		reason:    cmd.Reason,
		notes:     cmd.Notes,
		actor:     cmd.ActorID,
		reference: cmd.ReferenceNumber,
		apply: func(r *inventory.Record, now time.Time) (int, int, error) {
			if err := r.Decrease(cmd.Quantity, now); err != nil {
				return 0, 0, err
			}
			return -cmd.Quantity, cmd.Quantity, nil
		},
		create: true,
	})
}
