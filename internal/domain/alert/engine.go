package alert

import (
	"context"
	"errors"
	"time"

	"github.com/xiebiao/stockledger/internal/domain/inventory"
)

// Engine 预警引擎
// 按库存记录的当前数量创建或解除预警。创建与解除是两趟独立检查：
// 入库只需解除检查，出库只需创建检查，盘点调整两者都要。
// 引擎本身不发通知，调用方拿到新建的预警后在事务提交后再通知
type Engine struct {
	repo Repository
	now  func() time.Time
}

// NewEngine 创建预警引擎
func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo, now: time.Now}
}

// CheckAndCreate 需要时创建预警
// 同类型未解除预警已存在时跳过，返回nil, nil
func (e *Engine) CheckAndCreate(ctx context.Context, r *inventory.Record) (*Alert, error) {
	t, threshold, ok := Classify(r)
	if !ok {
		return nil, nil
	}

	exists, err := e.repo.ExistsUnresolved(ctx, r.ProductID, t)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	a := &Alert{
		ProductID:       r.ProductID,
		Type:            t,
		CurrentQuantity: r.QuantityAvailable,
		Threshold:       threshold,
		CreatedAt:       e.now(),
	}
	if err := e.repo.Create(ctx, a); err != nil {
		// 并发创建时唯一索引兜底，视为已存在
		if errors.Is(err, ErrDuplicateOpenAlert) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// CheckAndResolve 解除已回到正常区间的预警，返回本次解除的预警
func (e *Engine) CheckAndResolve(ctx context.Context, r *inventory.Record, resolvedBy string) ([]*Alert, error) {
	open, err := e.repo.FindUnresolvedByProduct(ctx, r.ProductID)
	if err != nil {
		return nil, err
	}

	var resolved []*Alert
	now := e.now()
	for _, a := range open {
		if !ShouldAutoResolve(a, r) {
			continue
		}
		a.Resolve(resolvedBy, AutoResolveNote, now)
		ok, err := e.repo.Resolve(ctx, a)
		if err != nil {
			return nil, err
		}
		if ok {
			resolved = append(resolved, a)
		}
	}
	return resolved, nil
}

// ResolveManually 手动解除预警，不看当前库存
// 已解除的预警原样返回，changed为false
func (e *Engine) ResolveManually(ctx context.Context, id uint, resolvedBy, notes string) (a *Alert, changed bool, err error) {
	a, err = e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if !a.Resolve(resolvedBy, notes, e.now()) {
		return a, false, nil
	}

	ok, err := e.repo.Resolve(ctx, a)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		// 读取后被其他请求解除，返回最新状态
		latest, err := e.repo.FindByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return latest, false, nil
	}
	return a, true, nil
}
