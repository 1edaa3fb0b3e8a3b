// Package stock 库存一致性核心
//
// 所有写操作都是一个事务：
//  1. 事务内读取库存记录(含版本号)
//  2. 计算新数量并校验前置条件
//  3. 以版本号为条件写入(compare-and-swap)，影响0行即放弃整个事务
//  4. 同一事务内追加流水、创建/解除预警
//
// 审计日志与预警通知在提交后交给后台工作池，失败不影响已提交的库存。
// 核心内部不重试，版本冲突由调用方通过RetryOnConflict重新读取后重试。
package stock

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/application/sideeffect"
	"github.com/xiebiao/stockledger/internal/domain/alert"
	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/internal/domain/movement"
	"github.com/xiebiao/stockledger/internal/domain/product"
	apperrors "github.com/xiebiao/stockledger/pkg/errors"
	"github.com/xiebiao/stockledger/pkg/metrics"
	"github.com/xiebiao/stockledger/pkg/tracing"
)

const tracerName = "stockledger/stock"

// 副作用任务类型
const (
	effectAudit  = "audit"
	effectNotify = "notify"
)

// Transactor 事务管理器，fn返回错误时回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Submitter 提交后副作用的执行者
type Submitter interface {
	Submit(kind string, task sideeffect.Task) bool
}

// Config 核心配置
type Config struct {
	Defaults     inventory.Defaults
	StoreTimeout time.Duration // 单次操作的存储超时，0表示不额外限制
}

// Deps 核心依赖
type Deps struct {
	Tx        Transactor
	Records   inventory.Repository
	Movements movement.Repository
	Alerts    alert.Repository
	Catalog   product.Catalog
	Audit     audit.Logger
	Notifier  alert.Notifier
	Effects   Submitter
}

// Service 库存一致性核心
type Service struct {
	tx        Transactor
	records   inventory.Repository
	movements movement.Repository
	recorder  *movement.Recorder
	engine    *alert.Engine
	catalog   product.Catalog
	auditLog  audit.Logger
	notifier  alert.Notifier
	effects   Submitter

	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewService 创建库存服务
func NewService(deps Deps, cfg Config, logger *zap.Logger) *Service {
	if cfg.Defaults == (inventory.Defaults{}) {
		cfg.Defaults = inventory.DefaultThresholds
	}
	return &Service{
		tx:        deps.Tx,
		records:   deps.Records,
		movements: deps.Movements,
		recorder:  movement.NewRecorder(deps.Movements),
		engine:    alert.NewEngine(deps.Alerts),
		catalog:   deps.Catalog,
		auditLog:  deps.Audit,
		notifier:  deps.Notifier,
		effects:   deps.Effects,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// pending 事务内收集、提交后执行的副作用
type pending struct {
	audits  []audit.Entry
	created []*alert.Alert
}

// change 一次数量变更的描述
type change struct {
	operation string
	action    string
	productID uint
	typ       movement.Type
	reason    movement.Reason
	notes     string
	actor     string
	reference string
	// apply 在读取到的记录上计算新数量，返回写入增量和流水数量
	apply   func(r *inventory.Record, now time.Time) (delta, quantity int, err error)
	create  bool
	resolve bool
}

// execute 数量变更的公共流程
func (s *Service) execute(ctx context.Context, c change) (result *inventory.Record, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "stock."+c.operation)
	defer func() {
		tracing.EndSpan(span, err)
		s.observe(c.operation, start, err)
	}()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if !c.reason.Valid() {
		return nil, movement.ErrInvalidReason
	}
	if err := s.ensureProductActive(ctx, c.productID); err != nil {
		return nil, err
	}

	var p pending
	err = s.tx.Transaction(ctx, func(txCtx context.Context) error {
		// 1. 读取当前记录和版本号
		r, err := s.records.FindByProductID(txCtx, c.productID)
		if err != nil {
			return err
		}
		if err := r.EnsureActive(); err != nil {
			return err
		}
		before := r.Clone()
		expected := r.Version

		// 2. 计算新数量
		delta, quantity, err := c.apply(r, s.now())
		if err != nil {
			return err
		}

		// 3. 条件写入，库存充足的判断在同一条语句里再做一次
		if err := s.records.Update(txCtx, r, expected, delta); err != nil {
			return err
		}

		// 4. 追加流水
		if _, err := s.recorder.Record(txCtx, movement.Entry{
			ProductID:        r.ProductID,
			ActorID:          c.actor,
			Type:             c.typ,
			Reason:           c.reason,
			Quantity:         quantity,
			PreviousQuantity: before.QuantityAvailable,
			NewQuantity:      r.QuantityAvailable,
			Notes:            c.notes,
			ReferenceNumber:  c.reference,
		}); err != nil {
			return err
		}

		// 5. 预警
		if err := s.evaluateAlerts(txCtx, r, c.resolve, c.create, &p); err != nil {
			return err
		}

		p.audits = append(p.audits, audit.NewEntry(audit.EntityInventory, r.ID, c.action, actorOrSystem(c.actor), snapshotOf(before), snapshotOf(r)))
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("库存已变更",
		zap.String("operation", c.operation),
		zap.Uint("product_id", result.ProductID),
		zap.String("reason", string(c.reason)),
		zap.Int("new_quantity", result.QuantityAvailable),
		zap.Int64("version", result.Version),
		zap.String("actor", actorOrSystem(c.actor)),
	)
	metrics.IncCounterVec(metrics.StockMovementsTotal, map[string]string{"type": string(c.typ), "reason": string(c.reason)})

	s.dispatch(p)
	return result, nil
}

// evaluateAlerts 先解除后创建，调整可能跨越多个阈值
func (s *Service) evaluateAlerts(ctx context.Context, r *inventory.Record, resolve, create bool, p *pending) error {
	if resolve {
		resolved, err := s.engine.CheckAndResolve(ctx, r, movement.SystemActor)
		if err != nil {
			return err
		}
		for _, a := range resolved {
			metrics.IncCounterVec(metrics.AlertsResolvedTotal, map[string]string{"type": string(a.Type), "mode": "auto"})
		}
	}
	if create {
		created, err := s.engine.CheckAndCreate(ctx, r)
		if err != nil {
			return err
		}
		if created != nil {
			metrics.IncCounterVec(metrics.AlertsCreatedTotal, map[string]string{"type": string(created.Type)})
			p.created = append(p.created, created)
		}
	}
	return nil
}

// dispatch 提交后投递副作用
func (s *Service) dispatch(p pending) {
	if s.effects == nil {
		return
	}
	for _, e := range p.audits {
		entry := e
		if s.auditLog != nil {
			s.effects.Submit(effectAudit, func(ctx context.Context) error {
				return s.auditLog.LogAction(ctx, entry)
			})
		}
	}
	for _, a := range p.created {
		created := a
		if s.notifier != nil {
			s.effects.Submit(effectNotify, func(ctx context.Context) error {
				return s.notifier.Notify(ctx, created)
			})
		}
	}
}

// ensureProductActive 商品必须存在且启用
func (s *Service) ensureProductActive(ctx context.Context, productID uint) error {
	if s.catalog == nil {
		return nil
	}
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	return p.EnsureActive()
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *Service) observe(operation string, start time.Time, err error) {
	metrics.ObserveHistogramVec(metrics.StockOperationDuration, map[string]string{"operation": operation}, time.Since(start).Seconds())
	if err == nil {
		return
	}

	code := apperrors.CodeOf(err)
	if code == apperrors.ErrCodeConcurrencyConflict {
		metrics.IncCounterVec(metrics.ConcurrencyConflictsTotal, map[string]string{"operation": operation})
	}
	metrics.IncCounterVec(metrics.StockOperationsFailedTotal, map[string]string{
		"operation": operation,
		"code":      strconv.Itoa(code),
	})

	if code >= apperrors.ErrCodeInternal {
		s.logger.Error("库存操作失败", zap.String("operation", operation), zap.Int("code", code), zap.Error(err))
		return
	}
	s.logger.Debug("库存操作被拒绝", zap.String("operation", operation), zap.Int("code", code), zap.Error(err))
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return movement.SystemActor
	}
	return actor
}
