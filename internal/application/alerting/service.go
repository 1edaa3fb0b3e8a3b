// Package alerting 预警查询与手动解除
package alerting

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/application/sideeffect"
	"github.com/xiebiao/stockledger/internal/domain/alert"
	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/pkg/metrics"
)

// Submitter 提交后副作用的执行者
type Submitter interface {
	Submit(kind string, task sideeffect.Task) bool
}

// Service 预警服务
type Service struct {
	repo     alert.Repository
	engine   *alert.Engine
	auditLog audit.Logger
	effects  Submitter
	logger   *zap.Logger
}

// NewService 创建预警服务
func NewService(repo alert.Repository, auditLog audit.Logger, effects Submitter, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		engine:   alert.NewEngine(repo),
		auditLog: auditLog,
		effects:  effects,
		logger:   logger,
	}
}

// Get 查询单条预警
func (s *Service) Get(ctx context.Context, id uint) (*alert.Alert, error) {
	return s.repo.FindByID(ctx, id)
}

// ListUnresolved 未解除预警，最新在前
func (s *Service) ListUnresolved(ctx context.Context, page, pageSize int) ([]*alert.Alert, int64, error) {
	f := alert.Filter{Page: page, PageSize: pageSize}
	f.Normalize()
	return s.repo.ListUnresolved(ctx, f.Page, f.PageSize)
}

// CountUnresolved 未解除预警数量
func (s *Service) CountUnresolved(ctx context.Context) (int64, error) {
	return s.repo.CountUnresolved(ctx)
}

// Filter 组合条件查询
func (s *Service) Filter(ctx context.Context, f alert.Filter) ([]*alert.Alert, int64, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, 0, alert.ErrInvalidType
	}
	f.Normalize()
	return s.repo.Filter(ctx, f)
}

// ResolveManually 手动解除，不看当前库存
// 重复解除返回已解除的预警，不再写审计
func (s *Service) ResolveManually(ctx context.Context, id uint, resolvedBy, notes string) (*alert.Alert, error) {
	if resolvedBy == "" {
		resolvedBy = "system"
	}

	before, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a, changed, err := s.engine.ResolveManually(ctx, id, resolvedBy, notes)
	if err != nil {
		return nil, err
	}
	if !changed {
		return a, nil
	}

	s.logger.Info("预警已手动解除",
		zap.Uint("alert_id", a.ID),
		zap.Uint("product_id", a.ProductID),
		zap.String("type", string(a.Type)),
		zap.String("resolved_by", resolvedBy),
	)
	metrics.IncCounterVec(metrics.AlertsResolvedTotal, map[string]string{"type": string(a.Type), "mode": "manual"})

	if s.effects != nil && s.auditLog != nil {
		entry := audit.NewEntry(audit.EntityAlert, a.ID, audit.ActionResolveAlert, resolvedBy, before, a)
		s.effects.Submit("audit", func(ctx context.Context) error {
			return s.auditLog.LogAction(ctx, entry)
		})
	}
	return a, nil
}
