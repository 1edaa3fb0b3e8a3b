package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/stockledger/internal/domain/alert"
)

// alertRepository 预警仓储实现
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository 创建预警仓储
func NewAlertRepository(db *gorm.DB) alert.Repository {
	return &alertRepository{db: db}
}

func openSlot() *int8 {
	one := int8(1)
	return &one
}

// Create 创建未解除预警，uk_open_alert冲突 → ErrDuplicateOpenAlert
func (r *alertRepository) Create(ctx context.Context, a *alert.Alert) error {
	model := &AlertModel{
		ProductID:       a.ProductID,
		AlertType:       string(a.Type),
		OpenSlot:        openSlot(),
		CurrentQuantity: a.CurrentQuantity,
		Threshold:       a.Threshold,
		CreatedAt:       a.CreatedAt,
	}

	// 冲突时只回滚到保存点，外层事务可以继续
	db := getDB(ctx, r.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		if isDuplicateError(err) {
			return alert.ErrDuplicateOpenAlert
		}
		return wrapStoreError(err, "创建预警失败")
	}

	a.ID = model.ID
	a.CreatedAt = model.CreatedAt
	return nil
}

// FindByID 根据ID查找
func (r *alertRepository) FindByID(ctx context.Context, id uint) (*alert.Alert, error) {
	var model AlertModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, alert.ErrAlertNotFound
		}
		return nil, wrapStoreError(err, "查询预警失败")
	}
	return toAlertEntity(&model), nil
}

// FindUnresolvedByProduct 商品的未解除预警
func (r *alertRepository) FindUnresolvedByProduct(ctx context.Context, productID uint) ([]*alert.Alert, error) {
	var models []AlertModel
	err := getDB(ctx, r.db).
		Where("product_id = ? AND is_resolved = ?", productID, false).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(err, "查询预警失败")
	}
	return toAlertEntities(models), nil
}

// ExistsUnresolved 是否存在同类型未解除预警
func (r *alertRepository) ExistsUnresolved(ctx context.Context, productID uint, t alert.Type) (bool, error) {
	var n int64
	err := getDB(ctx, r.db).Model(&AlertModel{}).
		Where("product_id = ? AND alert_type = ? AND is_resolved = ?", productID, string(t), false).
		Count(&n).Error
	if err != nil {
		return false, wrapStoreError(err, "查询预警失败")
	}
	return n > 0, nil
}

// Resolve 仅当仍未解除时写入，释放open_slot
func (r *alertRepository) Resolve(ctx context.Context, a *alert.Alert) (bool, error) {
	result := getDB(ctx, r.db).Model(&AlertModel{}).
		Where("id = ? AND is_resolved = ?", a.ID, false).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"open_slot":   nil,
			"resolved_at": a.ResolvedAt,
			"resolved_by": a.ResolvedBy,
			"notes":       a.Notes,
		})
	if result.Error != nil {
		return false, wrapStoreError(result.Error, "解除预警失败")
	}
	return result.RowsAffected == 1, nil
}

// ListUnresolved 未解除预警分页，最新在前
func (r *alertRepository) ListUnresolved(ctx context.Context, page, pageSize int) ([]*alert.Alert, int64, error) {
	resolved := false
	return r.Filter(ctx, alert.Filter{Resolved: &resolved, Page: page, PageSize: pageSize})
}

// CountUnresolved 未解除预警数量
func (r *alertRepository) CountUnresolved(ctx context.Context) (int64, error) {
	var n int64
	if err := getDB(ctx, r.db).Model(&AlertModel{}).Where("is_resolved = ?", false).Count(&n).Error; err != nil {
		return 0, wrapStoreError(err, "统计预警失败")
	}
	return n, nil
}

// Filter 组合条件查询
func (r *alertRepository) Filter(ctx context.Context, f alert.Filter) ([]*alert.Alert, int64, error) {
	f.Normalize()

	query := getDB(ctx, r.db).Model(&AlertModel{})
	if f.Type != "" {
		query = query.Where("alert_type = ?", string(f.Type))
	}
	if f.Resolved != nil {
		query = query.Where("is_resolved = ?", *f.Resolved)
	}
	if f.ProductID != 0 {
		query = query.Where("product_id = ?", f.ProductID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError(err, "统计预警失败")
	}

	var models []AlertModel
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(f.PageSize).Offset(offset(f.Page, f.PageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, wrapStoreError(err, "查询预警失败")
	}
	return toAlertEntities(models), total, nil
}

func toAlertEntity(m *AlertModel) *alert.Alert {
	return &alert.Alert{
		ID:              m.ID,
		ProductID:       m.ProductID,
		Type:            alert.Type(m.AlertType),
		CurrentQuantity: m.CurrentQuantity,
		Threshold:       m.Threshold,
		IsResolved:      m.IsResolved,
		ResolvedAt:      m.ResolvedAt,
		ResolvedBy:      m.ResolvedBy,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
	}
}

func toAlertEntities(models []AlertModel) []*alert.Alert {
	out := make([]*alert.Alert, len(models))
	for i := range models {
		out[i] = toAlertEntity(&models[i])
	}
	return out
}
