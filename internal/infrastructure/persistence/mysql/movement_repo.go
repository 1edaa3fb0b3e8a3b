package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/stockledger/internal/domain/movement"
)

// movementRepository 库存流水仓储实现(只追加)
type movementRepository struct {
	db *gorm.DB
}

// NewMovementRepository 创建库存流水仓储
func NewMovementRepository(db *gorm.DB) movement.Repository {
	return &movementRepository{db: db}
}

// Append 追加流水，必须与库存记录的更新在同一事务中
func (r *movementRepository) Append(ctx context.Context, m *movement.Movement) error {
	model := &MovementModel{
		ProductID:        m.ProductID,
		ActorID:          m.ActorID,
		Type:             string(m.Type),
		Reason:           string(m.Reason),
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Notes:            m.Notes,
		ReferenceNumber:  m.ReferenceNumber,
		CreatedAt:        m.CreatedAt,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return wrapStoreError(err, "记录库存流水失败")
	}

	m.ID = model.ID
	m.CreatedAt = model.CreatedAt
	return nil
}

// ListByProduct 商品流水，最新在前
func (r *movementRepository) ListByProduct(ctx context.Context, productID uint, page, pageSize int) ([]*movement.Movement, int64, error) {
	return r.page(getDB(ctx, r.db).Model(&MovementModel{}).Where("product_id = ?", productID), page, pageSize)
}

// ListByActor 操作人流水，最新在前
func (r *movementRepository) ListByActor(ctx context.Context, actorID string, page, pageSize int) ([]*movement.Movement, int64, error) {
	return r.page(getDB(ctx, r.db).Model(&MovementModel{}).Where("actor_id = ?", actorID), page, pageSize)
}

// ListByDateRange 时间区间 [from, to)
func (r *movementRepository) ListByDateRange(ctx context.Context, from, to time.Time, page, pageSize int) ([]*movement.Movement, int64, error) {
	return r.Filter(ctx, movement.Filter{From: &from, To: &to, Page: page, PageSize: pageSize})
}

// Filter 组合条件查询
func (r *movementRepository) Filter(ctx context.Context, f movement.Filter) ([]*movement.Movement, int64, error) {
	f.Normalize()

	query := getDB(ctx, r.db).Model(&MovementModel{})
	if f.ProductID != 0 {
		query = query.Where("product_id = ?", f.ProductID)
	}
	if f.ActorID != "" {
		query = query.Where("actor_id = ?", f.ActorID)
	}
	if f.Type != "" {
		query = query.Where("type = ?", string(f.Type))
	}
	if f.From != nil {
		query = query.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("created_at < ?", *f.To)
	}
	return r.page(query, f.Page, f.PageSize)
}

// CountByActor 操作人流水条数
func (r *movementRepository) CountByActor(ctx context.Context, actorID string) (int64, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&MovementModel{}).Where("actor_id = ?", actorID).Count(&count).Error
	if err != nil {
		return 0, wrapStoreError(err, "统计库存流水失败")
	}
	return count, nil
}

// SumSignedByProduct 带符号变动量之和
//
//	IN: +quantity, OUT: -quantity, ADJUSTMENT: new - previous
func (r *movementRepository) SumSignedByProduct(ctx context.Context, productID uint) (int, error) {
	var sum int
	err := getDB(ctx, r.db).Model(&MovementModel{}).
		Select(`COALESCE(SUM(CASE type
			WHEN 'IN' THEN quantity
			WHEN 'OUT' THEN -quantity
			ELSE new_quantity - previous_quantity END), 0)`).
		Where("product_id = ?", productID).
		Scan(&sum).Error
	if err != nil {
		return 0, wrapStoreError(err, "统计库存流水失败")
	}
	return sum, nil
}

func (r *movementRepository) page(query *gorm.DB, page, pageSize int) ([]*movement.Movement, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError(err, "查询库存流水总数失败")
	}

	var models []MovementModel
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(pageSize).Offset(offset(page, pageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, wrapStoreError(err, "查询库存流水失败")
	}

	out := make([]*movement.Movement, len(models))
	for i, m := range models {
		out[i] = &movement.Movement{
			ID:               m.ID,
			ProductID:        m.ProductID,
			ActorID:          m.ActorID,
			Type:             movement.Type(m.Type),
			Reason:           movement.Reason(m.Reason),
			Quantity:         m.Quantity,
			PreviousQuantity: m.PreviousQuantity,
			NewQuantity:      m.NewQuantity,
			Notes:            m.Notes,
			ReferenceNumber:  m.ReferenceNumber,
			CreatedAt:        m.CreatedAt,
		}
	}
	return out, total, nil
}
