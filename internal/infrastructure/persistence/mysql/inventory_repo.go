package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/stockledger/internal/domain/inventory"
)

// inventoryRepository 库存记录仓储实现(MySQL)
type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存记录仓储
func NewInventoryRepository(db *gorm.DB) inventory.Repository {
	return &inventoryRepository{db: db}
}

// Create 创建库存记录，product_id唯一索引冲突 → ErrAlreadyProvisioned
func (r *inventoryRepository) Create(ctx context.Context, rec *inventory.Record) error {
	model := toInventoryModel(rec)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return inventory.ErrAlreadyProvisioned
		}
		return wrapStoreError(err, "创建库存记录失败")
	}

	rec.ID = model.ID
	rec.CreatedAt = model.CreatedAt
	rec.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找
func (r *inventoryRepository) FindByID(ctx context.Context, id uint) (*inventory.Record, error) {
	var model InventoryModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrInventoryNotFound
		}
		return nil, wrapStoreError(err, "查询库存记录失败")
	}
	return toInventoryEntity(&model), nil
}

// FindByProductID 根据商品ID查找
func (r *inventoryRepository) FindByProductID(ctx context.Context, productID uint) (*inventory.Record, error) {
	var model InventoryModel
	if err := getDB(ctx, r.db).Where("product_id = ?", productID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrInventoryNotFound
		}
		return nil, wrapStoreError(err, "查询库存记录失败")
	}
	return toInventoryEntity(&model), nil
}

// Update 以版本号为条件写入
//
//	UPDATE inventories
//	SET quantity_available = quantity_available + ?, version = version + 1, ...
//	WHERE id = ? AND version = ? AND quantity_available + ? >= 0
//
// 数量在语句内计算，库存充足的判断和写入是同一个原子操作
func (r *inventoryRepository) Update(ctx context.Context, rec *inventory.Record, expectedVersion int64, delta int) error {
	db := getDB(ctx, r.db)
	result := db.Model(&InventoryModel{}).
		Where("id = ? AND version = ?", rec.ID, expectedVersion).
		Where("quantity_available + ? >= 0", delta).
		Updates(map[string]interface{}{
			"quantity_available":      gorm.Expr("quantity_available + ?", delta),
			"min_stock_level":         rec.MinStockLevel,
			"max_stock_level":         rec.MaxStockLevel,
			"reorder_point":           rec.ReorderPoint,
			"reorder_quantity":        rec.ReorderQuantity,
			"location":                rec.Location,
			"bin_number":              rec.BinNumber,
			"rack_number":             rec.RackNumber,
			"low_stock_alert_enabled": rec.LowStockAlertEnabled,
			"is_active":               rec.IsActive,
			"last_restock_date":       rec.LastRestockDate,
			"last_sale_date":          rec.LastSaleDate,
			"version":                 gorm.Expr("version + 1"),
			"updated_at":              rec.UpdatedAt,
		})
	if result.Error != nil {
		return wrapStoreError(result.Error, "更新库存记录失败")
	}
	if result.RowsAffected == 1 {
		rec.Version = expectedVersion + 1
		return nil
	}

	// 影响0行，锁定读取最新提交的版本判断原因
	// (REPEATABLE READ下普通SELECT读到的是事务快照)
	var model InventoryModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, rec.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inventory.ErrInventoryNotFound
		}
		return wrapStoreError(err, "查询库存记录失败")
	}
	if model.Version != expectedVersion {
		return inventory.ErrConcurrencyConflict
	}
	return inventory.NewInsufficientStockError(model.ProductID, model.QuantityAvailable, -delta)
}

// List 分页查询，按ID升序
func (r *inventoryRepository) List(ctx context.Context, params inventory.ListParams) ([]*inventory.Record, int64, error) {
	params.Normalize()

	query := getDB(ctx, r.db).Model(&InventoryModel{})
	if params.Location != "" {
		query = query.Where("location = ?", params.Location)
	}
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError(err, "查询库存总数失败")
	}

	var models []InventoryModel
	if err := query.Order("id ASC").Limit(params.PageSize).Offset(offset(params.Page, params.PageSize)).Find(&models).Error; err != nil {
		return nil, 0, wrapStoreError(err, "查询库存列表失败")
	}
	return toInventoryEntities(models), total, nil
}

// ListLowStock 低库存(含缺货)
func (r *inventoryRepository) ListLowStock(ctx context.Context) ([]*inventory.Record, error) {
	return r.findActive(ctx, "quantity_available <= min_stock_level")
}

// ListOutOfStock 缺货
func (r *inventoryRepository) ListOutOfStock(ctx context.Context) ([]*inventory.Record, error) {
	return r.findActive(ctx, "quantity_available = 0")
}

// ListOverstocked 超储
func (r *inventoryRepository) ListOverstocked(ctx context.Context) ([]*inventory.Record, error) {
	return r.findActive(ctx, "quantity_available > max_stock_level")
}

// ListActive 全部启用的记录
func (r *inventoryRepository) ListActive(ctx context.Context) ([]*inventory.Record, error) {
	return r.findActive(ctx, "")
}

// CountLowStock 低库存数量
func (r *inventoryRepository) CountLowStock(ctx context.Context) (int64, error) {
	return r.countActive(ctx, "quantity_available <= min_stock_level")
}

// CountOutOfStock 缺货数量
func (r *inventoryRepository) CountOutOfStock(ctx context.Context) (int64, error) {
	return r.countActive(ctx, "quantity_available = 0")
}

func (r *inventoryRepository) findActive(ctx context.Context, cond string) ([]*inventory.Record, error) {
	query := getDB(ctx, r.db).Where("is_active = ?", true)
	if cond != "" {
		query = query.Where(cond)
	}

	var models []InventoryModel
	if err := query.Order("id ASC").Find(&models).Error; err != nil {
		return nil, wrapStoreError(err, "查询库存列表失败")
	}
	return toInventoryEntities(models), nil
}

func (r *inventoryRepository) countActive(ctx context.Context, cond string) (int64, error) {
	var n int64
	err := getDB(ctx, r.db).Model(&InventoryModel{}).
		Where("is_active = ?", true).
		Where(cond).
		Count(&n).Error
	if err != nil {
		return 0, wrapStoreError(err, "统计库存失败")
	}
	return n, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toInventoryModel(rec *inventory.Record) *InventoryModel {
	return &InventoryModel{
		ID:                   rec.ID,
		ProductID:            rec.ProductID,
		QuantityAvailable:    rec.QuantityAvailable,
		MinStockLevel:        rec.MinStockLevel,
		MaxStockLevel:        rec.MaxStockLevel,
		ReorderPoint:         rec.ReorderPoint,
		ReorderQuantity:      rec.ReorderQuantity,
		Location:             rec.Location,
		BinNumber:            rec.BinNumber,
		RackNumber:           rec.RackNumber,
		LowStockAlertEnabled: rec.LowStockAlertEnabled,
		IsActive:             rec.IsActive,
		LastRestockDate:      rec.LastRestockDate,
		LastSaleDate:         rec.LastSaleDate,
		Version:              rec.Version,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}
}

func toInventoryEntity(m *InventoryModel) *inventory.Record {
	return &inventory.Record{
		ID:                   m.ID,
		ProductID:            m.ProductID,
		QuantityAvailable:    m.QuantityAvailable,
		MinStockLevel:        m.MinStockLevel,
		MaxStockLevel:        m.MaxStockLevel,
		ReorderPoint:         m.ReorderPoint,
		ReorderQuantity:      m.ReorderQuantity,
		Location:             m.Location,
		BinNumber:            m.BinNumber,
		RackNumber:           m.RackNumber,
		LowStockAlertEnabled: m.LowStockAlertEnabled,
		IsActive:             m.IsActive,
		LastRestockDate:      m.LastRestockDate,
		LastSaleDate:         m.LastSaleDate,
		Version:              m.Version,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func toInventoryEntities(models []InventoryModel) []*inventory.Record {
	out := make([]*inventory.Record, len(models))
	for i := range models {
		out[i] = toInventoryEntity(&models[i])
	}
	return out
}
