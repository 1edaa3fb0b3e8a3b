package dto

import (
	"time"

	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/internal/domain/movement"
)

// TimeLayout 响应中的时间格式
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime 格式化时间，零值返回空串
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}

// MovementRequest 入库/出库请求
type MovementRequest struct {
	Quantity        int    `json:"quantity" binding:"required,min=1" example:"10"`
	Reason          string `json:"reason" binding:"required" example:"PURCHASE"`
	Notes           string `json:"notes" binding:"max=500" example:"供应商A到货"`
	ReferenceNumber string `json:"reference_number" binding:"max=64" example:"PO-20260301-001"`
}

// AdjustRequest 盘点调整请求，reason缺省为ADJUSTMENT
type AdjustRequest struct {
	NewQuantity     *int   `json:"new_quantity" binding:"required,min=0" example:"42"`
	Reason          string `json:"reason" example:"ADJUSTMENT"`
	Notes           string `json:"notes" binding:"max=500" example:"月度盘点"`
	ReferenceNumber string `json:"reference_number" binding:"max=64"`
}

// SettingsRequest 库存设置(部分更新，缺省字段不修改)
type SettingsRequest struct {
	MinStockLevel        *int    `json:"min_stock_level" binding:"omitempty,min=0" example:"10"`
	MaxStockLevel        *int    `json:"max_stock_level" binding:"omitempty,min=0" example:"1000"`
	ReorderPoint         *int    `json:"reorder_point" binding:"omitempty,min=0" example:"20"`
	ReorderQuantity      *int    `json:"reorder_quantity" binding:"omitempty,min=0" example:"50"`
	Location             *string `json:"location" binding:"omitempty,max=100" example:"A区"`
	BinNumber            *string `json:"bin_number" binding:"omitempty,max=50" example:"B-12"`
	RackNumber           *string `json:"rack_number" binding:"omitempty,max=50" example:"R-3"`
	LowStockAlertEnabled *bool   `json:"low_stock_alert_enabled" example:"true"`
	IsActive             *bool   `json:"is_active" example:"true"`
}

// ToSettings 转换为领域对象
func (r *SettingsRequest) ToSettings() inventory.Settings {
	return inventory.Settings{
		MinStockLevel:        r.MinStockLevel,
		MaxStockLevel:        r.MaxStockLevel,
		ReorderPoint:         r.ReorderPoint,
		ReorderQuantity:      r.ReorderQuantity,
		Location:             r.Location,
		BinNumber:            r.BinNumber,
		RackNumber:           r.RackNumber,
		LowStockAlertEnabled: r.LowStockAlertEnabled,
		IsActive:             r.IsActive,
	}
}

// ListInventoryRequest 库存列表查询
type ListInventoryRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Location   string `form:"location" binding:"omitempty,max=100" example:"A区"`
	ActiveOnly bool   `form:"active_only" example:"true"`
}

// PageRequest 分页参数
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// InventoryResponse 库存记录
type InventoryResponse struct {
	ID                   uint   `json:"id" example:"1"`
	ProductID            uint   `json:"product_id" example:"1001"`
	QuantityAvailable    int    `json:"quantity_available" example:"42"`
	MinStockLevel        int    `json:"min_stock_level" example:"10"`
	MaxStockLevel        int    `json:"max_stock_level" example:"1000"`
	ReorderPoint         int    `json:"reorder_point" example:"20"`
	ReorderQuantity      int    `json:"reorder_quantity" example:"50"`
	NeedsReorder         bool   `json:"needs_reorder" example:"false"`
	Location             string `json:"location" example:"A区"`
	BinNumber            string `json:"bin_number" example:"B-12"`
	RackNumber           string `json:"rack_number" example:"R-3"`
	LowStockAlertEnabled bool   `json:"low_stock_alert_enabled" example:"true"`
	IsActive             bool   `json:"is_active" example:"true"`
	LastRestockDate      string `json:"last_restock_date,omitempty" example:"2026-03-01 09:00:00"`
	LastSaleDate         string `json:"last_sale_date,omitempty" example:"2026-03-02 15:30:00"`
	Version              int64  `json:"version" example:"3"`
	UpdatedAt            string `json:"updated_at" example:"2026-03-02 15:30:00"`
}

// NewInventoryResponse 领域对象转响应
func NewInventoryResponse(r *inventory.Record) *InventoryResponse {
	return &InventoryResponse{
		ID:                   r.ID,
		ProductID:            r.ProductID,
		QuantityAvailable:    r.QuantityAvailable,
		MinStockLevel:        r.MinStockLevel,
		MaxStockLevel:        r.MaxStockLevel,
		ReorderPoint:         r.ReorderPoint,
		ReorderQuantity:      r.ReorderQuantity,
		NeedsReorder:         r.NeedsReorder(),
		Location:             r.Location,
		BinNumber:            r.BinNumber,
		RackNumber:           r.RackNumber,
		LowStockAlertEnabled: r.LowStockAlertEnabled,
		IsActive:             r.IsActive,
		LastRestockDate:      formatTimePtr(r.LastRestockDate),
		LastSaleDate:         formatTimePtr(r.LastSaleDate),
		Version:              r.Version,
		UpdatedAt:            FormatTime(r.UpdatedAt),
	}
}

// NewInventoryList 批量转换
func NewInventoryList(records []*inventory.Record) []*InventoryResponse {
	out := make([]*InventoryResponse, len(records))
	for i, r := range records {
		out[i] = NewInventoryResponse(r)
	}
	return out
}

// MovementResponse 库存流水
type MovementResponse struct {
	ID               uint   `json:"id" example:"1"`
	ProductID        uint   `json:"product_id" example:"1001"`
	ActorID          string `json:"actor_id" example:"alice"`
	Type             string `json:"type" example:"IN"`
	Reason           string `json:"reason" example:"PURCHASE"`
	ReasonText       string `json:"reason_text" example:"采购入库"`
	Quantity         int    `json:"quantity" example:"10"`
	PreviousQuantity int    `json:"previous_quantity" example:"32"`
	NewQuantity      int    `json:"new_quantity" example:"42"`
	Notes            string `json:"notes,omitempty"`
	ReferenceNumber  string `json:"reference_number" example:"MV20260301-1a2b3c4d"`
	CreatedAt        string `json:"created_at" example:"2026-03-01 09:00:00"`
}

// NewMovementList 批量转换
func NewMovementList(movements []*movement.Movement) []*MovementResponse {
	out := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		out[i] = &MovementResponse{
			ID:               m.ID,
			ProductID:        m.ProductID,
			ActorID:          m.ActorID,
			Type:             string(m.Type),
			Reason:           string(m.Reason),
			ReasonText:       m.Reason.Description(),
			Quantity:         m.Quantity,
			PreviousQuantity: m.PreviousQuantity,
			NewQuantity:      m.NewQuantity,
			Notes:            m.Notes,
			ReferenceNumber:  m.ReferenceNumber,
			CreatedAt:        FormatTime(m.CreatedAt),
		}
	}
	return out
}

// ReasonResponse 可选的变动原因
type ReasonResponse struct {
	Code        string `json:"code" example:"PURCHASE"`
	Description string `json:"description" example:"采购入库"`
}

// StatsResponse 库存概览
type StatsResponse struct {
	LowStockCount    int64  `json:"low_stock_count" example:"3"`
	OutOfStockCount  int64  `json:"out_of_stock_count" example:"1"`
	UnresolvedAlerts int64  `json:"unresolved_alerts" example:"4"`
	TotalValue       string `json:"total_value" example:"125800.50"`
}
