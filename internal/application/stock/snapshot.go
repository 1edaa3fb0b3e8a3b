package stock

import (
	"time"

	"github.com/xiebiao/stockledger/internal/domain/inventory"
)

// recordSnapshot 审计before/after的JSON快照
type recordSnapshot struct {
	ID                   uint       `json:"id"`
	ProductID            uint       `json:"product_id"`
	QuantityAvailable    int        `json:"quantity_available"`
	MinStockLevel        int        `json:"min_stock_level"`
	MaxStockLevel        int        `json:"max_stock_level"`
	ReorderPoint         int        `json:"reorder_point"`
	ReorderQuantity      int        `json:"reorder_quantity"`
	Location             string     `json:"location,omitempty"`
	BinNumber            string     `json:"bin_number,omitempty"`
	RackNumber           string     `json:"rack_number,omitempty"`
	LowStockAlertEnabled bool       `json:"low_stock_alert_enabled"`
	IsActive             bool       `json:"is_active"`
	LastRestockDate      *time.Time `json:"last_restock_date,omitempty"`
	LastSaleDate         *time.Time `json:"last_sale_date,omitempty"`
	Version              int64      `json:"version"`
}

func snapshotOf(r *inventory.Record) *recordSnapshot {
	if r == nil {
		return nil
	}
	return &recordSnapshot{
		ID:                   r.ID,
		ProductID:            r.ProductID,
		QuantityAvailable:    r.QuantityAvailable,
		MinStockLevel:        r.MinStockLevel,
		MaxStockLevel:        r.MaxStockLevel,
		ReorderPoint:         r.ReorderPoint,
		ReorderQuantity:      r.ReorderQuantity,
		Location:             r.Location,
		BinNumber:            r.BinNumber,
		RackNumber:           r.RackNumber,
		LowStockAlertEnabled: r.LowStockAlertEnabled,
		IsActive:             r.IsActive,
		LastRestockDate:      r.LastRestockDate,
		LastSaleDate:         r.LastSaleDate,
		Version:              r.Version,
	}
}
