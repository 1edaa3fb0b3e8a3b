package dto

import (
	"github.com/xiebiao/stockledger/internal/domain/alert"
)

// ListAlertsRequest 预警查询，resolved缺省表示不过滤
type ListAlertsRequest struct {
	Type      string `form:"type" example:"LOW_STOCK"`
	Resolved  *bool  `form:"resolved" example:"false"`
	ProductID uint   `form:"product_id" example:"1001"`
	Page      int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// ResolveAlertRequest 手动解除预警
type ResolveAlertRequest struct {
	Notes string `json:"notes" binding:"max=500" example:"已安排补货"`
}

// AlertResponse 库存预警
type AlertResponse struct {
	ID              uint   `json:"id" example:"1"`
	ProductID       uint   `json:"product_id" example:"1001"`
	Type            string `json:"type" example:"LOW_STOCK"`
	Title           string `json:"title" example:"库存不足"`
	CurrentQuantity int    `json:"current_quantity" example:"4"`
	Threshold       int    `json:"threshold" example:"10"`
	IsResolved      bool   `json:"is_resolved" example:"false"`
	ResolvedAt      string `json:"resolved_at,omitempty"`
	ResolvedBy      string `json:"resolved_by,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"created_at" example:"2026-03-02 15:30:00"`
}

// NewAlertResponse 领域对象转响应
func NewAlertResponse(a *alert.Alert) *AlertResponse {
	return &AlertResponse{
		ID:              a.ID,
		ProductID:       a.ProductID,
		Type:            string(a.Type),
		Title:           a.Type.Title(),
		CurrentQuantity: a.CurrentQuantity,
		Threshold:       a.Threshold,
		IsResolved:      a.IsResolved,
		ResolvedAt:      formatTimePtr(a.ResolvedAt),
		ResolvedBy:      a.ResolvedBy,
		Notes:           a.Notes,
		CreatedAt:       FormatTime(a.CreatedAt),
	}
}

// NewAlertList 批量转换
func NewAlertList(alerts []*alert.Alert) []*AlertResponse {
	out := make([]*AlertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = NewAlertResponse(a)
	}
	return out
}
