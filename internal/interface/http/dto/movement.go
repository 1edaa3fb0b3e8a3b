package dto

import (
	"strings"
	"time"

	"github.com/xiebiao/stockledger/internal/domain/movement"
	apperrors "github.com/xiebiao/stockledger/pkg/errors"
)

// 查询参数接受的时间格式，非RFC3339按本地时区解析
var queryTimeLayouts = []string{time.RFC3339, TimeLayout, "2006-01-02"}

// ListMovementsRequest 流水组合查询，缺省字段不过滤
type ListMovementsRequest struct {
	ProductID uint   `form:"product_id" example:"1001"`
	ActorID   string `form:"actor_id" example:"alice"`
	Type      string `form:"type" example:"OUT"`
	From      string `form:"from" example:"2026-03-01"`
	To        string `form:"to" example:"2026-03-02"`
	Page      int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// ToFilter 转换为领域查询条件
func (r *ListMovementsRequest) ToFilter() (movement.Filter, error) {
	f := movement.Filter{
		ProductID: r.ProductID,
		ActorID:   r.ActorID,
		Type:      movement.Type(strings.ToUpper(strings.TrimSpace(r.Type))),
		Page:      r.Page,
		PageSize:  r.PageSize,
	}
	var err error
	if f.From, err = parseQueryTime("from", r.From); err != nil {
		return f, err
	}
	if f.To, err = parseQueryTime("to", r.To); err != nil {
		return f, err
	}
	f.Normalize()
	return f, nil
}

// DateRangeRequest 时间区间 [from, to)
type DateRangeRequest struct {
	From     string `form:"from" binding:"required" example:"2026-03-01"`
	To       string `form:"to" binding:"required" example:"2026-03-02"`
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// Range 解析区间端点
func (r *DateRangeRequest) Range() (time.Time, time.Time, error) {
	from, err := parseQueryTime("from", r.From)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseQueryTime("to", r.To)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from == nil || to == nil {
		return time.Time{}, time.Time{}, apperrors.New(apperrors.ErrCodeInvalidParams, "缺少时间区间参数")
	}
	return *from, *to, nil
}

// CountResponse 计数
type CountResponse struct {
	ActorID string `json:"actor_id" example:"alice"`
	Count   int64  `json:"count" example:"12"`
}

func parseQueryTime(name, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range queryTimeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "无效的时间参数"+name+": "+v)
}
