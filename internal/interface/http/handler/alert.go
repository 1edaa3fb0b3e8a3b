package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/stockledger/internal/application/alerting"
	"github.com/xiebiao/stockledger/internal/domain/alert"
	"github.com/xiebiao/stockledger/internal/interface/http/dto"
	"github.com/xiebiao/stockledger/internal/interface/http/middleware"
	"github.com/xiebiao/stockledger/pkg/response"
)

// AlertHandler 库存预警HTTP处理器
type AlertHandler struct {
	alerts *alerting.Service
}

// NewAlertHandler 创建预警处理器
func NewAlertHandler(alertService *alerting.Service) *AlertHandler {
	return &AlertHandler{alerts: alertService}
}

// List 预警查询
// @Summary      预警查询
// @Tags         预警
// @Produce      json
// @Param        type query string false "预警类型" Enums(LOW_STOCK, OUT_OF_STOCK, OVERSTOCKED, EXPIRING_SOON, EXPIRED)
// @Param        resolved query bool false "是否已解除"
// @Param        product_id query int false "商品ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.AlertResponse}}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	var req dto.ListAlertsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	f := alert.Filter{
		Type:      alert.Type(req.Type),
		Resolved:  req.Resolved,
		ProductID: req.ProductID,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	list, total, err := h.alerts.Filter(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	f.Normalize()
	response.SuccessWithPage(c, dto.NewAlertList(list), total, f.Page, f.PageSize)
}

// ListUnresolved 未解除预警
// @Summary      未解除预警
// @Tags         预警
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.AlertResponse}}
// @Router       /api/v1/alerts/unresolved [get]
func (h *AlertHandler) ListUnresolved(c *gin.Context) {
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, size := pageOf(req)
	list, total, err := h.alerts.ListUnresolved(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewAlertList(list), total, page, size)
}

// Get 预警详情
// @Summary      预警详情
// @Tags         预警
// @Produce      json
// @Param        id path int true "预警ID"
// @Success      200 {object} response.Response{data=dto.AlertResponse}
// @Failure      404 {object} response.Response "预警不存在"
// @Router       /api/v1/alerts/{id} [get]
func (h *AlertHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	a, err := h.alerts.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewAlertResponse(a))
}

// Resolve 手动解除预警
// @Summary      手动解除预警
// @Description  不检查当前库存；已解除的预警原样返回
// @Tags         预警
// @Accept       json
// @Produce      json
// @Param        id path int true "预警ID"
// @Param        X-Actor-ID header string false "操作人"
// @Param        request body dto.ResolveAlertRequest false "备注"
// @Success      200 {object} response.Response{data=dto.AlertResponse}
// @Failure      404 {object} response.Response "预警不存在"
// @Router       /api/v1/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveAlertRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	a, err := h.alerts.ResolveManually(c.Request.Context(), id, middleware.GetActorID(c), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewAlertResponse(a))
}
