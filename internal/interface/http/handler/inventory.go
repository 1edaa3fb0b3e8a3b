package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/stockledger/internal/application/alerting"
	"github.com/xiebiao/stockledger/internal/application/stock"
	"github.com/xiebiao/stockledger/internal/domain/inventory"
	"github.com/xiebiao/stockledger/internal/domain/movement"
	"github.com/xiebiao/stockledger/internal/interface/http/dto"
	"github.com/xiebiao/stockledger/internal/interface/http/middleware"
	"github.com/xiebiao/stockledger/pkg/response"
)

// InventoryHandler 库存HTTP处理器
type InventoryHandler struct {
	stock  *stock.Service
	alerts *alerting.Service
	retry  stock.RetryPolicy
}

// NewInventoryHandler 创建库存处理器
// 写操作在版本冲突时按retry重试，每次重试都重新读取记录
func NewInventoryHandler(stockService *stock.Service, alertService *alerting.Service, retry stock.RetryPolicy) *InventoryHandler {
	return &InventoryHandler{stock: stockService, alerts: alertService, retry: retry}
}

// mutate 执行写操作并返回最新记录
func (h *InventoryHandler) mutate(c *gin.Context, op func(ctx context.Context) (*inventory.Record, error)) {
	rec, err := stock.RetryOnConflict(c.Request.Context(), h.retry, op)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryResponse(rec))
}

// Provision 为商品创建库存记录
// @Summary      创建库存记录
// @Description  商品进入目录时创建库存记录，初始数量为0，阈值取默认值
// @Tags         库存
// @Produce      json
// @Param        product_id path int true "商品ID"
// @Param        X-Actor-ID header string false "操作人"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      404 {object} response.Response "商品不存在"
// @Failure      422 {object} response.Response "库存记录已存在"
// @Router       /api/v1/products/{product_id}/inventory [post]
func (h *InventoryHandler) Provision(c *gin.Context) {
	productID, ok := uintParam(c, "product_id")
	if !ok {
		return
	}

	rec, err := h.stock.ProvisionForProduct(c.Request.Context(), productID, middleware.GetActorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryResponse(rec))
}

// GetByProduct 查询商品库存
// @Summary      查询商品库存
// @Tags         库存
// @Produce      json
// @Param        product_id path int true "商品ID"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      404 {object} response.Response "库存记录不存在"
// @Router       /api/v1/products/{product_id}/inventory [get]
func (h *InventoryHandler) GetByProduct(c *gin.Context) {
	productID, ok := uintParam(c, "product_id")
	if !ok {
		return
	}

	rec, err := h.stock.GetByProduct(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryResponse(rec))
}

// GetByID 按库存记录ID查询
// @Summary      按ID查询库存记录
// @Tags         库存
// @Produce      json
// @Param        id path int true "库存记录ID"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      404 {object} response.Response "库存记录不存在"
// @Router       /api/v1/inventory/{id} [get]
func (h *InventoryHandler) GetByID(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	rec, err := h.stock.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryResponse(rec))
}

// List 库存列表
// @Summary      库存列表
// @Tags         库存
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        location query string false "库位"
// @Param        active_only query bool false "只看启用"
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.InventoryResponse}}
// @Router       /api/v1/inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var req dto.ListInventoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	params := inventory.ListParams{Page: req.Page, PageSize: req.PageSize, Location: req.Location, ActiveOnly: req.ActiveOnly}
	params.Normalize()
	records, total, err := h.stock.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewInventoryList(records), total, params.Page, params.PageSize)
}

// AddStock 入库
// @Summary      入库
// @Description  增加可用数量并记录IN流水，数量恢复到阈值以上时自动解除低库存/缺货预警
// @Tags         库存
// @Accept       json
// @Produce      json
// @Param        product_id path int true "商品ID"
// @Param        X-Actor-ID header string false "操作人"
// @Param        Idempotency-Key header string false "幂等键"
// @Param        request body dto.MovementRequest true "入库信息"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "库存记录不存在"
// @Failure      409 {object} response.Response "并发修改冲突"
// @Router       /api/v1/products/{product_id}/inventory/add [post]
func (h *InventoryHandler) AddStock(c *gin.Context) {
	productID, ok := uintParam(c, "product_id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	reason, err := movement.ParseReason(req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	cmd := stock.MovementCommand{
		ProductID:       productID,
		Quantity:        req.Quantity,
		Reason:          reason,
		Notes:           req.Notes,
		ActorID:         middleware.GetActorID(c),
		ReferenceNumber: req.ReferenceNumber,
	}
	h.mutate(c, func(ctx context.Context) (*inventory.Record, error) {
		return h.stock.AddStock(ctx, cmd)
	})
}

// RemoveStock 出库
// @Summary      出库
// @Description  减少可用数量并记录OUT流水，库存不足时拒绝；跌破阈值时产生预警
// @Tags         库存
// @Accept       json
// @Produce      json
// @Param        product_id path int true "商品ID"
// @Param        X-Actor-ID header string false "操作人"
// @Param        Idempotency-Key header string false "幂等键"
// @Param        request body dto.MovementRequest true "出库信息"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "并发修改冲突"
// @Failure      422 {object} response.Response "库存不足"
// @Router       /api/v1/products/{product_id}/inventory/remove [post]
func (h *InventoryHandler) RemoveStock(c *gin.Context) {
	productID, ok := uintParam(c, "product_id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	reason, err := movement.ParseReason(req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	cmd := stock.MovementCommand{
		ProductID:       productID,
		Quantity:        req.Quantity,
		Reason:          reason,
		Notes:           req.Notes,
		ActorID:         middleware.GetActorID(c),
		ReferenceNumber: req.ReferenceNumber,
	}
	h.mutate(c, func(ctx context.Context) (*inventory.Record, error) {
		return h.stock.RemoveStock(ctx, cmd)
	})
}

// AdjustStock 盘点调整
// @Summary      盘点调整
// @Description  把可用数量设置为盘点结果并记录ADJUSTMENT流水
// @Tags         库存
// @Accept       json
// @Produce      json
// @Param        product_id path int true "商品ID"
// @Param        X-Actor-ID header string false "操作人"
// @Param        Idempotency-Key header string false "幂等键"
// @Param        request body dto.AdjustRequest true "盘点结果"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "并发修改冲突"
// @Router       /api/v1/products/{product_id}/inventory/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	productID, ok := uintParam(c, "product_id")
	if !ok {
		return
	}
	var req dto.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cmd := stock.AdjustCommand{
		ProductID:       productID,
		NewQuantity:     *req.NewQuantity,
		Notes:           req.Notes,
		ActorID:         middleware.GetActorID(c),
		ReferenceNumber: req.ReferenceNumber,
	}
	if req.Reason != "" {
		reason, err := movement.ParseReason(req.Reason)
		if err != nil {
			response.Error(c, err)
			return
		}
		cmd.Reason = reason
	}
	h.mutate(c, func(ctx context.Context) (*inventory.Record, error) {
		return h.stock.AdjustStock(ctx, cmd)
	})
}

// UpdateSettings 更新库存设置
// @Summary      更新库存设置
// @Description  修改阈值、库位、预警开关或启用状态，不改变数量；阈值变化时重新评估预警
// @Tags         库存
// @Accept       json
// @Produce      json
// @Param        product_id path int true "商品ID"
// @Param        X-Actor-ID header string false "操作人"
// @Param        request body dto.SettingsRequest true "设置"
// @Success      200 {object} response.Response{data=dto.InventoryResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "并发修改冲突"
// @Router       /api/v1/products/{product_id}/inventory/settings [patch]
func (h *InventoryHandler) UpdateSettings(c *gin.Context) {
	productID, ok := uintParam(c, "product_id")
	if !ok {
		return
	}
	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cmd := stock.SettingsCommand{
		ProductID: productID,
		Settings:  req.ToSettings(),
		ActorID:   middleware.GetActorID(c),
	}
	h.mutate(c, func(ctx context.Context) (*inventory.Record, error) {
		return h.stock.UpdateSettings(ctx, cmd)
	})
}

// ListLowStock 低库存(含缺货)
// @Summary      低库存列表
// @Tags         库存
// @Produce      json
// @Success      200 {object} response.Response{data=[]dto.InventoryResponse}
// @Router       /api/v1/inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	h.listAll(c, h.stock.ListLowStock)
}

// ListOutOfStock 缺货
// @Summary      缺货列表
// @Tags         库存
// @Produce      json
// @Success      200 {object} response.Response{data=[]dto.InventoryResponse}
// @Router       /api/v1/inventory/out-of-stock [get]
func (h *InventoryHandler) ListOutOfStock(c *gin.Context) {
	h.listAll(c, h.stock.ListOutOfStock)
}

// ListOverstocked 超储
// @Summary      超储列表
// @Tags         库存
// @Produce      json
// @Success      200 {object} response.Response{data=[]dto.InventoryResponse}
// @Router       /api/v1/inventory/overstocked [get]
func (h *InventoryHandler) ListOverstocked(c *gin.Context) {
	h.listAll(c, h.stock.ListOverstocked)
}

func (h *InventoryHandler) listAll(c *gin.Context, query func(ctx context.Context) ([]*inventory.Record, error)) {
	records, err := query(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewInventoryList(records))
}

// Stats 库存概览
// @Summary      库存概览
// @Description  低库存数、缺货数、未解除预警数、库存总值
// @Tags         库存
// @Produce      json
// @Success      200 {object} response.Response{data=dto.StatsResponse}
// @Router       /api/v1/inventory/stats [get]
func (h *InventoryHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	low, err := h.stock.CountLowStock(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.stock.CountOutOfStock(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	unresolved, err := h.alerts.CountUnresolved(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.stock.TotalInventoryValue(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.StatsResponse{
		LowStockCount:    low,
		OutOfStockCount:  out,
		UnresolvedAlerts: unresolved,
		TotalValue:       total.StringFixed(2),
	})
}

// ListMovements 商品的库存流水
// @Summary      商品库存流水
// @Tags         流水
// @Produce      json
// @Param        product_id path int true "商品ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.MovementResponse}}
// @Router       /api/v1/products/{product_id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	productID, ok := uintParam(c, "product_id")
	if !ok {
		return
	}
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, size := pageOf(req)
	list, total, err := h.stock.ListMovements(c.Request.Context(), productID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewMovementList(list), total, page, size)
}

// FilterMovements 库存流水组合查询
// @Summary      库存流水查询
// @Description  按商品、操作人、类型、时间区间[from, to)组合过滤，缺省条件不过滤
// @Tags         流水
// @Produce      json
// @Param        product_id query int false "商品ID"
// @Param        actor_id query string false "操作人"
// @Param        type query string false "流水类型" Enums(IN, OUT, ADJUSTMENT)
// @Param        from query string false "开始时间(RFC3339或2006-01-02)"
// @Param        to query string false "结束时间(不含)"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.MovementResponse}}
// @Failure      400 {object} response.Response
// @Router       /api/v1/movements [get]
func (h *InventoryHandler) FilterMovements(c *gin.Context) {
	var req dto.ListMovementsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	filter, err := req.ToFilter()
	if err != nil {
		response.Error(c, err)
		return
	}

	list, total, err := h.stock.FilterMovements(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewMovementList(list), total, filter.Page, filter.PageSize)
}

// ListMovementsByActor 操作人的库存流水
// @Summary      操作人库存流水
// @Tags         流水
// @Produce      json
// @Param        actor_id query string false "操作人，缺省为system"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.MovementResponse}}
// @Router       /api/v1/movements/by-actor [get]
func (h *InventoryHandler) ListMovementsByActor(c *gin.Context) {
	actor := c.Query("actor_id")
	if actor == "" {
		actor = movement.SystemActor
	}
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	page, size := pageOf(req)
	list, total, err := h.stock.ListMovementsByActor(c.Request.Context(), actor, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewMovementList(list), total, page, size)
}

// ListMovementsByDateRange 时间区间内的库存流水
// @Summary      时间区间库存流水
// @Tags         流水
// @Produce      json
// @Param        from query string true "开始时间(RFC3339或2006-01-02)"
// @Param        to query string true "结束时间(不含)"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.MovementResponse}}
// @Failure      400 {object} response.Response
// @Router       /api/v1/movements/date-range [get]
func (h *InventoryHandler) ListMovementsByDateRange(c *gin.Context) {
	var req dto.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	from, to, err := req.Range()
	if err != nil {
		response.Error(c, err)
		return
	}

	page, size := pageOf(dto.PageRequest{Page: req.Page, PageSize: req.PageSize})
	list, total, err := h.stock.ListMovementsByDateRange(c.Request.Context(), from, to, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewMovementList(list), total, page, size)
}

// CountMovementsByActor 操作人的流水条数
// @Summary      操作人流水计数
// @Tags         流水
// @Produce      json
// @Param        actor_id query string false "操作人，缺省为system"
// @Success      200 {object} response.Response{data=dto.CountResponse}
// @Router       /api/v1/movements/count [get]
func (h *InventoryHandler) CountMovementsByActor(c *gin.Context) {
	actor := c.Query("actor_id")
	if actor == "" {
		actor = movement.SystemActor
	}
	n, err := h.stock.CountMovementsByActor(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.CountResponse{ActorID: actor, Count: n})
}

// ListReasons 可选的变动原因
// @Summary      变动原因
// @Tags         流水
// @Produce      json
// @Success      200 {object} response.Response{data=[]dto.ReasonResponse}
// @Router       /api/v1/movement-reasons [get]
func (h *InventoryHandler) ListReasons(c *gin.Context) {
	out := make([]dto.ReasonResponse, len(movement.AllReasons))
	for i, r := range movement.AllReasons {
		out[i] = dto.ReasonResponse{Code: string(r), Description: r.Description()}
	}
	response.Success(c, out)
}

func pageOf(req dto.PageRequest) (int, int) {
	page, size := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return page, size
}
