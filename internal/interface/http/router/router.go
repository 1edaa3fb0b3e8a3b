// Package router 注册HTTP路由和中间件
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/interface/http/handler"
	"github.com/xiebiao/stockledger/internal/interface/http/middleware"
	"github.com/xiebiao/stockledger/pkg/response"
)

// Options 路由选项，零值字段表示关闭对应功能
type Options struct {
	Mode        string                      // debug | release | test
	MetricsPath string                      // 为空不暴露/metrics也不采集HTTP指标
	TracerName  string                      // 为空不创建span
	Swagger     bool
	Idempotency middleware.IdempotencyStore // 为nil时忽略Idempotency-Key
	MaxKeySize  int
	Logger      *zap.Logger
}

// Handlers 路由用到的处理器
type Handlers struct {
	Inventory *handler.InventoryHandler
	Alert     *handler.AlertHandler
}

// New 创建Gin引擎
// 中间件顺序：请求日志 → 追踪 → 指标 → 操作人 → 幂等
func New(opts Options, h Handlers) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Logger))
	if opts.TracerName != "" {
		r.Use(middleware.Tracing(opts.TracerName, "/ping", opts.MetricsPath))
	}
	if opts.MetricsPath != "" {
		r.Use(middleware.Metrics(opts.MetricsPath))
		r.GET(opts.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	if opts.Swagger {
		// http://localhost:8080/swagger/index.html
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Actor())
	if opts.Idempotency != nil {
		v1.Use(middleware.Idempotency(opts.Idempotency, opts.MaxKeySize, opts.Logger))
	}
	{
		products := v1.Group("/products/:product_id")
		{
			products.POST("/inventory", h.Inventory.Provision)
			products.GET("/inventory", h.Inventory.GetByProduct)
			products.POST("/inventory/add", h.Inventory.AddStock)
			products.POST("/inventory/remove", h.Inventory.RemoveStock)
			products.POST("/inventory/adjust", h.Inventory.AdjustStock)
			products.PATCH("/inventory/settings", h.Inventory.UpdateSettings)
			products.GET("/movements", h.Inventory.ListMovements)
		}

		inv := v1.Group("/inventory")
		{
			inv.GET("", h.Inventory.List)
			inv.GET("/low-stock", h.Inventory.ListLowStock)
			inv.GET("/out-of-stock", h.Inventory.ListOutOfStock)
			inv.GET("/overstocked", h.Inventory.ListOverstocked)
			inv.GET("/stats", h.Inventory.Stats)
			inv.GET("/:id", h.Inventory.GetByID)
		}

		v1.GET("/movements", h.Inventory.FilterMovements)
		v1.GET("/movements/by-actor", h.Inventory.ListMovementsByActor)
		v1.GET("/movements/date-range", h.Inventory.ListMovementsByDateRange)
		v1.GET("/movements/count", h.Inventory.CountMovementsByActor)
		v1.GET("/movement-reasons", h.Inventory.ListReasons)

		alerts := v1.Group("/alerts")
		{
			alerts.GET("", h.Alert.List)
			alerts.GET("/unresolved", h.Alert.ListUnresolved)
			alerts.GET("/:id", h.Alert.Get)
			alerts.POST("/:id/resolve", h.Alert.Resolve)
		}
	}

	return r
}
