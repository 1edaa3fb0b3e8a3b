package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/xiebiao/stockledger/docs"
	"github.com/xiebiao/stockledger/internal/infrastructure/config"
	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/stockledger/internal/interface/http/handler"
	"github.com/xiebiao/stockledger/pkg/metrics"
	"github.com/xiebiao/stockledger/pkg/tracing"
)

// @title        StockLedger API
// @version      1.0
// @description  仓库库存一致性核心：库存记录、出入库流水、库存预警
// @host         localhost:8080
// @BasePath     /
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger, err := provideLogger(cfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// 2. 可观测性
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			logger.Fatal("初始化链路追踪失败", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	// 3. 存储
	db, err := mysql.NewDB(cfg, logger)
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	redisClient := provideRedis(cfg, logger)

	// 4. 副作用：工作池 + 审计/通知的投递方式
	dispatcher, closeDispatcher := provideDispatcher(cfg, logger)
	publisher, closePublisher, err := providePublisher(cfg, logger)
	if err != nil {
		logger.Fatal("初始化消息队列失败", zap.Error(err))
	}
	breaker := provideBreaker(cfg, logger)
	auditLog := provideAuditLogger(db, publisher, breaker, logger)
	notifier := provideNotifier(cfg, db, publisher, breaker, logger)

	// 5. 应用层
	catalog := provideCatalog(cfg, db, redisClient, logger)
	stockService := provideStockService(cfg, db, catalog, auditLog, notifier, dispatcher, logger)
	alertService := provideAlertService(db, auditLog, dispatcher, logger)

	// 6. 接口层
	inventoryHandler := handler.NewInventoryHandler(stockService, alertService, provideRetryPolicy(cfg))
	alertHandler := handler.NewAlertHandler(alertService)
	engine := provideGinEngine(cfg, logger, provideIdempotencyStore(cfg, redisClient), inventoryHandler, alertHandler)
	srv := provideServer(cfg, engine)

	go func() {
		logger.Info("服务启动", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	// 7. 优雅关闭：先停HTTP，再排空副作用队列，最后断开消息队列
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP服务强制关闭", zap.Error(err))
	}
	closeDispatcher()
	closePublisher()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("服务已关闭")
}
