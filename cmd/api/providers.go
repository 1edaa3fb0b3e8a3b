package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/stockledger/internal/application/alerting"
	"github.com/xiebiao/stockledger/internal/application/sideeffect"
	"github.com/xiebiao/stockledger/internal/application/stock"
	"github.com/xiebiao/stockledger/internal/domain/alert"
	"github.com/xiebiao/stockledger/internal/domain/audit"
	"github.com/xiebiao/stockledger/internal/domain/product"
	"github.com/xiebiao/stockledger/internal/infrastructure/config"
	"github.com/xiebiao/stockledger/internal/infrastructure/messaging"
	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/stockledger/internal/interface/http/handler"
	"github.com/xiebiao/stockledger/internal/interface/http/middleware"
	"github.com/xiebiao/stockledger/internal/interface/http/router"
	"github.com/xiebiao/stockledger/pkg/circuitbreaker"
	"github.com/xiebiao/stockledger/pkg/logger"
	"github.com/xiebiao/stockledger/pkg/mq"
)

// App 组装完成的服务
type App struct {
	Server *http.Server
	Logger *zap.Logger
}

func newApp(srv *http.Server, log *zap.Logger) *App {
	return &App{Server: srv, Logger: log}
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log)
}

// provideRedis Redis不可用时返回nil，服务降级为不缓存、不处理幂等键
func provideRedis(cfg *config.Config, log *zap.Logger) *goredis.Client {
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		log.Warn("Redis不可用，关闭商品缓存和幂等键", zap.Error(err))
		return nil
	}
	return client
}

func provideDispatcher(cfg *config.Config, log *zap.Logger) (*sideeffect.Dispatcher, func()) {
	d := sideeffect.NewDispatcher(sideeffect.Config{
		Workers:     cfg.SideEffect.Workers,
		QueueSize:   cfg.SideEffect.QueueSize,
		TaskTimeout: cfg.SideEffect.TaskTimeout,
	}, log)
	return d, d.Close
}

func provideCatalog(cfg *config.Config, db *gorm.DB, client *goredis.Client, log *zap.Logger) product.Catalog {
	catalog := mysql.NewProductCatalog(db)
	if client == nil {
		return catalog
	}
	return redis.NewCachedCatalog(catalog, client, cfg.Cache.KeyPrefix, cfg.Cache.ProductTTL, log)
}

// providePublisher 未启用RabbitMQ时返回nil，审计和通知直接写库
func providePublisher(cfg *config.Config, log *zap.Logger) (messaging.Publisher, func(), error) {
	if !cfg.RabbitMQ.Enabled {
		return nil, func() {}, nil
	}
	pub, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.ExchangeType, log)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化消息发布者失败: %w", err)
	}
	return pub, func() { _ = pub.Close() }, nil
}

func provideBreaker(cfg *config.Config, log *zap.Logger) *circuitbreaker.CircuitBreaker {
	cb := circuitbreaker.NewCircuitBreaker("rabbitmq",
		circuitbreaker.DefaultConfig(cfg.RabbitMQ.BreakerThreshold, cfg.RabbitMQ.BreakerTimeout))
	cb.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		log.Warn("熔断器状态变化", zap.String("name", name), zap.Stringer("from", from), zap.Stringer("to", to))
	})
	return cb
}

func provideAuditLogger(db *gorm.DB, pub messaging.Publisher, cb *circuitbreaker.CircuitBreaker, log *zap.Logger) audit.Logger {
	if pub == nil {
		return mysql.NewAuditLogger(db)
	}
	return messaging.NewAuditPublisher(pub, cb, log)
}

func provideNotifier(cfg *config.Config, db *gorm.DB, pub messaging.Publisher, cb *circuitbreaker.CircuitBreaker, log *zap.Logger) alert.Notifier {
	if pub == nil {
		return alerting.NewNotifier(mysql.NewNotificationRepository(db), cfg.Notification.Channels, log)
	}
	return messaging.NewAlertPublisher(pub, cb, log)
}

func provideStockService(
	cfg *config.Config,
	db *gorm.DB,
	catalog product.Catalog,
	auditLog audit.Logger,
	notifier alert.Notifier,
	effects *sideeffect.Dispatcher,
	log *zap.Logger,
) *stock.Service {
	return stock.NewService(stock.Deps{
		Tx:        mysql.NewTxManager(db),
		Records:   mysql.NewInventoryRepository(db),
		Movements: mysql.NewMovementRepository(db),
		Alerts:    mysql.NewAlertRepository(db),
		Catalog:   catalog,
		Audit:     auditLog,
		Notifier:  notifier,
		Effects:   effects,
	}, stock.Config{
		Defaults:     cfg.Inventory.Defaults,
		StoreTimeout: cfg.Inventory.StoreTimeout,
	}, log)
}

func provideAlertService(db *gorm.DB, auditLog audit.Logger, effects *sideeffect.Dispatcher, log *zap.Logger) *alerting.Service {
	return alerting.NewService(mysql.NewAlertRepository(db), auditLog, effects, log)
}

func provideRetryPolicy(cfg *config.Config) stock.RetryPolicy {
	return stock.RetryPolicy{
		MaxAttempts:     cfg.Inventory.Retry.MaxAttempts,
		InitialInterval: cfg.Inventory.Retry.InitialInterval,
		MaxInterval:     cfg.Inventory.Retry.MaxInterval,
	}
}

func provideIdempotencyStore(cfg *config.Config, client *goredis.Client) middleware.IdempotencyStore {
	if !cfg.Idempotency.Enabled || client == nil {
		return nil
	}
	return redis.NewIdempotencyStore(client, cfg.Idempotency.KeyPrefix, cfg.Idempotency.TTL, cfg.Idempotency.LockTTL)
}

func provideGinEngine(
	cfg *config.Config,
	log *zap.Logger,
	store middleware.IdempotencyStore,
	inventoryHandler *handler.InventoryHandler,
	alertHandler *handler.AlertHandler,
) *gin.Engine {
	opts := router.Options{
		Mode:        cfg.Server.Mode,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
		Idempotency: store,
		MaxKeySize:  cfg.Idempotency.MaxKeySize,
		Logger:      log,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Tracing.Enabled {
		opts.TracerName = cfg.Tracing.ServiceName
	}
	return router.New(opts, router.Handlers{Inventory: inventoryHandler, Alert: alertHandler})
}

func provideServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
