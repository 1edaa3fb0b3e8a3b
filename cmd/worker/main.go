// worker 消费库存事件：审计日志落库、预警通知、商品变更时删除商品缓存
//
// 只在rabbitmq.enabled=true时需要运行。投递至少一次，
// 同一事件可能被处理多次。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/internal/infrastructure/config"
	"github.com/xiebiao/stockledger/internal/infrastructure/messaging"
	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/stockledger/pkg/logger"
	"github.com/xiebiao/stockledger/pkg/metrics"
	"github.com/xiebiao/stockledger/pkg/mq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if !cfg.RabbitMQ.Enabled {
		zlog.Fatal("rabbitmq.enabled=false，API直接写库，无需启动worker")
	}
	metrics.InitMetrics()

	db, err := mysql.NewDB(cfg, zlog)
	if err != nil {
		zlog.Fatal("初始化数据库失败", zap.Error(err))
	}

	consumer, err := mq.NewConsumer(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.ExchangeType,
		cfg.RabbitMQ.Queue,
		[]string{messaging.RoutingKeyAudit, messaging.RoutingKeyAlertCreated, messaging.RoutingKeyProductUpdated},
		cfg.RabbitMQ.Prefetch,
		zlog,
	)
	if err != nil {
		zlog.Fatal("初始化消费者失败", zap.Error(err))
	}
	defer consumer.Close()

	handler := messaging.NewEventHandler(
		mysql.NewAuditLogger(db),
		mysql.NewNotificationRepository(db),
		cfg.Notification.Channels,
		zlog,
	)

	// Redis不可用时worker照常处理审计和通知，只跳过缓存失效
	if client, err := redis.NewClient(cfg, zlog); err != nil {
		zlog.Warn("Redis不可用，忽略商品变更事件", zap.Error(err))
	} else {
		defer client.Close()
		catalog := mysql.NewProductCatalog(db)
		handler.WithProductCache(redis.NewCachedCatalog(catalog, client, cfg.Cache.KeyPrefix, cfg.Cache.ProductTTL, zlog))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Info("worker启动", zap.String("queue", cfg.RabbitMQ.Queue))
	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		zlog.Error("消费中断", zap.Error(err))
	}
	zlog.Info("worker已退出")
}
