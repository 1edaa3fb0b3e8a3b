//go:build wireinject
// +build wireinject

// Wire依赖注入配置，运行 wire gen ./cmd/api 生成wire_gen.go
// main.go按同样的顺序手动组装，两者使用相同的Provider

package main

import (
	"github.com/google/wire"

	"github.com/xiebiao/stockledger/internal/infrastructure/config"
	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/stockledger/internal/interface/http/handler"
)

// infrastructureSet 配置、日志、存储
var infrastructureSet = wire.NewSet(
	config.Load,
	provideLogger,
	mysql.NewDB,
	provideRedis,
)

// sideEffectSet 提交后的审计与通知
var sideEffectSet = wire.NewSet(
	provideDispatcher,
	providePublisher,
	provideBreaker,
	provideAuditLogger,
	provideNotifier,
)

// applicationSet 库存核心与预警
var applicationSet = wire.NewSet(
	provideCatalog,
	provideStockService,
	provideAlertService,
	provideRetryPolicy,
)

// handlerSet HTTP接口
var handlerSet = wire.NewSet(
	handler.NewInventoryHandler,
	handler.NewAlertHandler,
	provideIdempotencyStore,
	provideGinEngine,
	provideServer,
)

// InitializeApp 组装整个服务，cleanup按相反顺序关闭工作池和消息连接
func InitializeApp() (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		sideEffectSet,
		applicationSet,
		handlerSet,
		newApp,
	)
	return nil, nil, nil
}
