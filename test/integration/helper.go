// Package integration 真实MySQL上的并发测试
//
// 设置STOCKLEDGER_TEST_DSN后运行，例如：
//
//	STOCKLEDGER_TEST_DSN='root:root@tcp(127.0.0.1:3306)/stockledger_test?parseTime=true&loc=Local' \
//	    go test ./test/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/stockledger/internal/application/sideeffect"
	"github.com/xiebiao/stockledger/internal/application/stock"
	"github.com/xiebiao/stockledger/internal/infrastructure/persistence/mysql"
)

// inlineEffects 副作用同步执行，测试结束时审计已落库
type inlineEffects struct{}

func (inlineEffects) Submit(_ string, task sideeffect.Task) bool {
	_ = task(context.Background())
	return true
}

// openDB 未设置DSN时跳过测试
func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("STOCKLEDGER_TEST_DSN")
	if dsn == "" {
		t.Skip("未设置STOCKLEDGER_TEST_DSN，跳过MySQL集成测试")
	}

	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(32)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, mysql.Migrate(db))
	return db
}

// seedProduct 每次运行用不同的商品ID，结束后清理
func seedProduct(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	id := uint(time.Now().UnixNano()%1_000_000_000) + 1
	require.NoError(t, db.Create(&mysql.ProductModel{
		ID:       id,
		SKU:      fmt.Sprintf("IT-%d", id),
		Name:     "集成测试商品",
		Price:    decimal.RequireFromString("9.90"),
		IsActive: true,
	}).Error)

	t.Cleanup(func() {
		db.Where("product_id = ?", id).Delete(&mysql.MovementModel{})
		db.Where("product_id = ?", id).Delete(&mysql.AlertModel{})
		db.Where("product_id = ?", id).Delete(&mysql.NotificationModel{})
		db.Where("product_id = ?", id).Delete(&mysql.InventoryModel{})
		db.Delete(&mysql.ProductModel{}, id)
	})
	return id
}

func newService(db *gorm.DB) *stock.Service {
	return stock.NewService(stock.Deps{
		Tx:        mysql.NewTxManager(db),
		Records:   mysql.NewInventoryRepository(db),
		Movements: mysql.NewMovementRepository(db),
		Alerts:    mysql.NewAlertRepository(db),
		Catalog:   mysql.NewProductCatalog(db),
		Audit:     mysql.NewAuditLogger(db),
		Effects:   inlineEffects{},
	}, stock.Config{StoreTimeout: 5 * time.Second}, zap.NewNop())
}
