package mysql

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存SQLite库
// 单连接保证事务内外看到同一个库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, id uint, price string, active bool) {
	t.Helper()
	require.NoError(t, db.Create(&ProductModel{
		ID:       id,
		SKU:      fmt.Sprintf("SKU-%03d", id),
		Name:     fmt.Sprintf("商品%d", id),
		Price:    decimal.RequireFromString(price),
		IsActive: active,
	}).Error)
}
