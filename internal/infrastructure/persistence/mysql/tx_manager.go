package mysql

import (
	"context"

	"gorm.io/gorm"
)

// txKey context中事务DB的键
type txKey struct{}

// TxManager 事务管理器
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB，仓储用getDB取出
// 3. 嵌套调用时GORM使用Savepoint
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务，fn返回error时ROLLBACK，返回nil时COMMIT
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    r, err := inventoryRepo.FindByProductID(ctx, productID)
//	    if err != nil {
//	        return err
//	    }
//	    if err := inventoryRepo.Update(ctx, r, r.Version, -1); err != nil {
//	        return err // 回滚
//	    }
//	    return movementRepo.Append(ctx, m)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	db := m.db
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		db = tx
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return wrapStoreError(err, "事务执行失败")
}

// getDB 从context获取事务DB，没有则使用默认DB
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
