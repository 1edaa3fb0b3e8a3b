package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/xiebiao/stockledger/internal/domain/inventory"
	apperrors "github.com/xiebiao/stockledger/pkg/errors"
)

// isDuplicateError 判断是否为唯一索引冲突
// MySQL 1062: Duplicate entry 'xxx' for key 'yyy'
// SQLite:     UNIQUE constraint failed
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// isUnavailable 超时、取消或连接失败
func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysqldriver.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	// 1205: Lock wait timeout exceeded
	return errors.As(err, &myErr) && myErr.Number == 1205
}

// isDeadlock InnoDB检测到死锁并回滚了整个事务
// MySQL 1213: Deadlock found when trying to get lock
func isDeadlock(err error) bool {
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1213
}

// wrapStoreError 把驱动错误转换为AppError
// 1. 已经是AppError(领域错误)原样返回
// 2. 死锁 → 并发冲突(重新读取后重试)
// 3. 超时/断连 → 存储不可用(可整体重试)
// 4. 其他 → 数据库错误
func wrapStoreError(err error, message string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}
	if isDeadlock(err) {
		return apperrors.WrapWithCode(apperrors.ErrCodeConcurrencyConflict, err, inventory.ErrConcurrencyConflict.Message)
	}
	if isUnavailable(err) {
		return apperrors.Unavailable(err, apperrors.ErrStoreUnavailable.Message)
	}
	return apperrors.WrapWithCode(apperrors.ErrCodeDatabaseError, err, message)
}

// offset 页码转偏移量
func offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
