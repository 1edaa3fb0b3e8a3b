package inventory

import (
	"fmt"

	apperrors "github.com/xiebiao/stockledger/pkg/errors"
)

// 库存领域错误定义
var (
	// ErrInventoryNotFound 库存记录不存在
	ErrInventoryNotFound = apperrors.New(apperrors.ErrCodeInventoryNotFound, "库存记录不存在")

	// ErrAlreadyProvisioned 该商品已有库存记录
	ErrAlreadyProvisioned = apperrors.New(apperrors.ErrCodeAlreadyProvisioned, "该商品已存在库存记录")

	// ErrInvalidQuantity 数量必须>=1
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")

	// ErrNegativeQuantity 调整目标不能为负
	ErrNegativeQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "库存数量不能为负数")

	// ErrNegativeThreshold 阈值不能为负
	ErrNegativeThreshold = apperrors.New(apperrors.ErrCodeInvalidParams, "库存阈值不能为负数")

	// ErrThresholdRange 最低库存不能高于最高库存
	ErrThresholdRange = apperrors.New(apperrors.ErrCodeInvalidParams, "最低库存不能大于最高库存")

	// ErrInventoryInactive 库存记录已停用
	ErrInventoryInactive = apperrors.New(apperrors.ErrCodeInventoryInactive, "库存记录已停用")

	// ErrInsufficientStock 库存不足(哨兵值，具体数量见InsufficientStockError)
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	// ErrConcurrencyConflict 读取后记录已被其他写入方修改，调用方需重新读取后重试
	ErrConcurrencyConflict = apperrors.New(apperrors.ErrCodeConcurrencyConflict, "库存记录已被修改，请重试")
)

// InsufficientStockError 库存不足，携带可用数量与请求数量
// errors.Is(err, ErrInsufficientStock) 为true，
// errors.As(err, &appErr) 取到带具体数量的AppError
type InsufficientStockError struct {
	ProductID uint
	Available int
	Requested int
}

// NewInsufficientStockError 创建库存不足错误
func NewInsufficientStockError(productID uint, available, requested int) *InsufficientStockError {
	return &InsufficientStockError{ProductID: productID, Available: available, Requested: requested}
}

func (e *InsufficientStockError) message() string {
	return fmt.Sprintf("库存不足: 可用%d, 需要%d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("[%d] 商品%d %s", apperrors.ErrCodeInsufficientStock, e.ProductID, e.message())
}

// Unwrap 同时暴露带数量的AppError和哨兵错误
func (e *InsufficientStockError) Unwrap() []error {
	return []error{
		apperrors.New(apperrors.ErrCodeInsufficientStock, e.message()),
		ErrInsufficientStock,
	}
}
