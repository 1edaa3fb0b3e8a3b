package errors

import (
	"context"
	"errors"
	"fmt"
)

// AppError 应用错误
// 1. Code是业务错误码，客户端据此判断错误类别
// 2. Message是可以直接展示给调用方的提示
// 3. Err是内部原因，只进日志，不序列化给客户端
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 把底层错误包装成内部错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return WrapWithCode(ErrCodeInternal, err, message)
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return WrapWithCode(ErrCodeInternal, err, fmt.Sprintf(format, args...))
}

// WrapWithCode 用指定错误码包装底层错误
func WrapWithCode(code int, err error, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Unavailable 存储或外部依赖暂时不可用（超时、连接失败），调用方可整体重试
func Unavailable(err error, message string) *AppError {
	return WrapWithCode(ErrCodeStoreUnavailable, err, message)
}

// =========================================
// 错误码定义
// =========================================
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（存储异常、外部服务调用失败）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal         = 50000 // 内部错误
	ErrCodeDatabaseError    = 50001 // 数据库错误
	ErrCodeRedisError       = 50002 // Redis错误
	ErrCodeStoreUnavailable = 50003 // 存储不可用（超时/断连）
	ErrCodeMQError          = 50004 // 消息队列错误

	// 资源错误（40400-40499）
	ErrCodeNotFound          = 40400 // 资源不存在(通用)
	ErrCodeInventoryNotFound = 40401 // 库存记录不存在
	ErrCodeProductNotFound   = 40402 // 商品不存在
	ErrCodeAlertNotFound     = 40403 // 预警不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError       = 40000 // 业务错误(通用)
	ErrCodeInsufficientStock   = 40001 // 库存不足
	ErrCodeAlreadyProvisioned  = 40004 // 库存记录已存在
	ErrCodeDuplicateEntry      = 40009 // 重复记录(通用)
	ErrCodeConcurrencyConflict = 40010 // 并发修改冲突（版本号不匹配）
	ErrCodeRequestInProgress   = 40011 // 相同幂等键的请求正在处理

	// 参数错误（40900-40999）
	ErrCodeInvalidParams     = 40900 // 参数错误
	ErrCodeBindError         = 40901 // 参数绑定失败
	ErrCodeInventoryInactive = 40902 // 库存记录已停用
	ErrCodeProductInactive   = 40903 // 商品已停用
)

// =========================================
// 预定义错误
// =========================================

var (
	ErrInternal         = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError    = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError       = New(ErrCodeRedisError, "缓存服务错误")
	ErrStoreUnavailable = New(ErrCodeStoreUnavailable, "存储服务暂时不可用，请稍后重试")

	ErrNotFound = New(ErrCodeNotFound, "资源不存在")

	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")

	ErrRequestInProgress = New(ErrCodeRequestInProgress, "相同幂等键的请求正在处理中")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
// 超时和取消统一归为存储不可用
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Unavailable(err, ErrStoreUnavailable.Message)
	}
	return Wrap(err, "系统内部错误")
}

// CodeOf 返回错误码，nil返回0
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	return GetAppError(err).Code
}

// IsNotFound 错误码是否属于4040x资源不存在
func IsNotFound(err error) bool {
	code := CodeOf(err)
	return code >= ErrCodeNotFound && code < ErrCodeNotFound+100
}

// IsTransient 是否为可整体重试的暂时性错误
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case ErrCodeStoreUnavailable, ErrCodeConcurrencyConflict:
		return true
	}
	return false
}
