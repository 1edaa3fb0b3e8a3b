package alert

import (
	apperrors "github.com/xiebiao/stockledger/pkg/errors"
)

// 预警领域错误定义
var (
	// ErrAlertNotFound 预警不存在
	ErrAlertNotFound = apperrors.New(apperrors.ErrCodeAlertNotFound, "预警不存在")

	// ErrDuplicateOpenAlert 同类型未解除预警已存在(唯一索引冲突)
	ErrDuplicateOpenAlert = apperrors.New(apperrors.ErrCodeDuplicateEntry, "同类型未解除预警已存在")

	// ErrInvalidType 未知预警类型
	ErrInvalidType = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的预警类型")
)
