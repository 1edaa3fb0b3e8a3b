package movement

import (
	apperrors "github.com/xiebiao/stockledger/pkg/errors"
)

// 流水领域错误定义
var (
	// ErrInvalidReason 未知的业务原因
	ErrInvalidReason = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的库存变动原因")

	// ErrInvalidType 未知的流水类型
	ErrInvalidType = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的库存流水类型")

	// ErrInvalidDateRange 开始时间必须早于结束时间
	ErrInvalidDateRange = apperrors.New(apperrors.ErrCodeInvalidParams, "开始时间必须早于结束时间")

	// ErrSnapshotMismatch 前后数量快照与变动量不一致
	ErrSnapshotMismatch = apperrors.New(apperrors.ErrCodeInternal, "库存流水数量快照不一致")
)
