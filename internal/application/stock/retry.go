package stock

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/xiebiao/stockledger/pkg/errors"
	"github.com/xiebiao/stockledger/pkg/metrics"
)

// RetryPolicy 版本冲突重试策略
type RetryPolicy struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// DefaultRetryPolicy 最多3次，10ms起指数退避
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: 10 * time.Millisecond,
	MaxInterval:     200 * time.Millisecond,
}

// RetryOnConflict 调用方重试：只在ConcurrencyConflict(含数据库死锁)时重新执行op
// op每次都会重新读取记录，前置条件(如库存充足)会重新判断。
// 次数用尽后返回最后一次的冲突错误
func RetryOnConflict[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		eb.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		eb.MaxInterval = policy.MaxInterval
	}
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(policy.MaxAttempts-1)), ctx)

	attempt := 0
	var result T
	err := backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			metrics.IncCounter(metrics.ConflictRetriesTotal)
		}

		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}
		if apperrors.CodeOf(err) == apperrors.ErrCodeConcurrencyConflict {
			return err
		}
		return backoff.Permanent(err)
	}, b)
	return result, err
}
