package sideeffect

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDispatcher(t *testing.T) {
	t.Run("关闭前执行完全部任务", func(t *testing.T) {
		d := NewDispatcher(Config{Workers: 2, QueueSize: 16}, zap.NewNop())

		var done int32
		for i := 0; i < 10; i++ {
			assert.True(t, d.Submit("audit", func(context.Context) error {
				atomic.AddInt32(&done, 1)
				return nil
			}))
		}
		d.Close()

		assert.Equal(t, int32(10), atomic.LoadInt32(&done))
	})

	t.Run("失败和panic不影响后续任务", func(t *testing.T) {
		d := NewDispatcher(Config{Workers: 1, QueueSize: 4}, zap.NewNop())

		var done int32
		d.Submit("notify", func(context.Context) error { return errors.New("smtp down") })
		d.Submit("notify", func(context.Context) error { panic("boom") })
		d.Submit("notify", func(context.Context) error {
			atomic.AddInt32(&done, 1)
			return nil
		})
		d.Close()

		assert.Equal(t, int32(1), atomic.LoadInt32(&done))
	})

	t.Run("队列满时丢弃", func(t *testing.T) {
		d := NewDispatcher(Config{Workers: 1, QueueSize: 1}, zap.NewNop())
		release := make(chan struct{})
		started := make(chan struct{})

		d.Submit("audit", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
		<-started

		assert.True(t, d.Submit("audit", func(context.Context) error { return nil }))
		assert.False(t, d.Submit("audit", func(context.Context) error { return nil }))

		close(release)
		d.Close()
	})

	t.Run("关闭后拒绝", func(t *testing.T) {
		d := NewDispatcher(Config{}, zap.NewNop())
		d.Close()
		d.Close()
		assert.False(t, d.Submit("audit", func(context.Context) error { return nil }))
	})

	t.Run("任务带超时", func(t *testing.T) {
		d := NewDispatcher(Config{Workers: 1, TaskTimeout: 20 * time.Millisecond}, zap.NewNop())
		var deadline int32
		d.Submit("notify", func(ctx context.Context) error {
			<-ctx.Done()
			atomic.StoreInt32(&deadline, 1)
			return ctx.Err()
		})
		d.Close()
		assert.Equal(t, int32(1), atomic.LoadInt32(&deadline))
	})
}
