// Package sideeffect 事务提交后的副作用(审计日志、预警通知)
//
// 副作用在事务内收集，提交成功后才交给后台工作协程执行；
// 事务回滚时直接丢弃。执行失败只记日志，不影响已提交的库存变更。
package sideeffect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/stockledger/pkg/metrics"
)

// Task 副作用任务
type Task func(ctx context.Context) error

// Config 工作池配置
type Config struct {
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

type job struct {
	kind string
	task Task
}

// Dispatcher 有界队列 + 固定数量工作协程
// 队列满时Submit立即返回false，调用方不会被阻塞
type Dispatcher struct {
	queue   chan job
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher 创建并启动工作池
func NewDispatcher(cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		queue:   make(chan job, cfg.QueueSize),
		timeout: cfg.TaskTimeout,
		logger:  logger,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Submit 投递任务，队列已满或已关闭时丢弃并返回false
func (d *Dispatcher) Submit(kind string, task Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("副作用工作池已关闭，丢弃任务", zap.String("kind", kind))
		metrics.IncCounterVec(metrics.SideEffectsTotal, map[string]string{"kind": kind, "result": "dropped"})
		return false
	}

	select {
	case d.queue <- job{kind: kind, task: task}:
		metrics.SetGauge(metrics.SideEffectQueueLength, float64(len(d.queue)))
		return true
	default:
		d.logger.Warn("副作用队列已满，丢弃任务", zap.String("kind", kind))
		metrics.IncCounterVec(metrics.SideEffectsTotal, map[string]string{"kind": kind, "result": "dropped"})
		return false
	}
}

// Close 停止接收新任务，等待队列中的任务执行完
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		metrics.SetGauge(metrics.SideEffectQueueLength, float64(len(d.queue)))
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return j.task(ctx)
	}()

	if err != nil {
		d.logger.Error("副作用执行失败", zap.String("kind", j.kind), zap.Error(err))
		metrics.IncCounterVec(metrics.SideEffectsTotal, map[string]string{"kind": j.kind, "result": "failure"})
		return
	}
	metrics.IncCounterVec(metrics.SideEffectsTotal, map[string]string{"kind": j.kind, "result": "success"})
}
