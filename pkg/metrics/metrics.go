// Package metrics 提供基于Prometheus的指标收集
//
// 指标分四组：
//   - HTTP：请求数、耗时、处理中请求数
//   - 库存核心：出入库流水、版本冲突、操作耗时
//   - 预警：创建/解除数量
//   - 基础设施：熔断器状态、消息发布/消费、后台副作用任务、缓存与幂等键
//
// 使用：
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
// 所有记录函数在InitMetrics之前调用是安全的（直接忽略），
// 单元测试不需要初始化全局Registry。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal HTTP请求总数，标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（秒），标签：method、path
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// StockMovementsTotal 成功落账的库存流水，标签：type（IN/OUT/ADJUSTMENT）、reason
	StockMovementsTotal *prometheus.CounterVec

	// StockOperationsFailedTotal 库存操作失败数，标签：operation、code
	StockOperationsFailedTotal *prometheus.CounterVec

	// StockOperationDuration 库存操作耗时（秒），标签：operation
	StockOperationDuration *prometheus.HistogramVec

	// ConcurrencyConflictsTotal 乐观锁版本冲突次数，标签：operation
	ConcurrencyConflictsTotal *prometheus.CounterVec

	// ConflictRetriesTotal 调用方因版本冲突发起的重试次数
	ConflictRetriesTotal prometheus.Counter

	// AlertsCreatedTotal 预警创建数，标签：type
	AlertsCreatedTotal *prometheus.CounterVec

	// AlertsResolvedTotal 预警解除数，标签：type、mode（auto/manual）
	AlertsResolvedTotal *prometheus.CounterVec

	// SideEffectsTotal 提交后副作用任务结果，标签：kind（audit/notify）、result（success/failure/dropped）
	SideEffectsTotal *prometheus.CounterVec

	// SideEffectQueueLength 副作用队列当前长度
	SideEffectQueueLength prometheus.Gauge

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN），标签：name
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数，标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// MessagesPublishedTotal 消息发布总数，标签：exchange、routing_key
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数，标签：queue、result
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 消息处理耗时（秒）
	MessageProcessingDuration prometheus.Histogram

	// CacheRequestsTotal 缓存读取，标签：cache、result（hit/miss/error）
	CacheRequestsTotal *prometheus.CounterVec

	// IdempotentRequestsTotal 带幂等键的写请求，标签：result（new/replay/in_progress/mismatch/error）
	IdempotentRequestsTotal *prometheus.CounterVec
)

// InitMetrics 注册所有指标到默认Registry，可重复调用
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	StockMovementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_movements_total",
			Help: "库存流水总数",
		},
		[]string{"type", "reason"},
	)

	StockOperationsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_operations_failed_total",
			Help: "库存操作失败总数",
		},
		[]string{"operation", "code"},
	)

	StockOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stock_operation_duration_seconds",
			Help:    "库存操作耗时（秒）",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	ConcurrencyConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_concurrency_conflicts_total",
			Help: "乐观锁版本冲突总数",
		},
		[]string{"operation"},
	)

	ConflictRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_conflict_retries_total",
			Help: "版本冲突重试总数",
		},
	)

	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_alerts_created_total",
			Help: "库存预警创建总数",
		},
		[]string{"type"},
	)

	AlertsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_alerts_resolved_total",
			Help: "库存预警解除总数",
		},
		[]string{"type", "mode"},
	)

	SideEffectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effects_total",
			Help: "提交后副作用任务总数",
		},
		[]string{"kind", "result"},
	)

	SideEffectQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "side_effect_queue_length",
			Help: "副作用队列长度",
		},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "缓存读取总数",
		},
		[]string{"cache", "result"},
	)

	IdempotentRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idempotent_requests_total",
			Help: "带幂等键的写请求总数",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "消息消费总数",
		},
		[]string{"queue", "result"},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "消息处理耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
	)
}

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// SetGauge 设置Gauge值
func SetGauge(gauge prometheus.Gauge, value float64) {
	if gauge == nil {
		return
	}
	gauge.Set(value)
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram == nil {
		return
	}
	histogram.Observe(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}
