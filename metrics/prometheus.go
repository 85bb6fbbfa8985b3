// Package metrics 封装基于 Prometheus 的指标注册表与定价引擎的标准指标。
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 封装了独立的 Prometheus 注册表及预定义的引擎指标。
type Metrics struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec   // 定价/模拟调用次数 (维度: operation, status)
	OperationDuration *prometheus.HistogramVec // 调用耗时分布
	BatchSize         *prometheus.HistogramVec // 批量调用的元素个数
	SimulatedPaths    *prometheus.CounterVec   // 已模拟路径数 (维度: model)
	BuildInfo         *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器，自动注册 Go 运行时指标和进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.OperationsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "quant_operations_total",
		Help: "Total number of pricing and simulation operations",
	}, []string{"operation", "status"})

	m.OperationDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quant_operation_duration_seconds",
		Help:    "Latency of pricing and simulation operations in seconds",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 14),
	}, []string{"operation"})

	m.BatchSize = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quant_batch_size",
		Help:    "Number of options per batch call",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	}, []string{"operation"})

	m.SimulatedPaths = m.NewCounterVec(prometheus.CounterOpts{
		Name: "quant_simulated_paths_total",
		Help: "Total number of simulated stochastic paths",
	}, []string{"model"})

	slog.Info("unified metrics registry initialized", "service", serviceName)
	return m
}

// ObserveOperation 记录一次操作的结果与耗时，m 为 nil 时为空操作。
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveBatch 记录批量调用的规模。
func (m *Metrics) ObserveBatch(operation string, n int) {
	if m == nil {
		return
	}
	m.BatchSize.WithLabelValues(operation).Observe(float64(n))
}

// AddPaths 累加模拟路径数。
func (m *Metrics) AddPaths(model string, n int) {
	if m == nil {
		return
	}
	m.SimulatedPaths.WithLabelValues(model).Add(float64(n))
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewGauge 创建并注册一个无维度的仪表盘指标。
func (m *Metrics) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	m.registry.MustRegister(g)
	return g
}

// NewCounter 创建并注册一个无维度的计数器指标。
func (m *Metrics) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	m.registry.MustRegister(c)
	return c
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Gatherer 返回底层注册表，便于测试或导出。
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExposeHttp 在指定端口启动一个独立的 HTTP 服务器用于暴露指标数据。
// 返回一个清理函数用于优雅关闭该服务器。
func (m *Metrics) ExposeHttp(port string) func() {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
