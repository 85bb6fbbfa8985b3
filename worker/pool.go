// Package worker 提供固定大小的计算工作池，用于数据并行的定价与模拟任务。
package worker

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/xerrors"
)

// Pool 是一个固定并发度的计算池。
// 每次调用 Do/Chunks 最多同时运行 Size 个任务，任务之间不共享可变状态。
type Pool struct {
	options *poolOptions
	metrics *workerMetrics
}

type workerMetrics struct {
	activeTasks    prometheus.Gauge
	tasksCompleted prometheus.Counter
	taskPanics     prometheus.Counter
}

type poolOptions struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Name    string
	Size    int
}

// Option 定义配置选项。
type Option func(*poolOptions)

// WithName 设置池名称。
func WithName(name string) Option {
	return func(o *poolOptions) {
		o.Name = name
	}
}

// WithSize 设置并发度，小于 1 时使用 GOMAXPROCS。
func WithSize(size int) Option {
	return func(o *poolOptions) {
		o.Size = size
	}
}

// WithLogger 设置日志记录器。
func WithLogger(logger *slog.Logger) Option {
	return func(o *poolOptions) {
		o.Logger = logger
	}
}

// WithMetrics 注入指标采集器.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *poolOptions) {
		o.Metrics = m
	}
}

// NewPool 创建一个新的计算池。
func NewPool(opts ...Option) *Pool {
	options := &poolOptions{
		Name:   "compute",
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.Size < 1 {
		options.Size = runtime.GOMAXPROCS(0)
	}

	p := &Pool{options: options}

	if options.Metrics != nil {
		labels := prometheus.Labels{"pool": options.Name}
		p.metrics = &workerMetrics{
			activeTasks: options.Metrics.NewGauge(prometheus.GaugeOpts{
				Name:        "worker_pool_active_tasks",
				Help:        "Number of tasks currently running in the pool",
				ConstLabels: labels,
			}),
			tasksCompleted: options.Metrics.NewCounter(prometheus.CounterOpts{
				Name:        "worker_pool_tasks_completed_total",
				Help:        "Total number of tasks completed by the pool",
				ConstLabels: labels,
			}),
			taskPanics: options.Metrics.NewCounter(prometheus.CounterOpts{
				Name:        "worker_pool_task_panics_total",
				Help:        "Total number of tasks that panicked",
				ConstLabels: labels,
			}),
		}
	}

	options.Logger.Debug("Worker pool ready", "name", options.Name, "size", options.Size)
	return p
}

// Size 返回池的并发度。
func (p *Pool) Size() int {
	return p.options.Size
}

// Do 并行执行 n 个相互独立的任务 fn(0..n-1)，全部完成后返回。
// 任务中的 panic 会被捕获并以 Internal 错误返回，多个错误会合并。
func (p *Pool) Do(n int, fn func(i int)) error {
	if n <= 0 {
		return nil
	}
	if n == 1 || p.options.Size == 1 {
		// 单任务或单 worker 时直接在调用方 goroutine 中执行
		for i := range n {
			if err := p.run(i, fn); err != nil {
				return err
			}
		}
		return nil
	}

	workers := pool.New().WithMaxGoroutines(min(p.options.Size, n)).WithErrors()
	for i := range n {
		workers.Go(func() error {
			return p.run(i, fn)
		})
	}
	return workers.Wait()
}

func (p *Pool) run(i int, fn func(i int)) error {
	if p.metrics != nil {
		p.metrics.activeTasks.Inc()
		defer p.metrics.activeTasks.Dec()
	}

	if r := panics.Try(func() { fn(i) }); r != nil {
		if p.metrics != nil {
			p.metrics.taskPanics.Inc()
		}
		p.options.Logger.Error("Worker task panic recovered", "pool", p.options.Name, "task", i, "panic", r.Value)
		return xerrors.Internal(fmt.Sprintf("task %d panicked", i), r.AsError())
	}

	if p.metrics != nil {
		p.metrics.tasksCompleted.Inc()
	}
	return nil
}

// Chunks 将 [0, total) 静态划分为大小为 chunkSize 的连续区间并行处理。
// fn 收到区间序号 c 与半开区间 [lo, hi)，各区间互不重叠。
func (p *Pool) Chunks(total, chunkSize int, fn func(c, lo, hi int)) error {
	if total <= 0 {
		return nil
	}
	if chunkSize < 1 {
		chunkSize = total
	}
	n := NumChunks(total, chunkSize)
	start := time.Now()
	err := p.Do(n, func(c int) {
		lo := c * chunkSize
		hi := min(lo+chunkSize, total)
		fn(c, lo, hi)
	})
	p.options.Logger.Debug("Chunked run finished", "pool", p.options.Name, "total", total, "chunks", n, "duration", time.Since(start))
	return err
}

// NumChunks 返回 total 个元素按 chunkSize 划分得到的区间数。
func NumChunks(total, chunkSize int) int {
	if total <= 0 || chunkSize < 1 {
		return 0
	}
	return (total + chunkSize - 1) / chunkSize
}

var (
	defaultPool *Pool
	defaultOnce sync.Once
)

// Default 返回进程级共享的计算池，大小为 GOMAXPROCS。
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = NewPool(WithName("default"))
	})
	return defaultPool
}
