package stochastic

import (
	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
)

// DefaultChunkSize 为每个随机流负责的路径数。
const DefaultChunkSize = 4096

// PathSet 保存一组模拟路径，每条路径包含 Steps+1 个点且从初始值开始。
type PathSet struct {
	Times     []float64
	Values    [][]float64
	Variances [][]float64 // 仅 Heston 模型填充
}

// Len 返回路径条数。
func (ps *PathSet) Len() int {
	return len(ps.Values)
}

// Options 控制并行路径生成。
type Options struct {
	Pool      *worker.Pool
	ChunkSize int
}

// Option 定义配置选项。
type Option func(*Options)

// WithPool 指定计算池，默认使用 worker.Default()。
func WithPool(p *worker.Pool) Option {
	return func(o *Options) {
		o.Pool = p
	}
}

// WithChunkSize 指定每个随机流负责的路径数。
// 相同种子与相同划分下结果逐位可复现，与 worker 数量和调度顺序无关。
func WithChunkSize(n int) Option {
	return func(o *Options) {
		o.ChunkSize = n
	}
}

func buildOptions(opts []Option) Options {
	o := Options{ChunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Pool == nil {
		o.Pool = worker.Default()
	}
	if o.ChunkSize < 1 {
		o.ChunkSize = DefaultChunkSize
	}
	return o
}

// ForEachChunk 把 n 条路径按 chunk 划分并行处理，第 c 个 chunk 独占由 (seed, c) 派生的随机流。
func ForEachChunk(n int, seed uint64, fn func(s *Stream, lo, hi int), opts ...Option) error {
	o := buildOptions(opts)
	return o.Pool.Chunks(n, o.ChunkSize, func(c, lo, hi int) {
		fn(NewWorkerStream(seed, c), lo, hi)
	})
}

// timeGrid 返回 [0, horizon] 上 steps+1 个等距时间点。
func timeGrid(horizon float64, steps int) []float64 {
	grid := make([]float64, steps+1)
	dt := horizon / float64(steps)
	for i := range grid {
		grid[i] = float64(i) * dt
	}
	grid[steps] = horizon
	return grid
}

// allocPaths 以单块连续内存分配 n 条长度为 width 的路径。
func allocPaths(n, width int) [][]float64 {
	backing := make([]float64, n*width)
	paths := make([][]float64, n)
	for i := range paths {
		paths[i] = backing[i*width : (i+1)*width : (i+1)*width]
	}
	return paths
}

func validateGrid(horizon float64, steps int) error {
	if !(horizon >= 0) {
		return xerrors.InvalidInput("horizon must be non-negative, got %v", horizon)
	}
	if steps < 1 {
		return xerrors.InvalidInput("steps must be at least 1, got %d", steps)
	}
	return nil
}

func validateCount(n int) error {
	if n < 1 {
		return xerrors.InvalidInput("number of paths must be at least 1, got %d", n)
	}
	return nil
}
