package pricing

import (
	"math"
	"time"

	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/stochastic"
	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultSeed 未指定种子时使用的固定种子，保证默认结果可复现。
	DefaultSeed uint64 = 42
	// DefaultMCPaths 蒙特卡洛默认路径数。
	DefaultMCPaths = 100_000
	// DefaultHestonSteps Heston 默认时间步数。
	DefaultHestonSteps = 100
	// DefaultLSMPaths、DefaultLSMSteps 为 Longstaff-Schwartz 默认参数。
	DefaultLSMPaths = 50_000
	DefaultLSMSteps = 50
)

// SimulationResult 模拟定价结果。Samples 为每条路径 (对偶时为每对路径) 的贴现收益，
// StdError 可由 Samples 通过 StandardError 复算。
type SimulationResult struct {
	Price    float64
	StdError float64
	Paths    int
	Samples  []float64
}

type simOptions struct {
	paths     int
	steps     int
	seed      uint64
	chunkSize int
	pool      *worker.Pool
	metrics   *metrics.Metrics
}

// SimOption 模拟定价的配置选项。
type SimOption func(*simOptions)

// WithPaths 设置路径数 (对偶变量时为路径对数)。
func WithPaths(n int) SimOption {
	return func(o *simOptions) {
		o.paths = n
	}
}

// WithSteps 设置时间步数。
func WithSteps(n int) SimOption {
	return func(o *simOptions) {
		o.steps = n
	}
}

// WithSeed 设置基础种子。
func WithSeed(seed uint64) SimOption {
	return func(o *simOptions) {
		o.seed = seed
	}
}

// WithChunkSize 设置每个随机流负责的路径数。
func WithChunkSize(n int) SimOption {
	return func(o *simOptions) {
		o.chunkSize = n
	}
}

// WithPool 指定计算池。
func WithPool(p *worker.Pool) SimOption {
	return func(o *simOptions) {
		o.pool = p
	}
}

// WithMetrics 注入指标采集器。
func WithMetrics(m *metrics.Metrics) SimOption {
	return func(o *simOptions) {
		o.metrics = m
	}
}

func buildSimOptions(paths, steps int, opts []SimOption) (simOptions, error) {
	o := simOptions{paths: paths, steps: steps, seed: DefaultSeed, chunkSize: stochastic.DefaultChunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.paths < 1 {
		return o, xerrors.InvalidInput("number of paths must be at least 1, got %d", o.paths)
	}
	if o.steps < 1 {
		return o, xerrors.InvalidInput("steps must be at least 1, got %d", o.steps)
	}
	return o, nil
}

func (o simOptions) streamOptions() []stochastic.Option {
	return []stochastic.Option{stochastic.WithPool(o.pool), stochastic.WithChunkSize(o.chunkSize)}
}

// StandardError 返回样本均值的标准误差 (无偏方差)，样本数不超过 1 时为 0。
func StandardError(samples []float64) float64 {
	n := len(samples)
	if n <= 1 {
		return 0
	}
	_, sd := stat.MeanStdDev(samples, nil)
	return sd / math.Sqrt(float64(n))
}

func summarize(samples []float64) *SimulationResult {
	return &SimulationResult{
		Price:    stat.Mean(samples, nil),
		StdError: StandardError(samples),
		Paths:    len(samples),
		Samples:  samples,
	}
}

func degenerateResult(t Terms) *SimulationResult {
	return &SimulationResult{Price: t.Intrinsic()}
}

// MonteCarlo 以几何布朗运动模拟欧式期权价格，漂移为 r - q，按 e^{-rT} 贴现。
func MonteCarlo(t Terms, opts ...SimOption) (res *SimulationResult, err error) {
	start := time.Now()
	o, err := buildSimOptions(DefaultMCPaths, 1, opts)
	if err != nil {
		return nil, err
	}
	defer func() { o.metrics.ObserveOperation("monte_carlo", start, err) }()

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Expiry == 0 {
		return degenerateResult(t), nil
	}

	g, err := stochastic.NewGBM(t.Spot, t.Rate, t.Div, t.Vol, t.Expiry, o.steps)
	if err != nil {
		return nil, err
	}
	call := t.Type.IsCall()
	disc := math.Exp(-t.Rate * t.Expiry)
	samples := make([]float64, o.paths)
	err = stochastic.ForEachChunk(o.paths, o.seed, func(s *stochastic.Stream, lo, hi int) {
		for i := lo; i < hi; i++ {
			samples[i] = disc * payoff(call, g.TerminalValue(s), t.Strike)
		}
	}, o.streamOptions()...)
	if err != nil {
		return nil, err
	}
	o.metrics.AddPaths("gbm", o.paths)
	return summarize(samples), nil
}

// MonteCarloAntithetic 对偶变量蒙特卡洛：每对路径共享取反的随机数，样本为两条路径收益的平均。
func MonteCarloAntithetic(t Terms, opts ...SimOption) (res *SimulationResult, err error) {
	start := time.Now()
	o, err := buildSimOptions(DefaultMCPaths, 1, opts)
	if err != nil {
		return nil, err
	}
	defer func() { o.metrics.ObserveOperation("monte_carlo_antithetic", start, err) }()

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Expiry == 0 {
		return degenerateResult(t), nil
	}

	g, err := stochastic.NewGBM(t.Spot, t.Rate, t.Div, t.Vol, t.Expiry, o.steps)
	if err != nil {
		return nil, err
	}
	call := t.Type.IsCall()
	disc := math.Exp(-t.Rate * t.Expiry)
	samples := make([]float64, o.paths)
	err = stochastic.ForEachChunk(o.paths, o.seed, func(s *stochastic.Stream, lo, hi int) {
		for i := lo; i < hi; i++ {
			a, b := g.TerminalPair(s)
			samples[i] = disc * 0.5 * (payoff(call, a, t.Strike) + payoff(call, b, t.Strike))
		}
	}, o.streamOptions()...)
	if err != nil {
		return nil, err
	}
	o.metrics.AddPaths("gbm", 2*o.paths)
	return summarize(samples), nil
}

// Heston 在 Heston 随机波动率模型下模拟欧式期权价格，t.Vol 不参与计算。
// 相关矩阵非正定 (|ρ| = 1) 时返回 NumericalInstability。
func Heston(t Terms, params stochastic.HestonParams, opts ...SimOption) (res *SimulationResult, err error) {
	start := time.Now()
	o, err := buildSimOptions(DefaultMCPaths, DefaultHestonSteps, opts)
	if err != nil {
		return nil, err
	}
	defer func() { o.metrics.ObserveOperation("heston", start, err) }()

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Expiry == 0 {
		if err := params.Validate(); err != nil {
			return nil, err
		}
		return degenerateResult(t), nil
	}
	h, err := stochastic.NewHeston(t.Spot, t.Rate, t.Div, t.Expiry, o.steps, params)
	if err != nil {
		return nil, err
	}

	call := t.Type.IsCall()
	disc := math.Exp(-t.Rate * t.Expiry)
	samples := make([]float64, o.paths)
	err = stochastic.ForEachChunk(o.paths, o.seed, func(s *stochastic.Stream, lo, hi int) {
		for i := lo; i < hi; i++ {
			samples[i] = disc * payoff(call, h.TerminalValue(s), t.Strike)
		}
	}, o.streamOptions()...)
	if err != nil {
		return nil, err
	}
	o.metrics.AddPaths("heston", o.paths)
	return summarize(samples), nil
}
