package pricing

import (
	"log/slog"
	"sync"
	"time"

	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
)

// DefaultChunkSize 批量定价时每个任务处理的元素个数。
const DefaultChunkSize = 1024

// BatchInput 批量定价的输入，各数组等长，下标相同的元素构成一个合约。
// Divs 为 nil 时股息率视为 0。
type BatchInput struct {
	Spots   []float64
	Strikes []float64
	Times   []float64
	Rates   []float64
	Vols    []float64
	Divs    []float64
}

// Len 校验数组长度并返回元素个数。
func (in BatchInput) Len() (int, error) {
	n := len(in.Spots)
	fields := []struct {
		name string
		size int
	}{
		{"strikes", len(in.Strikes)},
		{"times", len(in.Times)},
		{"rates", len(in.Rates)},
		{"vols", len(in.Vols)},
	}
	if in.Divs != nil {
		fields = append(fields, struct {
			name string
			size int
		}{"divs", len(in.Divs)})
	}
	for _, f := range fields {
		if f.size != n {
			return 0, xerrors.Derive(xerrors.ErrLengthMismatch, "spots has %d elements, %s has %d", n, f.name, f.size)
		}
	}
	return n, nil
}

// At 返回第 i 个合约。
func (in BatchInput) At(kind OptionType, i int) Terms {
	t := Terms{
		Spot:   in.Spots[i],
		Strike: in.Strikes[i],
		Expiry: in.Times[i],
		Rate:   in.Rates[i],
		Vol:    in.Vols[i],
		Type:   kind,
	}
	if in.Divs != nil {
		t.Div = in.Divs[i]
	}
	return t
}

// GreeksBatch 批量希腊字母，与输入顺序一致。
type GreeksBatch struct {
	Price []float64
	Delta []float64
	Gamma []float64
	Vega  []float64
	Theta []float64
	Rho   []float64
}

func newGreeksBatch(n int) GreeksBatch {
	backing := make([]float64, 6*n)
	return GreeksBatch{
		Price: backing[0*n : 1*n : 1*n],
		Delta: backing[1*n : 2*n : 2*n],
		Gamma: backing[2*n : 3*n : 3*n],
		Vega:  backing[3*n : 4*n : 4*n],
		Theta: backing[4*n : 5*n : 5*n],
		Rho:   backing[5*n : 6*n : 6*n],
	}
}

// At 返回第 i 个元素的希腊字母。
func (b GreeksBatch) At(i int) Greeks {
	return Greeks{Price: b.Price[i], Delta: b.Delta[i], Gamma: b.Gamma[i], Vega: b.Vega[i], Theta: b.Theta[i], Rho: b.Rho[i]}
}

// Engine 批量定价引擎：输入按 chunk 切分到工作池，chunk 内按 LaneWidth 宽度批处理。
// 各 chunk 写入互不重叠的输出区间，结果与逐个调用标量定价逐位一致。
type Engine struct {
	pool      *worker.Pool
	chunkSize int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// EngineOption 定义引擎配置选项。
type EngineOption func(*Engine)

// WithEnginePool 指定计算池。
func WithEnginePool(p *worker.Pool) EngineOption {
	return func(e *Engine) {
		e.pool = p
	}
}

// WithEngineChunkSize 指定 chunk 大小。
func WithEngineChunkSize(n int) EngineOption {
	return func(e *Engine) {
		e.chunkSize = n
	}
}

// WithEngineMetrics 注入指标采集器。
func WithEngineMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithEngineLogger 指定日志记录器。
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine 创建批量定价引擎。
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool == nil {
		e.pool = worker.Default()
	}
	if e.chunkSize < 1 {
		e.chunkSize = DefaultChunkSize
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// NewEngineFromConfig 按配置创建引擎及其专属工作池。
func NewEngineFromConfig(cfg config.EngineConfig, m *metrics.Metrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	pool := worker.NewPool(
		worker.WithName("pricing"),
		worker.WithSize(cfg.Workers),
		worker.WithMetrics(m),
		worker.WithLogger(logger),
	)
	return NewEngine(
		WithEnginePool(pool),
		WithEngineChunkSize(cfg.ChunkSize),
		WithEngineMetrics(m),
		WithEngineLogger(logger),
	)
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// DefaultEngine 返回共享的默认引擎。
func DefaultEngine() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = NewEngine()
	})
	return defaultEngine
}

// Pool 返回引擎使用的工作池。
func (e *Engine) Pool() *worker.Pool {
	return e.pool
}

// prepare 校验长度与每个元素，首个非法元素的下标写入错误上下文。
func (e *Engine) prepare(kind OptionType, in BatchInput) (int, error) {
	if !kind.Valid() {
		return 0, xerrors.Derive(xerrors.ErrInvalidOptionType, "unknown option type %q", kind)
	}
	n, err := in.Len()
	if err != nil {
		return 0, err
	}
	for i := range n {
		if err := in.At(kind, i).Validate(); err != nil {
			if xe, ok := xerrors.FromError(err); ok {
				return 0, xe.WithContext("index", i)
			}
			return 0, err
		}
	}
	return n, nil
}

// PriceMany 批量计算欧式期权价格。
func (e *Engine) PriceMany(kind OptionType, in BatchInput) (out []float64, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveOperation("price_many", start, err) }()

	n, err := e.prepare(kind, in)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveBatch("price_many", n)

	out = make([]float64, n)
	call := kind.IsCall()
	err = e.pool.Chunks(n, e.chunkSize, func(_, lo, hi int) {
		var l lane
		var res laneOut
		for base := lo; base < hi; base += LaneWidth {
			w := min(LaneWidth, hi-base)
			l.loadBatch(call, in, base, w)
			l.eval(&res, false)
			copy(out[base:base+w], res.price[:w])
		}
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("batch priced", "kind", kind, "n", n, "duration", time.Since(start))
	return out, nil
}

// GreeksMany 批量计算欧式期权价格与希腊字母。
func (e *Engine) GreeksMany(kind OptionType, in BatchInput) (out GreeksBatch, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveOperation("greeks_many", start, err) }()

	n, err := e.prepare(kind, in)
	if err != nil {
		return GreeksBatch{}, err
	}
	e.metrics.ObserveBatch("greeks_many", n)

	out = newGreeksBatch(n)
	call := kind.IsCall()
	err = e.pool.Chunks(n, e.chunkSize, func(_, lo, hi int) {
		var l lane
		var res laneOut
		for base := lo; base < hi; base += LaneWidth {
			w := min(LaneWidth, hi-base)
			l.loadBatch(call, in, base, w)
			l.eval(&res, true)
			copy(out.Price[base:base+w], res.price[:w])
			copy(out.Delta[base:base+w], res.delta[:w])
			copy(out.Gamma[base:base+w], res.gamma[:w])
			copy(out.Vega[base:base+w], res.vega[:w])
			copy(out.Theta[base:base+w], res.theta[:w])
			copy(out.Rho[base:base+w], res.rho[:w])
		}
	})
	if err != nil {
		return GreeksBatch{}, err
	}
	return out, nil
}

// PriceAmericanMany 以二叉树批量计算美式期权价格。
// 任一元素的格点不稳定时返回下标最小的那个错误。
func (e *Engine) PriceAmericanMany(kind OptionType, in BatchInput, steps int) (out []float64, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveOperation("price_american_many", start, err) }()

	if steps < 1 {
		return nil, xerrors.InvalidInput("steps must be at least 1, got %d", steps)
	}
	n, err := e.prepare(kind, in)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveBatch("price_american_many", n)

	out = make([]float64, n)
	chunkErrs := make([]error, worker.NumChunks(n, e.chunkSize))
	err = e.pool.Chunks(n, e.chunkSize, func(c, lo, hi int) {
		for i := lo; i < hi; i++ {
			price, perr := binomial(in.At(kind, i), steps, ExerciseAmerican)
			if perr != nil {
				if xe, ok := xerrors.FromError(perr); ok {
					xe.WithContext("index", i)
				}
				chunkErrs[c] = perr
				return
			}
			out[i] = price
		}
	})
	if err != nil {
		return nil, err
	}
	for _, cerr := range chunkErrs {
		if cerr != nil {
			return nil, cerr
		}
	}
	return out, nil
}

// PriceMany 使用默认引擎批量定价。
func PriceMany(kind OptionType, in BatchInput) ([]float64, error) {
	return DefaultEngine().PriceMany(kind, in)
}

// GreeksMany 使用默认引擎批量计算希腊字母。
func GreeksMany(kind OptionType, in BatchInput) (GreeksBatch, error) {
	return DefaultEngine().GreeksMany(kind, in)
}

// PriceAmericanMany 使用默认引擎批量计算美式期权价格。
func PriceAmericanMany(kind OptionType, in BatchInput, steps int) ([]float64, error) {
	return DefaultEngine().PriceAmericanMany(kind, in, steps)
}
