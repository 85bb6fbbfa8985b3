package stochastic

import (
	"context"
	"math"

	"github.com/wyfcoding/quant/linalg"
	"github.com/wyfcoding/quant/logging"
	"github.com/wyfcoding/quant/xerrors"
)

// HestonParams Heston 随机波动率模型参数。
type HestonParams struct {
	V0       float64 // 初始方差
	Kappa    float64 // 方差均值回归速度
	Theta    float64 // 长期方差
	VolOfVol float64 // 方差的波动率 ξ
	Rho      float64 // 资产与方差布朗运动的相关系数
}

// Validate 校验参数范围。
func (p HestonParams) Validate() error {
	switch {
	case !(p.V0 >= 0):
		return xerrors.InvalidInput("initial variance must be non-negative, got %v", p.V0)
	case !(p.Kappa >= 0):
		return xerrors.InvalidInput("kappa must be non-negative, got %v", p.Kappa)
	case !(p.Theta >= 0):
		return xerrors.InvalidInput("theta must be non-negative, got %v", p.Theta)
	case !(p.VolOfVol >= 0):
		return xerrors.InvalidInput("vol of vol must be non-negative, got %v", p.VolOfVol)
	case !(p.Rho >= -1 && p.Rho <= 1):
		return xerrors.InvalidInput("correlation must lie in [-1, 1], got %v", p.Rho)
	}
	return nil
}

// FellerSatisfied 判断 Feller 条件 2κθ > ξ² 是否成立。
func (p HestonParams) FellerSatisfied() bool {
	return 2*p.Kappa*p.Theta > p.VolOfVol*p.VolOfVol
}

// correlationFactor 对 2x2 相关矩阵做 Cholesky 分解，返回第二行 (l21, l22)。
func correlationFactor(rho float64) (float64, float64, error) {
	corr := linalg.NewMatrix(2, 2)
	corr.Set(0, 0, 1)
	corr.Set(0, 1, rho)
	corr.Set(1, 0, rho)
	corr.Set(1, 1, 1)
	l, err := corr.Cholesky()
	if err != nil {
		return 0, 0, err
	}
	return l.Get(1, 0), l.Get(1, 1), nil
}

// Heston 资产价格与方差的联合过程。
// 方差采用完全截断格式：状态保留未截断的 v，漂移与扩散只使用 max(v, 0)，
// 对外输出的方差路径为 max(v, 0)；资产使用对数欧拉格式。
type Heston struct {
	Spot     float64
	Drift    float64
	Dividend float64
	Horizon  float64
	Steps    int
	Params   HestonParams

	l21, l22 float64
}

// NewHeston 创建 Heston 路径生成器。|ρ| = 1 时相关矩阵奇异，返回 NumericalInstability。
func NewHeston(spot, drift, dividend, horizon float64, steps int, params HestonParams) (*Heston, error) {
	if !(spot > 0) {
		return nil, xerrors.InvalidInput("spot must be positive, got %v", spot)
	}
	if err := validateGrid(horizon, steps); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	l21, l22, err := correlationFactor(params.Rho)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.ErrNumerical, "heston correlation matrix")
	}
	if !params.FellerSatisfied() {
		logging.Warn(context.Background(), "heston feller condition violated, variance may hit zero",
			"kappa", params.Kappa, "theta", params.Theta, "vol_of_vol", params.VolOfVol)
	}
	return &Heston{
		Spot: spot, Drift: drift, Dividend: dividend, Horizon: horizon, Steps: steps,
		Params: params, l21: l21, l22: l22,
	}, nil
}

// Dt 返回步长。
func (h *Heston) Dt() float64 {
	return h.Horizon / float64(h.Steps)
}

// TimeGrid 返回时间网格。
func (h *Heston) TimeGrid() []float64 {
	return timeGrid(h.Horizon, h.Steps)
}

// step 推进一步，返回新的价格与未截断的方差。
func (h *Heston) step(spot, v, dt, sqrtDt float64, s *Stream) (float64, float64) {
	z1, z2 := s.CorrelatedNormals(h.l21, h.l22)
	vPos := math.Max(v, 0)
	sqrtV := math.Sqrt(vPos)
	spot *= math.Exp((h.Drift-h.Dividend-0.5*vPos)*dt + sqrtV*sqrtDt*z1)
	v += h.Params.Kappa*(h.Params.Theta-vPos)*dt + h.Params.VolOfVol*sqrtV*sqrtDt*z2
	return spot, v
}

// FillPath 将价格与方差路径写入 price、variance (长度均为 Steps+1)。
func (h *Heston) FillPath(price, variance []float64, s *Stream) {
	dt := h.Dt()
	sqrtDt := math.Sqrt(dt)
	v := h.Params.V0
	price[0], variance[0] = h.Spot, v
	for i := 1; i <= h.Steps; i++ {
		price[i], v = h.step(price[i-1], v, dt, sqrtDt, s)
		variance[i] = math.Max(v, 0)
	}
}

// Path 生成一条价格路径及其方差路径。
func (h *Heston) Path(s *Stream) ([]float64, []float64) {
	price := make([]float64, h.Steps+1)
	variance := make([]float64, h.Steps+1)
	h.FillPath(price, variance, s)
	return price, variance
}

// TerminalValue 只返回价格终值，与 Path(s) 的最后一个价格逐位相同。
func (h *Heston) TerminalValue(s *Stream) float64 {
	dt := h.Dt()
	sqrtDt := math.Sqrt(dt)
	spot, v := h.Spot, h.Params.V0
	for range h.Steps {
		spot, v = h.step(spot, v, dt, sqrtDt, s)
	}
	return spot
}

// Paths 并行生成 n 条价格与方差路径。
func (h *Heston) Paths(n int, seed uint64, opts ...Option) (*PathSet, error) {
	if err := validateCount(n); err != nil {
		return nil, err
	}
	prices := allocPaths(n, h.Steps+1)
	variances := allocPaths(n, h.Steps+1)
	err := ForEachChunk(n, seed, func(s *Stream, lo, hi int) {
		for i := lo; i < hi; i++ {
			h.FillPath(prices[i], variances[i], s)
		}
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &PathSet{Times: h.TimeGrid(), Values: prices, Variances: variances}, nil
}
