package stochastic

import (
	"math"

	"github.com/wyfcoding/quant/xerrors"
)

// GBM 几何布朗运动 dS = (μ - q) S dt + σ S dW，按精确对数解离散化。
type GBM struct {
	Spot     float64
	Drift    float64 // μ，风险中性定价时为无风险利率
	Dividend float64 // 连续股息率 q
	Vol      float64
	Horizon  float64
	Steps    int
}

// NewGBM 创建几何布朗运动生成器。
func NewGBM(spot, drift, dividend, vol, horizon float64, steps int) (*GBM, error) {
	if !(spot > 0) {
		return nil, xerrors.InvalidInput("spot must be positive, got %v", spot)
	}
	if !(vol >= 0) || math.IsInf(vol, 0) {
		return nil, xerrors.InvalidInput("volatility must be non-negative, got %v", vol)
	}
	if math.IsNaN(drift) || math.IsNaN(dividend) {
		return nil, xerrors.InvalidInput("drift and dividend must be numbers")
	}
	if err := validateGrid(horizon, steps); err != nil {
		return nil, err
	}
	return &GBM{Spot: spot, Drift: drift, Dividend: dividend, Vol: vol, Horizon: horizon, Steps: steps}, nil
}

// Dt 返回步长。
func (g *GBM) Dt() float64 {
	return g.Horizon / float64(g.Steps)
}

// TimeGrid 返回时间网格。
func (g *GBM) TimeGrid() []float64 {
	return timeGrid(g.Horizon, g.Steps)
}

// coefficients 返回每步的对数漂移项与扩散系数。
func (g *GBM) coefficients() (float64, float64) {
	dt := g.Dt()
	return (g.Drift - g.Dividend - 0.5*g.Vol*g.Vol) * dt, g.Vol * math.Sqrt(dt)
}

// FillPath 将一条路径写入 dst (长度 Steps+1)。
func (g *GBM) FillPath(dst []float64, s *Stream) {
	drift, diffusion := g.coefficients()
	dst[0] = g.Spot
	for i := 1; i <= g.Steps; i++ {
		dst[i] = dst[i-1] * math.Exp(drift+diffusion*s.Normal())
	}
}

// FillAntithetic 用同一组正态随机数写入一对对偶路径。
func (g *GBM) FillAntithetic(dst, dstBar []float64, s *Stream) {
	drift, diffusion := g.coefficients()
	dst[0], dstBar[0] = g.Spot, g.Spot
	for i := 1; i <= g.Steps; i++ {
		z := s.Normal()
		dst[i] = dst[i-1] * math.Exp(drift+diffusion*z)
		dstBar[i] = dstBar[i-1] * math.Exp(drift-diffusion*z)
	}
}

// Path 生成一条路径。
func (g *GBM) Path(s *Stream) []float64 {
	p := make([]float64, g.Steps+1)
	g.FillPath(p, s)
	return p
}

// AntitheticPaths 生成一对对偶路径。
func (g *GBM) AntitheticPaths(s *Stream) ([]float64, []float64) {
	p := make([]float64, g.Steps+1)
	pBar := make([]float64, g.Steps+1)
	g.FillAntithetic(p, pBar, s)
	return p, pBar
}

// TerminalValue 只返回路径终值，与 Path(s) 的最后一个点逐位相同。
func (g *GBM) TerminalValue(s *Stream) float64 {
	drift, diffusion := g.coefficients()
	v := g.Spot
	for range g.Steps {
		v *= math.Exp(drift + diffusion*s.Normal())
	}
	return v
}

// TerminalPair 返回一对对偶路径的终值。
func (g *GBM) TerminalPair(s *Stream) (float64, float64) {
	drift, diffusion := g.coefficients()
	v, vBar := g.Spot, g.Spot
	for range g.Steps {
		z := s.Normal()
		v *= math.Exp(drift + diffusion*z)
		vBar *= math.Exp(drift - diffusion*z)
	}
	return v, vBar
}

// Paths 并行生成 n 条路径。
func (g *GBM) Paths(n int, seed uint64, opts ...Option) (*PathSet, error) {
	if err := validateCount(n); err != nil {
		return nil, err
	}
	paths := allocPaths(n, g.Steps+1)
	err := ForEachChunk(n, seed, func(s *Stream, lo, hi int) {
		for i := lo; i < hi; i++ {
			g.FillPath(paths[i], s)
		}
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &PathSet{Times: g.TimeGrid(), Values: paths}, nil
}

// TerminalValues 并行生成 n 个终值，不保存中间点。
func (g *GBM) TerminalValues(n int, seed uint64, opts ...Option) ([]float64, error) {
	if err := validateCount(n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	err := ForEachChunk(n, seed, func(s *Stream, lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = g.TerminalValue(s)
		}
	}, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
