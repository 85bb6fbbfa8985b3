package stochastic

import "math"

// BrownianMotion 标准布朗运动 W，W(0) = 0，增量 ~ N(0, dt)。
type BrownianMotion struct {
	Horizon float64
	Steps   int
}

// NewBrownianMotion 创建 [0, horizon] 上 steps 步的布朗运动生成器。
func NewBrownianMotion(horizon float64, steps int) (*BrownianMotion, error) {
	if err := validateGrid(horizon, steps); err != nil {
		return nil, err
	}
	return &BrownianMotion{Horizon: horizon, Steps: steps}, nil
}

// Dt 返回步长。
func (b *BrownianMotion) Dt() float64 {
	return b.Horizon / float64(b.Steps)
}

// TimeGrid 返回时间网格。
func (b *BrownianMotion) TimeGrid() []float64 {
	return timeGrid(b.Horizon, b.Steps)
}

// FillPath 将一条路径写入 dst (长度 Steps+1)。
func (b *BrownianMotion) FillPath(dst []float64, s *Stream) {
	sqrtDt := math.Sqrt(b.Dt())
	dst[0] = 0
	for i := 1; i <= b.Steps; i++ {
		dst[i] = dst[i-1] + sqrtDt*s.Normal()
	}
}

// Path 生成一条路径。
func (b *BrownianMotion) Path(s *Stream) []float64 {
	p := make([]float64, b.Steps+1)
	b.FillPath(p, s)
	return p
}

// AntitheticPaths 生成一对对偶路径，第二条使用取反的增量。
func (b *BrownianMotion) AntitheticPaths(s *Stream) ([]float64, []float64) {
	w := make([]float64, b.Steps+1)
	wBar := make([]float64, b.Steps+1)
	sqrtDt := math.Sqrt(b.Dt())
	for i := 1; i <= b.Steps; i++ {
		dw := sqrtDt * s.Normal()
		w[i] = w[i-1] + dw
		wBar[i] = wBar[i-1] - dw
	}
	return w, wBar
}

// Paths 并行生成 n 条路径。
func (b *BrownianMotion) Paths(n int, seed uint64, opts ...Option) (*PathSet, error) {
	if err := validateCount(n); err != nil {
		return nil, err
	}
	paths := allocPaths(n, b.Steps+1)
	err := ForEachChunk(n, seed, func(s *Stream, lo, hi int) {
		for i := lo; i < hi; i++ {
			b.FillPath(paths[i], s)
		}
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &PathSet{Times: b.TimeGrid(), Values: paths}, nil
}
