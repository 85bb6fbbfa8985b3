package pricing

import (
	"context"
	"math"
	"time"

	"github.com/wyfcoding/quant/linalg"
	"github.com/wyfcoding/quant/logging"
	"github.com/wyfcoding/quant/stochastic"
	"github.com/wyfcoding/quant/xerrors"
)

// LSMPricer 实现了 Longstaff-Schwartz 最小二乘蒙特卡洛算法。
// 延续价值对基函数 {1, x, ..., x^Degree} 回归，其中 x = S/K。
type LSMPricer struct {
	Degree int // 回归多项式的阶数
}

// NewLSMPricer 创建 LSM 定价器，degree 非正时使用 2 (基函数 {1, S, S²})。
func NewLSMPricer(degree int) *LSMPricer {
	if degree <= 0 {
		degree = 2
	}
	return &LSMPricer{Degree: degree}
}

// Price 计算美式期权价格。
// 某一时间步价内路径少于基函数个数或正规方程奇异时跳过该步，视为继续持有。
func (p *LSMPricer) Price(t Terms, opts ...SimOption) (res *SimulationResult, err error) {
	start := time.Now()
	o, err := buildSimOptions(DefaultLSMPaths, DefaultLSMSteps, opts)
	if err != nil {
		return nil, err
	}
	defer func() { o.metrics.ObserveOperation("lsm", start, err) }()

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Expiry == 0 {
		return degenerateResult(t), nil
	}
	basis := p.Degree + 1
	if o.paths < basis {
		return nil, xerrors.Numerical(xerrors.ErrInsufficientPaths, "%d paths for %d basis functions", o.paths, basis)
	}

	g, err := stochastic.NewGBM(t.Spot, t.Rate, t.Div, t.Vol, t.Expiry, o.steps)
	if err != nil {
		return nil, err
	}
	ps, err := g.Paths(o.paths, o.seed, o.streamOptions()...)
	if err != nil {
		return nil, err
	}
	o.metrics.AddPaths("gbm", o.paths)

	steps := o.steps
	call := t.Type.IsCall()
	dt := t.Expiry / float64(steps)
	// discount[k] 为 k 个时间步的贴现因子
	discount := make([]float64, steps+1)
	for k := range discount {
		discount[k] = math.Exp(-t.Rate * dt * float64(k))
	}

	// cash[i] 为路径 i 在行权步 tau[i] 处的收益
	cash := make([]float64, o.paths)
	tau := make([]int, o.paths)
	for i, path := range ps.Values {
		cash[i] = payoff(call, path[steps], t.Strike)
		tau[i] = steps
	}

	itm := make([]int, 0, o.paths)
	skipped := 0
	for step := steps - 1; step >= 1; step-- {
		itm = itm[:0]
		for i, path := range ps.Values {
			if payoff(call, path[step], t.Strike) > 0 {
				itm = append(itm, i)
			}
		}
		if len(itm) < basis {
			skipped++
			continue
		}

		design := linalg.NewMatrix(len(itm), basis)
		y := make([]float64, len(itm))
		for row, i := range itm {
			x := ps.Values[i][step] / t.Strike
			pow := 1.0
			for c := range basis {
				design.Set(row, c, pow)
				pow *= x
			}
			y[row] = cash[i] * discount[tau[i]-step]
		}

		beta, err := linalg.LeastSquares(design, y)
		if err != nil {
			logging.Debug(context.Background(), "lsm regression skipped", "step", step, "itm", len(itm), "error", err)
			skipped++
			continue
		}

		for row, i := range itm {
			var continuation float64
			for c, b := range beta {
				continuation += b * design.Get(row, c)
			}
			if exercise := payoff(call, ps.Values[i][step], t.Strike); exercise > continuation {
				cash[i] = exercise
				tau[i] = step
			}
		}
	}
	if skipped > 0 {
		logging.Debug(context.Background(), "lsm steps without regression", "skipped", skipped, "steps", steps-1)
	}

	samples := make([]float64, o.paths)
	for i := range samples {
		samples[i] = cash[i] * discount[tau[i]]
	}
	res = summarize(samples)
	// 零时刻立即行权
	if intrinsic := t.Intrinsic(); intrinsic > res.Price {
		res.Price = intrinsic
	}
	return res, nil
}
