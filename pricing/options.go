package pricing

import (
	"github.com/wyfcoding/quant/stochastic"
	"github.com/wyfcoding/quant/xerrors"
)

// Option 欧式与美式期权的公共行为。实现均为不可变值，With* 方法返回新值。
type Option interface {
	Terms() Terms
	Style() ExerciseStyle
	Price() (float64, error)
	Delta() (float64, error)
	Gamma() (float64, error)
	Vega() (float64, error)
	Theta() (float64, error)
	Rho() (float64, error)
	Greeks() (Greeks, error)
}

var (
	_ Option = European{}
	_ Option = American{}
)

// European 欧式期权，价格与希腊字母由解析解给出。
type European struct {
	terms Terms
}

// NewEuropean 校验参数并创建欧式期权。
func NewEuropean(t Terms) (European, error) {
	if err := t.Validate(); err != nil {
		return European{}, err
	}
	return European{terms: t}, nil
}

func (e European) Terms() Terms         { return e.terms }
func (e European) Style() ExerciseStyle { return ExerciseEuropean }

func (e European) Price() (float64, error) { return BlackScholesPrice(e.terms) }

func (e European) Greeks() (Greeks, error) { return BlackScholesGreeks(e.terms) }

func (e European) Delta() (float64, error) {
	g, err := e.Greeks()
	return g.Delta, err
}

func (e European) Gamma() (float64, error) {
	g, err := e.Greeks()
	return g.Gamma, err
}

func (e European) Vega() (float64, error) {
	g, err := e.Greeks()
	return g.Vega, err
}

func (e European) Theta() (float64, error) {
	g, err := e.Greeks()
	return g.Theta, err
}

func (e European) Rho() (float64, error) {
	g, err := e.Greeks()
	return g.Rho, err
}

// PriceBinomial 以欧式行权的二叉树定价，用于与解析解对照。
func (e European) PriceBinomial(steps int) (float64, error) {
	return BinomialPrice(e.terms, steps, ExerciseEuropean)
}

// PriceMonteCarlo 蒙特卡洛定价。
func (e European) PriceMonteCarlo(opts ...SimOption) (*SimulationResult, error) {
	return MonteCarlo(e.terms, opts...)
}

// PriceMonteCarloAntithetic 对偶变量蒙特卡洛定价。
func (e European) PriceMonteCarloAntithetic(opts ...SimOption) (*SimulationResult, error) {
	return MonteCarloAntithetic(e.terms, opts...)
}

// PriceHeston Heston 随机波动率模型下的蒙特卡洛定价。
func (e European) PriceHeston(params stochastic.HestonParams, opts ...SimOption) (*SimulationResult, error) {
	return Heston(e.terms, params, opts...)
}

func (e European) with(t Terms) (European, error) { return NewEuropean(t) }

// WithSpot 返回修改现价后的新期权。
func (e European) WithSpot(v float64) (European, error) {
	t := e.terms
	t.Spot = v
	return e.with(t)
}

// WithStrike 返回修改行权价后的新期权。
func (e European) WithStrike(v float64) (European, error) {
	t := e.terms
	t.Strike = v
	return e.with(t)
}

// WithExpiry 返回修改到期时间后的新期权。
func (e European) WithExpiry(v float64) (European, error) {
	t := e.terms
	t.Expiry = v
	return e.with(t)
}

// WithRate 返回修改无风险利率后的新期权。
func (e European) WithRate(v float64) (European, error) {
	t := e.terms
	t.Rate = v
	return e.with(t)
}

// WithVol 返回修改波动率后的新期权。
func (e European) WithVol(v float64) (European, error) {
	t := e.terms
	t.Vol = v
	return e.with(t)
}

// WithDividend 返回修改股息率后的新期权。
func (e European) WithDividend(v float64) (European, error) {
	t := e.terms
	t.Div = v
	return e.with(t)
}

// American 美式期权，默认由 CRR 二叉树定价，希腊字母由有限差分估计。
type American struct {
	terms Terms
	steps int
	bumps Bumps
}

// NewAmerican 校验参数并创建美式期权，steps 为二叉树步数，不大于 0 时取 DefaultBinomialSteps。
func NewAmerican(t Terms, steps int) (American, error) {
	if err := t.Validate(); err != nil {
		return American{}, err
	}
	if steps <= 0 {
		steps = DefaultBinomialSteps
	}
	return American{terms: t, steps: steps, bumps: DefaultBumps}, nil
}

func (a American) Terms() Terms         { return a.terms }
func (a American) Style() ExerciseStyle { return ExerciseAmerican }
func (a American) Steps() int           { return a.steps }
func (a American) Bumps() Bumps         { return a.bumps }

func (a American) Price() (float64, error) { return binomial(a.terms, a.steps, ExerciseAmerican) }

func (a American) Greeks() (Greeks, error) {
	return BinomialGreeks(a.terms, a.steps, ExerciseAmerican, a.bumps)
}

func (a American) Delta() (float64, error) {
	if a.terms.Expiry == 0 {
		return degenerateGreeks(a.terms.Type.IsCall(), a.terms.Spot, a.terms.Strike).Delta, nil
	}
	price, err := a.Price()
	if err != nil {
		return 0, err
	}
	delta, _, err := spotSensitivities(a.terms, a.steps, ExerciseAmerican, a.bumps, price)
	return delta, err
}

func (a American) Gamma() (float64, error) {
	if a.terms.Expiry == 0 {
		return 0, nil
	}
	price, err := a.Price()
	if err != nil {
		return 0, err
	}
	_, gamma, err := spotSensitivities(a.terms, a.steps, ExerciseAmerican, a.bumps, price)
	return gamma, err
}

func (a American) Vega() (float64, error) {
	if a.terms.Expiry == 0 {
		return 0, nil
	}
	price, err := a.Price()
	if err != nil {
		return 0, err
	}
	return volSensitivity(a.terms, a.steps, ExerciseAmerican, a.bumps, price)
}

func (a American) Theta() (float64, error) {
	if a.terms.Expiry == 0 {
		return 0, nil
	}
	price, err := a.Price()
	if err != nil {
		return 0, err
	}
	return timeDecay(a.terms, a.steps, ExerciseAmerican, a.bumps, price)
}

func (a American) Rho() (float64, error) {
	if a.terms.Expiry == 0 {
		return 0, nil
	}
	price, err := a.Price()
	if err != nil {
		return 0, err
	}
	return rateSensitivity(a.terms, a.steps, ExerciseAmerican, a.bumps, price)
}

// PriceLSM 以 Longstaff-Schwartz 蒙特卡洛定价，degree 为回归多项式阶数。
func (a American) PriceLSM(degree int, opts ...SimOption) (*SimulationResult, error) {
	return NewLSMPricer(degree).Price(a.terms, opts...)
}

// European 返回相同参数的欧式期权。
func (a American) European() European {
	return European{terms: a.terms}
}

func (a American) with(t Terms) (American, error) {
	if err := t.Validate(); err != nil {
		return American{}, err
	}
	a.terms = t
	return a, nil
}

// WithSteps 返回修改二叉树步数后的新期权。
func (a American) WithSteps(steps int) (American, error) {
	if steps < 1 {
		return American{}, xerrors.InvalidInput("steps must be at least 1, got %d", steps)
	}
	a.steps = steps
	return a, nil
}

// WithBumps 返回修改有限差分扰动量后的新期权。
func (a American) WithBumps(b Bumps) (American, error) {
	if err := b.validate(); err != nil {
		return American{}, err
	}
	a.bumps = b
	return a, nil
}

// WithSpot 返回修改现价后的新期权。
func (a American) WithSpot(v float64) (American, error) {
	t := a.terms
	t.Spot = v
	return a.with(t)
}

// WithStrike 返回修改行权价后的新期权。
func (a American) WithStrike(v float64) (American, error) {
	t := a.terms
	t.Strike = v
	return a.with(t)
}

// WithExpiry 返回修改到期时间后的新期权。
func (a American) WithExpiry(v float64) (American, error) {
	t := a.terms
	t.Expiry = v
	return a.with(t)
}

// WithRate 返回修改无风险利率后的新期权。
func (a American) WithRate(v float64) (American, error) {
	t := a.terms
	t.Rate = v
	return a.with(t)
}

// WithVol 返回修改波动率后的新期权。
func (a American) WithVol(v float64) (American, error) {
	t := a.terms
	t.Vol = v
	return a.with(t)
}

// WithDividend 返回修改股息率后的新期权。
func (a American) WithDividend(v float64) (American, error) {
	t := a.terms
	t.Div = v
	return a.with(t)
}
