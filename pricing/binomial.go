package pricing

import (
	"errors"
	"math"

	"github.com/wyfcoding/quant/xerrors"
)

// DefaultBinomialSteps 二叉树默认步数。
const DefaultBinomialSteps = 100

// Bumps 有限差分希腊字母的扰动量。
type Bumps struct {
	SpotRel float64 // 现价相对扰动
	Vol     float64 // 波动率绝对扰动
	Rate    float64 // 利率绝对扰动
	Time    float64 // Theta 的时间步长 (年)
}

// DefaultBumps 现价 1%，波动率与利率各 0.01，时间 1 天。
var DefaultBumps = Bumps{SpotRel: 0.01, Vol: 0.01, Rate: 0.01, Time: 1.0 / 365}

func (b Bumps) validate() error {
	if !(b.SpotRel > 0) || !(b.Vol > 0) || !(b.Rate > 0) || !(b.Time > 0) {
		return xerrors.InvalidInput("finite-difference bumps must be positive, got %+v", b)
	}
	return nil
}

// BinomialPrice 使用 Cox-Ross-Rubinstein 二叉树定价，内存为 O(steps)。
// 风险中性概率落在 [0, 1] 之外时返回 ErrUnstableLattice。
func BinomialPrice(t Terms, steps int, style ExerciseStyle) (float64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	if steps < 1 {
		return 0, xerrors.InvalidInput("steps must be at least 1, got %d", steps)
	}
	return binomial(t, steps, style)
}

func binomial(t Terms, steps int, style ExerciseStyle) (float64, error) {
	if t.Expiry == 0 {
		return t.Intrinsic(), nil
	}

	dt := t.Expiry / float64(steps)
	u := math.Exp(t.Vol * math.Sqrt(dt))
	d := 1 / u
	a := math.Exp((t.Rate - t.Div) * dt)
	p := (a - d) / (u - d)
	if !(p >= 0 && p <= 1) {
		return 0, xerrors.Numerical(xerrors.ErrUnstableLattice, "p=%.6f with dt=%g, vol=%g, rate-div=%g", p, dt, t.Vol, t.Rate-t.Div)
	}

	disc := math.Exp(-t.Rate * dt)
	pu, pd := disc*p, disc*(1-p)
	call := t.Type.IsCall()
	early := style == ExerciseAmerican

	// 节点 (i, j) 表示第 i 步发生 j 次上涨，价格为 S·u^j·d^(i-j)
	upow := make([]float64, steps+1)
	dpow := make([]float64, steps+1)
	for i := range upow {
		upow[i] = math.Pow(u, float64(i))
		dpow[i] = math.Pow(d, float64(i))
	}

	values := make([]float64, steps+1)
	for j := range values {
		values[j] = payoff(call, t.Spot*upow[j]*dpow[steps-j], t.Strike)
	}

	for i := steps - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			hold := pu*values[j+1] + pd*values[j]
			if early {
				hold = math.Max(hold, payoff(call, t.Spot*upow[j]*dpow[i-j], t.Strike))
			}
			values[j] = hold
		}
	}
	return values[0], nil
}

// BinomialGreeks 以二叉树价格的中心差分估计希腊字母，单位与解析解一致。
func BinomialGreeks(t Terms, steps int, style ExerciseStyle, bumps Bumps) (Greeks, error) {
	if err := t.Validate(); err != nil {
		return Greeks{}, err
	}
	if steps < 1 {
		return Greeks{}, xerrors.InvalidInput("steps must be at least 1, got %d", steps)
	}
	if err := bumps.validate(); err != nil {
		return Greeks{}, err
	}
	if t.Expiry == 0 {
		return degenerateGreeks(t.Type.IsCall(), t.Spot, t.Strike), nil
	}

	price, err := binomial(t, steps, style)
	if err != nil {
		return Greeks{}, err
	}
	g := Greeks{Price: price}
	if g.Delta, g.Gamma, err = spotSensitivities(t, steps, style, bumps, price); err != nil {
		return Greeks{}, err
	}
	if g.Vega, err = volSensitivity(t, steps, style, bumps, price); err != nil {
		return Greeks{}, err
	}
	if g.Rho, err = rateSensitivity(t, steps, style, bumps, price); err != nil {
		return Greeks{}, err
	}
	if g.Theta, err = timeDecay(t, steps, style, bumps, price); err != nil {
		return Greeks{}, err
	}
	return g, nil
}

func spotSensitivities(t Terms, steps int, style ExerciseStyle, bumps Bumps, price float64) (float64, float64, error) {
	h := t.Spot * bumps.SpotRel
	up, down := t, t
	up.Spot += h
	down.Spot -= h
	pUp, err := binomial(up, steps, style)
	if err != nil {
		return 0, 0, err
	}
	pDown, err := binomial(down, steps, style)
	if err != nil {
		return 0, 0, err
	}
	return (pUp - pDown) / (2 * h), (pUp - 2*price + pDown) / (h * h), nil
}

// bumpedDifference 对扰动后的二叉树价格做中心差分。
// 某一侧格点不稳定 (或 down 为 nil) 时退化为另一侧的单侧差分，两侧均不可用才返回错误。
func bumpedDifference(up Terms, down *Terms, h float64, steps int, style ExerciseStyle, price float64) (float64, error) {
	pUp, errUp := binomial(up, steps, style)
	if errUp != nil && !errors.Is(errUp, xerrors.ErrUnstableLattice) {
		return 0, errUp
	}
	if down == nil {
		if errUp != nil {
			return 0, errUp
		}
		return (pUp - price) / h, nil
	}
	pDown, errDown := binomial(*down, steps, style)
	switch {
	case errDown != nil && !errors.Is(errDown, xerrors.ErrUnstableLattice):
		return 0, errDown
	case errUp == nil && errDown == nil:
		return (pUp - pDown) / (2 * h), nil
	case errUp == nil:
		return (pUp - price) / h, nil
	case errDown == nil:
		return (price - pDown) / h, nil
	default:
		return 0, errUp
	}
}

// volSensitivity 返回每 1% 波动率的价格变化；波动率不大于扰动量时只做向上扰动。
func volSensitivity(t Terms, steps int, style ExerciseStyle, bumps Bumps, price float64) (float64, error) {
	h := bumps.Vol
	up, down := t, t
	up.Vol += h
	down.Vol -= h
	lower := &down
	if down.Vol <= 0 {
		lower = nil
	}
	v, err := bumpedDifference(up, lower, h, steps, style, price)
	return v / 100, err
}

func rateSensitivity(t Terms, steps int, style ExerciseStyle, bumps Bumps, price float64) (float64, error) {
	h := bumps.Rate
	up, down := t, t
	up.Rate += h
	down.Rate -= h
	v, err := bumpedDifference(up, &down, h, steps, style, price)
	return v / 100, err
}

// timeDecay 返回每自然日的价格变化；剩余期限不足一个扰动步长时以剩余期限为步长。
// 缩短期限后的格点不稳定时改用延长期限的后向差分。
func timeDecay(t Terms, steps int, style ExerciseStyle, bumps Bumps, price float64) (float64, error) {
	h := math.Min(bumps.Time, t.Expiry)
	later := t
	later.Expiry -= h
	if later.Expiry < 0 {
		later.Expiry = 0
	}
	pLater, err := binomial(later, steps, style)
	if err == nil {
		return (pLater - price) / (h * 365), nil
	}
	if !errors.Is(err, xerrors.ErrUnstableLattice) {
		return 0, err
	}
	earlier := t
	earlier.Expiry += h
	pEarlier, errEarlier := binomial(earlier, steps, style)
	if errEarlier != nil {
		return 0, err
	}
	return (price - pEarlier) / (h * 365), nil
}
