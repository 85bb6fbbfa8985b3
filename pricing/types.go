// Package pricing 实现欧式与美式期权定价：Black-Scholes 解析解、CRR 二叉树、
// 蒙特卡洛 (含对偶变量与 Heston)、Longstaff-Schwartz 以及批量向量化定价。
package pricing

import (
	"math"
	"strings"

	"github.com/wyfcoding/quant/xerrors"
)

// OptionType 定义期权类型。
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// ParseOptionType 解析期权类型，支持 call/c/put/p，大小写不敏感。
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "C":
		return OptionTypeCall, nil
	case "PUT", "P":
		return OptionTypePut, nil
	}
	return "", xerrors.Derive(xerrors.ErrInvalidOptionType, "unknown option type %q", s)
}

// IsCall 是否为看涨期权。
func (o OptionType) IsCall() bool {
	return o == OptionTypeCall
}

// Valid 是否为受支持的期权类型。
func (o OptionType) Valid() bool {
	return o == OptionTypeCall || o == OptionTypePut
}

// ExerciseStyle 行权方式。
type ExerciseStyle int

const (
	ExerciseAmerican ExerciseStyle = iota
	ExerciseEuropean
)

func (e ExerciseStyle) String() string {
	if e == ExerciseEuropean {
		return "european"
	}
	return "american"
}

// Terms 期权合约与市场参数。时间以年计，利率、波动率、股息率均为连续复利年化小数。
type Terms struct {
	Spot   float64
	Strike float64
	Expiry float64
	Rate   float64
	Vol    float64
	Div    float64
	Type   OptionType
}

// Validate 校验参数：现价、行权价、波动率必须为正，期限与股息率非负，所有值有限。
func (t Terms) Validate() error {
	switch {
	case !t.Type.Valid():
		return xerrors.Derive(xerrors.ErrInvalidOptionType, "unknown option type %q", t.Type)
	case !finite(t.Spot) || t.Spot <= 0:
		return xerrors.InvalidInput("spot must be positive, got %v", t.Spot)
	case !finite(t.Strike) || t.Strike <= 0:
		return xerrors.InvalidInput("strike must be positive, got %v", t.Strike)
	case !finite(t.Expiry) || t.Expiry < 0:
		return xerrors.InvalidInput("time to expiry must be non-negative, got %v", t.Expiry)
	case !finite(t.Vol) || t.Vol <= 0:
		return xerrors.InvalidInput("volatility must be positive, got %v", t.Vol)
	case !finite(t.Rate):
		return xerrors.InvalidInput("rate must be finite, got %v", t.Rate)
	case !finite(t.Div) || t.Div < 0:
		return xerrors.InvalidInput("dividend yield must be non-negative, got %v", t.Div)
	}
	return nil
}

// Intrinsic 返回以当前现价计算的内在价值。
func (t Terms) Intrinsic() float64 {
	return payoff(t.Type.IsCall(), t.Spot, t.Strike)
}

func payoff(call bool, spot, strike float64) float64 {
	if call {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Greeks 价格及敏感度。Vega、Rho 为每 1% 变动，Theta 为每自然日。
type Greeks struct {
	Price float64
	Delta float64
	Gamma float64
	Vega  float64
	Theta float64
	Rho   float64
}

// degenerateGreeks 到期时的结果：内在价值与 0/±1 的 Delta，其余敏感度为零。
func degenerateGreeks(call bool, spot, strike float64) Greeks {
	g := Greeks{Price: payoff(call, spot, strike)}
	switch {
	case call && spot > strike:
		g.Delta = 1
	case !call && spot < strike:
		g.Delta = -1
	}
	return g
}
