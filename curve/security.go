// Package curve 从债券报价自举零息收益率曲线，并派生远期利率曲线。
package curve

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/quant/xerrors"
)

// Security 一条债券观测。CouponRate 或 Frequency 为 0 时视为零息债。
type Security struct {
	Maturity   float64 `csv:"maturity" json:"maturity"`       // 剩余期限 (年)
	Price      float64 `csv:"price" json:"price"`             // 市场价格
	FaceValue  float64 `csv:"face_value" json:"face_value"`   // 面值，0 表示 1
	CouponRate float64 `csv:"coupon_rate" json:"coupon_rate"` // 年化票面利率
	Frequency  int     `csv:"frequency" json:"frequency"`     // 每年付息次数
}

// SecurityFromQuote 由定点数报价构造零息债。
func SecurityFromQuote(maturity, price, face decimal.Decimal) Security {
	return Security{
		Maturity:  maturity.InexactFloat64(),
		Price:     price.InexactFloat64(),
		FaceValue: face.InexactFloat64(),
	}
}

// IsZeroCoupon 是否为零息债。
func (s Security) IsZeroCoupon() bool {
	return s.CouponRate == 0 || s.Frequency == 0
}

// Face 返回面值，未设置时为 1。
func (s Security) Face() float64 {
	if s.FaceValue == 0 {
		return 1
	}
	return s.FaceValue
}

// Validate 校验期限、价格、面值为正，票息参数非负。
func (s Security) Validate() error {
	switch {
	case !(s.Maturity > 0) || math.IsInf(s.Maturity, 0):
		return xerrors.InvalidInput("maturity must be positive, got %v", s.Maturity)
	case !(s.Price > 0) || math.IsInf(s.Price, 0):
		return xerrors.InvalidInput("price must be positive, got %v", s.Price)
	case !(s.Face() > 0) || math.IsInf(s.FaceValue, 0):
		return xerrors.InvalidInput("face value must be positive, got %v", s.FaceValue)
	case !(s.CouponRate >= 0) || math.IsInf(s.CouponRate, 0):
		return xerrors.InvalidInput("coupon rate must be non-negative, got %v", s.CouponRate)
	case s.Frequency < 0:
		return xerrors.InvalidInput("coupon frequency must be non-negative, got %d", s.Frequency)
	}
	return nil
}

// InterpolationMethod 节点之间的插值方式。
type InterpolationMethod int

const (
	// LogLinear 对 ln DF 线性插值，即分段常数远期利率。
	LogLinear InterpolationMethod = iota
	// Linear 对零息利率线性插值。
	Linear
	// CubicSpline 对零息利率做自然三次样条。
	CubicSpline
	// MonotoneCubic 对零息利率做 Fritsch-Butland 保单调三次插值。
	MonotoneCubic
)

func (m InterpolationMethod) String() string {
	switch m {
	case Linear:
		return "linear"
	case CubicSpline:
		return "cubic_spline"
	case MonotoneCubic:
		return "monotone_cubic"
	default:
		return "log_linear"
	}
}

func (m InterpolationMethod) valid() bool {
	return m >= LogLinear && m <= MonotoneCubic
}

// ParseInterpolation 解析插值方式名称，空串返回 LogLinear。
func ParseInterpolation(name string) (InterpolationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "log_linear", "loglinear":
		return LogLinear, nil
	case "linear":
		return Linear, nil
	case "cubic", "cubic_spline":
		return CubicSpline, nil
	case "monotone", "monotone_cubic":
		return MonotoneCubic, nil
	}
	return LogLinear, xerrors.Derive(xerrors.ErrInvalidInterpolation, "unknown interpolation method %q", name)
}
