package curve

import (
	"math"
	"runtime"
	"slices"

	"github.com/wyfcoding/quant/xerrors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/interp"
)

// ZeroCurve 自举得到的零息曲线，构造后不可变，可在多个 goroutine 间共享。
// 节点处精确返回自举值；节点区间外按端点零息利率水平外推，DF(0) = 1。
type ZeroCurve struct {
	method     InterpolationMethod
	securities []Security
	maturities []float64
	dfs        []float64
	zeros      []float64
	pred       interp.Predictor // 节点少于 2 个时为 nil
}

// NewZeroCurve 按期限严格递增的债券序列自举曲线。
// 零息债 DF = price / face；付息债以已自举部分折现中间票息后求解到期 DF。
func NewZeroCurve(securities []Security, method InterpolationMethod) (*ZeroCurve, error) {
	if len(securities) == 0 {
		return nil, xerrors.Derive(xerrors.ErrEmptyData, "curve needs at least one security")
	}
	if !method.valid() {
		return nil, xerrors.Derive(xerrors.ErrInvalidInterpolation, "unknown interpolation method %d", int(method))
	}
	for i, s := range securities {
		if err := s.Validate(); err != nil {
			return nil, withIndex(err, i)
		}
		if i == 0 {
			continue
		}
		prev := securities[i-1].Maturity
		switch {
		case s.Maturity == prev:
			return nil, xerrors.Derive(xerrors.ErrDuplicateMaturity, "maturity %v appears twice", s.Maturity).WithContext("index", i)
		case s.Maturity < prev:
			return nil, xerrors.Derive(xerrors.ErrUnsortedMaturities, "maturity %v follows %v", s.Maturity, prev).WithContext("index", i)
		}
	}

	n := len(securities)
	c := &ZeroCurve{
		method:     method,
		securities: slices.Clone(securities),
		maturities: make([]float64, 0, n),
		dfs:        make([]float64, 0, n),
		zeros:      make([]float64, 0, n),
	}
	for i, s := range c.securities {
		df, err := c.bootstrap(s)
		if err != nil {
			return nil, err
		}
		if !(df > 0) || math.IsInf(df, 0) {
			return nil, xerrors.Numerical(xerrors.ErrNonPositiveDiscount,
				"security %d (maturity %v) bootstraps to DF=%v", i, s.Maturity, df)
		}
		c.maturities = append(c.maturities, s.Maturity)
		c.dfs = append(c.dfs, df)
		c.zeros = append(c.zeros, -math.Log(df)/s.Maturity)
	}
	if err := c.fit(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromVectors 直接由期限与连续复利零息利率构造曲线。
func FromVectors(maturities, zeroRates []float64, method InterpolationMethod) (*ZeroCurve, error) {
	if len(maturities) != len(zeroRates) {
		return nil, xerrors.Derive(xerrors.ErrLengthMismatch, "%d maturities, %d zero rates", len(maturities), len(zeroRates))
	}
	securities := make([]Security, len(maturities))
	for i, t := range maturities {
		if math.IsNaN(zeroRates[i]) || math.IsInf(zeroRates[i], 0) {
			return nil, xerrors.InvalidInput("zero rate at %v must be finite, got %v", t, zeroRates[i]).WithContext("index", i)
		}
		securities[i] = Security{Maturity: t, Price: math.Exp(-zeroRates[i] * t), FaceValue: 1}
	}
	return NewZeroCurve(securities, method)
}

func (c *ZeroCurve) bootstrap(s Security) (float64, error) {
	face := s.Face()
	if s.IsZeroCoupon() {
		return s.Price / face, nil
	}

	coupon := s.CouponRate * face / float64(s.Frequency)
	dates := couponDates(s.Maturity, s.Frequency)
	if len(dates) > 0 && len(c.maturities) == 0 {
		return 0, xerrors.InvalidInput("coupon bond maturing at %v needs shorter securities to discount its coupons", s.Maturity)
	}
	if err := c.fit(); err != nil {
		return 0, err
	}
	var pv float64
	for _, t := range dates {
		pv += coupon * c.discountFactor(t)
	}
	return (s.Price - pv) / (coupon + face), nil
}

// couponTolerance 小于该值的首期付息视为落在估值日，不计入。
const couponTolerance = 1e-9

// couponDates 自到期日按付息周期倒推，返回到期前的付息时点 (升序，不含到期日)。
func couponDates(maturity float64, frequency int) []float64 {
	var dates []float64
	for k := 1; ; k++ {
		t := maturity - float64(k)/float64(frequency)
		if t <= couponTolerance {
			break
		}
		dates = append(dates, t)
	}
	slices.Reverse(dates)
	return dates
}

// fit 按当前节点重建插值器。LogLinear 作用于 ln DF，其余作用于零息利率；
// 节点不足 3 个时样条退化为线性。
func (c *ZeroCurve) fit() error {
	n := len(c.maturities)
	if n < 2 {
		c.pred = nil
		return nil
	}
	ys := make([]float64, n)
	for i := range ys {
		if c.method == LogLinear {
			ys[i] = math.Log(c.dfs[i])
		} else {
			ys[i] = c.zeros[i]
		}
	}

	var p interp.FittablePredictor
	switch {
	case n < 3 || c.method == Linear || c.method == LogLinear:
		p = &interp.PiecewiseLinear{}
	case c.method == CubicSpline:
		p = &interp.NaturalCubic{}
	default:
		p = &interp.FritschButland{}
	}
	if err := p.Fit(slices.Clone(c.maturities), ys); err != nil {
		return xerrors.Wrap(err, xerrors.ErrNumerical, "fit "+c.method.String()+" interpolation")
	}
	c.pred = p
	return nil
}

func (c *ZeroCurve) zeroRate(t float64) float64 {
	n := len(c.maturities)
	i, found := slices.BinarySearch(c.maturities, t)
	switch {
	case found:
		return c.zeros[i]
	case i == 0:
		return c.zeros[0]
	case i == n:
		return c.zeros[n-1]
	case c.method == LogLinear:
		return -c.pred.Predict(t) / t
	default:
		return c.pred.Predict(t)
	}
}

func (c *ZeroCurve) discountFactor(t float64) float64 {
	if t == 0 {
		return 1
	}
	i, found := slices.BinarySearch(c.maturities, t)
	switch {
	case found:
		return c.dfs[i]
	case c.method == LogLinear && i > 0 && i < len(c.maturities):
		return math.Exp(c.pred.Predict(t))
	default:
		return math.Exp(-c.zeroRate(t) * t)
	}
}

func withIndex(err error, i int) error {
	if xe, ok := xerrors.FromError(err); ok {
		return xe.WithContext("index", i)
	}
	return err
}

func checkTime(t float64) error {
	if !(t >= 0) || math.IsInf(t, 0) {
		return xerrors.InvalidInput("time must be non-negative and finite, got %v", t)
	}
	return nil
}

// ZeroRate 返回期限 t 的连续复利零息利率，t = 0 时取最短端利率。
func (c *ZeroCurve) ZeroRate(t float64) (float64, error) {
	if err := checkTime(t); err != nil {
		return 0, err
	}
	return c.zeroRate(t), nil
}

// DiscountFactor 返回期限 t 的贴现因子 exp(-z(t)·t)。
func (c *ZeroCurve) DiscountFactor(t float64) (float64, error) {
	if err := checkTime(t); err != nil {
		return 0, err
	}
	return c.discountFactor(t), nil
}

func (c *ZeroCurve) Method() InterpolationMethod { return c.method }
func (c *ZeroCurve) Len() int                    { return len(c.maturities) }
func (c *ZeroCurve) Securities() []Security      { return slices.Clone(c.securities) }
func (c *ZeroCurve) Maturities() []float64       { return slices.Clone(c.maturities) }
func (c *ZeroCurve) ZeroRates() []float64        { return slices.Clone(c.zeros) }
func (c *ZeroCurve) DiscountFactors() []float64  { return slices.Clone(c.dfs) }

// WithSecurity 返回加入一条债券后重新自举的新曲线，原曲线不变。
func (c *ZeroCurve) WithSecurity(s Security) (*ZeroCurve, error) {
	i, found := slices.BinarySearchFunc(c.securities, s.Maturity, func(e Security, t float64) int {
		switch {
		case e.Maturity < t:
			return -1
		case e.Maturity > t:
			return 1
		}
		return 0
	})
	if found {
		return nil, xerrors.Derive(xerrors.ErrDuplicateMaturity, "maturity %v already on the curve", s.Maturity)
	}
	return NewZeroCurve(slices.Insert(slices.Clone(c.securities), i, s), c.method)
}

// CashFlow 一笔在 Time 年后发生的现金流。
type CashFlow struct {
	Time   float64 `csv:"time" json:"time"`
	Amount float64 `csv:"amount" json:"amount"`
}

// PresentValue 以曲线贴现一组现金流。
func (c *ZeroCurve) PresentValue(flows []CashFlow) (float64, error) {
	var pv float64
	for i, f := range flows {
		if err := checkTime(f.Time); err != nil {
			return 0, xerrors.Wrap(err, xerrors.ErrInvalidArg, "cash flow").WithContext("index", i)
		}
		pv += f.Amount * c.discountFactor(f.Time)
	}
	return pv, nil
}

// PresentValueMany 并行计算多组现金流的现值，结果与输入顺序一致。
func (c *ZeroCurve) PresentValueMany(portfolios [][]CashFlow) ([]float64, error) {
	out := make([]float64, len(portfolios))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, flows := range portfolios {
		g.Go(func() error {
			pv, err := c.PresentValue(flows)
			if err != nil {
				return xerrors.Wrap(err, xerrors.ErrInvalidArg, "present value").WithContext("portfolio", i)
			}
			out[i] = pv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
