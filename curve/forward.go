package curve

import (
	"math"
	"runtime"

	"github.com/wyfcoding/quant/xerrors"
	"golang.org/x/sync/errgroup"
)

// DefaultForwardStep 瞬时远期利率的差分步长 (年)。
const DefaultForwardStep = 1e-4

// ForwardCurve 由零息曲线派生的远期利率，不单独存储任何利率。
type ForwardCurve struct {
	base *ZeroCurve
}

// NewForwardCurve 基于零息曲线创建远期曲线。
func NewForwardCurve(base *ZeroCurve) *ForwardCurve {
	return &ForwardCurve{base: base}
}

// Base 返回底层零息曲线。
func (f *ForwardCurve) Base() *ZeroCurve {
	return f.base
}

func checkInterval(t1, t2 float64) error {
	if err := checkTime(t1); err != nil {
		return err
	}
	if err := checkTime(t2); err != nil {
		return err
	}
	if t2 <= t1 {
		return xerrors.InvalidInput("end time %v must be after start time %v", t2, t1)
	}
	return nil
}

func (f *ForwardCurve) forwardRate(t1, t2 float64) float64 {
	return (math.Log(f.base.discountFactor(t1)) - math.Log(f.base.discountFactor(t2))) / (t2 - t1)
}

// ForwardRate 返回 [t1, t2] 区间的连续复利远期利率 (ln DF(t1) - ln DF(t2)) / (t2 - t1)。
func (f *ForwardCurve) ForwardRate(t1, t2 float64) (float64, error) {
	if err := checkInterval(t1, t2); err != nil {
		return 0, err
	}
	return f.forwardRate(t1, t2), nil
}

// InstantaneousForward 以中心差分估计 t 时刻的瞬时远期利率，dt 非正时使用 DefaultForwardStep。
// t < dt 时改用 [dt, 2dt] 的前向差分。
func (f *ForwardCurve) InstantaneousForward(t, dt float64) (float64, error) {
	if err := checkTime(t); err != nil {
		return 0, err
	}
	if !(dt > 0) {
		dt = DefaultForwardStep
	}
	if t < dt {
		return f.forwardRate(dt, 2*dt), nil
	}
	return f.forwardRate(t-dt, t+dt), nil
}

// ForwardRatesMany 并行计算多组区间的远期利率。
func (f *ForwardCurve) ForwardRatesMany(starts, ends []float64) ([]float64, error) {
	if len(starts) != len(ends) {
		return nil, xerrors.Derive(xerrors.ErrLengthMismatch, "%d start times, %d end times", len(starts), len(ends))
	}
	for i := range starts {
		if err := checkInterval(starts[i], ends[i]); err != nil {
			return nil, xerrors.Wrap(err, xerrors.ErrInvalidArg, "forward interval").WithContext("index", i)
		}
	}

	out := make([]float64, len(starts))
	const chunk = 256
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for lo := 0; lo < len(starts); lo += chunk {
		hi := min(lo+chunk, len(starts))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				out[i] = f.forwardRate(starts[i], ends[i])
			}
			return nil
		})
	}
	return out, g.Wait()
}

// TermStructure 按步长 step 在 [start, end) 上生成远期利率期限结构，
// 返回每段的起点及对应远期利率，最后一段截断在 end。
func (f *ForwardCurve) TermStructure(start, end, step float64) ([]float64, []float64, error) {
	if err := checkInterval(start, end); err != nil {
		return nil, nil, err
	}
	if !(step > 0) {
		return nil, nil, xerrors.InvalidInput("step must be positive, got %v", step)
	}
	n := int(math.Ceil((end - start) / step))
	times := make([]float64, 0, n)
	rates := make([]float64, 0, n)
	for k := 0; ; k++ {
		t1 := start + float64(k)*step
		if t1 >= end {
			break
		}
		times = append(times, t1)
		rates = append(rates, f.forwardRate(t1, min(t1+step, end)))
	}
	return times, rates, nil
}

// ForwardDiscountFactor 返回从 t1 到 t2 的远期贴现因子 DF(t2) / DF(t1)。
func (f *ForwardCurve) ForwardDiscountFactor(t1, t2 float64) (float64, error) {
	if err := checkInterval(t1, t2); err != nil {
		return 0, err
	}
	return f.base.discountFactor(t2) / f.base.discountFactor(t1), nil
}

// ForwardBondPrice 返回 t1 时刻交割、t2 到期的零息债远期价格，face 非正时取 100。
func (f *ForwardCurve) ForwardBondPrice(t1, t2, face float64) (float64, error) {
	if !(face > 0) {
		face = 100
	}
	fdf, err := f.ForwardDiscountFactor(t1, t2)
	if err != nil {
		return 0, err
	}
	return face * fdf, nil
}
