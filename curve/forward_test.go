package curve

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/quant/xerrors"
)

func flatForward(t *testing.T, z float64) *ForwardCurve {
	t.Helper()
	c, err := FromVectors([]float64{1, 10}, []float64{z, z}, LogLinear)
	if err != nil {
		t.Fatal(err)
	}
	return NewForwardCurve(c)
}

func TestForwardRateDefinition(t *testing.T) {
	c, _ := NewZeroCurve(zeroBonds(), CubicSpline)
	f := NewForwardCurve(c)
	got, err := f.ForwardRate(0.75, 3.5)
	if err != nil {
		t.Fatal(err)
	}
	d1, _ := c.DiscountFactor(0.75)
	d2, _ := c.DiscountFactor(3.5)
	if want := (math.Log(d1) - math.Log(d2)) / (3.5 - 0.75); math.Abs(got-want) > 1e-15 {
		t.Errorf("forward = %v, want %v", got, want)
	}
	if f.Base() != c {
		t.Errorf("Base() should return the zero curve")
	}
	if _, err := f.ForwardRate(2, 2); !xerrors.IsInvalidInput(err) {
		t.Errorf("empty interval should be invalid, got %v", err)
	}
	if _, err := f.ForwardRate(-1, 2); !xerrors.IsInvalidInput(err) {
		t.Errorf("negative start should be invalid, got %v", err)
	}
}

func TestFlatCurveForwards(t *testing.T) {
	f := flatForward(t, 0.03)
	for _, tm := range []float64{0, 0.5, 4, 20} {
		inst, err := f.InstantaneousForward(tm, 0)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(inst-0.03) > 1e-9 {
			t.Errorf("instantaneous forward at %v = %v", tm, inst)
		}
	}
	fdf, _ := f.ForwardDiscountFactor(1, 3)
	if math.Abs(fdf-math.Exp(-0.06)) > 1e-15 {
		t.Errorf("forward DF = %v", fdf)
	}
	price, _ := f.ForwardBondPrice(1, 3, 0)
	if math.Abs(price-100*math.Exp(-0.06)) > 1e-12 {
		t.Errorf("forward bond price = %v", price)
	}
}

func TestTermStructure(t *testing.T) {
	f := flatForward(t, 0.02)
	times, rates, err := f.TermStructure(0, 1, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 4 || len(rates) != 4 || times[3] != 0.75 {
		t.Fatalf("unexpected grid %v", times)
	}
	for _, r := range rates {
		if math.Abs(r-0.02) > 1e-12 {
			t.Errorf("rate %v", r)
		}
	}
	if _, _, err := f.TermStructure(0, 1, 0); !xerrors.IsInvalidInput(err) {
		t.Errorf("zero step should be invalid, got %v", err)
	}
}

func TestForwardRatesMany(t *testing.T) {
	c, _ := NewZeroCurve(zeroBonds(), MonotoneCubic)
	f := NewForwardCurve(c)
	starts := make([]float64, 1000)
	ends := make([]float64, 1000)
	for i := range starts {
		starts[i] = float64(i) * 0.005
		ends[i] = starts[i] + 0.5
	}
	out, err := f.ForwardRatesMany(starts, ends)
	if err != nil {
		t.Fatal(err)
	}
	for i := range out {
		want, _ := f.ForwardRate(starts[i], ends[i])
		if out[i] != want {
			t.Fatalf("[%d] batch %v, scalar %v", i, out[i], want)
		}
	}
	if _, err := f.ForwardRatesMany(starts, ends[:10]); !errors.Is(err, xerrors.ErrLengthMismatch) {
		t.Errorf("expected length mismatch, got %v", err)
	}
	ends[7] = starts[7]
	if _, err := f.ForwardRatesMany(starts, ends); !xerrors.IsInvalidInput(err) {
		t.Errorf("expected invalid interval, got %v", err)
	}
}
