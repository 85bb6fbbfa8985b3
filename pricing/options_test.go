package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/quant/xerrors"
)

func TestEuropeanIsImmutable(t *testing.T) {
	opt, err := NewEuropean(atm(OptionTypeCall))
	if err != nil {
		t.Fatal(err)
	}
	bumped, err := opt.WithSpot(110)
	if err != nil {
		t.Fatal(err)
	}
	if opt.Terms().Spot != 100 || bumped.Terms().Spot != 110 {
		t.Errorf("WithSpot mutated the receiver: %v, %v", opt.Terms().Spot, bumped.Terms().Spot)
	}
	p0, _ := opt.Price()
	p1, _ := bumped.Price()
	if !(p1 > p0) {
		t.Errorf("higher spot should raise call value: %v -> %v", p0, p1)
	}
	if _, err := opt.WithVol(0); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("zero vol should be rejected: %v", err)
	}
	if _, err := NewEuropean(Terms{Spot: 100, Strike: 100, Expiry: 1, Vol: 0.2, Type: "X"}); err == nil {
		t.Errorf("invalid option type accepted")
	}
}

func TestOptionInterface(t *testing.T) {
	euro, _ := NewEuropean(atm(OptionTypePut))
	amer, _ := NewAmerican(atm(OptionTypePut), 500)
	for _, opt := range []Option{euro, amer} {
		g, err := opt.Greeks()
		if err != nil {
			t.Fatal(err)
		}
		price, _ := opt.Price()
		if price != g.Price {
			t.Errorf("%s: Price %v, Greeks().Price %v", opt.Style(), price, g.Price)
		}
		for name, fn := range map[string]func() (float64, error){
			"delta": opt.Delta, "gamma": opt.Gamma, "vega": opt.Vega, "theta": opt.Theta, "rho": opt.Rho,
		} {
			if _, err := fn(); err != nil {
				t.Errorf("%s %s: %v", opt.Style(), name, err)
			}
		}
	}
	ep, _ := euro.Price()
	ap, _ := amer.Price()
	if ap < ep {
		t.Errorf("american put %v below european %v", ap, ep)
	}
	if amer.European().Terms() != euro.Terms() {
		t.Errorf("European() should keep terms")
	}
}

func TestAmericanWithers(t *testing.T) {
	amer, err := NewAmerican(atm(OptionTypePut), 200)
	if err != nil {
		t.Fatal(err)
	}
	for _, steps := range []int{0, -5} {
		def, err := NewAmerican(atm(OptionTypePut), steps)
		if err != nil || def.Steps() != DefaultBinomialSteps {
			t.Errorf("steps %d should fall back to default: %v, %d", steps, err, def.Steps())
		}
	}
	if _, err := amer.WithSteps(0); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("WithSteps(0) should be rejected: %v", err)
	}
	more, err := amer.WithSteps(400)
	if err != nil || more.Steps() != 400 || amer.Steps() != 200 {
		t.Errorf("WithSteps: %v, %d, %d", err, more.Steps(), amer.Steps())
	}
	expired, err := amer.WithExpiry(0)
	if err != nil {
		t.Fatal(err)
	}
	if g, _ := expired.Greeks(); g != (Greeks{}) {
		t.Errorf("expired at-the-money put should be worthless: %+v", g)
	}
	divd, err := amer.WithDividend(0.03)
	if err != nil || divd.Terms().Div != 0.03 || amer.Terms().Div != 0 {
		t.Errorf("WithDividend: %v", err)
	}
}

func TestEuropeanAlternativeEngines(t *testing.T) {
	opt, _ := NewEuropean(atm(OptionTypeCall))
	want, _ := opt.Price()
	lattice, err := opt.PriceBinomial(2000)
	if err != nil || math.Abs(lattice-want) > 2e-3 {
		t.Errorf("binomial %v vs %v (%v)", lattice, want, err)
	}
	res, err := opt.PriceMonteCarloAntithetic(WithPaths(20000))
	if err != nil || math.Abs(res.Price-want) > 4*res.StdError {
		t.Errorf("mc %+v vs %v (%v)", res, want, err)
	}
}
