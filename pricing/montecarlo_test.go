package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/quant/stochastic"
	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
)

func TestMonteCarloWithinStandardErrors(t *testing.T) {
	for _, kind := range []OptionType{OptionTypeCall, OptionTypePut} {
		terms := atm(kind)
		want, _ := BlackScholesPrice(terms)
		res, err := MonteCarlo(terms, WithPaths(200000), WithSeed(7))
		if err != nil {
			t.Fatal(err)
		}
		if res.Paths != 200000 || res.StdError <= 0 {
			t.Fatalf("unexpected result shape: paths=%d se=%v", res.Paths, res.StdError)
		}
		if math.Abs(res.Price-want) > 4*res.StdError {
			t.Errorf("%s: mc %.4f ± %.4f, analytical %.4f", kind, res.Price, res.StdError, want)
		}
	}
}

func TestAntitheticReducesStandardError(t *testing.T) {
	terms := atm(OptionTypeCall)
	plain, err := MonteCarlo(terms, WithPaths(50000), WithSeed(11))
	if err != nil {
		t.Fatal(err)
	}
	anti, err := MonteCarloAntithetic(terms, WithPaths(50000), WithSeed(11))
	if err != nil {
		t.Fatal(err)
	}
	if anti.StdError >= plain.StdError {
		t.Errorf("antithetic se %.5f not below plain se %.5f", anti.StdError, plain.StdError)
	}
	want, _ := BlackScholesPrice(terms)
	if math.Abs(anti.Price-want) > 4*anti.StdError {
		t.Errorf("antithetic %.4f ± %.4f, analytical %.4f", anti.Price, anti.StdError, want)
	}
}

func TestMonteCarloReproducibleAcrossPoolSizes(t *testing.T) {
	terms := Terms{Spot: 100, Strike: 105, Expiry: 0.5, Rate: 0.03, Vol: 0.3, Div: 0.01, Type: OptionTypePut}
	serial, err := MonteCarlo(terms, WithPaths(30000), WithSeed(99), WithChunkSize(1000), WithPool(worker.NewPool(worker.WithSize(1))))
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := MonteCarlo(terms, WithPaths(30000), WithSeed(99), WithChunkSize(1000), WithPool(worker.NewPool(worker.WithSize(8))))
	if err != nil {
		t.Fatal(err)
	}
	if serial.Price != parallel.Price || serial.StdError != parallel.StdError {
		t.Errorf("results depend on pool size: %v vs %v", serial.Price, parallel.Price)
	}
	other, _ := MonteCarlo(terms, WithPaths(30000), WithSeed(100), WithChunkSize(1000))
	if other.Price == serial.Price {
		t.Errorf("different seeds produced identical prices")
	}
}

func TestMonteCarloDegenerateAndInvalid(t *testing.T) {
	terms := atm(OptionTypeCall)
	terms.Expiry = 0
	terms.Spot = 120
	res, err := MonteCarlo(terms)
	if err != nil || res.Price != 20 || res.StdError != 0 {
		t.Errorf("expiry should give intrinsic: %+v, %v", res, err)
	}
	if _, err := MonteCarlo(atm(OptionTypeCall), WithPaths(0)); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("zero paths should be invalid: %v", err)
	}
	bad := atm(OptionTypeCall)
	bad.Vol = -1
	if _, err := MonteCarloAntithetic(bad); !xerrors.IsInvalidInput(err) {
		t.Errorf("negative vol should be invalid: %v", err)
	}
}

func TestHestonDegeneratesToBlackScholes(t *testing.T) {
	terms := atm(OptionTypeCall)
	params := stochastic.HestonParams{V0: 0.04, Kappa: 1.5, Theta: 0.04, VolOfVol: 0, Rho: -0.5}
	res, err := Heston(terms, params, WithPaths(100000), WithSteps(50), WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	want, _ := BlackScholesPrice(terms)
	if math.Abs(res.Price-want) > 4*res.StdError {
		t.Errorf("heston %.4f ± %.4f, analytical %.4f", res.Price, res.StdError, want)
	}
}

func TestHestonSkewedVariance(t *testing.T) {
	terms := atm(OptionTypePut)
	params := stochastic.HestonParams{V0: 0.04, Kappa: 2, Theta: 0.04, VolOfVol: 0.5, Rho: -0.7}
	res, err := Heston(terms, params, WithPaths(20000), WithSteps(50), WithSeed(5))
	if err != nil {
		t.Fatal(err)
	}
	if !(res.Price > 0) || math.IsNaN(res.StdError) {
		t.Errorf("unexpected heston result: %+v", res)
	}
}

func TestHestonPerfectCorrelation(t *testing.T) {
	params := stochastic.HestonParams{V0: 0.04, Kappa: 1, Theta: 0.04, VolOfVol: 0.3, Rho: 1}
	_, err := Heston(atm(OptionTypeCall), params, WithPaths(100))
	if !xerrors.IsNumerical(err) {
		t.Errorf("expected numerical instability for rho=1, got %v", err)
	}
}

func TestHestonExpiredIgnoresCorrelation(t *testing.T) {
	terms := atm(OptionTypePut)
	terms.Expiry = 0
	terms.Spot = 90
	params := stochastic.HestonParams{V0: 0.04, Kappa: 1, Theta: 0.04, VolOfVol: 0.3, Rho: 1}
	res, err := Heston(terms, params, WithPaths(100))
	if err != nil {
		t.Fatalf("expired option should return intrinsic: %v", err)
	}
	if res.Price != 10 || res.StdError != 0 {
		t.Errorf("expired heston = %+v, want intrinsic 10", res)
	}
	params.Rho = 2
	if _, err := Heston(terms, params); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("out-of-range rho should still be invalid at expiry: %v", err)
	}
}

func TestStandardError(t *testing.T) {
	if se := StandardError([]float64{1, 2, 3, 4}); math.Abs(se-math.Sqrt(5.0/3.0)/2) > 1e-12 {
		t.Errorf("standard error = %v", se)
	}
	if StandardError([]float64{5}) != 0 || StandardError(nil) != 0 {
		t.Errorf("fewer than two samples should give zero")
	}
}
