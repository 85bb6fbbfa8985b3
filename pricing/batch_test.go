package pricing

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
)

func randomBatch(n int, withDivs bool) BatchInput {
	r := rand.New(rand.NewPCG(1, 2))
	in := BatchInput{
		Spots:   make([]float64, n),
		Strikes: make([]float64, n),
		Times:   make([]float64, n),
		Rates:   make([]float64, n),
		Vols:    make([]float64, n),
	}
	if withDivs {
		in.Divs = make([]float64, n)
	}
	for i := range n {
		in.Spots[i] = 50 + 100*r.Float64()
		in.Strikes[i] = 50 + 100*r.Float64()
		in.Times[i] = 2 * r.Float64()
		in.Rates[i] = 0.1*r.Float64() - 0.01
		in.Vols[i] = 0.05 + 0.6*r.Float64()
		if withDivs {
			in.Divs[i] = 0.05 * r.Float64()
		}
		if i%97 == 0 {
			in.Times[i] = 0
		}
	}
	return in
}

func TestBatchMatchesScalarExactly(t *testing.T) {
	in := randomBatch(2051, true)
	engine := NewEngine(WithEngineChunkSize(1024), WithEnginePool(worker.NewPool(worker.WithSize(4))))
	for _, kind := range []OptionType{OptionTypeCall, OptionTypePut} {
		prices, err := engine.PriceMany(kind, in)
		if err != nil {
			t.Fatal(err)
		}
		greeks, err := engine.GreeksMany(kind, in)
		if err != nil {
			t.Fatal(err)
		}
		if len(prices) != 2051 || len(greeks.Price) != 2051 {
			t.Fatalf("unexpected lengths %d, %d", len(prices), len(greeks.Price))
		}
		for i := range prices {
			want, err := BlackScholesGreeks(in.At(kind, i))
			if err != nil {
				t.Fatal(err)
			}
			if prices[i] != want.Price {
				t.Fatalf("%s[%d]: batch price %v, scalar %v", kind, i, prices[i], want.Price)
			}
			if greeks.At(i) != want {
				t.Fatalf("%s[%d]: batch greeks %+v, scalar %+v", kind, i, greeks.At(i), want)
			}
		}
	}
}

func TestBatchNilDividends(t *testing.T) {
	in := randomBatch(10, false)
	withZeros := in
	withZeros.Divs = make([]float64, 10)
	a, err := PriceMany(OptionTypeCall, in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := PriceMany(OptionTypeCall, withZeros)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("[%d] nil divs %v, zero divs %v", i, a[i], b[i])
		}
	}
}

func TestBatchValidation(t *testing.T) {
	in := randomBatch(8, false)
	in.Vols = in.Vols[:7]
	if _, err := PriceMany(OptionTypeCall, in); !errors.Is(err, xerrors.ErrLengthMismatch) {
		t.Errorf("expected length mismatch, got %v", err)
	}

	in = randomBatch(8, false)
	in.Strikes[5] = -1
	_, err := GreeksMany(OptionTypePut, in)
	if !xerrors.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if e, ok := xerrors.FromError(err); !ok || e.Context["index"] != 5 {
		t.Errorf("expected offending index in context, got %v", err)
	}

	if _, err := PriceMany("FORWARD", randomBatch(2, false)); !errors.Is(err, xerrors.ErrInvalidOptionType) {
		t.Errorf("expected invalid option type, got %v", err)
	}

	out, err := PriceMany(OptionTypeCall, BatchInput{})
	if err != nil || len(out) != 0 {
		t.Errorf("empty batch: %v, %v", out, err)
	}
}

func TestPriceAmericanMany(t *testing.T) {
	in := randomBatch(37, true)
	engine := NewEngine(WithEngineChunkSize(8))
	out, err := engine.PriceAmericanMany(OptionTypePut, in, 64)
	if err != nil {
		t.Fatal(err)
	}
	for i := range out {
		want, err := BinomialPrice(in.At(OptionTypePut, i), 64, ExerciseAmerican)
		if err != nil {
			t.Fatal(err)
		}
		if out[i] != want {
			t.Errorf("[%d] batch %v, scalar %v", i, out[i], want)
		}
	}

	unstable := BatchInput{
		Spots:   []float64{100, 100},
		Strikes: []float64{100, 100},
		Times:   []float64{1, 1},
		Rates:   []float64{0.05, 0.5},
		Vols:    []float64{0.2, 0.01},
	}
	if _, err := engine.PriceAmericanMany(OptionTypeCall, unstable, 1); !errors.Is(err, xerrors.ErrUnstableLattice) {
		t.Errorf("expected unstable lattice, got %v", err)
	}
}
