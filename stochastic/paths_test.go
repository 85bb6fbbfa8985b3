package stochastic

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
)

func TestBrownianShapeAndVariance(t *testing.T) {
	bm, err := NewBrownianMotion(2.0, 50)
	if err != nil {
		t.Fatal(err)
	}
	ps, err := bm.Paths(20_000, 11)
	if err != nil {
		t.Fatal(err)
	}
	if ps.Len() != 20_000 || len(ps.Values[0]) != 51 || len(ps.Times) != 51 {
		t.Fatalf("unexpected shape")
	}
	if ps.Times[0] != 0 || ps.Times[50] != 2.0 {
		t.Errorf("time grid endpoints = %v, %v", ps.Times[0], ps.Times[50])
	}
	var sumSq float64
	for _, p := range ps.Values {
		if p[0] != 0 {
			t.Fatalf("brownian path must start at 0")
		}
		sumSq += p[50] * p[50]
	}
	if v := sumSq / float64(ps.Len()); math.Abs(v-2.0) > 0.1 {
		t.Errorf("Var[W_T] = %v, want 2", v)
	}
}

func TestBrownianAntitheticMirror(t *testing.T) {
	bm, _ := NewBrownianMotion(1, 10)
	w, wBar := bm.AntitheticPaths(NewStream(3))
	for i := range w {
		if w[i] != -wBar[i] {
			t.Fatalf("step %d: %v vs %v", i, w[i], wBar[i])
		}
	}
}

func TestGBMPathsReproducibleAcrossPoolSizes(t *testing.T) {
	g, err := NewGBM(100, 0.05, 0.01, 0.2, 1, 12)
	if err != nil {
		t.Fatal(err)
	}
	a, err := g.Paths(5000, 42, WithPool(worker.NewPool(worker.WithSize(1))), WithChunkSize(512))
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Paths(5000, 42, WithPool(worker.NewPool(worker.WithSize(8))), WithChunkSize(512))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Values {
		for j := range a.Values[i] {
			if a.Values[i][j] != b.Values[i][j] {
				t.Fatalf("path %d step %d differs", i, j)
			}
		}
	}
}

func TestGBMTerminalMatchesPath(t *testing.T) {
	g, _ := NewGBM(50, 0.03, 0, 0.3, 0.5, 7)
	p := g.Path(NewStream(8))
	if term := g.TerminalValue(NewStream(8)); term != p[len(p)-1] {
		t.Errorf("terminal %v != path end %v", term, p[len(p)-1])
	}
	a, b := g.AntitheticPaths(NewStream(8))
	ta, tb := g.TerminalPair(NewStream(8))
	if ta != a[7] || tb != b[7] {
		t.Errorf("terminal pair mismatch")
	}
	if a[7] != p[7] {
		t.Errorf("antithetic first leg should equal plain path")
	}
}

func TestGBMTerminalMean(t *testing.T) {
	g, _ := NewGBM(100, 0.05, 0.02, 0.25, 1, 1)
	vals, err := g.TerminalValues(200_000, 1)
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, v := range vals {
		if v <= 0 {
			t.Fatalf("GBM must stay positive")
		}
		sum += v
	}
	want := 100 * math.Exp(0.03)
	if got := sum / float64(len(vals)); math.Abs(got-want) > 0.3 {
		t.Errorf("E[S_T] = %v, want %v", got, want)
	}
}

func TestGBMValidation(t *testing.T) {
	if _, err := NewGBM(-1, 0, 0, 0.2, 1, 10); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("negative spot should be invalid: %v", err)
	}
	if _, err := NewGBM(100, 0, 0, 0.2, 1, 0); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("zero steps should be invalid: %v", err)
	}
	g, _ := NewGBM(100, 0, 0, 0.2, 1, 10)
	if _, err := g.Paths(0, 1); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("zero paths should be invalid: %v", err)
	}
}

func TestHestonVarianceNonNegative(t *testing.T) {
	params := HestonParams{V0: 0.04, Kappa: 0.5, Theta: 0.04, VolOfVol: 1.0, Rho: -0.9}
	if params.FellerSatisfied() {
		t.Fatalf("test parameters should violate feller")
	}
	h, err := NewHeston(100, 0.05, 0, 1, 100, params)
	if err != nil {
		t.Fatal(err)
	}
	ps, err := h.Paths(2000, 17)
	if err != nil {
		t.Fatal(err)
	}
	for i, vs := range ps.Variances {
		if ps.Values[i][0] != 100 || vs[0] != 0.04 {
			t.Fatalf("path %d does not start at initial state", i)
		}
		for j, v := range vs {
			if v < 0 {
				t.Fatalf("path %d step %d negative variance %v", i, j, v)
			}
		}
	}
	price, _ := h.Path(NewStream(4))
	if term := h.TerminalValue(NewStream(4)); term != price[100] {
		t.Errorf("terminal %v != path end %v", term, price[100])
	}
}

func TestHestonFullTruncationKeepsRawVariance(t *testing.T) {
	params := HestonParams{V0: 0.04, Kappa: 0.5, Theta: 0.04, VolOfVol: 1.0, Rho: -0.9}
	h, err := NewHeston(100, 0.05, 0, 1, 100, params)
	if err != nil {
		t.Fatal(err)
	}
	dt := h.Dt()
	sqrtDt := math.Sqrt(dt)
	s := NewStream(11)
	spot, v := h.Spot, params.V0
	for range 100000 {
		next, nv := h.step(spot, v, dt, sqrtDt, s)
		if v < 0 {
			// 负方差时扩散项为零，只剩以 v⁺ = 0 计算的漂移
			if want := v + params.Kappa*params.Theta*dt; math.Abs(nv-want) > 1e-15 {
				t.Fatalf("raw variance %v stepped to %v, want %v", v, nv, want)
			}
			return
		}
		spot, v = next, nv
	}
	t.Fatal("variance never crossed zero")
}

func TestHestonRejectsPerfectCorrelation(t *testing.T) {
	params := HestonParams{V0: 0.04, Kappa: 2, Theta: 0.04, VolOfVol: 0.3, Rho: 1}
	_, err := NewHeston(100, 0.05, 0, 1, 10, params)
	if !xerrors.IsNumerical(err) || !errors.Is(err, xerrors.ErrNotPositiveDefinite) {
		t.Errorf("expected numerical instability, got %v", err)
	}
	params.Rho = 1.5
	if _, err := NewHeston(100, 0.05, 0, 1, 10, params); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("rho outside [-1,1] should be invalid: %v", err)
	}
}
