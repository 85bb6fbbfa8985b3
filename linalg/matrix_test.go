package linalg

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/quant/xerrors"
)

func TestCholeskyReconstructs(t *testing.T) {
	a, err := NewMatrixFromData([][]float64{
		{4, 12, -16},
		{12, 37, -43},
		{-16, -43, 98},
	})
	if err != nil {
		t.Fatal(err)
	}
	l, err := a.Cholesky()
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 0, 0, 6, 1, 0, -8, 5, 3}
	for i, v := range want {
		if math.Abs(l.Data[i]-v) > 1e-12 {
			t.Errorf("L[%d] = %v, want %v", i, l.Data[i], v)
		}
	}
	back, _ := l.Multiply(l.Transpose())
	for i := range a.Data {
		if math.Abs(back.Data[i]-a.Data[i]) > 1e-9 {
			t.Errorf("reconstruction mismatch at %d", i)
		}
	}
}

func TestCholeskyRejectsSingularCorrelation(t *testing.T) {
	corr, _ := NewMatrixFromData([][]float64{{1, 1}, {1, 1}})
	_, err := corr.Cholesky()
	if !errors.Is(err, xerrors.ErrNotPositiveDefinite) {
		t.Errorf("expected not positive definite, got %v", err)
	}
	if !xerrors.IsNumerical(err) {
		t.Errorf("expected numerical category")
	}
}

func TestSolveCholesky(t *testing.T) {
	a, _ := NewMatrixFromData([][]float64{{4, 1}, {1, 3}})
	x, err := a.SolveCholesky([]float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(x[0]-1.0/11) > 1e-12 || math.Abs(x[1]-7.0/11) > 1e-12 {
		t.Errorf("x = %v", x)
	}
}

func TestLeastSquaresRecoversQuadratic(t *testing.T) {
	n := 50
	a := NewMatrix(n, 3)
	y := make([]float64, n)
	for i := range n {
		x := float64(i) / 10
		a.Set(i, 0, 1)
		a.Set(i, 1, x)
		a.Set(i, 2, x*x)
		y[i] = 2 - 3*x + 0.5*x*x
	}
	beta, err := LeastSquares(a, y)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, -3, 0.5}
	for i := range want {
		if math.Abs(beta[i]-want[i]) > 1e-8 {
			t.Errorf("beta[%d] = %v, want %v", i, beta[i], want[i])
		}
	}
}

func TestDimensionErrors(t *testing.T) {
	a := NewMatrix(2, 3)
	if _, err := a.MultiplyVector([]float64{1}); !errors.Is(err, xerrors.ErrDimMismatch) {
		t.Errorf("expected dim mismatch, got %v", err)
	}
	if _, err := a.Cholesky(); !errors.Is(err, xerrors.ErrNotSquare) {
		t.Errorf("expected not square, got %v", err)
	}
	if _, err := NewMatrixFromData(nil); !errors.Is(err, xerrors.ErrEmptyData) {
		t.Errorf("expected empty data, got %v", err)
	}
	if _, err := LeastSquares(NewMatrix(2, 3), []float64{1, 2}); !errors.Is(err, xerrors.ErrInsufficientPaths) {
		t.Errorf("expected insufficient observations, got %v", err)
	}
}
